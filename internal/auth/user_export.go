package auth

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportUsersExcel renders the full user roster as an xlsx workbook for
// the admin back office.
func (s *Service) ExportUsersExcel(ctx context.Context) ([]byte, error) {
	items, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []string{"email", "name", "phone", "city", "role", "is_paid", "payment_verified_at", "created_at"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, it := range items {
		row := i + 2
		paidAt := ""
		if it.PaymentVerifiedAt != nil {
			paidAt = it.PaymentVerifiedAt.Format("2006-01-02 15:04:05")
		}
		values := []any{
			it.Email,
			it.Name,
			it.Phone,
			it.City,
			it.Role,
			it.IsPaid,
			paidAt,
			it.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "H", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}
