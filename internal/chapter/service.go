package chapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MTOUIRI/SmartJihawi/internal/exam"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrBookNotFound     = errors.New("book not found")
	ErrDuplicateChapter = errors.New("chapter number already used for this book")
)

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

type Chapter struct {
	ID            int64     `json:"id"`
	BookID        string    `json:"book_id"`
	ChapterNumber int       `json:"chapter_number"`
	Title         string    `json:"title"`
	TitleArabic   string    `json:"title_arabic,omitempty"`
	Duration      int       `json:"duration,omitempty"`
	VideoURL      string    `json:"video_url,omitempty"`
	Resume        string    `json:"resume,omitempty"`
	ResumeArabic  string    `json:"resume_arabic,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ChapterInput struct {
	BookID        string
	ChapterNumber int
	Title         string
	TitleArabic   string
	Duration      int
	VideoURL      string
	Resume        string
	ResumeArabic  string
}

func validateChapterInput(in ChapterInput) error {
	if strings.TrimSpace(in.BookID) == "" {
		return fmt.Errorf("%w: book_id is required", ErrInvalidInput)
	}
	if _, ok := exam.BookByID(in.BookID); !ok {
		return fmt.Errorf("%w: %s", ErrBookNotFound, in.BookID)
	}
	if in.ChapterNumber <= 0 {
		return fmt.Errorf("%w: chapter_number must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}
	return nil
}

const chapterColumns = `
	id, book_id, chapter_number, title, title_arabic, duration, video_url,
	resume, resume_arabic, created_at, updated_at`

func (s *Service) ListByBook(ctx context.Context, bookID string) ([]Chapter, error) {
	if _, ok := exam.BookByID(bookID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chapterColumns+`
		FROM chapters
		WHERE book_id = $1
		ORDER BY chapter_number ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query chapters: %w", err)
	}
	defer rows.Close()

	items := make([]Chapter, 0)
	for rows.Next() {
		item, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chapters: %w", err)
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, chapterID int64) (*Chapter, error) {
	if chapterID <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+chapterColumns+`
		FROM chapters
		WHERE id = $1
	`, chapterID)
	item, err := scanChapter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChapterNotFound
		}
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, in ChapterInput) (*Chapter, error) {
	if err := validateChapterInput(in); err != nil {
		return nil, err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM chapters WHERE book_id = $1 AND chapter_number = $2)
	`, in.BookID, in.ChapterNumber).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check duplicate chapter: %w", err)
	}
	if exists {
		return nil, ErrDuplicateChapter
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO chapters (
			book_id, chapter_number, title, title_arabic, duration, video_url,
			resume, resume_arabic, created_at, updated_at
		) VALUES (
			$1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''),
			NULLIF($7, ''), NULLIF($8, ''), now(), now()
		)
		RETURNING `+chapterColumns+`
	`, in.BookID, in.ChapterNumber, in.Title, in.TitleArabic, in.Duration, in.VideoURL,
		in.Resume, in.ResumeArabic)

	item, err := scanChapter(row)
	if err != nil {
		return nil, fmt.Errorf("insert chapter: %w", err)
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, chapterID int64, in ChapterInput) (*Chapter, error) {
	if chapterID <= 0 {
		return nil, ErrInvalidInput
	}
	if err := validateChapterInput(in); err != nil {
		return nil, err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM chapters
			WHERE book_id = $1 AND chapter_number = $2 AND id <> $3
		)
	`, in.BookID, in.ChapterNumber, chapterID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check duplicate chapter: %w", err)
	}
	if exists {
		return nil, ErrDuplicateChapter
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE chapters
		SET book_id = $2,
			chapter_number = $3,
			title = $4,
			title_arabic = NULLIF($5, ''),
			duration = $6,
			video_url = NULLIF($7, ''),
			resume = NULLIF($8, ''),
			resume_arabic = NULLIF($9, ''),
			updated_at = now()
		WHERE id = $1
		RETURNING `+chapterColumns+`
	`, chapterID, in.BookID, in.ChapterNumber, in.Title, in.TitleArabic, in.Duration,
		in.VideoURL, in.Resume, in.ResumeArabic)

	item, err := scanChapter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChapterNotFound
		}
		return nil, fmt.Errorf("update chapter: %w", err)
	}
	return item, nil
}

// Delete removes the chapter with its QCM bank in one transaction.
func (s *Service) Delete(ctx context.Context, chapterID int64) error {
	if chapterID <= 0 {
		return ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM qcm_questions WHERE chapter_id = $1`, chapterID); err != nil {
		return fmt.Errorf("delete chapter qcm questions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE id = $1`, chapterID)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	if affected == 0 {
		return ErrChapterNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func scanChapter(scanner interface{ Scan(dest ...any) error }) (*Chapter, error) {
	var out Chapter
	var titleArabic, videoURL, resume, resumeArabic sql.NullString
	var duration sql.NullInt64
	if err := scanner.Scan(
		&out.ID,
		&out.BookID,
		&out.ChapterNumber,
		&out.Title,
		&titleArabic,
		&duration,
		&videoURL,
		&resume,
		&resumeArabic,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	out.TitleArabic = titleArabic.String
	out.Duration = int(duration.Int64)
	out.VideoURL = videoURL.String
	out.Resume = resume.String
	out.ResumeArabic = resumeArabic.String
	return &out, nil
}
