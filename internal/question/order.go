package question

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// orderedSet maintains the dense 1..n question_order sequence for one
// question table. Both families (questions, essay_questions) share the
// same ordering columns, so one component serves both.
//
// Every mutating path runs inside the caller's transaction and starts by
// locking the owning exam row, so two renumbering operations against the
// same exam serialize instead of interleaving.
type orderedSet struct {
	table string
}

// lockExam takes a row lock on the exam and doubles as the existence
// check for it.
func (o orderedSet) lockExam(ctx context.Context, tx *sql.Tx, examID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM exams WHERE id = $1 FOR UPDATE`, examID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrExamNotFound
	}
	if err != nil {
		return fmt.Errorf("lock exam: %w", err)
	}
	return nil
}

func (o orderedSet) maxOrder(ctx context.Context, tx *sql.Tx, examID int64) (int, error) {
	var max int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(question_order), 0) FROM `+o.table+` WHERE exam_id = $1`,
		examID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max order: %w", err)
	}
	return max, nil
}

// compact closes the gap left by a deletion: every sibling whose order
// was greater than the deleted one shifts down by exactly one.
func (o orderedSet) compact(ctx context.Context, tx *sql.Tx, examID int64, deletedOrder int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE `+o.table+`
		 SET question_order = question_order - 1, updated_at = now()
		 WHERE exam_id = $1 AND question_order > $2`,
		examID, deletedOrder)
	if err != nil {
		return fmt.Errorf("compact order: %w", err)
	}
	return nil
}

// reorder assigns order = position+1 for the supplied id list. The list
// must be an exact permutation of the exam's current ids for this table;
// anything else is rejected before any row changes.
func (o orderedSet) reorder(ctx context.Context, tx *sql.Tx, examID int64, ids []int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM `+o.table+` WHERE exam_id = $1 FOR UPDATE`, examID)
	if err != nil {
		return fmt.Errorf("load question ids: %w", err)
	}
	defer rows.Close()

	existing := make([]int64, 0, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan question id: %w", err)
		}
		existing = append(existing, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate question ids: %w", err)
	}

	if err := verifyPermutation(existing, ids); err != nil {
		return err
	}

	for pos, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+o.table+`
			 SET question_order = $3, updated_at = now()
			 WHERE id = $1 AND exam_id = $2`,
			id, examID, pos+1); err != nil {
			return fmt.Errorf("apply order: %w", err)
		}
	}
	return nil
}

// verifyPermutation checks that supplied is exactly the existing id set,
// each id once. Strict equality keeps the 1..n invariant intact: a
// subset reorder would leave duplicate or dangling positions behind.
func verifyPermutation(existing, supplied []int64) error {
	if len(supplied) != len(existing) {
		return fmt.Errorf("%w: reorder must list all %d questions of the exam, got %d", ErrNotInExam, len(existing), len(supplied))
	}
	known := make(map[int64]bool, len(existing))
	for _, id := range existing {
		known[id] = false
	}
	for _, id := range supplied {
		seen, ok := known[id]
		if !ok {
			return fmt.Errorf("%w: question %d does not belong to this exam", ErrNotInExam, id)
		}
		if seen {
			return fmt.Errorf("%w: question %d appears twice in the reorder list", ErrNotInExam, id)
		}
		known[id] = true
	}
	return nil
}
