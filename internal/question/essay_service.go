package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EssayService manages the guided-essay question family. It mirrors
// Service over its own table and order sequence, so structured and
// essay questions of one exam never share positions.
type EssayService struct {
	db     *sql.DB
	orders orderedSet
}

func NewEssayService(db *sql.DB) *EssayService {
	return &EssayService{db: db, orders: orderedSet{table: "essay_questions"}}
}

type EssayInput struct {
	ExamID             int64
	Type               string
	Title              string
	TitleArabic        string
	SubTitle           string
	SubTitleArabic     string
	Question           string
	QuestionArabic     string
	Prompt             string
	PromptArabic       string
	Points             int
	Order              *int
	ProgressivePhrases []ProgressivePhrase
	Criteria           map[string]json.RawMessage
}

type EssayQuestion struct {
	ID                 int64                      `json:"id"`
	ExamID             int64                      `json:"exam_id"`
	Type               string                     `json:"type"`
	Title              string                     `json:"title,omitempty"`
	TitleArabic        string                     `json:"title_arabic,omitempty"`
	SubTitle           string                     `json:"sub_title,omitempty"`
	SubTitleArabic     string                     `json:"sub_title_arabic,omitempty"`
	Question           string                     `json:"question"`
	QuestionArabic     string                     `json:"question_arabic,omitempty"`
	Prompt             string                     `json:"prompt,omitempty"`
	PromptArabic       string                     `json:"prompt_arabic,omitempty"`
	Points             int                        `json:"points"`
	Order              int                        `json:"order"`
	ProgressivePhrases []ProgressivePhrase        `json:"progressive_phrases,omitempty"`
	Criteria           map[string]json.RawMessage `json:"criteria,omitempty"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

type EssayQuestionList struct {
	Questions      []EssayQuestion `json:"questions"`
	TotalQuestions int             `json:"total_questions"`
	TotalPoints    int             `json:"total_points"`
}

const essayColumns = `
	id, exam_id, type, title, title_arabic, sub_title, sub_title_arabic,
	question, question_arabic, prompt, prompt_arabic, points, question_order,
	progressive_phrases, criteria, created_at, updated_at`

func (s *EssayService) ListByExam(ctx context.Context, examID int64) (*EssayQuestionList, error) {
	if examID <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.ensureExamExists(ctx, examID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+essayColumns+`
		FROM essay_questions
		WHERE exam_id = $1
		ORDER BY question_order ASC
	`, examID)
	if err != nil {
		return nil, fmt.Errorf("query essay questions: %w", err)
	}
	defer rows.Close()

	items := make([]EssayQuestion, 0)
	for rows.Next() {
		item, err := scanEssayQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan essay question: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate essay questions: %w", err)
	}

	points := 0
	for _, item := range items {
		points += item.Points
	}
	return &EssayQuestionList{Questions: items, TotalQuestions: len(items), TotalPoints: points}, nil
}

func (s *EssayService) GetByID(ctx context.Context, questionID int64) (*EssayQuestion, error) {
	if questionID <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+essayColumns+`
		FROM essay_questions
		WHERE id = $1
	`, questionID)
	item, err := scanEssayQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("load essay question: %w", err)
	}
	return item, nil
}

func (s *EssayService) ListByBook(ctx context.Context, bookID string) ([]EssayQuestion, error) {
	if bookID == "" {
		return nil, ErrInvalidInput
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualifiedEssayColumns("q")+`
		FROM essay_questions q
		JOIN exams e ON e.id = q.exam_id
		WHERE e.book_id = $1
		ORDER BY q.exam_id ASC, q.question_order ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query essay questions by book: %w", err)
	}
	defer rows.Close()

	items := make([]EssayQuestion, 0)
	for rows.Next() {
		item, err := scanEssayQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan essay question: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate essay questions: %w", err)
	}
	return items, nil
}

func (s *EssayService) Create(ctx context.Context, in EssayInput) (*EssayQuestion, error) {
	if in.ExamID <= 0 {
		return nil, fmt.Errorf("%w: exam_id is required", ErrInvalidInput)
	}
	if err := validateEssayInput(in); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.orders.lockExam(ctx, tx, in.ExamID); err != nil {
		return nil, err
	}

	order := 0
	if in.Order != nil && *in.Order > 0 {
		order = *in.Order
	} else {
		max, err := s.orders.maxOrder(ctx, tx, in.ExamID)
		if err != nil {
			return nil, err
		}
		order = max + 1
	}

	item, err := insertEssayQuestion(ctx, tx, in, order)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

func (s *EssayService) CreateBulk(ctx context.Context, examID int64, inputs []EssayInput) ([]EssayQuestion, error) {
	if examID <= 0 || len(inputs) == 0 {
		return nil, fmt.Errorf("%w: exam_id and a non-empty question list are required", ErrInvalidInput)
	}
	for i := range inputs {
		inputs[i].ExamID = examID
		if err := validateEssayInput(inputs[i]); err != nil {
			return nil, fmt.Errorf("questions[%d]: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.orders.lockExam(ctx, tx, examID); err != nil {
		return nil, err
	}
	max, err := s.orders.maxOrder(ctx, tx, examID)
	if err != nil {
		return nil, err
	}

	items := make([]EssayQuestion, 0, len(inputs))
	for i, in := range inputs {
		order := max + i + 1
		if in.Order != nil && *in.Order > 0 {
			order = *in.Order
		}
		item, err := insertEssayQuestion(ctx, tx, in, order)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return items, nil
}

func (s *EssayService) Update(ctx context.Context, questionID int64, in EssayInput) (*EssayQuestion, error) {
	if questionID <= 0 {
		return nil, ErrInvalidInput
	}
	if err := validateEssayInput(in); err != nil {
		return nil, err
	}

	phrases, err := marshalColumn(in.ProgressivePhrases)
	if err != nil {
		return nil, err
	}
	criteria, err := marshalColumn(in.Criteria)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE essay_questions
		SET type = $2,
			title = NULLIF($3, ''),
			title_arabic = NULLIF($4, ''),
			sub_title = NULLIF($5, ''),
			sub_title_arabic = NULLIF($6, ''),
			question = $7,
			question_arabic = NULLIF($8, ''),
			prompt = NULLIF($9, ''),
			prompt_arabic = NULLIF($10, ''),
			points = $11,
			progressive_phrases = $12,
			criteria = $13,
			updated_at = now()
		WHERE id = $1
		RETURNING `+essayColumns+`
	`, questionID, in.Type, in.Title, in.TitleArabic, in.SubTitle, in.SubTitleArabic,
		in.Question, in.QuestionArabic, in.Prompt, in.PromptArabic, in.Points, phrases, criteria)

	item, err := scanEssayQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("update essay question: %w", err)
	}
	return item, nil
}

func (s *EssayService) Delete(ctx context.Context, questionID int64) error {
	if questionID <= 0 {
		return ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var examID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT exam_id FROM essay_questions WHERE id = $1`, questionID).Scan(&examID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("load essay question: %w", err)
	}
	if err := s.orders.lockExam(ctx, tx, examID); err != nil {
		return err
	}

	var deletedOrder int
	if err := tx.QueryRowContext(ctx,
		`DELETE FROM essay_questions WHERE id = $1 RETURNING question_order`,
		questionID).Scan(&deletedOrder); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete essay question: %w", err)
	}
	if err := s.orders.compact(ctx, tx, examID, deletedOrder); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *EssayService) DeleteAllByExam(ctx context.Context, examID int64) error {
	if examID <= 0 {
		return ErrInvalidInput
	}
	if err := s.ensureExamExists(ctx, examID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM essay_questions WHERE exam_id = $1`, examID); err != nil {
		return fmt.Errorf("delete essay questions: %w", err)
	}
	return nil
}

func (s *EssayService) Reorder(ctx context.Context, examID int64, ids []int64) ([]EssayQuestion, error) {
	if examID <= 0 || len(ids) == 0 {
		return nil, fmt.Errorf("%w: exam_id and a non-empty id list are required", ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.orders.lockExam(ctx, tx, examID); err != nil {
		return nil, err
	}
	if err := s.orders.reorder(ctx, tx, examID, ids); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	list, err := s.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	return list.Questions, nil
}

func (s *EssayService) ensureExamExists(ctx context.Context, examID int64) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM exams WHERE id = $1)`, examID).Scan(&exists); err != nil {
		return fmt.Errorf("check exam exists: %w", err)
	}
	if !exists {
		return ErrExamNotFound
	}
	return nil
}

func insertEssayQuestion(ctx context.Context, tx *sql.Tx, in EssayInput, order int) (*EssayQuestion, error) {
	phrases, err := marshalColumn(in.ProgressivePhrases)
	if err != nil {
		return nil, err
	}
	criteria, err := marshalColumn(in.Criteria)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO essay_questions (
			exam_id, type, title, title_arabic, sub_title, sub_title_arabic,
			question, question_arabic, prompt, prompt_arabic, points, question_order,
			progressive_phrases, criteria, created_at, updated_at
		) VALUES (
			$1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
			$7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, $12,
			$13, $14, now(), now()
		)
		RETURNING `+essayColumns+`
	`, in.ExamID, in.Type, in.Title, in.TitleArabic, in.SubTitle, in.SubTitleArabic,
		in.Question, in.QuestionArabic, in.Prompt, in.PromptArabic, in.Points, order,
		phrases, criteria)

	item, err := scanEssayQuestion(row)
	if err != nil {
		return nil, fmt.Errorf("insert essay question: %w", err)
	}
	return item, nil
}

func scanEssayQuestion(scanner interface{ Scan(dest ...any) error }) (*EssayQuestion, error) {
	var out EssayQuestion
	var title, titleArabic, subTitle, subTitleArabic sql.NullString
	var questionArabic, prompt, promptArabic sql.NullString
	var phrases, criteria []byte

	if err := scanner.Scan(
		&out.ID,
		&out.ExamID,
		&out.Type,
		&title,
		&titleArabic,
		&subTitle,
		&subTitleArabic,
		&out.Question,
		&questionArabic,
		&prompt,
		&promptArabic,
		&out.Points,
		&out.Order,
		&phrases,
		&criteria,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}

	out.Title = title.String
	out.TitleArabic = titleArabic.String
	out.SubTitle = subTitle.String
	out.SubTitleArabic = subTitleArabic.String
	out.QuestionArabic = questionArabic.String
	out.Prompt = prompt.String
	out.PromptArabic = promptArabic.String

	if err := unmarshalColumn(phrases, &out.ProgressivePhrases); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(criteria, &out.Criteria); err != nil {
		return nil, err
	}
	return &out, nil
}

func qualifiedEssayColumns(alias string) string {
	return alias + `.id, ` + alias + `.exam_id, ` + alias + `.type, ` + alias + `.title, ` +
		alias + `.title_arabic, ` + alias + `.sub_title, ` + alias + `.sub_title_arabic, ` +
		alias + `.question, ` + alias + `.question_arabic, ` + alias + `.prompt, ` +
		alias + `.prompt_arabic, ` + alias + `.points, ` + alias + `.question_order, ` +
		alias + `.progressive_phrases, ` + alias + `.criteria, ` + alias + `.created_at, ` + alias + `.updated_at`
}
