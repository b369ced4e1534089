package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrExamNotFound     = errors.New("exam not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrNotInExam        = errors.New("question not in exam")
)

// Service manages the structured question family of an exam: typed
// payload validation, dense ordering and persistence.
type Service struct {
	db     *sql.DB
	orders orderedSet
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, orders: orderedSet{table: "questions"}}
}

type QuestionInput struct {
	ExamID            int64
	Type              string
	Question          string
	QuestionArabic    string
	Instruction       string
	InstructionArabic string
	Points            int
	Order             *int
	Options           []ChoiceOption
	SubQuestions      []SubQuestion
	MatchingPairs     []MatchingPair
	TableContent      *TableContent
	DragDropWords     *DragDropWords
	Helper            json.RawMessage
	Answer            string
	AnswerArabic      string
}

type Question struct {
	ID                int64               `json:"id"`
	ExamID            int64               `json:"exam_id"`
	Type              string              `json:"type"`
	Question          string              `json:"question"`
	QuestionArabic    string              `json:"question_arabic,omitempty"`
	Instruction       string              `json:"instruction,omitempty"`
	InstructionArabic string              `json:"instruction_arabic,omitempty"`
	Points            int                 `json:"points"`
	Order             int                 `json:"order"`
	Options           []ChoiceOption      `json:"options,omitempty"`
	SubQuestions      []SubQuestion       `json:"sub_questions,omitempty"`
	MatchingPairs     []MatchingPair      `json:"matching_pairs,omitempty"`
	TableContent      *TableContent       `json:"table_content,omitempty"`
	DragDropWords     *DragDropWords      `json:"drag_drop_words,omitempty"`
	Helper            json.RawMessage     `json:"helper,omitempty"`
	Answer            string              `json:"answer,omitempty"`
	AnswerArabic      string              `json:"answer_arabic,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// QuestionList is the list-by-exam view: ordered items plus the totals
// the exam editor displays in its header.
type QuestionList struct {
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
	TotalPoints    int        `json:"total_points"`
}

const questionColumns = `
	id, exam_id, type, question, question_arabic, instruction, instruction_arabic,
	points, question_order, options, sub_questions, matching_pairs, table_content,
	drag_drop_words, helper, answer, answer_arabic, created_at, updated_at`

func (s *Service) ListByExam(ctx context.Context, examID int64) (*QuestionList, error) {
	if examID <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.ensureExamExists(ctx, examID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE exam_id = $1
		ORDER BY question_order ASC
	`, examID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	items := make([]Question, 0)
	for rows.Next() {
		item, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	points := 0
	for _, item := range items {
		points += item.Points
	}
	return &QuestionList{Questions: items, TotalQuestions: len(items), TotalPoints: points}, nil
}

func (s *Service) GetByID(ctx context.Context, questionID int64) (*Question, error) {
	if questionID <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE id = $1
	`, questionID)
	item, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("load question: %w", err)
	}
	return item, nil
}

func (s *Service) ListByBook(ctx context.Context, bookID string) ([]Question, error) {
	if bookID == "" {
		return nil, ErrInvalidInput
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualifiedQuestionColumns("q")+`
		FROM questions q
		JOIN exams e ON e.id = q.exam_id
		WHERE e.book_id = $1
		ORDER BY q.exam_id ASC, q.question_order ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query questions by book: %w", err)
	}
	defer rows.Close()

	items := make([]Question, 0)
	for rows.Next() {
		item, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return items, nil
}

// Create validates the payload, appends the question at the end of its
// exam's sequence (unless an explicit order is supplied) and persists it
// in one transaction.
func (s *Service) Create(ctx context.Context, in QuestionInput) (*Question, error) {
	if in.ExamID <= 0 {
		return nil, fmt.Errorf("%w: exam_id is required", ErrInvalidInput)
	}
	if err := validateQuestionInput(in); err != nil {
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

	item, err := insertQuestion(ctx, tx, in, order)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// CreateBulk persists a batch of questions in input order, assigning
// orders max+1..max+N from a single max lookup. If any item fails
// validation, nothing is persisted.
func (s *Service) CreateBulk(ctx context.Context, examID int64, inputs []QuestionInput) ([]Question, error) {
	if examID <= 0 || len(inputs) == 0 {
		return nil, fmt.Errorf("%w: exam_id and a non-empty question list are required", ErrInvalidInput)
	}
	for i := range inputs {
		inputs[i].ExamID = examID
		if err := validateQuestionInput(inputs[i]); err != nil {
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

	items := make([]Question, 0, len(inputs))
	for i, in := range inputs {
		order := max + i + 1
		if in.Order != nil && *in.Order > 0 {
			order = *in.Order
		}
		item, err := insertQuestion(ctx, tx, in, order)
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

// Update replaces the question's content wholesale after re-validating
// it. The owning exam and the position in the sequence are immutable
// here; positions only move through Reorder.
func (s *Service) Update(ctx context.Context, questionID int64, in QuestionInput) (*Question, error) {
	if questionID <= 0 {
		return nil, ErrInvalidInput
	}
	if err := validateQuestionInput(in); err != nil {
		return nil, err
	}

	options, err := marshalColumn(in.Options)
	if err != nil {
		return nil, err
	}
	subQuestions, err := marshalColumn(in.SubQuestions)
	if err != nil {
		return nil, err
	}
	pairs, err := marshalColumn(in.MatchingPairs)
	if err != nil {
		return nil, err
	}
	table, err := marshalColumn(in.TableContent)
	if err != nil {
		return nil, err
	}
	dragDrop, err := marshalColumn(in.DragDropWords)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE questions
		SET type = $2,
			question = $3,
			question_arabic = NULLIF($4, ''),
			instruction = NULLIF($5, ''),
			instruction_arabic = NULLIF($6, ''),
			points = $7,
			options = $8,
			sub_questions = $9,
			matching_pairs = $10,
			table_content = $11,
			drag_drop_words = $12,
			helper = $13,
			answer = NULLIF($14, ''),
			answer_arabic = NULLIF($15, ''),
			updated_at = now()
		WHERE id = $1
		RETURNING `+questionColumns+`
	`, questionID, in.Type, in.Question, in.QuestionArabic, in.Instruction, in.InstructionArabic,
		in.Points, options, subQuestions, pairs, table, dragDrop, rawColumn(in.Helper),
		in.Answer, in.AnswerArabic)

	item, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	return item, nil
}

// Delete removes a question and compacts the sibling orders in one
// transaction, so no read can observe the gap.
func (s *Service) Delete(ctx context.Context, questionID int64) error {
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
		`SELECT exam_id FROM questions WHERE id = $1`, questionID).Scan(&examID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("load question: %w", err)
	}
	if err := s.orders.lockExam(ctx, tx, examID); err != nil {
		return err
	}

	var deletedOrder int
	if err := tx.QueryRowContext(ctx,
		`DELETE FROM questions WHERE id = $1 RETURNING question_order`,
		questionID).Scan(&deletedOrder); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	if err := s.orders.compact(ctx, tx, examID, deletedOrder); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// DeleteAllByExam empties the exam's structured question set. No
// renumbering is needed, nothing remains to renumber.
func (s *Service) DeleteAllByExam(ctx context.Context, examID int64) error {
	if examID <= 0 {
		return ErrInvalidInput
	}
	if err := s.ensureExamExists(ctx, examID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE exam_id = $1`, examID); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	return nil
}

// Reorder applies a full permutation of the exam's question ids and
// returns the resulting ordered list.
func (s *Service) Reorder(ctx context.Context, examID int64, ids []int64) ([]Question, error) {
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

func (s *Service) ensureExamExists(ctx context.Context, examID int64) error {
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

func insertQuestion(ctx context.Context, tx *sql.Tx, in QuestionInput, order int) (*Question, error) {
	options, err := marshalColumn(in.Options)
	if err != nil {
		return nil, err
	}
	subQuestions, err := marshalColumn(in.SubQuestions)
	if err != nil {
		return nil, err
	}
	pairs, err := marshalColumn(in.MatchingPairs)
	if err != nil {
		return nil, err
	}
	table, err := marshalColumn(in.TableContent)
	if err != nil {
		return nil, err
	}
	dragDrop, err := marshalColumn(in.DragDropWords)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO questions (
			exam_id, type, question, question_arabic, instruction, instruction_arabic,
			points, question_order, options, sub_questions, matching_pairs, table_content,
			drag_drop_words, helper, answer, answer_arabic, created_at, updated_at
		) VALUES (
			$1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
			$7, $8, $9, $10, $11, $12,
			$13, $14, NULLIF($15, ''), NULLIF($16, ''), now(), now()
		)
		RETURNING `+questionColumns+`
	`, in.ExamID, in.Type, in.Question, in.QuestionArabic, in.Instruction, in.InstructionArabic,
		in.Points, order, options, subQuestions, pairs, table, dragDrop, rawColumn(in.Helper),
		in.Answer, in.AnswerArabic)

	item, err := scanQuestion(row)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return item, nil
}

func scanQuestion(scanner interface{ Scan(dest ...any) error }) (*Question, error) {
	var out Question
	var questionArabic, instruction, instructionArabic, answer, answerArabic sql.NullString
	var options, subQuestions, pairs, table, dragDrop, helper []byte

	if err := scanner.Scan(
		&out.ID,
		&out.ExamID,
		&out.Type,
		&out.Question,
		&questionArabic,
		&instruction,
		&instructionArabic,
		&out.Points,
		&out.Order,
		&options,
		&subQuestions,
		&pairs,
		&table,
		&dragDrop,
		&helper,
		&answer,
		&answerArabic,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}

	out.QuestionArabic = questionArabic.String
	out.Instruction = instruction.String
	out.InstructionArabic = instructionArabic.String
	out.Answer = answer.String
	out.AnswerArabic = answerArabic.String

	if err := unmarshalColumn(options, &out.Options); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(subQuestions, &out.SubQuestions); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(pairs, &out.MatchingPairs); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(table, &out.TableContent); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(dragDrop, &out.DragDropWords); err != nil {
		return nil, err
	}
	if len(helper) > 0 {
		out.Helper = json.RawMessage(helper)
	}
	return &out, nil
}

func qualifiedQuestionColumns(alias string) string {
	return alias + `.id, ` + alias + `.exam_id, ` + alias + `.type, ` + alias + `.question, ` +
		alias + `.question_arabic, ` + alias + `.instruction, ` + alias + `.instruction_arabic, ` +
		alias + `.points, ` + alias + `.question_order, ` + alias + `.options, ` + alias + `.sub_questions, ` +
		alias + `.matching_pairs, ` + alias + `.table_content, ` + alias + `.drag_drop_words, ` +
		alias + `.helper, ` + alias + `.answer, ` + alias + `.answer_arabic, ` + alias + `.created_at, ` + alias + `.updated_at`
}

// marshalColumn renders an optional payload field for a jsonb column,
// keeping absent payloads as SQL NULL rather than empty JSON.
func marshalColumn(v any) (any, error) {
	if isEmptyPayload(v) {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: payload must be serializable", ErrInvalidInput)
	}
	return b, nil
}

func rawColumn(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func isEmptyPayload(v any) bool {
	switch p := v.(type) {
	case nil:
		return true
	case []ChoiceOption:
		return len(p) == 0
	case []SubQuestion:
		return len(p) == 0
	case []MatchingPair:
		return len(p) == 0
	case []ProgressivePhrase:
		return len(p) == 0
	case *TableContent:
		return p == nil
	case *DragDropWords:
		return p == nil
	case map[string]json.RawMessage:
		return len(p) == 0
	default:
		return false
	}
}

func unmarshalColumn(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode payload column: %w", err)
	}
	return nil
}
