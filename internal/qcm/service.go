package qcm

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrQCMNotFound     = errors.New("qcm question not found")
	ErrChapterNotFound = errors.New("chapter not found")
)

// Service manages the per-chapter multiple-choice practice bank. Every
// question carries exactly four options labelled a through d.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

var optionIDs = []string{"a", "b", "c", "d"}

type Option struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	TextArabic string `json:"text_arabic,omitempty"`
}

type QCMQuestion struct {
	ID                int64     `json:"id"`
	ChapterID         int64     `json:"chapter_id"`
	Question          string    `json:"question"`
	QuestionArabic    string    `json:"question_arabic,omitempty"`
	Options           []Option  `json:"options"`
	CorrectAnswer     string    `json:"correct_answer"`
	Explanation       string    `json:"explanation,omitempty"`
	ExplanationArabic string    `json:"explanation_arabic,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type QCMInput struct {
	ChapterID         int64
	Question          string
	QuestionArabic    string
	Options           []Option
	CorrectAnswer     string
	Explanation       string
	ExplanationArabic string
}

func validateQCMInput(in QCMInput) error {
	if in.ChapterID <= 0 {
		return fmt.Errorf("%w: chapter_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Question) == "" {
		return fmt.Errorf("%w: question text is required", ErrInvalidInput)
	}
	if len(in.Options) != len(optionIDs) {
		return fmt.Errorf("%w: exactly %d options are required", ErrInvalidInput, len(optionIDs))
	}
	for i, want := range optionIDs {
		opt := in.Options[i]
		if opt.ID != want {
			return fmt.Errorf("%w: options[%d] must have id %q", ErrInvalidInput, i, want)
		}
		if strings.TrimSpace(opt.Text) == "" {
			return fmt.Errorf("%w: options[%d] text is required", ErrInvalidInput, i)
		}
	}
	validAnswer := false
	for _, id := range optionIDs {
		if in.CorrectAnswer == id {
			validAnswer = true
			break
		}
	}
	if !validAnswer {
		return fmt.Errorf("%w: correct_answer must be one of a, b, c, d", ErrInvalidInput)
	}
	return nil
}

const qcmColumns = `
	id, chapter_id, question, question_arabic, options, correct_answer,
	explanation, explanation_arabic, created_at, updated_at`

func (s *Service) ListByChapter(ctx context.Context, chapterID int64) ([]QCMQuestion, error) {
	if chapterID <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.ensureChapterExists(ctx, chapterID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qcmColumns+`
		FROM qcm_questions
		WHERE chapter_id = $1
		ORDER BY id ASC
	`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("query qcm questions: %w", err)
	}
	defer rows.Close()

	items := make([]QCMQuestion, 0)
	for rows.Next() {
		item, err := scanQCM(rows)
		if err != nil {
			return nil, fmt.Errorf("scan qcm question: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate qcm questions: %w", err)
	}
	return items, nil
}

func (s *Service) CountByChapter(ctx context.Context, chapterID int64) (int, error) {
	if chapterID <= 0 {
		return 0, ErrInvalidInput
	}
	if err := s.ensureChapterExists(ctx, chapterID); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM qcm_questions WHERE chapter_id = $1`, chapterID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count qcm questions: %w", err)
	}
	return count, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*QCMQuestion, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+qcmColumns+`
		FROM qcm_questions
		WHERE id = $1
	`, id)
	item, err := scanQCM(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQCMNotFound
		}
		return nil, fmt.Errorf("load qcm question: %w", err)
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, in QCMInput) (*QCMQuestion, error) {
	if err := validateQCMInput(in); err != nil {
		return nil, err
	}
	if err := s.ensureChapterExists(ctx, in.ChapterID); err != nil {
		return nil, err
	}

	options, err := json.Marshal(in.Options)
	if err != nil {
		return nil, fmt.Errorf("%w: options must be serializable", ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO qcm_questions (
			chapter_id, question, question_arabic, options, correct_answer,
			explanation, explanation_arabic, created_at, updated_at
		) VALUES (
			$1, $2, NULLIF($3, ''), $4, $5,
			NULLIF($6, ''), NULLIF($7, ''), now(), now()
		)
		RETURNING `+qcmColumns+`
	`, in.ChapterID, in.Question, in.QuestionArabic, options, in.CorrectAnswer,
		in.Explanation, in.ExplanationArabic)

	item, err := scanQCM(row)
	if err != nil {
		return nil, fmt.Errorf("insert qcm question: %w", err)
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, id int64, in QCMInput) (*QCMQuestion, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	if err := validateQCMInput(in); err != nil {
		return nil, err
	}

	options, err := json.Marshal(in.Options)
	if err != nil {
		return nil, fmt.Errorf("%w: options must be serializable", ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE qcm_questions
		SET question = $2,
			question_arabic = NULLIF($3, ''),
			options = $4,
			correct_answer = $5,
			explanation = NULLIF($6, ''),
			explanation_arabic = NULLIF($7, ''),
			updated_at = now()
		WHERE id = $1
		RETURNING `+qcmColumns+`
	`, id, in.Question, in.QuestionArabic, options, in.CorrectAnswer,
		in.Explanation, in.ExplanationArabic)

	item, err := scanQCM(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQCMNotFound
		}
		return nil, fmt.Errorf("update qcm question: %w", err)
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM qcm_questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete qcm question: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete qcm question: %w", err)
	}
	if affected == 0 {
		return ErrQCMNotFound
	}
	return nil
}

func (s *Service) DeleteAllByChapter(ctx context.Context, chapterID int64) error {
	if chapterID <= 0 {
		return ErrInvalidInput
	}
	if err := s.ensureChapterExists(ctx, chapterID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM qcm_questions WHERE chapter_id = $1`, chapterID); err != nil {
		return fmt.Errorf("delete qcm questions: %w", err)
	}
	return nil
}

func (s *Service) ensureChapterExists(ctx context.Context, chapterID int64) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chapters WHERE id = $1)`, chapterID).Scan(&exists); err != nil {
		return fmt.Errorf("check chapter exists: %w", err)
	}
	if !exists {
		return ErrChapterNotFound
	}
	return nil
}

func scanQCM(scanner interface{ Scan(dest ...any) error }) (*QCMQuestion, error) {
	var out QCMQuestion
	var questionArabic, explanation, explanationArabic sql.NullString
	var options []byte
	if err := scanner.Scan(
		&out.ID,
		&out.ChapterID,
		&out.Question,
		&questionArabic,
		&options,
		&out.CorrectAnswer,
		&explanation,
		&explanationArabic,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	out.QuestionArabic = questionArabic.String
	out.Explanation = explanation.String
	out.ExplanationArabic = explanationArabic.String
	if err := json.Unmarshal(options, &out.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return &out, nil
}
