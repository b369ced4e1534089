package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MTOUIRI/SmartJihawi/internal/question"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrExamNotFound  = errors.New("exam not found")
	ErrBookNotFound  = errors.New("book not found")
	ErrDuplicateExam = errors.New("exam already exists for this book and year")
)

// Service manages exams and their text extracts, and composes the
// read-side view that merges both question families.
type Service struct {
	db         *sql.DB
	structured structuredLister
	essays     essayLister
}

type structuredLister interface {
	ListByExam(ctx context.Context, examID int64) (*question.QuestionList, error)
}

type essayLister interface {
	ListByExam(ctx context.Context, examID int64) (*question.EssayQuestionList, error)
}

func NewService(db *sql.DB, structured structuredLister, essays essayLister) *Service {
	return &Service{db: db, structured: structured, essays: essays}
}

type SourceChapter struct {
	ChapterRef    string `json:"chapter_ref,omitempty"`
	ChapterNumber int    `json:"chapter_number,omitempty"`
	Title         string `json:"title,omitempty"`
	TitleArabic   string `json:"title_arabic,omitempty"`
	VideoURL      string `json:"video_url,omitempty"`
	TimeStart     int    `json:"time_start,omitempty"`
	TimeEnd       int    `json:"time_end,omitempty"`
}

type TextExtract struct {
	ID            int64          `json:"id"`
	Content       string         `json:"content"`
	SourceChapter *SourceChapter `json:"source_chapter,omitempty"`
}

type Exam struct {
	ID            int64        `json:"id"`
	BookID        string       `json:"book_id"`
	BookTitle     string       `json:"book_title"`
	Title         string       `json:"title"`
	TitleArabic   string       `json:"title_arabic,omitempty"`
	Year          int          `json:"year"`
	Region        string       `json:"region,omitempty"`
	Subject       string       `json:"subject,omitempty"`
	SubjectArabic string       `json:"subject_arabic,omitempty"`
	Points        int          `json:"points"`
	Duration      int          `json:"duration"`
	TextExtract   *TextExtract `json:"text_extract,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type ExamInput struct {
	BookID        string
	Title         string
	TitleArabic   string
	Year          int
	Region        string
	Subject       string
	SubjectArabic string
	Points        int
	Duration      int
	TextExtract   *TextExtract
}

func validateExamInput(in ExamInput) error {
	if strings.TrimSpace(in.BookID) == "" {
		return fmt.Errorf("%w: book_id is required", ErrInvalidInput)
	}
	if _, ok := BookByID(in.BookID); !ok {
		return fmt.Errorf("%w: %s", ErrBookNotFound, in.BookID)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Year < 2000 || in.Year > 2100 {
		return fmt.Errorf("%w: year must be a plausible exam year", ErrInvalidInput)
	}
	if in.Points < 0 || in.Duration < 0 {
		return fmt.Errorf("%w: points and duration must not be negative", ErrInvalidInput)
	}
	return nil
}

func (s *Service) ListBooks(ctx context.Context) []Book {
	return Books()
}

func (s *Service) List(ctx context.Context) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, title, title_arabic, year, region, subject, subject_arabic,
			points, duration, created_at, updated_at
		FROM exams
		ORDER BY book_id ASC, year DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	defer rows.Close()

	items := make([]Exam, 0)
	for rows.Next() {
		item, err := scanExam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}
	return items, nil
}

func (s *Service) ListByBook(ctx context.Context, bookID string) ([]Exam, error) {
	if _, ok := BookByID(bookID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, title, title_arabic, year, region, subject, subject_arabic,
			points, duration, created_at, updated_at
		FROM exams
		WHERE book_id = $1
		ORDER BY year DESC, id ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	defer rows.Close()

	items := make([]Exam, 0)
	for rows.Next() {
		item, err := scanExam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, examID int64) (*Exam, error) {
	if examID <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, book_id, title, title_arabic, year, region, subject, subject_arabic,
			points, duration, created_at, updated_at
		FROM exams
		WHERE id = $1
	`, examID)
	item, err := scanExam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	if err := s.attachTextExtract(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, in ExamInput) (*Exam, error) {
	if err := validateExamInput(in); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM exams WHERE book_id = $1 AND title = $2 AND year = $3)
	`, in.BookID, in.Title, in.Year).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check duplicate exam: %w", err)
	}
	if exists {
		return nil, ErrDuplicateExam
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO exams (
			book_id, title, title_arabic, year, region, subject, subject_arabic,
			points, duration, created_at, updated_at
		) VALUES (
			$1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
			$8, $9, now(), now()
		)
		RETURNING id, book_id, title, title_arabic, year, region, subject, subject_arabic,
			points, duration, created_at, updated_at
	`, in.BookID, in.Title, in.TitleArabic, in.Year, in.Region, in.Subject, in.SubjectArabic,
		in.Points, in.Duration)

	item, err := scanExam(row)
	if err != nil {
		return nil, fmt.Errorf("insert exam: %w", err)
	}

	if in.TextExtract != nil {
		extract, err := upsertTextExtract(ctx, tx, item.ID, in.TextExtract)
		if err != nil {
			return nil, err
		}
		item.TextExtract = extract
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, examID int64, in ExamInput) (*Exam, error) {
	if examID <= 0 {
		return nil, ErrInvalidInput
	}
	if err := validateExamInput(in); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM exams
			WHERE book_id = $1 AND title = $2 AND year = $3 AND id <> $4
		)
	`, in.BookID, in.Title, in.Year, examID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check duplicate exam: %w", err)
	}
	if exists {
		return nil, ErrDuplicateExam
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE exams
		SET book_id = $2,
			title = $3,
			title_arabic = NULLIF($4, ''),
			year = $5,
			region = NULLIF($6, ''),
			subject = NULLIF($7, ''),
			subject_arabic = NULLIF($8, ''),
			points = $9,
			duration = $10,
			updated_at = now()
		WHERE id = $1
		RETURNING id, book_id, title, title_arabic, year, region, subject, subject_arabic,
			points, duration, created_at, updated_at
	`, examID, in.BookID, in.Title, in.TitleArabic, in.Year, in.Region, in.Subject,
		in.SubjectArabic, in.Points, in.Duration)

	item, err := scanExam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}

	if in.TextExtract != nil {
		extract, err := upsertTextExtract(ctx, tx, examID, in.TextExtract)
		if err != nil {
			return nil, err
		}
		item.TextExtract = extract
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// Delete removes the exam and everything it owns: both question
// families and the text extract, in one transaction.
func (s *Service) Delete(ctx context.Context, examID int64) error {
	if examID <= 0 {
		return ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM exams WHERE id = $1 FOR UPDATE`, examID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrExamNotFound
		}
		return fmt.Errorf("lock exam: %w", err)
	}

	for _, stmt := range []string{
		`DELETE FROM questions WHERE exam_id = $1`,
		`DELETE FROM essay_questions WHERE exam_id = $1`,
		`DELETE FROM text_extracts WHERE exam_id = $1`,
		`DELETE FROM exams WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, examID); err != nil {
			return fmt.Errorf("cascade delete exam: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CompleteExam is the aggregated display view of an exam: structured
// questions first, essay questions appended, with cross-family totals.
type CompleteExam struct {
	Exam           Exam       `json:"exam"`
	Items          []ExamItem `json:"items"`
	TotalQuestions int        `json:"total_questions"`
	TotalPoints    int        `json:"total_points"`
}

type ExamItem struct {
	Family string      `json:"family"`
	Item   interface{} `json:"item"`
}

const (
	FamilyStructured = "structured"
	FamilyEssay      = "essay"
)

func (s *Service) CompleteExam(ctx context.Context, examID int64) (*CompleteExam, error) {
	item, err := s.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	structured, err := s.structured.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	essays, err := s.essays.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return composeCompleteExam(*item, structured.Questions, essays.Questions), nil
}

// composeCompleteExam is the pure merge: it never touches storage, so
// it is testable with plain slices.
func composeCompleteExam(e Exam, structured []question.Question, essays []question.EssayQuestion) *CompleteExam {
	out := &CompleteExam{
		Exam:  e,
		Items: make([]ExamItem, 0, len(structured)+len(essays)),
	}
	for i := range structured {
		out.Items = append(out.Items, ExamItem{Family: FamilyStructured, Item: structured[i]})
		out.TotalPoints += structured[i].Points
	}
	for i := range essays {
		out.Items = append(out.Items, ExamItem{Family: FamilyEssay, Item: essays[i]})
		out.TotalPoints += essays[i].Points
	}
	out.TotalQuestions = len(out.Items)
	return out
}

// Statistics summarizes an exam's question mix for the admin dashboard.
type Statistics struct {
	ExamID          int64          `json:"exam_id"`
	StructuredCount int            `json:"structured_count"`
	EssayCount      int            `json:"essay_count"`
	TotalQuestions  int            `json:"total_questions"`
	TotalPoints     int            `json:"total_points"`
	CountsByType    map[string]int `json:"counts_by_type"`
}

func (s *Service) Statistics(ctx context.Context, examID int64) (*Statistics, error) {
	if _, err := s.GetByID(ctx, examID); err != nil {
		return nil, err
	}

	structured, err := s.structured.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	essays, err := s.essays.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return computeStatistics(examID, structured.Questions, essays.Questions), nil
}

func computeStatistics(examID int64, structured []question.Question, essays []question.EssayQuestion) *Statistics {
	stats := &Statistics{
		ExamID:          examID,
		StructuredCount: len(structured),
		EssayCount:      len(essays),
		TotalQuestions:  len(structured) + len(essays),
		CountsByType:    make(map[string]int),
	}
	for i := range structured {
		stats.TotalPoints += structured[i].Points
		stats.CountsByType[structured[i].Type]++
	}
	for i := range essays {
		stats.TotalPoints += essays[i].Points
		stats.CountsByType[essays[i].Type]++
	}
	return stats
}

func (s *Service) attachTextExtract(ctx context.Context, item *Exam) error {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, chapter_ref, chapter_number, chapter_title, chapter_title_arabic,
			video_url, time_start, time_end
		FROM text_extracts
		WHERE exam_id = $1
	`, item.ID)

	var extract TextExtract
	var chapterRef, chapterTitle, chapterTitleArabic, videoURL sql.NullString
	var chapterNumber, timeStart, timeEnd sql.NullInt64
	if err := row.Scan(&extract.ID, &extract.Content, &chapterRef, &chapterNumber,
		&chapterTitle, &chapterTitleArabic, &videoURL, &timeStart, &timeEnd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load text extract: %w", err)
	}

	if chapterRef.Valid || chapterNumber.Valid || chapterTitle.Valid || videoURL.Valid {
		extract.SourceChapter = &SourceChapter{
			ChapterRef:    chapterRef.String,
			ChapterNumber: int(chapterNumber.Int64),
			Title:         chapterTitle.String,
			TitleArabic:   chapterTitleArabic.String,
			VideoURL:      videoURL.String,
			TimeStart:     int(timeStart.Int64),
			TimeEnd:       int(timeEnd.Int64),
		}
	}
	item.TextExtract = &extract
	return nil
}

func upsertTextExtract(ctx context.Context, tx *sql.Tx, examID int64, in *TextExtract) (*TextExtract, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: text extract content is required", ErrInvalidInput)
	}

	src := in.SourceChapter
	if src == nil {
		src = &SourceChapter{}
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO text_extracts (
			exam_id, content, chapter_ref, chapter_number, chapter_title, chapter_title_arabic,
			video_url, time_start, time_end
		) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, 0), NULLIF($5, ''), NULLIF($6, ''),
			NULLIF($7, ''), NULLIF($8, 0), NULLIF($9, 0))
		ON CONFLICT (exam_id) DO UPDATE SET
			content = EXCLUDED.content,
			chapter_ref = EXCLUDED.chapter_ref,
			chapter_number = EXCLUDED.chapter_number,
			chapter_title = EXCLUDED.chapter_title,
			chapter_title_arabic = EXCLUDED.chapter_title_arabic,
			video_url = EXCLUDED.video_url,
			time_start = EXCLUDED.time_start,
			time_end = EXCLUDED.time_end
		RETURNING id
	`, examID, in.Content, src.ChapterRef, src.ChapterNumber, src.Title, src.TitleArabic,
		src.VideoURL, src.TimeStart, src.TimeEnd)

	out := TextExtract{Content: in.Content}
	if err := row.Scan(&out.ID); err != nil {
		return nil, fmt.Errorf("upsert text extract: %w", err)
	}
	if in.SourceChapter != nil {
		copySrc := *in.SourceChapter
		out.SourceChapter = &copySrc
	}
	return &out, nil
}

func scanExam(scanner interface{ Scan(dest ...any) error }) (*Exam, error) {
	var out Exam
	var titleArabic, region, subject, subjectArabic sql.NullString
	if err := scanner.Scan(
		&out.ID,
		&out.BookID,
		&out.Title,
		&titleArabic,
		&out.Year,
		&region,
		&subject,
		&subjectArabic,
		&out.Points,
		&out.Duration,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	out.TitleArabic = titleArabic.String
	out.Region = region.String
	out.Subject = subject.String
	out.SubjectArabic = subjectArabic.String
	out.BookTitle = BookTitle(out.BookID)
	return &out, nil
}
