package question

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type mockService struct {
	listByExamFn      func(ctx context.Context, examID int64) (*QuestionList, error)
	getByIDFn         func(ctx context.Context, questionID int64) (*Question, error)
	listByBookFn      func(ctx context.Context, bookID string) ([]Question, error)
	createFn          func(ctx context.Context, in QuestionInput) (*Question, error)
	createBulkFn      func(ctx context.Context, examID int64, inputs []QuestionInput) ([]Question, error)
	updateFn          func(ctx context.Context, questionID int64, in QuestionInput) (*Question, error)
	deleteFn          func(ctx context.Context, questionID int64) error
	deleteAllByExamFn func(ctx context.Context, examID int64) error
	reorderFn         func(ctx context.Context, examID int64, ids []int64) ([]Question, error)
}

func (m *mockService) ListByExam(ctx context.Context, examID int64) (*QuestionList, error) {
	if m.listByExamFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listByExamFn(ctx, examID)
}

func (m *mockService) GetByID(ctx context.Context, questionID int64) (*Question, error) {
	if m.getByIDFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.getByIDFn(ctx, questionID)
}

func (m *mockService) ListByBook(ctx context.Context, bookID string) ([]Question, error) {
	if m.listByBookFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listByBookFn(ctx, bookID)
}

func (m *mockService) Create(ctx context.Context, in QuestionInput) (*Question, error) {
	if m.createFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.createFn(ctx, in)
}

func (m *mockService) CreateBulk(ctx context.Context, examID int64, inputs []QuestionInput) ([]Question, error) {
	if m.createBulkFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.createBulkFn(ctx, examID, inputs)
}

func (m *mockService) Update(ctx context.Context, questionID int64, in QuestionInput) (*Question, error) {
	if m.updateFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.updateFn(ctx, questionID, in)
}

func (m *mockService) Delete(ctx context.Context, questionID int64) error {
	if m.deleteFn == nil {
		return errors.New("not implemented")
	}
	return m.deleteFn(ctx, questionID)
}

func (m *mockService) DeleteAllByExam(ctx context.Context, examID int64) error {
	if m.deleteAllByExamFn == nil {
		return errors.New("not implemented")
	}
	return m.deleteAllByExamFn(ctx, examID)
}

func (m *mockService) Reorder(ctx context.Context, examID int64, ids []int64) ([]Question, error) {
	if m.reorderFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.reorderFn(ctx, examID, ids)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestListByExamOK(t *testing.T) {
	h := &Handler{svc: &mockService{
		listByExamFn: func(ctx context.Context, examID int64) (*QuestionList, error) {
			if examID != 4 {
				t.Fatalf("unexpected exam id: %d", examID)
			}
			return &QuestionList{
				Questions: []Question{
					{ID: 1, ExamID: 4, Type: TypeText, Question: "Q1", Points: 2, Order: 1},
					{ID: 2, ExamID: 4, Type: TypeText, Question: "Q2", Points: 3, Order: 2},
				},
				TotalQuestions: 2,
				TotalPoints:    5,
			}, nil
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/questions/exam/4", nil)
	req = withURLParam(req, "examID", "4")
	w := httptest.NewRecorder()

	h.ListByExam(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeMap(t, w)
	if body["ok"] != true {
		t.Fatalf("expected ok=true")
	}
}

func TestListByExamNotFound(t *testing.T) {
	h := &Handler{svc: &mockService{
		listByExamFn: func(ctx context.Context, examID int64) (*QuestionList, error) {
			return nil, ErrExamNotFound
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/questions/exam/99", nil)
	req = withURLParam(req, "examID", "99")
	w := httptest.NewRecorder()

	h.ListByExam(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCreateQuestionOK(t *testing.T) {
	h := &Handler{svc: &mockService{
		createFn: func(ctx context.Context, in QuestionInput) (*Question, error) {
			if in.ExamID != 4 || in.Type != TypeMultipleChoiceSingle || in.Points != 2 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &Question{ID: 10, ExamID: 4, Type: in.Type, Question: in.Question, Points: 2, Order: 1}, nil
		},
	}}

	payload := []byte(`{"type":"multiple_choice_single","question":"Qui parle ?","points":2,` +
		`"options":[{"id":"a","text":"Le narrateur"},{"id":"b","text":"Le juge"}],"answer":"a"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions/exam/4", bytes.NewReader(payload))
	req = withURLParam(req, "examID", "4")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	body := decodeMap(t, w)
	if body["ok"] != true {
		t.Fatalf("expected ok=true")
	}
}

func TestCreateQuestionInvalidPayload(t *testing.T) {
	h := &Handler{svc: &mockService{
		createFn: func(ctx context.Context, in QuestionInput) (*Question, error) {
			return nil, fmt.Errorf("%w: the correct answer must match one of the option ids", ErrInvalidInput)
		},
	}}

	payload := []byte(`{"type":"multiple_choice_single","question":"Qui parle ?","points":2,` +
		`"options":[{"id":"a","text":"A"},{"id":"b","text":"B"}],"answer":"c"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions/exam/4", bytes.NewReader(payload))
	req = withURLParam(req, "examID", "4")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateQuestionBadExamID(t *testing.T) {
	h := &Handler{svc: &mockService{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions/exam/zero", bytes.NewReader([]byte(`{}`)))
	req = withURLParam(req, "examID", "zero")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateBulkAllOrNothing(t *testing.T) {
	h := &Handler{svc: &mockService{
		createBulkFn: func(ctx context.Context, examID int64, inputs []QuestionInput) ([]Question, error) {
			if len(inputs) != 2 {
				t.Fatalf("expected 2 inputs, got %d", len(inputs))
			}
			return nil, fmt.Errorf("questions[1]: %w: question text is required", ErrInvalidInput)
		},
	}}

	payload := []byte(`{"questions":[` +
		`{"type":"text","question":"Q1","points":2},` +
		`{"type":"text","question":"","points":2}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions/exam/4/bulk", bytes.NewReader(payload))
	req = withURLParam(req, "examID", "4")
	w := httptest.NewRecorder()

	h.CreateBulk(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReorderConflict(t *testing.T) {
	h := &Handler{svc: &mockService{
		reorderFn: func(ctx context.Context, examID int64, ids []int64) ([]Question, error) {
			return nil, fmt.Errorf("%w: question 99 does not belong to this exam", ErrNotInExam)
		},
	}}

	payload := []byte(`{"question_ids":[1,2,99]}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/questions/exam/4/reorder", bytes.NewReader(payload))
	req = withURLParam(req, "examID", "4")
	w := httptest.NewRecorder()

	h.Reorder(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestReorderOK(t *testing.T) {
	h := &Handler{svc: &mockService{
		reorderFn: func(ctx context.Context, examID int64, ids []int64) ([]Question, error) {
			if examID != 4 || len(ids) != 3 || ids[0] != 3 {
				t.Fatalf("unexpected reorder call: exam=%d ids=%v", examID, ids)
			}
			return []Question{
				{ID: 3, ExamID: 4, Order: 1},
				{ID: 1, ExamID: 4, Order: 2},
				{ID: 2, ExamID: 4, Order: 3},
			}, nil
		},
	}}

	payload := []byte(`{"question_ids":[3,1,2]}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/questions/exam/4/reorder", bytes.NewReader(payload))
	req = withURLParam(req, "examID", "4")
	w := httptest.NewRecorder()

	h.Reorder(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestDeleteQuestionNotFound(t *testing.T) {
	h := &Handler{svc: &mockService{
		deleteFn: func(ctx context.Context, questionID int64) error {
			return ErrQuestionNotFound
		},
	}}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/questions/42", nil)
	req = withURLParam(req, "id", "42")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
