package question

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MTOUIRI/SmartJihawi/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc questionService
}

type questionService interface {
	ListByExam(ctx context.Context, examID int64) (*QuestionList, error)
	GetByID(ctx context.Context, questionID int64) (*Question, error)
	ListByBook(ctx context.Context, bookID string) ([]Question, error)
	Create(ctx context.Context, in QuestionInput) (*Question, error)
	CreateBulk(ctx context.Context, examID int64, inputs []QuestionInput) ([]Question, error)
	Update(ctx context.Context, questionID int64, in QuestionInput) (*Question, error)
	Delete(ctx context.Context, questionID int64) error
	DeleteAllByExam(ctx context.Context, examID int64) error
	Reorder(ctx context.Context, examID int64, ids []int64) ([]Question, error)
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type questionRequest struct {
	Type              string                     `json:"type"`
	Question          string                     `json:"question"`
	QuestionArabic    string                     `json:"question_arabic"`
	Instruction       string                     `json:"instruction"`
	InstructionArabic string                     `json:"instruction_arabic"`
	Points            int                        `json:"points"`
	Order             *int                       `json:"order"`
	Options           []ChoiceOption             `json:"options"`
	SubQuestions      []SubQuestion              `json:"sub_questions"`
	MatchingPairs     []MatchingPair             `json:"matching_pairs"`
	TableContent      *TableContent              `json:"table_content"`
	DragDropWords     *DragDropWords             `json:"drag_drop_words"`
	Helper            json.RawMessage            `json:"helper"`
	Answer            string                     `json:"answer"`
	AnswerArabic      string                     `json:"answer_arabic"`
}

type bulkQuestionRequest struct {
	Questions []questionRequest `json:"questions"`
}

type reorderRequest struct {
	QuestionIDs []int64 `json:"question_ids"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (req questionRequest) toInput(examID int64) QuestionInput {
	return QuestionInput{
		ExamID:            examID,
		Type:              req.Type,
		Question:          req.Question,
		QuestionArabic:    req.QuestionArabic,
		Instruction:       req.Instruction,
		InstructionArabic: req.InstructionArabic,
		Points:            req.Points,
		Order:             req.Order,
		Options:           req.Options,
		SubQuestions:      req.SubQuestions,
		MatchingPairs:     req.MatchingPairs,
		TableContent:      req.TableContent,
		DragDropWords:     req.DragDropWords,
		Helper:            req.Helper,
		Answer:            req.Answer,
		AnswerArabic:      req.AnswerArabic,
	}
}

func (h *Handler) ListByExam(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r, "examID", "invalid exam id")
	if !ok {
		return
	}

	list, err := h.svc.ListByExam(r.Context(), examID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: list})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id", "invalid question id")
	if !ok {
		return
	}

	item, err := h.svc.GetByID(r.Context(), questionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) ListByBook(w http.ResponseWriter, r *http.Request) {
	bookID := strings.TrimSpace(chi.URLParam(r, "bookID"))
	if bookID == "" {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "book id is required"})
		return
	}

	items, err := h.svc.ListByBook(r.Context(), bookID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r, "examID", "invalid exam id")
	if !ok {
		return
	}

	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.Create(r.Context(), req.toInput(examID))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: item})
}

func (h *Handler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r, "examID", "invalid exam id")
	if !ok {
		return
	}

	var req bulkQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	inputs := make([]QuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		inputs = append(inputs, q.toInput(examID))
	}

	items, err := h.svc.CreateBulk(r.Context(), examID, inputs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: items})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id", "invalid question id")
	if !ok {
		return
	}

	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.Update(r.Context(), questionID, req.toInput(0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id", "invalid question id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), questionID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "deleted"}})
}

func (h *Handler) DeleteAllByExam(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r, "examID", "invalid exam id")
	if !ok {
		return
	}

	if err := h.svc.DeleteAllByExam(r.Context(), examID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "deleted"}})
}

func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r, "examID", "invalid exam id")
	if !ok {
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	items, err := h.svc.Reorder(r.Context(), examID, req.QuestionIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func pathID(w http.ResponseWriter, r *http.Request, param, msg string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: msg})
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrExamNotFound), errors.Is(err, ErrQuestionNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrNotInExam):
		writeJSON(w, r, http.StatusConflict, apiResponse{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload apiResponse) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
