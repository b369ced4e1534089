package question

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type EssayHandler struct {
	svc essayService
}

type essayService interface {
	ListByExam(ctx context.Context, examID int64) (*EssayQuestionList, error)
	GetByID(ctx context.Context, questionID int64) (*EssayQuestion, error)
	ListByBook(ctx context.Context, bookID string) ([]EssayQuestion, error)
	Create(ctx context.Context, in EssayInput) (*EssayQuestion, error)
	CreateBulk(ctx context.Context, examID int64, inputs []EssayInput) ([]EssayQuestion, error)
	Update(ctx context.Context, questionID int64, in EssayInput) (*EssayQuestion, error)
	Delete(ctx context.Context, questionID int64) error
	DeleteAllByExam(ctx context.Context, examID int64) error
	Reorder(ctx context.Context, examID int64, ids []int64) ([]EssayQuestion, error)
}

type essayQuestionRequest struct {
	Type               string                     `json:"type"`
	Title              string                     `json:"title"`
	TitleArabic        string                     `json:"title_arabic"`
	SubTitle           string                     `json:"sub_title"`
	SubTitleArabic     string                     `json:"sub_title_arabic"`
	Question           string                     `json:"question"`
	QuestionArabic     string                     `json:"question_arabic"`
	Prompt             string                     `json:"prompt"`
	PromptArabic       string                     `json:"prompt_arabic"`
	Points             int                        `json:"points"`
	Order              *int                       `json:"order"`
	ProgressivePhrases []ProgressivePhrase        `json:"progressive_phrases"`
	Criteria           map[string]json.RawMessage `json:"criteria"`
}

type bulkEssayRequest struct {
	Questions []essayQuestionRequest `json:"questions"`
}

func NewEssayHandler(svc *EssayService) *EssayHandler {
	return &EssayHandler{svc: svc}
}

func (req essayQuestionRequest) toInput(examID int64) EssayInput {
	return EssayInput{
		ExamID:             examID,
		Type:               req.Type,
		Title:              req.Title,
		TitleArabic:        req.TitleArabic,
		SubTitle:           req.SubTitle,
		SubTitleArabic:     req.SubTitleArabic,
		Question:           req.Question,
		QuestionArabic:     req.QuestionArabic,
		Prompt:             req.Prompt,
		PromptArabic:       req.PromptArabic,
		Points:             req.Points,
		Order:              req.Order,
		ProgressivePhrases: req.ProgressivePhrases,
		Criteria:           req.Criteria,
	}
}

func (h *EssayHandler) ListByExam(w http.ResponseWriter, r *http.Request) {
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

func (h *EssayHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
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

func (h *EssayHandler) Get(w http.ResponseWriter, r *http.Request) {
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

func (h *EssayHandler) Create(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r, "examID", "invalid exam id")
	if !ok {
		return
	}

	var req essayQuestionRequest
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

func (h *EssayHandler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r, "examID", "invalid exam id")
	if !ok {
		return
	}

	var req bulkEssayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	inputs := make([]EssayInput, 0, len(req.Questions))
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

func (h *EssayHandler) Update(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id", "invalid question id")
	if !ok {
		return
	}

	var req essayQuestionRequest
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

func (h *EssayHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *EssayHandler) DeleteAllByExam(w http.ResponseWriter, r *http.Request) {
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

func (h *EssayHandler) Reorder(w http.ResponseWriter, r *http.Request) {
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
