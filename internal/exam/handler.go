package exam

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
	svc examService
}

type examService interface {
	ListBooks(ctx context.Context) []Book
	List(ctx context.Context) ([]Exam, error)
	ListByBook(ctx context.Context, bookID string) ([]Exam, error)
	GetByID(ctx context.Context, examID int64) (*Exam, error)
	Create(ctx context.Context, in ExamInput) (*Exam, error)
	Update(ctx context.Context, examID int64, in ExamInput) (*Exam, error)
	Delete(ctx context.Context, examID int64) error
	CompleteExam(ctx context.Context, examID int64) (*CompleteExam, error)
	Statistics(ctx context.Context, examID int64) (*Statistics, error)
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type examRequest struct {
	BookID        string       `json:"book_id"`
	Title         string       `json:"title"`
	TitleArabic   string       `json:"title_arabic"`
	Year          int          `json:"year"`
	Region        string       `json:"region"`
	Subject       string       `json:"subject"`
	SubjectArabic string       `json:"subject_arabic"`
	Points        int          `json:"points"`
	Duration      int          `json:"duration"`
	TextExtract   *TextExtract `json:"text_extract"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (req examRequest) toInput() ExamInput {
	return ExamInput{
		BookID:        req.BookID,
		Title:         req.Title,
		TitleArabic:   req.TitleArabic,
		Year:          req.Year,
		Region:        req.Region,
		Subject:       req.Subject,
		SubjectArabic: req.SubjectArabic,
		Points:        req.Points,
		Duration:      req.Duration,
		TextExtract:   req.TextExtract,
	}
}

func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: h.svc.ListBooks(r.Context())})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
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

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.svc.GetByID(r.Context(), examID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.svc.CompleteExam(r.Context(), examID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.Statistics(r.Context(), examID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: stats})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req examRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.Create(r.Context(), req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: item})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req examRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.Update(r.Context(), examID, req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	examID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), examID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "deleted"}})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid exam id"})
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrExamNotFound), errors.Is(err, ErrBookNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrDuplicateExam):
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
