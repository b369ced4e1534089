package qcm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MTOUIRI/SmartJihawi/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc qcmService
}

type qcmService interface {
	ListByChapter(ctx context.Context, chapterID int64) ([]QCMQuestion, error)
	CountByChapter(ctx context.Context, chapterID int64) (int, error)
	GetByID(ctx context.Context, id int64) (*QCMQuestion, error)
	Create(ctx context.Context, in QCMInput) (*QCMQuestion, error)
	Update(ctx context.Context, id int64, in QCMInput) (*QCMQuestion, error)
	Delete(ctx context.Context, id int64) error
	DeleteAllByChapter(ctx context.Context, chapterID int64) error
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type qcmRequest struct {
	ChapterID         int64    `json:"chapter_id"`
	Question          string   `json:"question"`
	QuestionArabic    string   `json:"question_arabic"`
	Options           []Option `json:"options"`
	CorrectAnswer     string   `json:"correct_answer"`
	Explanation       string   `json:"explanation"`
	ExplanationArabic string   `json:"explanation_arabic"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (req qcmRequest) toInput() QCMInput {
	return QCMInput{
		ChapterID:         req.ChapterID,
		Question:          req.Question,
		QuestionArabic:    req.QuestionArabic,
		Options:           req.Options,
		CorrectAnswer:     req.CorrectAnswer,
		Explanation:       req.Explanation,
		ExplanationArabic: req.ExplanationArabic,
	}
}

func (h *Handler) ListByChapter(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := pathID(w, r, "chapterID", "invalid chapter id")
	if !ok {
		return
	}

	items, err := h.svc.ListByChapter(r.Context(), chapterID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) CountByChapter(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := pathID(w, r, "chapterID", "invalid chapter id")
	if !ok {
		return
	}

	count, err := h.svc.CountByChapter(r.Context(), chapterID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]int{"count": count}})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "invalid question id")
	if !ok {
		return
	}

	item, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req qcmRequest
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
	id, ok := pathID(w, r, "id", "invalid question id")
	if !ok {
		return
	}

	var req qcmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.Update(r.Context(), id, req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "invalid question id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "deleted"}})
}

func (h *Handler) DeleteAllByChapter(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := pathID(w, r, "chapterID", "invalid chapter id")
	if !ok {
		return
	}

	if err := h.svc.DeleteAllByChapter(r.Context(), chapterID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "deleted"}})
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
	case errors.Is(err, ErrQCMNotFound), errors.Is(err, ErrChapterNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
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
