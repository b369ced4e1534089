package chapter

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
	svc chapterService
}

type chapterService interface {
	ListByBook(ctx context.Context, bookID string) ([]Chapter, error)
	GetByID(ctx context.Context, chapterID int64) (*Chapter, error)
	Create(ctx context.Context, in ChapterInput) (*Chapter, error)
	Update(ctx context.Context, chapterID int64, in ChapterInput) (*Chapter, error)
	Delete(ctx context.Context, chapterID int64) error
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type chapterRequest struct {
	BookID        string `json:"book_id"`
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	TitleArabic   string `json:"title_arabic"`
	Duration      int    `json:"duration"`
	VideoURL      string `json:"video_url"`
	Resume        string `json:"resume"`
	ResumeArabic  string `json:"resume_arabic"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (req chapterRequest) toInput() ChapterInput {
	return ChapterInput{
		BookID:        req.BookID,
		ChapterNumber: req.ChapterNumber,
		Title:         req.Title,
		TitleArabic:   req.TitleArabic,
		Duration:      req.Duration,
		VideoURL:      req.VideoURL,
		Resume:        req.Resume,
		ResumeArabic:  req.ResumeArabic,
	}
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
	chapterID, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.svc.GetByID(r.Context(), chapterID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req chapterRequest
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
	chapterID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req chapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.Update(r.Context(), chapterID, req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), chapterID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "deleted"}})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid chapter id"})
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrChapterNotFound), errors.Is(err, ErrBookNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrDuplicateChapter):
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
