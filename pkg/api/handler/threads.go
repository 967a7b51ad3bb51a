package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/KathiravanBCS/nexa-ai/pkg/api/response"
	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

// ownerIDHeader carries the opaque caller identity resolved by the identity
// provider in front of this service. Absent means anonymous.
const ownerIDHeader = "x-user-id"

type ThreadRepository interface {
	EnsureThread(ctx context.Context, titleHint, ownerID string) (string, error)
	ListThreads(ctx context.Context, ownerID string) ([]domain.Thread, error)
	RenameThread(ctx context.Context, id, title string) error
	DeleteThread(ctx context.Context, id string) error
}

type MessageRepository interface {
	SaveMessage(ctx context.Context, threadID string, message domain.Message) error
	LoadMessages(ctx context.Context, threadID string) ([]domain.Message, error)
}

type threads struct {
	threadRepo  ThreadRepository
	messageRepo MessageRepository
	writer      response.JSONResponseWriter
}

func NewThreads(threadRepo ThreadRepository, messageRepo MessageRepository) *threads {
	return &threads{
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
	}
}

// Create handles POST /threads.
func (h *threads) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writer.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	id, err := h.threadRepo.EnsureThread(r.Context(), body.Title, r.Header.Get(ownerIDHeader))
	if err != nil {
		h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writer.WriteSuccessResponse(w, map[string]string{"id": id})
}

// List handles GET /threads, scoped to the caller identity.
func (h *threads) List(w http.ResponseWriter, r *http.Request) {
	threads, err := h.threadRepo.ListThreads(r.Context(), r.Header.Get(ownerIDHeader))
	if err != nil {
		h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writer.WriteSuccessResponse(w, map[string]any{"threads": threads})
}

// Messages handles GET /threads/{id}/messages.
func (h *threads) Messages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messageRepo.LoadMessages(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writer.WriteSuccessResponse(w, map[string]any{"messages": messages})
}

// SaveMessage handles POST /threads/{id}/messages.
func (h *threads) SaveMessage(w http.ResponseWriter, r *http.Request) {
	var message domain.Message
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		h.writer.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.messageRepo.SaveMessage(r.Context(), r.PathValue("id"), message); err != nil {
		h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writer.WriteSuccessResponse(w, map[string]bool{"saved": true})
}

// Rename handles PATCH /threads/{id}.
func (h *threads) Rename(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writer.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	err := h.threadRepo.RenameThread(r.Context(), r.PathValue("id"), body.Title)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writer.WriteErrorResponse(w, http.StatusNotFound, "Thread not found.")
	case err != nil:
		h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
	default:
		h.writer.WriteSuccessResponse(w, map[string]bool{"renamed": true})
	}
}

// Delete handles DELETE /threads/{id}. Deleting the currently open thread is
// the client's cue to return to a thread-less view.
func (h *threads) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.threadRepo.DeleteThread(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writer.WriteErrorResponse(w, http.StatusNotFound, "Thread not found.")
	case err != nil:
		h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
