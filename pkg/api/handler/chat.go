package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/KathiravanBCS/nexa-ai/pkg/api/response"
	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

type ReplyGenerator interface {
	GenerateReply(ctx context.Context, messages []domain.Message, keyOverride string) domain.GenerationResult
}

type chat struct {
	generator ReplyGenerator
	writer    response.JSONResponseWriter
}

func NewChat(generator ReplyGenerator) *chat {
	return &chat{
		generator: generator,
		writer:    response.JSONResponseWriter{},
	}
}

// GenerateReply handles POST /chat. The dev credential override is accepted
// from the body, the x-gemini-api-key header or the apiKey query parameter,
// in that order of precedence.
func (h *chat) GenerateReply(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages []domain.Message `json:"messages"`
		APIKey   string           `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writer.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if len(body.Messages) == 0 {
		h.writer.WriteErrorResponse(w, http.StatusBadRequest, "Missing messages.")
		return
	}

	keyOverride := body.APIKey
	if keyOverride == "" {
		keyOverride = r.Header.Get("x-gemini-api-key")
	}
	if keyOverride == "" {
		keyOverride = r.URL.Query().Get("apiKey")
	}

	result := h.generator.GenerateReply(r.Context(), body.Messages, keyOverride)
	if !result.OK() {
		h.writer.WriteErrorResponse(w, result.Failure.Status, result.Failure.Message)
		return
	}

	h.writer.WriteSuccessResponse(w, map[string]string{
		"text": result.Text,
	})
}
