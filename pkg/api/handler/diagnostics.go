package handler

import (
	"context"
	"net/http"

	"github.com/KathiravanBCS/nexa-ai/pkg/api/response"
	"github.com/KathiravanBCS/nexa-ai/pkg/apikey"
	"github.com/KathiravanBCS/nexa-ai/pkg/gemini"
)

type KeyProber interface {
	VerifyKey(ctx context.Context, key string) (gemini.ModelsProbe, error)
}

type diagnostics struct {
	prober     KeyProber
	serverKey  string
	production bool
	writer     response.JSONResponseWriter
}

func NewDiagnostics(prober KeyProber, serverKey string, production bool) *diagnostics {
	return &diagnostics{
		prober:     prober,
		serverKey:  serverKey,
		production: production,
	}
}

// ModelKey handles GET /diagnostics/model-key. Hidden entirely in
// production.
func (h *diagnostics) ModelKey(w http.ResponseWriter, r *http.Request) {
	if h.production {
		http.NotFound(w, r)
		return
	}

	key := apikey.Sanitize(h.serverKey)
	if key == "" {
		h.writer.WriteSuccessResponse(w, map[string]any{
			"ok":     false,
			"reason": "Missing GEMINI_API_KEY",
		})
		return
	}

	probe, err := h.prober.VerifyKey(r.Context(), key)
	if err != nil {
		h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writer.WriteSuccessResponse(w, probe)
}
