package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cnvrt/gemini-edit-image/internal/middleware"
	"github.com/cnvrt/gemini-edit-image/internal/providers/genai"
)

type commandRequest struct {
	Command string `json:"command"`
}

// ProcessCommand turns a free-form task or transaction command into the
// structured JSON produced by the text model.
func (a *App) ProcessCommand(w http.ResponseWriter, r *http.Request) {
	if a.AI == nil {
		a.json(w, http.StatusInternalServerError, map[string]string{"message": "API key not configured on server."})
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Command) == "" {
		a.json(w, http.StatusBadRequest, map[string]string{"message": `Invalid request body. "command" string is required.`})
		return
	}

	locale := middleware.LocaleFromContext(r.Context())
	raw, err := a.AI.ParseCommand(r.Context(), strings.TrimSpace(req.Command), locale)
	if err != nil {
		var blocked *genai.BlockedError
		switch {
		case errors.As(err, &blocked):
			a.json(w, http.StatusBadRequest, map[string]string{
				"message": fmt.Sprintf("Request blocked due to safety settings: %s", blocked.Reason),
			})
		case errors.Is(err, genai.ErrMalformedOutput):
			a.json(w, http.StatusInternalServerError, map[string]string{"message": "Failed to process AI response format."})
		default:
			a.Logger.Error().Err(err).Msg("command: generation call failed")
			a.json(w, http.StatusInternalServerError, map[string]string{
				"message": "Error processing command via AI.",
				"error":   err.Error(),
			})
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
