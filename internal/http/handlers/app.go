package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cnvrt/gemini-edit-image/internal/domain"
	"github.com/cnvrt/gemini-edit-image/internal/infra"
	"github.com/cnvrt/gemini-edit-image/internal/providers/genai"
	"github.com/cnvrt/gemini-edit-image/internal/storage"
)

// AIClient is the slice of the Gemini client the handlers consume. A nil
// client means no credential was configured and the AI endpoints respond with
// a fixed "not initialized" error.
type AIClient interface {
	UploadFile(ctx context.Context, path, mimeType, displayName string) (genai.FileRef, error)
	EditImage(ctx context.Context, prompt string, refs []genai.FileRef) (*genai.GenerateContentResponse, error)
	ParseCommand(ctx context.Context, command, locale string) (json.RawMessage, error)
}

// App is the handler container; one instance serves all requests.
type App struct {
	Movies   domain.MovieRepository
	Hashtags domain.HashtagRepository
	Temp     *storage.TempStore
	AI       AIClient
	Config   *infra.Config
	Logger   infra.Logger
}

// NewApp wires the handler container.
func NewApp(movies domain.MovieRepository, hashtags domain.HashtagRepository, temp *storage.TempStore, ai AIClient, cfg *infra.Config, logger infra.Logger) *App {
	return &App{
		Movies:   movies,
		Hashtags: hashtags,
		Temp:     temp,
		AI:       ai,
		Config:   cfg,
		Logger:   logger,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

func (a *App) errorDetails(w http.ResponseWriter, code int, message, details string) {
	a.json(w, code, map[string]string{"error": message, "details": details})
}
