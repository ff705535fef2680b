package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cnvrt/gemini-edit-image/internal/http/handlers"
	"github.com/cnvrt/gemini-edit-image/internal/middleware"
)

// NewRouter builds the HTTP surface: the movie catalog CRUD, the hashtag
// vocabulary, the AdMob config, and the Gemini-backed AI endpoints.
func NewRouter(app *handlers.App, countryLookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	if app.Config != nil && len(app.Config.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(app.Config.CORSAllowedOrigins))
	}
	r.Use(middleware.Locale("en", countryLookup))

	r.Get("/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", app.ListMovies)
			r.Post("/", app.CreateMovie)
			r.Put("/", app.UpdateMovie)
			r.Delete("/", app.DeleteMovie)
			r.Get("/{id}", app.GetMovie)
			r.Delete("/{id}", app.DeleteMovieByID)
		})

		r.Get("/hashtags", app.ListHashtags)
		r.Get("/admob", app.AdMob)

		r.Post("/process-command", app.ProcessCommand)
		r.Post("/edit-image", app.EditImage)
		r.Post("/edit-two-images", app.EditTwoImages)
	})

	return r
}
