package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cnvrt/gemini-edit-image/internal/domain"
)

type moviePayload struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	URL         *string  `json:"url"`
	Rating      *float64 `json:"rating"`
	ReleaseDate *string  `json:"releaseDate"`
	Tags        string   `json:"tags"`
}

// ListMovies returns the whole catalog ordered by name.
func (a *App) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := a.Movies.List(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("movies: list failed")
		a.error(w, http.StatusInternalServerError, "Failed to fetch movies")
		return
	}
	if movies == nil {
		movies = []domain.Movie{}
	}
	a.json(w, http.StatusOK, movies)
}

// GetMovie returns a single movie by path ID.
func (a *App) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(chi.URLParam(r, "id"))
	if !ok {
		a.error(w, http.StatusBadRequest, "A valid movie ID is required.")
		return
	}
	movie, err := a.Movies.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Movie not found")
			return
		}
		a.Logger.Error().Err(err).Int64("id", id).Msg("movies: get failed")
		a.error(w, http.StatusInternalServerError, "Failed to fetch movie")
		return
	}
	a.json(w, http.StatusOK, movie)
}

// CreateMovie validates the payload, persists any new hashtags and inserts
// the movie.
func (a *App) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var payload moviePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" || payload.Tags == "" {
		a.error(w, http.StatusBadRequest, "Name and tags are required.")
		return
	}
	tags, err := a.storeTags(r, payload.Tags)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			a.error(w, http.StatusBadRequest, "At least one valid tag is required.")
			return
		}
		a.Logger.Error().Err(err).Msg("movies: failed to store tags")
		a.error(w, http.StatusInternalServerError, "Failed to add movie")
		return
	}

	movie := &domain.Movie{
		Name:        name,
		URL:         payload.URL,
		Rating:      payload.Rating,
		ReleaseDate: payload.ReleaseDate,
		Tags:        strings.Join(tags, ","),
	}
	created, err := a.Movies.Create(r.Context(), movie)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateName) {
			a.error(w, http.StatusConflict, fmt.Sprintf("Movie with name %q already exists.", name))
			return
		}
		a.Logger.Error().Err(err).Msg("movies: create failed")
		a.error(w, http.StatusInternalServerError, "Failed to add movie")
		return
	}
	a.json(w, http.StatusCreated, created)
}

// UpdateMovie replaces an existing movie identified by the payload ID.
func (a *App) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	var payload moviePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if payload.ID == 0 || name == "" || payload.Tags == "" {
		a.error(w, http.StatusBadRequest, "ID, name, and tags are required.")
		return
	}
	tags, err := a.storeTags(r, payload.Tags)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			a.error(w, http.StatusBadRequest, "At least one valid tag is required.")
			return
		}
		a.Logger.Error().Err(err).Msg("movies: failed to store tags")
		a.error(w, http.StatusInternalServerError, "Failed to update movie")
		return
	}

	movie := &domain.Movie{
		ID:          payload.ID,
		Name:        name,
		URL:         payload.URL,
		Rating:      payload.Rating,
		ReleaseDate: payload.ReleaseDate,
		Tags:        strings.Join(tags, ","),
	}
	updated, err := a.Movies.Update(r.Context(), movie)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "Movie not found.")
		case errors.Is(err, domain.ErrDuplicateName):
			a.error(w, http.StatusConflict, "Another movie with this name already exists.")
		default:
			a.Logger.Error().Err(err).Msg("movies: update failed")
			a.error(w, http.StatusInternalServerError, "Failed to update movie")
		}
		return
	}
	a.json(w, http.StatusOK, updated)
}

// DeleteMovie removes a movie identified by the id query parameter.
func (a *App) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	a.deleteMovieByID(w, r, r.URL.Query().Get("id"))
}

// DeleteMovieByID removes a movie identified by the path ID.
func (a *App) DeleteMovieByID(w http.ResponseWriter, r *http.Request) {
	a.deleteMovieByID(w, r, chi.URLParam(r, "id"))
}

func (a *App) deleteMovieByID(w http.ResponseWriter, r *http.Request, rawID string) {
	id, ok := parseMovieID(rawID)
	if !ok {
		a.error(w, http.StatusBadRequest, "A valid movie ID is required.")
		return
	}
	if err := a.Movies.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Movie not found")
			return
		}
		a.Logger.Error().Err(err).Int64("id", id).Msg("movies: delete failed")
		a.error(w, http.StatusInternalServerError, "Failed to delete movie")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"message": "Movie deleted successfully"})
}

// storeTags normalizes the comma-separated tag string and records any new
// tags in the shared vocabulary.
func (a *App) storeTags(r *http.Request, rawTags string) ([]string, error) {
	tags := domain.NormalizeTags(rawTags)
	if len(tags) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := a.Hashtags.SaveAll(r.Context(), tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func parseMovieID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
