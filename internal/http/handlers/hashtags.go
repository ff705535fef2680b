package handlers

import "net/http"

// ListHashtags returns the distinct tag vocabulary in alphabetical order.
func (a *App) ListHashtags(w http.ResponseWriter, r *http.Request) {
	tags, err := a.Hashtags.List(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("hashtags: list failed")
		a.error(w, http.StatusInternalServerError, "Failed to fetch hashtags")
		return
	}
	if tags == nil {
		tags = []string{}
	}
	a.json(w, http.StatusOK, tags)
}
