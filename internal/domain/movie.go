package domain

import "strings"

// Movie is a catalog entry. URL, Rating and ReleaseDate are optional; Tags is
// the canonical comma-joined form produced by NormalizeTags.
type Movie struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	URL         *string  `json:"url"`
	Rating      *float64 `json:"rating"`
	ReleaseDate *string  `json:"releaseDate"`
	Tags        string   `json:"tags"`
}

// NormalizeTags splits a comma-separated tag string, trims and lowercases
// each tag, drops empties and removes duplicates while preserving first-seen
// order.
func NormalizeTags(tags string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, raw := range strings.Split(tags, ",") {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
