package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/movie-platform/internal/platform/analytics"
	"github.com/example/movie-platform/internal/platform/api"
	"github.com/example/movie-platform/internal/platform/httpserver"
)

const defaultSearchQuery = "batman"

// Home handles GET /api/home?search= and returns full detail objects for
// each search hit. Individual detail failures are skipped rather than
// failing the whole page.
func Home(c *Client, cache Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		query := strings.TrimSpace(r.URL.Query().Get("search"))
		if query == "" {
			query = defaultSearchQuery
		}

		key := "search:" + strings.ToLower(query)
		if v, ok := cache.Get(key); ok {
			if movies, ok := v.([]Movie); ok {
				api.WriteJSON(w, http.StatusOK, movies)
				return
			}
		}

		hits, err := c.Search(r.Context(), query)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}

		movies := make([]Movie, 0, len(hits))
		for _, hit := range hits {
			m, err := c.ByID(r.Context(), hit.ImdbID)
			if err != nil {
				continue
			}
			movies = append(movies, m)
		}

		cache.Set(key, movies)
		api.WriteJSON(w, http.StatusOK, movies)
	}
}

// MovieByID handles GET /api/movie/{imdbID}
func MovieByID(c *Client, cache Cache, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		imdbID := strings.TrimSpace(chi.URLParam(r, "imdbID"))
		if imdbID == "" {
			api.BadRequest(w, "MISSING_ID", "movie id is required", rid, nil)
			return
		}

		key := "movie:" + imdbID
		if v, ok := cache.Get(key); ok {
			if m, ok := v.(Movie); ok {
				api.WriteJSON(w, http.StatusOK, m)
				return
			}
		}

		m, err := c.ByID(r.Context(), imdbID)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}

		ap.Publish(analytics.SubjectCatalogMovieViewed, "movie_viewed", "", map[string]any{
			"imdb_id": imdbID,
		})
		cache.Set(key, m)
		api.WriteJSON(w, http.StatusOK, m)
	}
}

func writeUpstreamError(w http.ResponseWriter, rid string, err error) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		msg := nf.Message
		if msg == "" {
			msg = "Movie not found!"
		}
		api.NotFound(w, "NOT_FOUND", msg, rid)
		return
	}
	api.BadGateway(w, "UPSTREAM_ERROR", "Movie data is temporarily unavailable", rid)
}
