package watchlist

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/movie-platform/internal/platform/analytics"
	"github.com/example/movie-platform/internal/platform/api"
	"github.com/example/movie-platform/internal/platform/auth"
	"github.com/example/movie-platform/internal/platform/httpserver"
)

type messageResponse struct {
	Message string `json:"message"`
}

// Add handles POST /api/watchlist/{movieId}
func Add(s Store, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		movieID := strings.TrimSpace(chi.URLParam(r, "movieId"))
		if movieID == "" {
			api.BadRequest(w, "MISSING_ID", "movie id is required", rid, nil)
			return
		}

		added, err := s.Add(r.Context(), userID, movieID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		if added {
			ap.Publish(analytics.SubjectWatchlistAdded, "watchlist_added", strconv.FormatInt(userID, 10), map[string]any{
				"movie_id": movieID,
			})
		}
		api.WriteJSON(w, http.StatusCreated, messageResponse{Message: "Added to watchlist"})
	}
}

// Remove handles DELETE /api/watchlist/{movieId}
func Remove(s Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		movieID := strings.TrimSpace(chi.URLParam(r, "movieId"))
		if movieID == "" {
			api.BadRequest(w, "MISSING_ID", "movie id is required", rid, nil)
			return
		}

		if err := s.Remove(r.Context(), userID, movieID); err != nil {
			if errors.Is(err, ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "movie is not on the watchlist", rid)
				return
			}
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: "Removed from watchlist"})
	}
}

// List handles GET /api/watchlist
func List(s Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		entries, err := s.List(r.Context(), userID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, entries)
	}
}
