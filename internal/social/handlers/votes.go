// Package handlers exposes the social endpoints: movie votes, comments and
// comment votes.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/movie-platform/internal/platform/analytics"
	"github.com/example/movie-platform/internal/platform/api"
	"github.com/example/movie-platform/internal/platform/auth"
	"github.com/example/movie-platform/internal/platform/httpserver"
	"github.com/example/movie-platform/internal/social/store"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

type voteRequest struct {
	Action store.VoteAction `json:"action"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userVoteResponse struct {
	UserVote *store.VoteAction `json:"userVote"`
}

type ratingsResponse struct {
	TotalScore int64 `json:"totalScore"`
	TotalVotes int64 `json:"totalVotes"`
}

var voteMessages = map[store.VoteStatus]string{
	store.VoteRecorded: "Vote recorded",
	store.VoteUpdated:  "Vote updated",
	store.VoteRemoved:  "Vote removed",
}

// CastVote handles POST /api/movies/{movie_id}/like
func CastVote(vs store.VoteStore, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		movieID := strings.TrimSpace(chi.URLParam(r, "movie_id"))
		if movieID == "" {
			api.BadRequest(w, "MISSING_ID", "movie id is required", rid, nil)
			return
		}

		var req voteRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		if !store.ValidVoteAction(req.Action) {
			api.BadRequest(w, "INVALID_ACTION", "action must be like or dislike", rid, nil)
			return
		}

		status, err := vs.Cast(r.Context(), userID, movieID, req.Action)
		if err != nil {
			if err == store.ErrConflict {
				api.Conflict(w, "VOTE_CONFLICT", "please retry", rid, nil)
				return
			}
			api.Internal(w, rid)
			return
		}

		ap.Publish(analytics.SubjectSocialMovieVoted, "movie_voted", itoa(userID), map[string]any{
			"movie_id": movieID,
			"action":   string(req.Action),
			"status":   string(status),
		})
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: voteMessages[status]})
	}
}

// GetUserVote handles GET /api/movies/{movie_id}/uservote
func GetUserVote(vs store.VoteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		movieID := strings.TrimSpace(chi.URLParam(r, "movie_id"))
		if movieID == "" {
			api.BadRequest(w, "MISSING_ID", "movie id is required", rid, nil)
			return
		}

		action, voted, err := vs.UserVote(r.Context(), userID, movieID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		resp := userVoteResponse{}
		if voted {
			resp.UserVote = &action
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// GetRatings handles GET /api/movies/{movie_id}/ratings
func GetRatings(vs store.VoteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		movieID := strings.TrimSpace(chi.URLParam(r, "movie_id"))
		if movieID == "" {
			api.BadRequest(w, "MISSING_ID", "movie id is required", rid, nil)
			return
		}

		agg, err := vs.Aggregate(r.Context(), movieID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, ratingsResponse{TotalScore: agg.TotalScore, TotalVotes: agg.TotalVotes})
	}
}
