package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/movie-platform/internal/platform/analytics"
	"github.com/example/movie-platform/internal/platform/api"
	"github.com/example/movie-platform/internal/platform/auth"
	"github.com/example/movie-platform/internal/platform/httpserver"
	"github.com/example/movie-platform/internal/social/store"
)

type createCommentRequest struct {
	Content string `json:"content"`
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

type commentVoteRequest struct {
	Action store.CommentVoteAction `json:"action"`
}

type commentResponse struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UserID    int64     `json:"userId"`
}

// PostComment handles POST /api/movies/{movie_id}/comment
func PostComment(cs store.CommentStore, ap *analytics.Publisher) http.HandlerFunc {
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

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", rid, nil)
			return
		}

		c, err := cs.Create(r.Context(), userID, movieID, req.Content)
		if err != nil {
			var ce *store.CooldownError
			if errors.As(err, &ce) {
				api.RateLimited(w, "COMMENT_COOLDOWN",
					fmt.Sprintf("Please wait %d seconds before commenting again", ce.RetryAfterSeconds()),
					rid, map[string]any{"retry_after_seconds": ce.RetryAfterSeconds()})
				return
			}
			api.Internal(w, rid)
			return
		}

		ap.Publish(analytics.SubjectSocialCommentPosted, "comment_posted", itoa(userID), map[string]any{
			"movie_id":   movieID,
			"comment_id": c.ID,
		})
		// userId rides along so the client can mark ownership without a
		// second round trip.
		api.WriteJSON(w, http.StatusCreated, commentResponse{
			ID:        c.ID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			UserID:    c.UserID,
		})
	}
}

// UpdateComment handles PUT /api/comments/{comment_id}
func UpdateComment(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		commentID, ok := commentIDParam(w, r, rid)
		if !ok {
			return
		}

		var req updateCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", rid, nil)
			return
		}

		if err := cs.UpdateContent(r.Context(), commentID, userID, req.Content); err != nil {
			writeCommentWriteError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: "Comment updated"})
	}
}

// DeleteComment handles DELETE /api/comments/{comment_id}
func DeleteComment(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		commentID, ok := commentIDParam(w, r, rid)
		if !ok {
			return
		}

		if err := cs.Delete(r.Context(), commentID, userID); err != nil {
			writeCommentWriteError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: "Comment deleted"})
	}
}

// VoteComment handles POST /api/comments/{comment_id}/vote
func VoteComment(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		commentID, ok := commentIDParam(w, r, rid)
		if !ok {
			return
		}

		var req commentVoteRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		if !store.ValidCommentVoteAction(req.Action) {
			api.BadRequest(w, "INVALID_ACTION", "action must be upvote or downvote", rid, nil)
			return
		}

		if err := cs.Vote(r.Context(), commentID, userID, req.Action); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "comment not found", rid)
				return
			}
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: "Vote applied"})
	}
}

// ListComments handles GET /api/movies/{movie_id}/comments
func ListComments(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		movieID := strings.TrimSpace(chi.URLParam(r, "movie_id"))
		if movieID == "" {
			api.BadRequest(w, "MISSING_ID", "movie id is required", rid, nil)
			return
		}

		list, err := cs.ListByMovie(r.Context(), movieID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, list)
	}
}

func commentIDParam(w http.ResponseWriter, r *http.Request, rid string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "comment_id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		api.BadRequest(w, "INVALID_ID", "comment id must be a positive integer", rid, nil)
		return 0, false
	}
	return id, true
}

// Ownership failures and unknown ids share one response on purpose: a
// non-owner cannot learn whether the comment exists.
func writeCommentWriteError(w http.ResponseWriter, rid string, err error) {
	if errors.Is(err, store.ErrNotFoundOrForbidden) {
		api.Forbidden(w, "FORBIDDEN", "comment not found or not yours", rid)
		return
	}
	api.Internal(w, rid)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
