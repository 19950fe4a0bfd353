package watchlist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/movie-platform/internal/platform/auth"
)

func setupReq(method, url string, params map[string]string, userID int64) *http.Request {
	req := httptest.NewRequest(method, url, nil)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != 0 {
		ctx = auth.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

func TestWatchlist_RoundTrip(t *testing.T) {
	s := NewInMemoryStore()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	add := Add(s, nil)
	rr := httptest.NewRecorder()
	add.ServeHTTP(rr, setupReq(http.MethodPost, "/api/watchlist/tt0111161",
		map[string]string{"movieId": "tt0111161"}, 7))
	if rr.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	now = now.Add(time.Minute)
	rr = httptest.NewRecorder()
	add.ServeHTTP(rr, setupReq(http.MethodPost, "/api/watchlist/tt0068646",
		map[string]string{"movieId": "tt0068646"}, 7))
	if rr.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d", rr.Code)
	}

	// Re-adding is idempotent, still a 201.
	rr = httptest.NewRecorder()
	add.ServeHTTP(rr, setupReq(http.MethodPost, "/api/watchlist/tt0111161",
		map[string]string{"movieId": "tt0111161"}, 7))
	if rr.Code != http.StatusCreated {
		t.Fatalf("re-add: expected 201, got %d", rr.Code)
	}

	list := List(s)
	rr = httptest.NewRecorder()
	list.ServeHTTP(rr, setupReq(http.MethodGet, "/api/watchlist", nil, 7))
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	var entries []Entry
	_ = json.NewDecoder(rr.Body).Decode(&entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].MovieID != "tt0068646" || entries[1].MovieID != "tt0111161" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	remove := Remove(s)
	rr = httptest.NewRecorder()
	remove.ServeHTTP(rr, setupReq(http.MethodDelete, "/api/watchlist/tt0111161",
		map[string]string{"movieId": "tt0111161"}, 7))
	if rr.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	remove.ServeHTTP(rr, setupReq(http.MethodDelete, "/api/watchlist/tt0111161",
		map[string]string{"movieId": "tt0111161"}, 7))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("remove absent: expected 404, got %d", rr.Code)
	}
}

func TestWatchlist_PerUserIsolation(t *testing.T) {
	s := NewInMemoryStore()

	add := Add(s, nil)
	rr := httptest.NewRecorder()
	add.ServeHTTP(rr, setupReq(http.MethodPost, "/api/watchlist/tt0111161",
		map[string]string{"movieId": "tt0111161"}, 1))
	if rr.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d", rr.Code)
	}

	list := List(s)
	rr = httptest.NewRecorder()
	list.ServeHTTP(rr, setupReq(http.MethodGet, "/api/watchlist", nil, 2))
	body := rr.Body.String()
	if body == "null\n" || body == "null" {
		t.Fatalf("expected JSON array, got %q", body)
	}
	var entries []Entry
	_ = json.Unmarshal([]byte(body), &entries)
	if len(entries) != 0 {
		t.Fatalf("expected empty list for other user, got %+v", entries)
	}
}

func TestWatchlist_Unauthorized(t *testing.T) {
	s := NewInMemoryStore()

	rr := httptest.NewRecorder()
	List(s).ServeHTTP(rr, setupReq(http.MethodGet, "/api/watchlist", nil, 0))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
