// Package catalog proxies movie data from OMDb. Nothing is stored locally;
// responses are cached for a short TTL.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NotFoundError carries OMDb's own error message ("Movie not found!",
// "Incorrect IMDb ID." and friends).
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// Movie mirrors the OMDb detail payload. Field names are OMDb's, passed
// through to the client unchanged.
type Movie struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbID     string `json:"imdbID"`
	Type       string `json:"Type"`
}

type SearchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "http://www.omdbapi.com"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) Search(ctx context.Context, query string) ([]SearchItem, error) {
	var out struct {
		Search   []SearchItem `json:"Search"`
		Response string       `json:"Response"`
		Error    string       `json:"Error"`
	}
	if err := c.get(ctx, url.Values{"s": {query}}, &out); err != nil {
		return nil, err
	}
	if !strings.EqualFold(out.Response, "True") {
		return nil, &NotFoundError{Message: out.Error}
	}
	return out.Search, nil
}

func (c *Client) ByID(ctx context.Context, imdbID string) (Movie, error) {
	var out struct {
		Movie
		Response string `json:"Response"`
		Error    string `json:"Error"`
	}
	if err := c.get(ctx, url.Values{"i": {imdbID}}, &out); err != nil {
		return Movie{}, err
	}
	if !strings.EqualFold(out.Response, "True") {
		return Movie{}, &NotFoundError{Message: out.Error}
	}
	return out.Movie, nil
}

func (c *Client) get(ctx context.Context, params url.Values, v any) error {
	params.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("omdb: status %d", resp.StatusCode)
	}
	return json.Unmarshal(b, v)
}
