// Package movies fetches the films currently in theaters from TMDB.
package movies

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/justestif/go-mood-companion/internal/apiclient"
)

const baseURL = "https://api.themoviedb.org/3"

// ErrMissingAPIKey is returned by NewClient when no key is configured.
var ErrMissingAPIKey = errors.New("TMDB_API_KEY is required")

// Movie is one now-playing film.
type Movie struct {
	Title       string
	Overview    string
	ReleaseDate string
	VoteAverage float64
}

// Client is a TMDB v3 client.
type Client struct {
	api     *apiclient.Client
	apiKey  string
	baseURL string
}

// NewClient creates a TMDB client.
func NewClient(api *apiclient.Client, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Client{api: api, apiKey: apiKey, baseURL: baseURL}, nil
}

// NowPlaying returns the first page of films currently in theaters.
func (c *Client) NowPlaying(ctx context.Context) ([]Movie, error) {
	params := url.Values{
		"api_key":  {c.apiKey},
		"language": {"en-US"},
		"page":     {"1"},
	}
	reqURL := c.baseURL + "/movie/now_playing?" + params.Encode()

	var resp nowPlayingResponse
	if err := c.api.GetJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching now playing: %w", err)
	}

	movies := make([]Movie, 0, len(resp.Results))
	for _, m := range resp.Results {
		if strings.TrimSpace(m.Title) == "" {
			continue
		}
		movies = append(movies, Movie{
			Title:       m.Title,
			Overview:    strings.TrimSpace(m.Overview),
			ReleaseDate: m.ReleaseDate,
			VoteAverage: m.VoteAverage,
		})
	}
	return movies, nil
}

type nowPlayingResponse struct {
	Page    int `json:"page"`
	Results []struct {
		Title       string  `json:"title"`
		Overview    string  `json:"overview"`
		ReleaseDate string  `json:"release_date"`
		VoteAverage float64 `json:"vote_average"`
	} `json:"results"`
}
