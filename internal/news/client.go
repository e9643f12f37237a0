// Package news fetches top headlines from NewsAPI.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/justestif/go-mood-companion/internal/apiclient"
)

const baseURL = "https://newsapi.org/v2"

// ErrMissingAPIKey is returned by NewClient when no key is configured.
var ErrMissingAPIKey = errors.New("NEWS_API_KEY is required")

// Headline is one top-headline article.
type Headline struct {
	Title       string
	Description string
	Source      string
}

// Client is a NewsAPI client.
type Client struct {
	api     *apiclient.Client
	apiKey  string
	baseURL string
	country string
}

// NewClient creates a NewsAPI client for US top headlines.
func NewClient(api *apiclient.Client, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Client{api: api, apiKey: apiKey, baseURL: baseURL, country: "us"}, nil
}

// TopHeadlines returns the current top headlines. Articles removed upstream
// (title "[Removed]") and untitled articles are skipped.
func (c *Client) TopHeadlines(ctx context.Context) ([]Headline, error) {
	params := url.Values{"country": {c.country}}
	reqURL := c.baseURL + "/top-headlines?" + params.Encode()

	var resp headlinesResponse
	if err := c.api.GetJSON(ctx, reqURL, http.Header{"X-Api-Key": {c.apiKey}}, &resp); err != nil {
		return nil, fmt.Errorf("fetching top headlines: %w", err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi error %s: %s", resp.Code, resp.Message)
	}

	headlines := make([]Headline, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		title := strings.TrimSpace(a.Title)
		if title == "" || title == "[Removed]" {
			continue
		}
		headlines = append(headlines, Headline{
			Title:       title,
			Description: strings.TrimSpace(a.Description),
			Source:      a.Source.Name,
		})
	}
	return headlines, nil
}

type headlinesResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"articles"`
}
