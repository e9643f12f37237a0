// Package books fetches the New York Times best-seller list.
package books

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/justestif/go-mood-companion/internal/apiclient"
)

const (
	baseURL     = "https://api.nytimes.com/svc/books/v3"
	defaultList = "hardcover-fiction"
)

// ErrMissingAPIKey is returned by NewClient when no key is configured.
var ErrMissingAPIKey = errors.New("NYT_API_KEY is required")

// Book is one best-seller entry.
type Book struct {
	Rank        int
	Title       string
	Author      string
	Description string
}

// Client is a NYT Books API client.
type Client struct {
	api     *apiclient.Client
	apiKey  string
	baseURL string
	list    string
}

// NewClient creates a client for the current hardcover fiction list.
func NewClient(api *apiclient.Client, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Client{api: api, apiKey: apiKey, baseURL: baseURL, list: defaultList}, nil
}

// Bestsellers returns the current list in rank order.
func (c *Client) Bestsellers(ctx context.Context) ([]Book, error) {
	params := url.Values{"api-key": {c.apiKey}}
	reqURL := fmt.Sprintf("%s/lists/current/%s.json?%s", c.baseURL, c.list, params.Encode())

	var resp listResponse
	if err := c.api.GetJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching best sellers: %w", err)
	}

	books := make([]Book, 0, len(resp.Results.Books))
	for _, b := range resp.Results.Books {
		if strings.TrimSpace(b.Title) == "" {
			continue
		}
		books = append(books, Book{
			Rank:        b.Rank,
			Title:       titleCase(b.Title),
			Author:      b.Author,
			Description: strings.TrimSpace(b.Description),
		})
	}
	return books, nil
}

// titleCase converts the list's all-caps titles ("THE WOMEN") to "The Women".
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type listResponse struct {
	Status  string `json:"status"`
	Results struct {
		ListName string `json:"list_name"`
		Books    []struct {
			Rank        int    `json:"rank"`
			Title       string `json:"title"`
			Author      string `json:"author"`
			Description string `json:"description"`
		} `json:"books"`
	} `json:"results"`
}
