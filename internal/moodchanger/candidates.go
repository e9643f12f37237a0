package moodchanger

import (
	"context"
	"fmt"
	"time"

	"github.com/justestif/go-mood-companion/internal/apiclient"
	"github.com/justestif/go-mood-companion/internal/books"
	"github.com/justestif/go-mood-companion/internal/cache"
	"github.com/justestif/go-mood-companion/internal/movies"
	"github.com/justestif/go-mood-companion/internal/news"
)

// Registry names of the list-backed providers.
const (
	TopicNews   = "news"
	TopicBooks  = "books"
	TopicMovies = "movies"
)

// candidateProvider fetches a list of candidates (cached), picks one and
// phrases it as a sentence.
type candidateProvider[T any] struct {
	topic  string
	load   func(context.Context) ([]T, error)
	phrase func(T) string
	store  cache.Store
	ttl    time.Duration
	pick   func(int) int
}

func (p *candidateProvider[T]) Topic() string { return p.topic }

func (p *candidateProvider[T]) Summary(ctx context.Context) (string, error) {
	items, err := cache.Fetch(ctx, p.store, "candidates:"+p.topic, p.ttl, p.load)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, p.topic, err)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("%w: %s: no candidates", ErrProviderUnavailable, p.topic)
	}
	return p.phrase(items[p.pick(len(items))]), nil
}

// HeadlineSource is implemented by *news.Client.
type HeadlineSource interface {
	TopHeadlines(ctx context.Context) ([]news.Headline, error)
}

// NewNews requires NEWS_API_KEY.
func NewNews(d Deps) (Provider, error) {
	c, err := news.NewClient(api(d), d.Sources.NewsAPIKey)
	if err != nil {
		return nil, err
	}
	return NewNewsFrom(c, d), nil
}

// NewNewsFrom builds the news provider on an explicit source.
func NewNewsFrom(source HeadlineSource, d Deps) Provider {
	return &candidateProvider[news.Headline]{
		topic:  TopicNews,
		load:   source.TopHeadlines,
		phrase: func(h news.Headline) string { return "In the news today, " + h.Title },
		store:  d.Cache,
		ttl:    d.CacheTTL,
		pick:   d.pick,
	}
}

// BestsellerSource is implemented by *books.Client.
type BestsellerSource interface {
	Bestsellers(ctx context.Context) ([]books.Book, error)
}

// NewBooks requires NYT_API_KEY.
func NewBooks(d Deps) (Provider, error) {
	c, err := books.NewClient(api(d), d.Sources.NYTAPIKey)
	if err != nil {
		return nil, err
	}
	return NewBooksFrom(c, d), nil
}

// NewBooksFrom builds the books provider on an explicit source.
func NewBooksFrom(source BestsellerSource, d Deps) Provider {
	return &candidateProvider[books.Book]{
		topic: TopicBooks,
		load:  source.Bestsellers,
		phrase: func(b books.Book) string {
			if b.Author == "" {
				return "A best-selling novel right now is " + b.Title
			}
			return fmt.Sprintf("A best-selling novel right now is %s by %s", b.Title, b.Author)
		},
		store: d.Cache,
		ttl:   d.CacheTTL,
		pick:  d.pick,
	}
}

// NowPlayingSource is implemented by *movies.Client.
type NowPlayingSource interface {
	NowPlaying(ctx context.Context) ([]movies.Movie, error)
}

// NewMovies requires TMDB_API_KEY.
func NewMovies(d Deps) (Provider, error) {
	c, err := movies.NewClient(api(d), d.Sources.TMDBAPIKey)
	if err != nil {
		return nil, err
	}
	return NewMoviesFrom(c, d), nil
}

// NewMoviesFrom builds the movies provider on an explicit source.
func NewMoviesFrom(source NowPlayingSource, d Deps) Provider {
	return &candidateProvider[movies.Movie]{
		topic:  TopicMovies,
		load:   source.NowPlaying,
		phrase: func(m movies.Movie) string { return "A film now playing in theaters is " + m.Title },
		store:  d.Cache,
		ttl:    d.CacheTTL,
		pick:   d.pick,
	}
}

func api(d Deps) *apiclient.Client {
	if d.API == nil {
		return apiclient.New()
	}
	return d.API
}
