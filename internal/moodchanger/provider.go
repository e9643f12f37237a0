// Package moodchanger provides the ambient signals (weather, news, books,
// films) that the mood engine turns into a mood.
package moodchanger

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/justestif/go-mood-companion/internal/apiclient"
	"github.com/justestif/go-mood-companion/internal/cache"
	"github.com/justestif/go-mood-companion/internal/config"
	"github.com/justestif/go-mood-companion/internal/logx"
)

// ErrProviderUnavailable is returned when a source fails or has nothing to say.
var ErrProviderUnavailable = errors.New("mood changer unavailable")

// Provider yields one line of context for the mood prompt.
type Provider interface {
	// Topic is the registry name, e.g. "weather".
	Topic() string
	// Summary describes the current state of the topic, e.g. "Partly Cloudy".
	Summary(ctx context.Context) (string, error)
}

// Deps are the shared dependencies handed to every constructor.
type Deps struct {
	API      *apiclient.Client
	Cache    cache.Store
	CacheTTL time.Duration
	Sources  config.SourcesConfig

	// Pick returns an index in [0, n). Defaults to math/rand.
	Pick func(n int) int
}

func (d Deps) pick(n int) int {
	if d.Pick != nil {
		return d.Pick(n)
	}
	return rand.IntN(n)
}

// Constructor builds a provider, failing when it is not configured.
type Constructor func(Deps) (Provider, error)

var registry = map[string]Constructor{
	TopicWeather: NewWeather,
	TopicNews:    NewNews,
	TopicBooks:   NewBooks,
	TopicMovies:  NewMovies,
}

// Names lists the registered topics in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Enabled builds the providers for topics, in order. Unknown topics and
// providers that fail to construct are logged and skipped.
func Enabled(topics []string, deps Deps) []Provider {
	if deps.API == nil {
		deps.API = apiclient.New()
	}

	var providers []Provider
	for _, topic := range topics {
		newProvider, ok := registry[topic]
		if !ok {
			logx.Warn().Str("topic", topic).Strs("known", Names()).Msg("Could not find mood changer, will not enable")
			continue
		}
		p, err := newProvider(deps)
		if err != nil {
			logx.Warn().Err(err).Str("topic", topic).Msg("Mood changer not configured, will not enable")
			continue
		}
		providers = append(providers, p)
	}
	return providers
}
