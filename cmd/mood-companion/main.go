// Command mood-companion runs the mood companion appliance: it derives a mood
// from ambient signals, plays a matching Spotify playlist and reacts to
// keypresses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/justestif/go-mood-companion/internal/apiclient"
	"github.com/justestif/go-mood-companion/internal/auth"
	"github.com/justestif/go-mood-companion/internal/cache"
	"github.com/justestif/go-mood-companion/internal/config"
	"github.com/justestif/go-mood-companion/internal/controller"
	"github.com/justestif/go-mood-companion/internal/db"
	"github.com/justestif/go-mood-companion/internal/display"
	"github.com/justestif/go-mood-companion/internal/llm"
	"github.com/justestif/go-mood-companion/internal/logx"
	"github.com/justestif/go-mood-companion/internal/mood"
	"github.com/justestif/go-mood-companion/internal/moodchanger"
	"github.com/justestif/go-mood-companion/internal/playlist"
	"github.com/justestif/go-mood-companion/internal/spotify"
	"github.com/justestif/go-mood-companion/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCloser, err := logx.Init(logx.Options{
		Environment: logx.ParseEnvironment(cfg.Environment),
		File:        cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quiet, err := config.ParseQuietHours(cfg.Quiet)
	if err != nil {
		logx.Warn().Err(err).Msg("Quiet hours disabled")
	}
	keys, warnings := config.ParseBindings(cfg.Keys)
	for _, w := range warnings {
		logx.Warn().Msg(w)
	}

	topics := cfg.Topics()

	store := openCache(ctx, cfg.RedisURL)
	defer store.Close()

	providers := moodchanger.Enabled(topics, moodchanger.Deps{
		API:      apiclient.New(),
		Cache:    store,
		CacheTTL: cfg.Sources.CacheTTL,
		Sources:  cfg.Sources,
	})
	if len(providers) == 0 {
		logx.Warn().Strs("topics", topics).Msg("No mood changers could be enabled")
	}

	gen, err := llm.NewGemini(ctx, llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return err
	}

	authenticator, err := auth.New(auth.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURI:  cfg.Spotify.RedirectURI,
	})
	if err != nil {
		return err
	}
	spotifyClient, err := authenticator.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("authenticating with Spotify: %w", err)
	}
	backend := spotify.New(spotifyClient)
	if name, err := backend.UserName(ctx); err == nil {
		logx.Info().Str("user", name).Msg("Logged in to Spotify")
	}

	moodState := mood.NewState()
	playlistState := playlist.NewState()
	engine := mood.NewEngine(gen, providers, moodState)
	selector := playlist.NewSelector(gen, backend, playlistState)
	if err := selector.ResolveDevice(ctx, cfg.Spotify.DeviceName, cfg.Spotify.DeviceID); err != nil {
		logx.Error().Err(err).Msg("Playback will be skipped until a device is available")
	}

	opts := controller.Options{
		Engine:          engine,
		Player:          selector,
		MoodState:       moodState,
		PlaylistState:   playlistState,
		Quiet:           quiet,
		Keys:            keys,
		MoodInterval:    cfg.MoodInterval(),
		DisplayInterval: cfg.DisplayInterval(),
	}
	if cfg.Display.Enabled {
		opts.Display = display.NewTerminal(os.Stdout)
	}

	var history *db.CycleRepository
	if cfg.DatabaseURL != "" {
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logx.Warn().Err(err).Msg("Mood history disabled")
		} else {
			defer database.Close()
			history = database.Cycles()
			opts.Recorder = history
		}
	}

	coordinator := controller.New(opts)

	var wg sync.WaitGroup
	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	if cfg.StatusAddr != "" {
		serverCfg := web.ServerConfig{Addr: cfg.StatusAddr, Remote: coordinator}
		if history != nil {
			serverCfg.History = history
		}
		server, err := web.NewServer(serverCfg)
		if err != nil {
			return fmt.Errorf("creating status server: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Run(serverCtx); err != nil {
				logx.Error().Err(err).Msg("Status server stopped")
			}
		}()
	}

	coordinator.PrintBanner(os.Stdout)
	err = coordinator.Run(ctx, controller.Keyboard{})

	stopServer()
	wg.Wait()
	return err
}

// openCache connects to Redis when configured and falls back to memory.
func openCache(ctx context.Context, redisURL string) cache.Store {
	if redisURL == "" {
		return cache.NewMemory()
	}
	store, err := cache.OpenRedis(ctx, cache.RedisConfig{URL: redisURL})
	if err != nil {
		logx.Warn().Err(err).Msg("Redis unavailable, caching candidates in memory")
		return cache.NewMemory()
	}
	return store
}
