// Package config loads the appliance configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig defines every configurable parameter, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogFile     string `envconfig:"LOG_FILE" default:"beba.log"`

	LLM     LLMConfig
	Spotify SpotifyConfig
	Mood    MoodConfig
	Display DisplayConfig
	Quiet   QuietConfig
	Keys    KeyConfig
	Sources SourcesConfig

	// Optional infrastructure. Empty values disable the feature.
	RedisURL    string `envconfig:"REDIS_URL"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	StatusAddr  string `envconfig:"STATUS_ADDR"`
}

// LLMConfig configures the text-generation backend.
type LLMConfig struct {
	APIKey      string  `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL     string  `envconfig:"GEMINI_BASE_URL"`
	Model       string  `envconfig:"LLM_MODEL" default:"gemini-2.0-flash"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.9"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"2000"`
}

// SpotifyConfig configures the music backend.
type SpotifyConfig struct {
	ClientID     string `envconfig:"SPOTIFY_ID" required:"true"`
	ClientSecret string `envconfig:"SPOTIFY_SECRET" required:"true"`
	RedirectURI  string `envconfig:"SPOTIFY_REDIRECT_URI" default:"http://127.0.0.1:8080/callback"`
	DeviceName   string `envconfig:"SPOTIFY_DEVICE_NAME"`
	DeviceID     string `envconfig:"SPOTIFY_DEVICE_ID"`
}

// MoodConfig configures the mood cycle.
type MoodConfig struct {
	TopicsEnabled string `envconfig:"MOOD_TOPICS_ENABLED" default:"weather"`
	TimerMinutes  int    `envconfig:"NEW_MOOD_TIMER_MINUTES" default:"60"`
}

// DisplayConfig configures the status display.
type DisplayConfig struct {
	Enabled        bool `envconfig:"DISPLAY_ENABLED" default:"false"`
	RefreshSeconds int  `envconfig:"DISPLAY_REFRESH_SECONDS" default:"30"`
}

// QuietConfig holds the raw quiet-hours settings; see ParseQuietHours.
type QuietConfig struct {
	Enabled bool   `envconfig:"QUIET_HOURS_ENABLED" default:"false"`
	Start   string `envconfig:"QUIET_HOURS_START"`
	End     string `envconfig:"QUIET_HOURS_END"`
}

// KeyConfig holds the raw key bindings; see ParseBindings.
type KeyConfig struct {
	ChangeMood string `envconfig:"CHANGE_MOOD_KEY" default:"m"`
	PlayPause  string `envconfig:"PLAY_PAUSE_KEY" default:"p"`
	Next       string `envconfig:"NEXT_KEY" default:"n"`
	Previous   string `envconfig:"PREV_KEY" default:"b"`
	Info       string `envconfig:"INFO_KEY" default:"i"`
	Quit       string `envconfig:"QUIT_KEY" default:"q"`
}

// SourcesConfig holds the credentials of the mood changer data sources.
type SourcesConfig struct {
	WeatherZipCode     string        `envconfig:"WEATHER_ZIP_CODE"`
	WeatherCountryCode string        `envconfig:"WEATHER_COUNTRY_CODE" default:"US"`
	NewsAPIKey         string        `envconfig:"NEWS_API_KEY"`
	NYTAPIKey          string        `envconfig:"NYT_API_KEY"`
	TMDBAPIKey         string        `envconfig:"TMDB_API_KEY"`
	CacheTTL           time.Duration `envconfig:"SOURCE_CACHE_TTL" default:"1h"`
}

// Load reads an optional .env file and then processes the environment.
// A missing .env file is not an error.
func Load(envFiles ...string) (*AppConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// godotenv never overrides variables that are already set.
	_ = godotenv.Load(envFiles...)

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment config: %w", err)
	}
	return &cfg, nil
}

// MoodInterval returns the configured mood timer interval, defaulting to an hour.
func (c *AppConfig) MoodInterval() time.Duration {
	if c.Mood.TimerMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Mood.TimerMinutes) * time.Minute
}

// DisplayInterval returns the display refresh interval, defaulting to 30 seconds.
func (c *AppConfig) DisplayInterval() time.Duration {
	if c.Display.RefreshSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Display.RefreshSeconds) * time.Second
}

// Topics splits MOOD_TOPICS_ENABLED into lower-cased, trimmed names.
// Duplicates and empty entries are dropped.
func (c *AppConfig) Topics() []string {
	return ParseTopics(c.Mood.TopicsEnabled)
}

// ParseTopics splits a comma-separated topic list. An empty list is valid;
// the mood prompt is then built without any signals.
func ParseTopics(raw string) []string {
	seen := make(map[string]bool)
	topics := []string{}
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		topics = append(topics, name)
	}
	return topics
}
