package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/go-mood-companion/internal/logx"
)

const (
	// DefaultRedirectURI uses explicit IPv4 loopback as required by Spotify for local development.
	// See: https://developer.spotify.com/documentation/web-api/concepts/redirect-uri
	DefaultRedirectURI = "http://127.0.0.1:8080/callback"
	callbackTimeout    = 5 * time.Minute
)

var (
	// ErrMissingCredentials is returned when the client id or secret is empty.
	ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET")

	// ErrAuthTimeout is returned when the OAuth callback is not received in time.
	ErrAuthTimeout = errors.New("authentication timed out waiting for callback")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")
)

// Scopes needed to list devices, read what is playing and control playback.
var Scopes = []string{
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
}

// Config holds the Spotify application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	// RedirectURI defaults to DefaultRedirectURI. Its host:port is where the
	// callback server listens.
	RedirectURI string
	// TokenPath overrides the default token cache location.
	TokenPath string
}

// Authenticator handles Spotify OAuth2 authentication.
type Authenticator struct {
	auth        *spotifyauth.Authenticator
	cache       *TokenCache
	redirectURI string
}

// New creates an Authenticator. Returns ErrMissingCredentials if the client
// id or secret is empty.
func New(cfg Config) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = DefaultRedirectURI
	}

	cache := NewTokenCache(cfg.TokenPath)
	if cfg.TokenPath == "" {
		var err error
		cache, err = DefaultTokenCache()
		if err != nil {
			return nil, fmt.Errorf("creating token cache: %w", err)
		}
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(Scopes...),
	)

	return &Authenticator{
		auth:        auth,
		cache:       cache,
		redirectURI: cfg.RedirectURI,
	}, nil
}

// Authenticate returns a Spotify client, reusing the cached token when the
// API still accepts it and logging in through the browser otherwise.
func (a *Authenticator) Authenticate(ctx context.Context) (*spotify.Client, error) {
	client, err := a.cachedClient(ctx)
	if err != nil {
		return nil, err
	}
	if client != nil {
		return client, nil
	}

	token, err := a.login(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.cache.Save(token); err != nil {
		logx.Warn().Err(err).Str("path", a.cache.Path()).Msg("Failed to cache Spotify token")
	}
	return a.client(ctx, token), nil
}

// cachedClient returns nil without error when there is no usable token.
func (a *Authenticator) cachedClient(ctx context.Context) (*spotify.Client, error) {
	token, err := a.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("loading cached token: %w", err)
	}
	if token == nil {
		return nil, nil
	}

	client := a.client(ctx, token)
	if _, err := client.CurrentUser(ctx); err != nil {
		logx.Warn().Err(err).Msg("Cached Spotify token invalid, starting new authentication")
		return nil, nil
	}

	// The oauth2 transport may have refreshed the token during the check.
	if fresh, err := client.Token(); err == nil && fresh.AccessToken != token.AccessToken {
		if err := a.cache.Save(fresh); err != nil {
			logx.Warn().Err(err).Msg("Failed to cache refreshed Spotify token")
		}
	}
	return client, nil
}

func (a *Authenticator) client(ctx context.Context, token *oauth2.Token) *spotify.Client {
	return spotify.New(a.auth.Client(ctx, token), spotify.WithRetry(true))
}

// login runs the authorization code flow against a local callback listener.
func (a *Authenticator) login(ctx context.Context) (*oauth2.Token, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	l, err := listenForCallback(a.auth, a.redirectURI, state)
	if err != nil {
		return nil, err
	}
	defer l.close()

	// The appliance is headless; the URL is opened on another machine.
	fmt.Printf("\nTo connect Spotify, open this URL in your browser:\n%s\n\nWaiting for authentication...\n", a.auth.AuthURL(state))

	return l.wait(ctx, callbackTimeout)
}

// generateState creates a random state string for OAuth.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Logout removes the cached token.
func (a *Authenticator) Logout() error {
	return a.cache.Delete()
}
