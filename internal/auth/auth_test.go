package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenCache_SaveAndLoad(t *testing.T) {
	tests := []struct {
		name  string
		token *oauth2.Token
	}{
		{
			name: "basic token",
			token: &oauth2.Token{
				AccessToken:  "test-access-token",
				TokenType:    "Bearer",
				RefreshToken: "test-refresh-token",
				Expiry:       time.Now().Add(time.Hour),
			},
		},
		{
			name: "token without refresh",
			token: &oauth2.Token{
				AccessToken: "access-only",
				TokenType:   "Bearer",
				Expiry:      time.Now().Add(30 * time.Minute),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "token.json")
			cache := NewTokenCache(path)

			// Save token
			if err := cache.Save(tt.token); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			// Load token
			loaded, err := cache.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if loaded == nil {
				t.Fatal("Load() returned nil token")
			}

			if loaded.AccessToken != tt.token.AccessToken {
				t.Errorf("AccessToken = %q, want %q", loaded.AccessToken, tt.token.AccessToken)
			}

			if loaded.RefreshToken != tt.token.RefreshToken {
				t.Errorf("RefreshToken = %q, want %q", loaded.RefreshToken, tt.token.RefreshToken)
			}

			if loaded.TokenType != tt.token.TokenType {
				t.Errorf("TokenType = %q, want %q", loaded.TokenType, tt.token.TokenType)
			}
		})
	}
}

func TestTokenCache_LoadNonExistent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent", "token.json")
	cache := NewTokenCache(path)

	token, err := cache.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if token != nil {
		t.Errorf("Load() = %v, want nil for non-existent file", token)
	}
}

func TestTokenCache_SaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeply", "token.json")
	cache := NewTokenCache(path)

	token := &oauth2.Token{
		AccessToken: "test-token",
		TokenType:   "Bearer",
	}

	if err := cache.Save(token); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Verify directory was created
	parentDir := filepath.Dir(path)
	if _, err := os.Stat(parentDir); os.IsNotExist(err) {
		t.Error("Save() did not create parent directory")
	}

	// Verify file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("Save() did not create token file")
	}
}

func TestTokenCache_SaveNilToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	cache := NewTokenCache(path)

	err := cache.Save(nil)
	if err == nil {
		t.Error("Save(nil) should return error")
	}
}

func TestTokenCache_Delete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	cache := NewTokenCache(path)

	// Save a token first
	token := &oauth2.Token{
		AccessToken: "test-token",
		TokenType:   "Bearer",
	}
	if err := cache.Save(token); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Delete it
	if err := cache.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// Verify file is gone
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Delete() did not remove token file")
	}
}

func TestTokenCache_DeleteNonExistent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.json")
	cache := NewTokenCache(path)

	// Should not error when file doesn't exist
	if err := cache.Delete(); err != nil {
		t.Errorf("Delete() error = %v, want nil for non-existent file", err)
	}
}

func TestTokenCache_LoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}

	token, err := NewTokenCache(path).Load()
	if err != nil || token != nil {
		t.Errorf("Load() = %v, %v, want nil, nil", token, err)
	}
}

func TestTokenCache_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	cache := NewTokenCache(filepath.Join(dir, "token.json"))

	for _, access := range []string{"first", "second"} {
		if err := cache.Save(&oauth2.Token{AccessToken: access}); err != nil {
			t.Fatalf("Save(%s) error = %v", access, err)
		}
	}

	loaded, err := cache.Load()
	if err != nil || loaded.AccessToken != "second" {
		t.Errorf("Load() = %v, %v, want second", loaded, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the token file", len(entries))
	}
}

func TestTokenCache_Path(t *testing.T) {
	path := "/custom/path/token.json"
	cache := NewTokenCache(path)

	if cache.Path() != path {
		t.Errorf("Path() = %q, want %q", cache.Path(), path)
	}
}

func TestTokenCache_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	cache := NewTokenCache(path)

	token := &oauth2.Token{
		AccessToken: "secret-token",
		TokenType:   "Bearer",
	}

	if err := cache.Save(token); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	// Check file is not world-readable (0600)
	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		t.Errorf("File permissions = %o, want 0600 (no group/other access)", mode)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		secret string
	}{
		{"both missing", "", ""},
		{"id missing", "", "secret"},
		{"secret missing", "id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{ClientID: tt.id, ClientSecret: tt.secret})
			if err != ErrMissingCredentials {
				t.Errorf("New() error = %v, want ErrMissingCredentials", err)
			}
		})
	}
}

func TestNew_WithCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	auth, err := New(Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		TokenPath:    path,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if auth == nil {
		t.Fatal("New() returned nil authenticator")
	}
	if auth.redirectURI != DefaultRedirectURI {
		t.Errorf("redirectURI = %q, want %q", auth.redirectURI, DefaultRedirectURI)
	}
	if auth.cache.Path() != path {
		t.Errorf("token path = %q, want %q", auth.cache.Path(), path)
	}
}

func TestCallbackAddr(t *testing.T) {
	tests := []struct {
		uri      string
		wantAddr string
		wantPath string
		wantErr  bool
	}{
		{"http://127.0.0.1:8080/callback", "127.0.0.1:8080", "/callback", false},
		{"http://raspberrypi.local:9000/spotify/cb", "raspberrypi.local:9000", "/spotify/cb", false},
		{"http://127.0.0.1", "127.0.0.1:80", "/", false},
		{"/callback", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			addr, path, err := callbackAddr(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("callbackAddr() error = %v, wantErr %v", err, tt.wantErr)
			}
			if addr != tt.wantAddr || path != tt.wantPath {
				t.Errorf("callbackAddr() = (%q, %q), want (%q, %q)", addr, path, tt.wantAddr, tt.wantPath)
			}
		})
	}
}

type fakeExchanger struct {
	token *oauth2.Token
	err   error
}

func (f fakeExchanger) Token(context.Context, string, *http.Request, ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return f.token, f.err
}

func TestCallbackListener_Handle(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		exchanger  fakeExchanger
		wantStatus int
		wantErr    error
		wantToken  bool
	}{
		{
			name:       "success",
			query:      "state=expected&code=abc",
			exchanger:  fakeExchanger{token: &oauth2.Token{AccessToken: "access"}},
			wantStatus: http.StatusOK,
			wantToken:  true,
		},
		{
			name:       "state mismatch",
			query:      "state=wrong&code=abc",
			wantStatus: http.StatusBadRequest,
			wantErr:    ErrStateMismatch,
		},
		{
			name:       "denied",
			query:      "state=expected&error=access_denied",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "exchange fails",
			query:      "state=expected&code=abc",
			exchanger:  fakeExchanger{err: errors.New("invalid_grant")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newCallbackListener(tt.exchanger, "/callback", "expected")
			req := httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil)
			rec := httptest.NewRecorder()

			l.handle(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			token, err := l.wait(context.Background(), time.Second)
			if tt.wantToken {
				if err != nil || token == nil || token.AccessToken != "access" {
					t.Errorf("wait() = %v, %v", token, err)
				}
				return
			}
			if err == nil {
				t.Fatal("wait() error = nil, want an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("wait() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCallbackListener_KeepsFirstResult(t *testing.T) {
	l := newCallbackListener(fakeExchanger{token: &oauth2.Token{AccessToken: "first"}}, "/callback", "s")

	l.handle(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=1", nil))
	l.handle(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=bad", nil))

	token, err := l.wait(context.Background(), time.Second)
	if err != nil || token.AccessToken != "first" {
		t.Errorf("wait() = %v, %v, want the first token", token, err)
	}
}

func TestCallbackListener_Timeout(t *testing.T) {
	l := newCallbackListener(fakeExchanger{}, "/callback", "s")
	if _, err := l.wait(context.Background(), 10*time.Millisecond); !errors.Is(err, ErrAuthTimeout) {
		t.Errorf("wait() error = %v, want ErrAuthTimeout", err)
	}
}

func TestScopes(t *testing.T) {
	want := map[string]bool{
		"user-read-playback-state":    true,
		"user-modify-playback-state":  true,
		"user-read-currently-playing": true,
	}
	if len(Scopes) != len(want) {
		t.Fatalf("Scopes = %v", Scopes)
	}
	for _, s := range Scopes {
		if !want[s] {
			t.Errorf("unexpected scope %q", s)
		}
	}
}

func TestGenerateState(t *testing.T) {
	state1, err := generateState()
	if err != nil {
		t.Fatalf("generateState() error = %v", err)
	}

	if len(state1) != 32 { // 16 bytes = 32 hex chars
		t.Errorf("generateState() length = %d, want 32", len(state1))
	}

	// Verify randomness - generate another and compare
	state2, err := generateState()
	if err != nil {
		t.Fatalf("generateState() error = %v", err)
	}

	if state1 == state2 {
		t.Error("generateState() returned same value twice")
	}
}
