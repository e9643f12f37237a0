package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// codeExchanger is the part of the Spotify authenticator the callback needs.
type codeExchanger interface {
	Token(ctx context.Context, state string, r *http.Request, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

// callbackListener serves the redirect URI until one callback arrives.
type callbackListener struct {
	exchanger codeExchanger
	state     string
	server    *http.Server
	result    chan callbackResult
}

func newCallbackListener(ex codeExchanger, path, state string) *callbackListener {
	l := &callbackListener{
		exchanger: ex,
		state:     state,
		result:    make(chan callbackResult, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, l.handle)
	l.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return l
}

// listenForCallback binds the redirect URI's host:port and starts serving.
func listenForCallback(ex codeExchanger, redirectURI, state string) (*callbackListener, error) {
	addr, path, err := callbackAddr(redirectURI)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening for oauth callback on %s: %w", addr, err)
	}

	l := newCallbackListener(ex, path, state)
	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.deliver(callbackResult{err: fmt.Errorf("callback server error: %w", err)})
		}
	}()
	return l, nil
}

// wait blocks for the first callback, the timeout or ctx.
func (l *callbackListener) wait(ctx context.Context, timeout time.Duration) (*oauth2.Token, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-l.result:
		return res.token, res.err
	case <-timer.C:
		return nil, ErrAuthTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *callbackListener) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.server.Shutdown(ctx)
}

// deliver keeps only the first outcome.
func (l *callbackListener) deliver(res callbackResult) {
	select {
	case l.result <- res:
	default:
	}
}

func (l *callbackListener) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("state") != l.state:
		http.Error(w, "State mismatch", http.StatusBadRequest)
		l.deliver(callbackResult{err: ErrStateMismatch})
		return
	case q.Get("error") != "":
		http.Error(w, "Authentication failed: "+q.Get("error"), http.StatusBadRequest)
		l.deliver(callbackResult{err: fmt.Errorf("spotify auth error: %s", q.Get("error"))})
		return
	}

	token, err := l.exchanger.Token(r.Context(), l.state, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		l.deliver(callbackResult{err: fmt.Errorf("exchanging code for token: %w", err)})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, connectedPage)
	l.deliver(callbackResult{token: token})
}

const connectedPage = `<!DOCTYPE html>
<html>
<head><title>Mood Companion</title></head>
<body>
<h1>Spotify connected</h1>
<p>You can close this window. Your mood companion is starting up.</p>
</body>
</html>`

// callbackAddr splits the redirect URI into the listen address and the
// callback path.
func callbackAddr(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("parsing redirect uri: %w", err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("redirect uri %q has no host", redirectURI)
	}

	addr = u.Host
	if u.Port() == "" {
		addr = u.Hostname() + ":80"
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return addr, path, nil
}
