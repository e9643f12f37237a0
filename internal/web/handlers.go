package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/justestif/go-mood-companion/internal/controller"
	"github.com/justestif/go-mood-companion/internal/db"
	"github.com/justestif/go-mood-companion/internal/logx"
)

// playbackActions are the actions allowed on /api/playback/{action}.
var playbackActions = map[string]controller.Action{
	"play":     controller.ActionPlay,
	"pause":    controller.ActionPause,
	"toggle":   controller.ActionToggle,
	"next":     controller.ActionNext,
	"previous": controller.ActionPrevious,
}

// Handlers contains the HTTP handlers.
type Handlers struct {
	remote  Remote
	history HistoryLister
	pages   *Templates
}

// NewHandlers creates a new Handlers instance. history may be nil.
func NewHandlers(remote Remote, history HistoryLister, pages *Templates) *Handlers {
	return &Handlers{remote: remote, history: history, pages: pages}
}

// Home renders the status page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	data := StatusPageData{
		Title:  "Mood Companion",
		Status: h.remote.Status(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.Render(w, "status", data); err != nil {
		logx.Error().Err(err).Msg("Rendering status page failed")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Status returns the coordinator state (GET /api/status).
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.remote.Status())
}

// ChangeMood starts a mood cycle (POST /api/mood).
func (h *Handlers) ChangeMood(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, controller.ActionChangeMood)
}

// Playback runs a playback command (POST /api/playback/{action}).
func (h *Handlers) Playback(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "action")
	a, ok := playbackActions[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown playback action "+strconv.Quote(name))
		return
	}
	h.submit(w, r, a)
}

// ToggleInfo switches the display's info screen (POST /api/display/info).
func (h *Handlers) ToggleInfo(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, controller.ActionInfo)
}

func (h *Handlers) submit(w http.ResponseWriter, r *http.Request, a controller.Action) {
	if err := h.remote.Submit(r.Context(), a, db.TriggerRemote); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, controller.ErrUnknownAction) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"action": string(a)})
}

// HistoryEntry is one cycle as returned by /api/history.
type HistoryEntry struct {
	ID                string      `json:"id"`
	Trigger           string      `json:"trigger"`
	StartedAt         time.Time   `json:"started_at"`
	DurationMS        int64       `json:"duration_ms"`
	Quiet             bool        `json:"quiet"`
	Mood              string      `json:"mood"`
	MoodReason        string      `json:"mood_reason"`
	SearchQuery       string      `json:"search_query,omitempty"`
	SearchQueryReason string      `json:"search_query_reason,omitempty"`
	PlaylistName      *string     `json:"playlist_name"`
	PlaylistURI       *string     `json:"playlist_uri"`
	Error             *string     `json:"error,omitempty"`
	Signals           []db.Signal `json:"signals"`
}

// History lists recent cycles (GET /api/history?limit=N).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not enabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	cycles, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		logx.Error().Err(err).Msg("Listing history failed")
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}

	entries := make([]HistoryEntry, 0, len(cycles))
	for _, c := range cycles {
		signals := c.Signals
		if signals == nil {
			signals = []db.Signal{}
		}
		entries = append(entries, HistoryEntry{
			ID:                c.ID.String(),
			Trigger:           c.Trigger,
			StartedAt:         c.StartedAt,
			DurationMS:        c.Duration().Milliseconds(),
			Quiet:             c.Quiet,
			Mood:              c.Mood,
			MoodReason:        c.MoodReason,
			SearchQuery:       c.SearchQuery,
			SearchQueryReason: c.SearchQueryReason,
			PlaylistName:      c.PlaylistName,
			PlaylistURI:       c.PlaylistURI,
			Error:             c.Error,
			Signals:           signals,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("Writing response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
