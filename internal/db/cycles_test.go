package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 20},
		{-5, 1},
		{1, 1},
		{50, 50},
		{10000, 500},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCycleDuration(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	c := Cycle{StartedAt: start, FinishedAt: start.Add(3 * time.Second)}
	if c.Duration() != 3*time.Second {
		t.Errorf("Duration() = %v, want 3s", c.Duration())
	}
}

// openTestDB connects to TEST_DATABASE_URL, skipping when it is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		db.Pool().Exec(context.Background(), `DELETE FROM mood_cycles WHERE trigger = 'test'`)
		db.Close()
	})
	return db
}

func TestCycleRepository_InsertAndRecent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := db.Cycles()

	// Migrate is idempotent.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	name, uri := "Acoustic Morning", "spotify:playlist:pl1"
	start := time.Now().UTC().Truncate(time.Millisecond)
	first := &Cycle{
		Trigger:           "test",
		StartedAt:         start,
		FinishedAt:        start.Add(2 * time.Second),
		Mood:              "Content",
		MoodReason:        "feeling sunny and refreshed",
		SearchQuery:       "Acoustic morning playlist",
		SearchQueryReason: "matches a light refreshed mood",
		PlaylistName:      &name,
		PlaylistURI:       &uri,
		Signals:           []Signal{{Topic: "weather", Summary: "sunny and cool"}},
	}
	second := &Cycle{
		Trigger:    "test",
		StartedAt:  start.Add(time.Minute),
		FinishedAt: start.Add(time.Minute),
		Quiet:      true,
		Mood:       "SLEEPING",
	}

	for _, c := range []*Cycle{first, second} {
		if err := repo.Insert(ctx, c); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if c.ID == uuid.Nil {
			t.Error("Insert() did not assign an ID")
		}
	}

	got, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Mood != "Content" || got.PlaylistName == nil || *got.PlaylistName != name {
		t.Errorf("Get() = %+v", got)
	}
	if len(got.Signals) != 1 || got.Signals[0].Summary != "sunny and cool" {
		t.Errorf("Signals = %+v", got.Signals)
	}

	recent, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 || recent[0].ID != second.ID {
		t.Errorf("Recent() did not return newest first: %+v", recent)
	}

	if _, err := repo.Get(ctx, uuid.New()); err != ErrNotFound {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
}
