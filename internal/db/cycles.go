package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

// CycleRepository handles mood cycle database operations.
type CycleRepository struct {
	pool *pgxpool.Pool
}

// Insert stores a cycle, assigning an ID when it has none.
func (r *CycleRepository) Insert(ctx context.Context, c *Cycle) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	signals := c.Signals
	if signals == nil {
		signals = []Signal{}
	}

	query := `
		INSERT INTO mood_cycles (
			id, trigger, started_at, finished_at, quiet, mood, mood_reason,
			search_query, search_query_reason, playlist_name, playlist_uri, error, signals
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Trigger,
		c.StartedAt,
		c.FinishedAt,
		c.Quiet,
		c.Mood,
		c.MoodReason,
		c.SearchQuery,
		c.SearchQueryReason,
		c.PlaylistName,
		c.PlaylistURI,
		c.Error,
		signals,
	)
	if err != nil {
		return fmt.Errorf("inserting cycle: %w", err)
	}
	return nil
}

// Get retrieves a cycle by ID.
func (r *CycleRepository) Get(ctx context.Context, id uuid.UUID) (*Cycle, error) {
	query := `
		SELECT id, trigger, started_at, finished_at, quiet, mood, mood_reason,
		       search_query, search_query_reason, playlist_name, playlist_uri, error, signals
		FROM mood_cycles
		WHERE id = $1
	`
	c, err := scanCycle(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting cycle: %w", err)
	}
	return c, nil
}

// Recent returns the newest cycles first. limit is clamped to [1, 500];
// zero means 20.
func (r *CycleRepository) Recent(ctx context.Context, limit int) ([]Cycle, error) {
	query := `
		SELECT id, trigger, started_at, finished_at, quiet, mood, mood_reason,
		       search_query, search_query_reason, playlist_name, playlist_uri, error, signals
		FROM mood_cycles
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	cycles := []Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cycle: %w", err)
		}
		cycles = append(cycles, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycles: %w", err)
	}
	return cycles, nil
}

func scanCycle(row pgx.Row) (*Cycle, error) {
	var c Cycle
	err := row.Scan(
		&c.ID,
		&c.Trigger,
		&c.StartedAt,
		&c.FinishedAt,
		&c.Quiet,
		&c.Mood,
		&c.MoodReason,
		&c.SearchQuery,
		&c.SearchQueryReason,
		&c.PlaylistName,
		&c.PlaylistURI,
		&c.Error,
		&c.Signals,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func clampLimit(limit int) int {
	switch {
	case limit == 0:
		return defaultRecentLimit
	case limit < 1:
		return 1
	case limit > maxRecentLimit:
		return maxRecentLimit
	}
	return limit
}
