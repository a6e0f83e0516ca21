package worldclock

import (
	"context"
	"database/sql"
)

// ClockRepository defines persistence operations for world clocks.
type ClockRepository interface {
	Get(ctx context.Context, worldID string) (*WorldClock, error)
	Upsert(ctx context.Context, clock *WorldClock) error
}

// clockRepo is the MariaDB implementation of ClockRepository.
type clockRepo struct {
	db *sql.DB
}

// NewClockRepository creates a new MariaDB-backed clock repository.
func NewClockRepository(db *sql.DB) ClockRepository {
	return &clockRepo{db: db}
}

// Get returns a world's clock, or nil when none has been created yet.
func (r *clockRepo) Get(ctx context.Context, worldID string) (*WorldClock, error) {
	clock := &WorldClock{}
	err := r.db.QueryRowContext(ctx,
		`SELECT world_id, world_time, active_calendar_id, updated_at
		 FROM world_clocks WHERE world_id = ?`, worldID,
	).Scan(&clock.WorldID, &clock.WorldTime, &clock.ActiveCalendarID, &clock.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return clock, err
}

// Upsert writes a world's clock state.
func (r *clockRepo) Upsert(ctx context.Context, clock *WorldClock) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO world_clocks (world_id, world_time, active_calendar_id)
		 VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE world_time = VALUES(world_time),
		                         active_calendar_id = VALUES(active_calendar_id)`,
		clock.WorldID, clock.WorldTime, clock.ActiveCalendarID,
	)
	return err
}
