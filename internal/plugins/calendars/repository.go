package calendars

import (
	"context"
	"database/sql"
)

// CalendarRepository defines persistence operations for raw calendar
// definitions.
type CalendarRepository interface {
	Upsert(ctx context.Context, worldID, calendarID string, document []byte) error
	GetByID(ctx context.Context, worldID, calendarID string) (*StoredCalendar, error)
	ListByWorld(ctx context.Context, worldID string) ([]StoredCalendar, error)
	Delete(ctx context.Context, worldID, calendarID string) error
}

// calendarRepo is the MariaDB implementation of CalendarRepository.
type calendarRepo struct {
	db *sql.DB
}

// NewCalendarRepository creates a new MariaDB-backed calendar repository.
func NewCalendarRepository(db *sql.DB) CalendarRepository {
	return &calendarRepo{db: db}
}

// calendarCols is the column list for calendar queries.
const calendarCols = `world_id, calendar_id, document, created_at, updated_at`

// scanCalendar reads a row into a StoredCalendar struct.
func scanCalendar(scanner interface{ Scan(...any) error }) (*StoredCalendar, error) {
	cal := &StoredCalendar{}
	err := scanner.Scan(&cal.WorldID, &cal.CalendarID, &cal.Document, &cal.CreatedAt, &cal.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return cal, err
}

// Upsert inserts a definition or replaces the stored document for an
// existing (world, calendar) pair.
func (r *calendarRepo) Upsert(ctx context.Context, worldID, calendarID string, document []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO world_calendars (world_id, calendar_id, document)
		 VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE document = VALUES(document)`,
		worldID, calendarID, document,
	)
	return err
}

// GetByID returns one stored definition, or nil when absent.
func (r *calendarRepo) GetByID(ctx context.Context, worldID, calendarID string) (*StoredCalendar, error) {
	return scanCalendar(r.db.QueryRowContext(ctx,
		`SELECT `+calendarCols+` FROM world_calendars
		 WHERE world_id = ? AND calendar_id = ?`, worldID, calendarID))
}

// ListByWorld returns every stored definition for a world in insertion order.
func (r *calendarRepo) ListByWorld(ctx context.Context, worldID string) ([]StoredCalendar, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+calendarCols+` FROM world_calendars
		 WHERE world_id = ? ORDER BY created_at, calendar_id`, worldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cals []StoredCalendar
	for rows.Next() {
		var cal StoredCalendar
		if err := rows.Scan(&cal.WorldID, &cal.CalendarID, &cal.Document, &cal.CreatedAt, &cal.UpdatedAt); err != nil {
			return nil, err
		}
		cals = append(cals, cal)
	}
	return cals, rows.Err()
}

// Delete removes a stored definition.
func (r *calendarRepo) Delete(ctx context.Context, worldID, calendarID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM world_calendars WHERE world_id = ? AND calendar_id = ?`,
		worldID, calendarID)
	return err
}
