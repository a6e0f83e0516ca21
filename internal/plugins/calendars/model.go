// Package calendars stores raw calendar definitions per world and serves
// their resolved form: every definition expanded with its variants into the
// full selectable calendar set. Resolution results are cached in Redis and
// invalidated on any write to the world's definitions.
package calendars

import (
	"encoding/json"
	"time"

	"github.com/keyxmakerx/timekeeper/internal/calendar"
)

// StoredCalendar is one raw calendar definition row. The definition itself
// lives in the document column as the JSON it was submitted as, so new
// definition fields never require a schema change.
type StoredCalendar struct {
	WorldID    string          `json:"world_id"`
	CalendarID string          `json:"calendar_id"`
	Document   json.RawMessage `json:"document"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ResolvedSet is the expanded calendar set for one world: all selectable
// definitions in deterministic order plus the base-id to default-variant
// redirects. This is the envelope cached in Redis.
type ResolvedSet struct {
	Calendars []*calendar.Definition `json:"calendars"`
	Defaults  map[string]string      `json:"defaults"`
}

// DateRequest is a structured date submitted for conversion to world time.
type DateRequest struct {
	Year        int                `json:"year"`
	Month       int                `json:"month"`
	Day         int                `json:"day"`
	Intercalary string             `json:"intercalary,omitempty"`
	Time        calendar.TimeOfDay `json:"time"`
}

// ConversionResult pairs a world time with its structured date and the
// rendered short and long forms.
type ConversionResult struct {
	CalendarID string        `json:"calendar_id"`
	WorldTime  int64         `json:"world_time"`
	Date       calendar.Date `json:"date"`
	Short      string        `json:"short"`
	Long       string        `json:"long"`
}

// FormatRequest names a template (or supplies an inline one) to render a
// date with.
type FormatRequest struct {
	Date     DateRequest `json:"date"`
	Format   string      `json:"format,omitempty"`
	Template string      `json:"template,omitempty"`
}

// FormatResult is a rendered date string.
type FormatResult struct {
	CalendarID string `json:"calendar_id"`
	Rendered   string `json:"rendered"`
}
