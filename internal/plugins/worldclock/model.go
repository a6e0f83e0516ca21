// Package worldclock tracks the authoritative world time per world: a
// single signed seconds counter plus the calendar it is currently displayed
// under. All date math is delegated to the calendar engine; this package
// only owns the counter.
package worldclock

import (
	"time"

	"github.com/keyxmakerx/timekeeper/internal/calendar"
)

// WorldClock is the persisted clock state for one world.
type WorldClock struct {
	WorldID          string    `json:"world_id"`
	WorldTime        int64     `json:"world_time"`
	ActiveCalendarID string    `json:"active_calendar_id"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MoonStatus is the phase of one moon at the current date.
type MoonStatus struct {
	Name  string `json:"name"`
	Phase string `json:"phase"`
	Icon  string `json:"icon,omitempty"`
}

// CurrentDateResult is the full decomposed state of a world's clock: the
// date under the active calendar, its rendered forms, and the season and
// moon phases where the calendar defines them.
type CurrentDateResult struct {
	WorldID    string        `json:"world_id"`
	WorldTime  int64         `json:"world_time"`
	CalendarID string        `json:"calendar_id"`
	Date       calendar.Date `json:"date"`
	Short      string        `json:"short"`
	Long       string        `json:"long"`
	Season     string        `json:"season,omitempty"`
	Moons      []MoonStatus  `json:"moons,omitempty"`
}

// AdvanceRequest moves the clock by a relative amount. Days are converted
// with the active calendar's day length, so a 20-hour calendar advances by
// 20-hour days.
type AdvanceRequest struct {
	Seconds int64 `json:"seconds"`
	Days    int64 `json:"days"`
}

// SetTimeRequest pins the clock to an absolute world time.
type SetTimeRequest struct {
	WorldTime int64 `json:"world_time"`
}

// SetCalendarRequest switches the world's active calendar.
type SetCalendarRequest struct {
	CalendarID string `json:"calendar_id"`
}
