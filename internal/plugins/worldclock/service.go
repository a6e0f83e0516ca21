package worldclock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keyxmakerx/timekeeper/internal/apperror"
	"github.com/keyxmakerx/timekeeper/internal/plugins/calendars"
)

// ClockService handles world clock reads and mutations.
type ClockService interface {
	GetClock(ctx context.Context, worldID string) (*WorldClock, error)
	CurrentDate(ctx context.Context, worldID string) (*CurrentDateResult, error)
	SetWorldTime(ctx context.Context, worldID string, worldTime int64) (*CurrentDateResult, error)
	SetDate(ctx context.Context, worldID string, req calendars.DateRequest) (*CurrentDateResult, error)
	Advance(ctx context.Context, worldID string, req AdvanceRequest) (*CurrentDateResult, error)
	SetActiveCalendar(ctx context.Context, worldID, calendarID string) (*WorldClock, error)
}

// clockService implements ClockService.
type clockService struct {
	repo      ClockRepository
	calendars calendars.CalendarService
}

// NewClockService creates a new clock service.
func NewClockService(repo ClockRepository, cals calendars.CalendarService) ClockService {
	return &clockService{repo: repo, calendars: cals}
}

// GetClock returns a world's clock state.
func (s *clockService) GetClock(ctx context.Context, worldID string) (*WorldClock, error) {
	clock, err := s.repo.Get(ctx, worldID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading clock: %w", err))
	}
	if clock == nil {
		return nil, apperror.NewNotFound("no clock configured for this world")
	}
	return clock, nil
}

// CurrentDate decomposes the world's clock under its active calendar,
// including season and moon phases where the calendar defines them.
func (s *clockService) CurrentDate(ctx context.Context, worldID string) (*CurrentDateResult, error) {
	clock, err := s.GetClock(ctx, worldID)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, clock)
}

// SetWorldTime pins the clock to an absolute world time.
func (s *clockService) SetWorldTime(ctx context.Context, worldID string, worldTime int64) (*CurrentDateResult, error) {
	clock, err := s.GetClock(ctx, worldID)
	if err != nil {
		return nil, err
	}
	clock.WorldTime = worldTime
	if err := s.repo.Upsert(ctx, clock); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("saving clock: %w", err))
	}

	slog.Info("world time set",
		slog.String("world_id", worldID),
		slog.Int64("world_time", worldTime),
	)
	return s.describe(ctx, clock)
}

// SetDate pins the clock to a structured date under the active calendar.
func (s *clockService) SetDate(ctx context.Context, worldID string, req calendars.DateRequest) (*CurrentDateResult, error) {
	clock, err := s.GetClock(ctx, worldID)
	if err != nil {
		return nil, err
	}
	result, err := s.calendars.DateToWorldTime(ctx, worldID, clock.ActiveCalendarID, req)
	if err != nil {
		return nil, err
	}
	return s.SetWorldTime(ctx, worldID, result.WorldTime)
}

// Advance moves the clock by a relative amount. Days are measured in the
// active calendar's day length.
func (s *clockService) Advance(ctx context.Context, worldID string, req AdvanceRequest) (*CurrentDateResult, error) {
	if req.Seconds == 0 && req.Days == 0 {
		return nil, apperror.NewBadRequest("advance requires seconds or days")
	}
	clock, err := s.GetClock(ctx, worldID)
	if err != nil {
		return nil, err
	}

	delta := req.Seconds
	if req.Days != 0 {
		eng, err := s.calendars.EngineFor(ctx, worldID, clock.ActiveCalendarID)
		if err != nil {
			return nil, err
		}
		delta += req.Days * eng.SecondsPerDay()
	}

	return s.SetWorldTime(ctx, worldID, clock.WorldTime+delta)
}

// SetActiveCalendar switches the world's displayed calendar. The world time
// itself is untouched, so the same instant re-renders under the new
// calendar. Creates the clock at world time 0 if none exists yet.
func (s *clockService) SetActiveCalendar(ctx context.Context, worldID, calendarID string) (*WorldClock, error) {
	// Reject ids that don't resolve for this world.
	if _, err := s.calendars.GetResolved(ctx, worldID, calendarID); err != nil {
		return nil, err
	}

	clock, err := s.repo.Get(ctx, worldID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading clock: %w", err))
	}
	if clock == nil {
		clock = &WorldClock{WorldID: worldID}
	}
	clock.ActiveCalendarID = calendarID
	if err := s.repo.Upsert(ctx, clock); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("saving clock: %w", err))
	}

	slog.Info("active calendar set",
		slog.String("world_id", worldID),
		slog.String("calendar_id", calendarID),
	)
	return clock, nil
}

// describe renders a clock into its full current-date form.
func (s *clockService) describe(ctx context.Context, clock *WorldClock) (*CurrentDateResult, error) {
	if clock.ActiveCalendarID == "" {
		return nil, apperror.NewNotFound("no active calendar for this world")
	}
	eng, err := s.calendars.EngineFor(ctx, clock.WorldID, clock.ActiveCalendarID)
	if err != nil {
		return nil, err
	}

	d := eng.WorldTimeToDate(clock.WorldTime)
	def := eng.Definition()

	result := &CurrentDateResult{
		WorldID:    clock.WorldID,
		WorldTime:  clock.WorldTime,
		CalendarID: def.ID,
		Date:       d,
		Short:      d.ToShortString(),
		Long:       d.ToLongString(),
	}
	if season := eng.SeasonFor(d); season != nil {
		result.Season = season.Name
	}
	for _, moon := range def.Moons {
		phase := eng.MoonPhaseFor(moon, d)
		if phase == nil {
			continue
		}
		result.Moons = append(result.Moons, MoonStatus{
			Name:  moon.Name,
			Phase: phase.Name,
			Icon:  phase.Icon,
		})
	}
	return result, nil
}
