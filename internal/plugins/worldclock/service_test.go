package worldclock

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/keyxmakerx/timekeeper/internal/apperror"
	"github.com/keyxmakerx/timekeeper/internal/plugins/calendars"
)

// --- Mock Repositories ---

// mockClockRepo implements ClockRepository for testing.
type mockClockRepo struct {
	getFn    func(ctx context.Context, worldID string) (*WorldClock, error)
	upsertFn func(ctx context.Context, clock *WorldClock) error
}

func (m *mockClockRepo) Get(ctx context.Context, worldID string) (*WorldClock, error) {
	if m.getFn != nil {
		return m.getFn(ctx, worldID)
	}
	return nil, nil
}

func (m *mockClockRepo) Upsert(ctx context.Context, clock *WorldClock) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, clock)
	}
	return nil
}

// mockCalRepo backs a real calendar service with one fixed document.
type mockCalRepo struct {
	doc string
}

func (m *mockCalRepo) Upsert(ctx context.Context, worldID, calendarID string, document []byte) error {
	return nil
}

func (m *mockCalRepo) GetByID(ctx context.Context, worldID, calendarID string) (*calendars.StoredCalendar, error) {
	return nil, nil
}

func (m *mockCalRepo) ListByWorld(ctx context.Context, worldID string) ([]calendars.StoredCalendar, error) {
	return []calendars.StoredCalendar{
		{WorldID: worldID, CalendarID: "greyhawk", Document: []byte(m.doc)},
	}, nil
}

func (m *mockCalRepo) Delete(ctx context.Context, worldID, calendarID string) error {
	return nil
}

// greyhawkDoc is a two-month calendar with a season and a moon, enough to
// exercise the full current-date decomposition.
const greyhawkDoc = `{
	"id": "greyhawk",
	"name": "Greyhawk",
	"months": [
		{"name": "Needfest", "abbreviation": "Nee", "days": 30},
		{"name": "Fireseek", "abbreviation": "Fir", "days": 30}
	],
	"weekdays": [
		{"name": "Starday"}, {"name": "Sunday"}, {"name": "Moonday"},
		{"name": "Godsday"}, {"name": "Waterday"}, {"name": "Earthday"}, {"name": "Freeday"}
	],
	"year": {"epoch": 576},
	"seasons": [{"name": "Winter", "startMonth": 1, "endMonth": 1}],
	"moons": [{
		"name": "Luna",
		"cycleLength": 4,
		"firstNewMoon": {"year": 576, "month": 1, "day": 1},
		"phases": [
			{"name": "New", "length": 2},
			{"name": "Full", "length": 2}
		]
	}]
}`

// clockWorld wires a clock service over an in-memory clock and the greyhawk
// calendar.
func clockWorld(clock *WorldClock) (ClockService, *WorldClock) {
	state := clock
	repo := &mockClockRepo{
		getFn: func(ctx context.Context, worldID string) (*WorldClock, error) {
			if state == nil {
				return nil, nil
			}
			cp := *state
			return &cp, nil
		},
		upsertFn: func(ctx context.Context, c *WorldClock) error {
			cp := *c
			state = &cp
			return nil
		},
	}
	cals := calendars.NewCalendarService(&mockCalRepo{doc: greyhawkDoc}, nil, 0)
	return NewClockService(repo, cals), state
}

func assertAppErrorCode(t *testing.T, err error, code int) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != code {
		t.Fatalf("expected status %d, got %d (%s)", code, appErr.Code, appErr.Message)
	}
}

// --- Tests ---

func TestCurrentDate(t *testing.T) {
	svc, _ := clockWorld(&WorldClock{WorldID: "w1", WorldTime: 0, ActiveCalendarID: "greyhawk"})

	result, err := svc.CurrentDate(context.Background(), "w1")
	if err != nil {
		t.Fatalf("CurrentDate: %v", err)
	}
	if result.Date.Year != 576 || result.Date.Month != 1 || result.Date.Day != 1 {
		t.Errorf("expected 576/1/1, got %+v", result.Date)
	}
	if result.Season != "Winter" {
		t.Errorf("expected Winter, got %q", result.Season)
	}
	if len(result.Moons) != 1 || result.Moons[0].Phase != "New" {
		t.Errorf("expected Luna new moon, got %+v", result.Moons)
	}
	if result.Short == "" || result.Long == "" {
		t.Error("expected rendered date strings")
	}
}

func TestCurrentDate_NoClock(t *testing.T) {
	svc, _ := clockWorld(nil)
	_, err := svc.CurrentDate(context.Background(), "w1")
	assertAppErrorCode(t, err, http.StatusNotFound)
}

func TestCurrentDate_NoActiveCalendar(t *testing.T) {
	svc, _ := clockWorld(&WorldClock{WorldID: "w1"})
	_, err := svc.CurrentDate(context.Background(), "w1")
	assertAppErrorCode(t, err, http.StatusNotFound)
}

func TestSetWorldTime(t *testing.T) {
	svc, _ := clockWorld(&WorldClock{WorldID: "w1", ActiveCalendarID: "greyhawk"})

	result, err := svc.SetWorldTime(context.Background(), "w1", 30*86400)
	if err != nil {
		t.Fatalf("SetWorldTime: %v", err)
	}
	if result.Date.Month != 2 || result.Date.Day != 1 {
		t.Errorf("expected Fireseek 1st, got %+v", result.Date)
	}
}

func TestSetDate(t *testing.T) {
	svc, _ := clockWorld(&WorldClock{WorldID: "w1", ActiveCalendarID: "greyhawk"})

	result, err := svc.SetDate(context.Background(), "w1", calendars.DateRequest{
		Year: 576, Month: 2, Day: 15,
	})
	if err != nil {
		t.Fatalf("SetDate: %v", err)
	}
	if result.WorldTime != 44*86400 {
		t.Errorf("expected world time %d, got %d", 44*86400, result.WorldTime)
	}
}

func TestAdvance(t *testing.T) {
	svc, _ := clockWorld(&WorldClock{WorldID: "w1", WorldTime: 0, ActiveCalendarID: "greyhawk"})
	ctx := context.Background()

	result, err := svc.Advance(ctx, "w1", AdvanceRequest{Days: 3, Seconds: 90})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if result.WorldTime != 3*86400+90 {
		t.Errorf("expected %d, got %d", 3*86400+90, result.WorldTime)
	}

	// Negative advances rewind.
	result, err = svc.Advance(ctx, "w1", AdvanceRequest{Days: -1})
	if err != nil {
		t.Fatalf("Advance back: %v", err)
	}
	if result.WorldTime != 2*86400+90 {
		t.Errorf("expected %d, got %d", 2*86400+90, result.WorldTime)
	}

	_, err = svc.Advance(ctx, "w1", AdvanceRequest{})
	assertAppErrorCode(t, err, http.StatusBadRequest)
}

func TestSetActiveCalendar(t *testing.T) {
	svc, _ := clockWorld(nil)
	ctx := context.Background()

	// Creates the clock on first use.
	clock, err := svc.SetActiveCalendar(ctx, "w1", "greyhawk")
	if err != nil {
		t.Fatalf("SetActiveCalendar: %v", err)
	}
	if clock.ActiveCalendarID != "greyhawk" || clock.WorldTime != 0 {
		t.Errorf("unexpected clock %+v", clock)
	}

	_, err = svc.SetActiveCalendar(ctx, "w1", "unknown")
	assertAppErrorCode(t, err, http.StatusNotFound)
}
