package calendars

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/keyxmakerx/timekeeper/internal/apperror"
)

// --- Mock Repository ---

// mockCalendarRepo implements CalendarRepository for testing.
type mockCalendarRepo struct {
	upsertFn      func(ctx context.Context, worldID, calendarID string, document []byte) error
	getByIDFn     func(ctx context.Context, worldID, calendarID string) (*StoredCalendar, error)
	listByWorldFn func(ctx context.Context, worldID string) ([]StoredCalendar, error)
	deleteFn      func(ctx context.Context, worldID, calendarID string) error
}

func (m *mockCalendarRepo) Upsert(ctx context.Context, worldID, calendarID string, document []byte) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, worldID, calendarID, document)
	}
	return nil
}

func (m *mockCalendarRepo) GetByID(ctx context.Context, worldID, calendarID string) (*StoredCalendar, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, worldID, calendarID)
	}
	return nil, nil
}

func (m *mockCalendarRepo) ListByWorld(ctx context.Context, worldID string) ([]StoredCalendar, error) {
	if m.listByWorldFn != nil {
		return m.listByWorldFn(ctx, worldID)
	}
	return nil, nil
}

func (m *mockCalendarRepo) Delete(ctx context.Context, worldID, calendarID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, worldID, calendarID)
	}
	return nil
}

// assertAppErrorCode fails the test unless err is an AppError with the
// given HTTP status code.
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

// harptosDoc is a valid calendar document with a default variant.
const harptosDoc = `{
	"id": "harptos",
	"name": "Calendar of Harptos",
	"months": [
		{"name": "Hammer", "abbreviation": "Ham", "days": 30},
		{"name": "Alturiak", "abbreviation": "Alt", "days": 30}
	],
	"weekdays": [
		{"name": "First"}, {"name": "Second"}, {"name": "Third"},
		{"name": "Fourth"}, {"name": "Fifth"}
	],
	"year": {"epoch": 1},
	"dateFormats": {"dwarven": "{{year format=\"raw\"}}.{{month}}.{{day}}"},
	"variants": {
		"dalereckoning": {
			"name": "Dalereckoning",
			"default": true,
			"overrides": {"year": {"suffix": " DR"}}
		}
	}
}`

// worldWithHarptos returns a service whose repository holds harptosDoc.
func worldWithHarptos() CalendarService {
	repo := &mockCalendarRepo{
		listByWorldFn: func(ctx context.Context, worldID string) ([]StoredCalendar, error) {
			return []StoredCalendar{
				{WorldID: worldID, CalendarID: "harptos", Document: []byte(harptosDoc)},
			}, nil
		},
	}
	return NewCalendarService(repo, nil, 0)
}

// --- Definition CRUD ---

func TestPutDefinition(t *testing.T) {
	var storedID string
	repo := &mockCalendarRepo{
		upsertFn: func(ctx context.Context, worldID, calendarID string, document []byte) error {
			storedID = calendarID
			return nil
		},
	}
	svc := NewCalendarService(repo, nil, 0)

	def, err := svc.PutDefinition(context.Background(), "w1", []byte(harptosDoc))
	if err != nil {
		t.Fatalf("PutDefinition: %v", err)
	}
	if def.ID != "harptos" || storedID != "harptos" {
		t.Errorf("expected harptos stored, got def %q repo %q", def.ID, storedID)
	}
}

func TestPutDefinition_Rejections(t *testing.T) {
	svc := NewCalendarService(&mockCalendarRepo{}, nil, 0)
	ctx := context.Background()

	tests := []struct {
		name string
		doc  string
		code int
	}{
		{"malformed json", `{not json`, http.StatusBadRequest},
		{"missing id", `{"name": "No ID", "months": [{"name": "M", "days": 1}], "weekdays": [{"name": "D"}]}`, http.StatusUnprocessableEntity},
		{"no months", `{"id": "bad", "name": "Bad", "months": [], "weekdays": [{"name": "D"}]}`, http.StatusUnprocessableEntity},
		{"leap rule consumes the year", `{
			"id": "bad", "name": "Bad",
			"months": [{"name": "Only", "days": 1}],
			"weekdays": [{"name": "D"}],
			"leapYear": {"rule": "custom", "interval": 1, "month": "Only", "extraDays": -1}
		}`, http.StatusUnprocessableEntity},
		{"broken variant", `{
			"id": "bad", "name": "Bad",
			"months": [{"name": "M", "days": 1}],
			"weekdays": [{"name": "D"}],
			"variants": {"v": {"name": "V", "overrides": {"months": {"Smarch": {"days": 2}}}}}
		}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PutDefinition(ctx, "w1", []byte(tt.doc))
			assertAppErrorCode(t, err, tt.code)
		})
	}
}

func TestDeleteDefinition_NotFound(t *testing.T) {
	svc := NewCalendarService(&mockCalendarRepo{}, nil, 0)
	err := svc.DeleteDefinition(context.Background(), "w1", "missing")
	assertAppErrorCode(t, err, http.StatusNotFound)
}

// --- Resolution ---

func TestListResolved(t *testing.T) {
	svc := worldWithHarptos()

	set, err := svc.ListResolved(context.Background(), "w1")
	if err != nil {
		t.Fatalf("ListResolved: %v", err)
	}
	if len(set.Calendars) != 2 {
		t.Fatalf("expected base + variant, got %d", len(set.Calendars))
	}
	if set.Calendars[0].ID != "harptos" || set.Calendars[1].ID != "harptos(dalereckoning)" {
		t.Errorf("unexpected ids %q, %q", set.Calendars[0].ID, set.Calendars[1].ID)
	}
	if set.Defaults["harptos"] != "harptos(dalereckoning)" {
		t.Errorf("expected default redirect, got %v", set.Defaults)
	}
}

func TestGetResolved_DefaultRedirect(t *testing.T) {
	svc := worldWithHarptos()

	def, err := svc.GetResolved(context.Background(), "w1", "harptos")
	if err != nil {
		t.Fatalf("GetResolved: %v", err)
	}
	if def.ID != "harptos(dalereckoning)" {
		t.Errorf("expected default variant, got %q", def.ID)
	}
	if def.Year.Suffix != " DR" {
		t.Errorf("expected variant override applied, got %q", def.Year.Suffix)
	}

	_, err = svc.GetResolved(context.Background(), "w1", "nope")
	assertAppErrorCode(t, err, http.StatusNotFound)
}

// --- Conversions ---

func TestWorldTimeToDate_Service(t *testing.T) {
	svc := worldWithHarptos()

	// Day 31 of the year is Alturiak 1st.
	result, err := svc.WorldTimeToDate(context.Background(), "w1", "harptos", 30*86400)
	if err != nil {
		t.Fatalf("WorldTimeToDate: %v", err)
	}
	if result.Date.Month != 2 || result.Date.Day != 1 {
		t.Errorf("expected 2/1, got %+v", result.Date)
	}
	if result.Short == "" || result.Long == "" {
		t.Error("expected rendered short and long forms")
	}
}

func TestDateToWorldTime_Service(t *testing.T) {
	svc := worldWithHarptos()
	ctx := context.Background()

	result, err := svc.DateToWorldTime(ctx, "w1", "harptos", DateRequest{Year: 1, Month: 2, Day: 1})
	if err != nil {
		t.Fatalf("DateToWorldTime: %v", err)
	}
	if result.WorldTime != 30*86400 {
		t.Errorf("expected %d, got %d", 30*86400, result.WorldTime)
	}

	// Round trip through the service.
	back, err := svc.WorldTimeToDate(ctx, "w1", "harptos", result.WorldTime)
	if err != nil {
		t.Fatalf("WorldTimeToDate: %v", err)
	}
	if back.Date.Year != 1 || back.Date.Month != 2 || back.Date.Day != 1 {
		t.Errorf("round trip drift: %+v", back.Date)
	}

	_, err = svc.DateToWorldTime(ctx, "w1", "harptos", DateRequest{Year: 1, Month: 9, Day: 1})
	assertAppErrorCode(t, err, http.StatusBadRequest)
}

// --- Formatting ---

func TestFormatDate_Service(t *testing.T) {
	svc := worldWithHarptos()
	ctx := context.Background()
	date := DateRequest{Year: 12, Month: 2, Day: 5}

	named, err := svc.FormatDate(ctx, "w1", "harptos", FormatRequest{Date: date, Format: "dwarven"})
	if err != nil {
		t.Fatalf("FormatDate named: %v", err)
	}
	if named.Rendered != "12.2.5" {
		t.Errorf("named: got %q", named.Rendered)
	}

	inline, err := svc.FormatDate(ctx, "w1", "harptos", FormatRequest{
		Date:     date,
		Template: `{{month format="name"}} {{day}}`,
	})
	if err != nil {
		t.Fatalf("FormatDate inline: %v", err)
	}
	if inline.Rendered != "Alturiak 5" {
		t.Errorf("inline: got %q", inline.Rendered)
	}

	_, err = svc.FormatDate(ctx, "w1", "harptos", FormatRequest{Date: date, Format: "elvish"})
	assertAppErrorCode(t, err, http.StatusBadRequest)
}
