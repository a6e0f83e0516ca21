package calendars

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// cacheService wires a calendar service over a miniredis instance and a
// repository that counts list calls.
func cacheService(t *testing.T) (CalendarService, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	listCalls := 0
	repo := &mockCalendarRepo{
		listByWorldFn: func(ctx context.Context, worldID string) ([]StoredCalendar, error) {
			listCalls++
			return []StoredCalendar{
				{WorldID: worldID, CalendarID: "harptos", Document: []byte(harptosDoc)},
			}, nil
		},
	}
	return NewCalendarService(repo, rdb, 15*time.Minute), &listCalls
}

func TestListResolved_Cached(t *testing.T) {
	svc, listCalls := cacheService(t)
	ctx := context.Background()

	first, err := svc.ListResolved(ctx, "w1")
	if err != nil {
		t.Fatalf("ListResolved: %v", err)
	}
	second, err := svc.ListResolved(ctx, "w1")
	if err != nil {
		t.Fatalf("ListResolved (cached): %v", err)
	}

	if *listCalls != 1 {
		t.Errorf("expected one repository list, got %d", *listCalls)
	}
	if len(second.Calendars) != len(first.Calendars) {
		t.Errorf("cached set diverges: %d vs %d calendars", len(second.Calendars), len(first.Calendars))
	}
	if second.Defaults["harptos"] != "harptos(dalereckoning)" {
		t.Errorf("cached defaults lost: %v", second.Defaults)
	}
}

func TestPutDefinition_InvalidatesCache(t *testing.T) {
	svc, listCalls := cacheService(t)
	ctx := context.Background()

	if _, err := svc.ListResolved(ctx, "w1"); err != nil {
		t.Fatalf("ListResolved: %v", err)
	}
	if _, err := svc.PutDefinition(ctx, "w1", []byte(harptosDoc)); err != nil {
		t.Fatalf("PutDefinition: %v", err)
	}
	if _, err := svc.ListResolved(ctx, "w1"); err != nil {
		t.Fatalf("ListResolved after put: %v", err)
	}

	if *listCalls != 2 {
		t.Errorf("expected cache invalidation to force a second list, got %d", *listCalls)
	}
}

func TestResolvedCache_SurvivesEngineUse(t *testing.T) {
	svc, _ := cacheService(t)
	ctx := context.Background()

	// Warm the cache, then convert through the cached set.
	if _, err := svc.ListResolved(ctx, "w1"); err != nil {
		t.Fatalf("ListResolved: %v", err)
	}
	result, err := svc.WorldTimeToDate(ctx, "w1", "harptos", 30*86400)
	if err != nil {
		t.Fatalf("WorldTimeToDate: %v", err)
	}
	if result.Date.Month != 2 || result.Date.Day != 1 {
		t.Errorf("expected 2/1 from cached set, got %+v", result.Date)
	}
}
