package calendars

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/timekeeper/internal/apperror"
	"github.com/keyxmakerx/timekeeper/internal/calendar"
)

// resolvedKeyPrefix namespaces the Redis cache entries for resolved sets.
const resolvedKeyPrefix = "timekeeper:resolved:"

// CalendarService handles business logic for calendar definitions and their
// resolved form.
type CalendarService interface {
	// Definition CRUD. Documents are validated (including variant expansion)
	// before they are stored.
	PutDefinition(ctx context.Context, worldID string, document []byte) (*calendar.Definition, error)
	GetDefinition(ctx context.Context, worldID, calendarID string) (*StoredCalendar, error)
	ListDefinitions(ctx context.Context, worldID string) ([]StoredCalendar, error)
	DeleteDefinition(ctx context.Context, worldID, calendarID string) error

	// Resolution.
	ListResolved(ctx context.Context, worldID string) (*ResolvedSet, error)
	GetResolved(ctx context.Context, worldID, calendarID string) (*calendar.Definition, error)
	EngineFor(ctx context.Context, worldID, calendarID string) (*calendar.Engine, error)

	// Conversions and formatting.
	WorldTimeToDate(ctx context.Context, worldID, calendarID string, worldTime int64) (*ConversionResult, error)
	DateToWorldTime(ctx context.Context, worldID, calendarID string, req DateRequest) (*ConversionResult, error)
	FormatDate(ctx context.Context, worldID, calendarID string, req FormatRequest) (*FormatResult, error)
}

// calendarService implements CalendarService.
type calendarService struct {
	repo  CalendarRepository
	redis *redis.Client // Optional; nil disables caching.
	ttl   time.Duration
}

// NewCalendarService creates a new calendar service. A nil Redis client is
// allowed (e.g. in tests); resolution then happens on every call.
func NewCalendarService(repo CalendarRepository, rdb *redis.Client, ttl time.Duration) CalendarService {
	return &calendarService{repo: repo, redis: rdb, ttl: ttl}
}

// --- Definition CRUD ---

// PutDefinition validates and stores a raw calendar definition document.
// Validation runs the full variant expansion so a document that would fail
// at resolution time is rejected at write time.
func (s *calendarService) PutDefinition(ctx context.Context, worldID string, document []byte) (*calendar.Definition, error) {
	if worldID == "" {
		return nil, apperror.NewBadRequest("world ID is required")
	}

	var def calendar.Definition
	if err := json.Unmarshal(document, &def); err != nil {
		return nil, apperror.NewBadRequest(fmt.Sprintf("invalid calendar document: %v", err))
	}
	if def.ID == "" {
		return nil, apperror.NewValidation("calendar id is required")
	}
	if _, _, err := calendar.Expand(&def); err != nil {
		return nil, toAppError(err)
	}

	if err := s.repo.Upsert(ctx, worldID, def.ID, document); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("storing calendar: %w", err))
	}

	s.invalidate(ctx, worldID)

	slog.Info("calendar definition stored",
		slog.String("world_id", worldID),
		slog.String("calendar_id", def.ID),
		slog.Int("variants", def.Variants.Len()),
	)
	return &def, nil
}

// GetDefinition returns the raw stored document for one calendar.
func (s *calendarService) GetDefinition(ctx context.Context, worldID, calendarID string) (*StoredCalendar, error) {
	cal, err := s.repo.GetByID(ctx, worldID, calendarID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading calendar: %w", err))
	}
	if cal == nil {
		return nil, apperror.NewNotFound("calendar not found")
	}
	return cal, nil
}

// ListDefinitions returns all raw stored documents for a world.
func (s *calendarService) ListDefinitions(ctx context.Context, worldID string) ([]StoredCalendar, error) {
	cals, err := s.repo.ListByWorld(ctx, worldID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing calendars: %w", err))
	}
	return cals, nil
}

// DeleteDefinition removes a stored definition and invalidates the world's
// resolved cache.
func (s *calendarService) DeleteDefinition(ctx context.Context, worldID, calendarID string) error {
	cal, err := s.repo.GetByID(ctx, worldID, calendarID)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("loading calendar: %w", err))
	}
	if cal == nil {
		return apperror.NewNotFound("calendar not found")
	}
	if err := s.repo.Delete(ctx, worldID, calendarID); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting calendar: %w", err))
	}

	s.invalidate(ctx, worldID)

	slog.Info("calendar definition deleted",
		slog.String("world_id", worldID),
		slog.String("calendar_id", calendarID),
	)
	return nil
}

// --- Resolution ---

// ListResolved returns the full resolved calendar set for a world.
func (s *calendarService) ListResolved(ctx context.Context, worldID string) (*ResolvedSet, error) {
	set, _, err := s.resolvedSet(ctx, worldID)
	return set, err
}

// GetResolved returns one resolved definition by id, following the default
// variant redirect for bare base ids.
func (s *calendarService) GetResolved(ctx context.Context, worldID, calendarID string) (*calendar.Definition, error) {
	_, reg, err := s.resolvedSet(ctx, worldID)
	if err != nil {
		return nil, err
	}
	def, ok := reg.Lookup(calendarID)
	if !ok {
		return nil, apperror.NewNotFound("calendar not found")
	}
	return def, nil
}

// EngineFor builds a conversion engine for one resolved calendar.
func (s *calendarService) EngineFor(ctx context.Context, worldID, calendarID string) (*calendar.Engine, error) {
	def, err := s.GetResolved(ctx, worldID, calendarID)
	if err != nil {
		return nil, err
	}
	eng, err := calendar.NewEngine(def)
	if err != nil {
		// Resolved definitions were validated at write time; a failure here
		// means the stored data no longer matches the engine's rules.
		return nil, apperror.NewInternal(fmt.Errorf("building engine for %s: %w", calendarID, err))
	}
	return eng, nil
}

// resolvedSet returns the cached resolved set for a world, resolving and
// caching on miss.
func (s *calendarService) resolvedSet(ctx context.Context, worldID string) (*ResolvedSet, *calendar.Registry, error) {
	if set := s.cacheGet(ctx, worldID); set != nil {
		return set, calendar.NewRegistry(set.Calendars, set.Defaults), nil
	}

	stored, err := s.repo.ListByWorld(ctx, worldID)
	if err != nil {
		return nil, nil, apperror.NewInternal(fmt.Errorf("listing calendars: %w", err))
	}

	bases := make([]*calendar.Definition, 0, len(stored))
	for _, sc := range stored {
		var def calendar.Definition
		if err := json.Unmarshal(sc.Document, &def); err != nil {
			return nil, nil, apperror.NewInternal(fmt.Errorf("decoding stored calendar %s: %w", sc.CalendarID, err))
		}
		bases = append(bases, &def)
	}

	reg, err := calendar.ResolveCalendars(bases)
	if err != nil {
		return nil, nil, toAppError(err)
	}

	set := &ResolvedSet{Calendars: reg.All(), Defaults: reg.Defaults()}
	s.cacheSet(ctx, worldID, set)
	return set, reg, nil
}

// --- Conversions ---

// WorldTimeToDate decomposes a world time under one calendar.
func (s *calendarService) WorldTimeToDate(ctx context.Context, worldID, calendarID string, worldTime int64) (*ConversionResult, error) {
	eng, err := s.EngineFor(ctx, worldID, calendarID)
	if err != nil {
		return nil, err
	}
	d := eng.WorldTimeToDate(worldTime)
	return &ConversionResult{
		CalendarID: eng.Definition().ID,
		WorldTime:  worldTime,
		Date:       d,
		Short:      d.ToShortString(),
		Long:       d.ToLongString(),
	}, nil
}

// DateToWorldTime converts a structured date back to world time.
func (s *calendarService) DateToWorldTime(ctx context.Context, worldID, calendarID string, req DateRequest) (*ConversionResult, error) {
	eng, err := s.EngineFor(ctx, worldID, calendarID)
	if err != nil {
		return nil, err
	}
	d, err := buildDate(eng, req)
	if err != nil {
		return nil, toAppError(err)
	}
	return &ConversionResult{
		CalendarID: eng.Definition().ID,
		WorldTime:  d.WorldTime(),
		Date:       d,
		Short:      d.ToShortString(),
		Long:       d.ToLongString(),
	}, nil
}

// FormatDate renders a date with a named calendar template or an inline one.
// An inline template wins when both are supplied; with neither, the short
// form is rendered.
func (s *calendarService) FormatDate(ctx context.Context, worldID, calendarID string, req FormatRequest) (*FormatResult, error) {
	eng, err := s.EngineFor(ctx, worldID, calendarID)
	if err != nil {
		return nil, err
	}
	d, err := buildDate(eng, req.Date)
	if err != nil {
		return nil, toAppError(err)
	}

	def := eng.Definition()
	var rendered string
	switch {
	case req.Template != "":
		rendered, err = calendar.FormatTemplate(def, d, req.Template)
	case req.Format != "":
		rendered, err = calendar.FormatNamed(def, d, req.Format)
	default:
		rendered = d.ToShortString()
	}
	if err != nil {
		return nil, toAppError(err)
	}
	return &FormatResult{CalendarID: def.ID, Rendered: rendered}, nil
}

// buildDate validates a date request against the engine's calendar.
func buildDate(eng *calendar.Engine, req DateRequest) (calendar.Date, error) {
	if req.Intercalary != "" {
		return eng.NewIntercalaryDate(req.Year, req.Intercalary, req.Day, req.Time)
	}
	return eng.NewDate(req.Year, req.Month, req.Day, req.Time)
}

// --- Caching ---

// cacheGet loads the resolved set from Redis, returning nil on miss or any
// decode failure. Cache problems never fail a request.
func (s *calendarService) cacheGet(ctx context.Context, worldID string) *ResolvedSet {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, resolvedKeyPrefix+worldID).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("resolved cache read failed", slog.Any("error", err))
		}
		return nil
	}
	var set ResolvedSet
	if err := json.Unmarshal(data, &set); err != nil {
		slog.Warn("resolved cache decode failed", slog.Any("error", err))
		return nil
	}
	return &set
}

// cacheSet stores the resolved set in Redis (best-effort).
func (s *calendarService) cacheSet(ctx context.Context, worldID string, set *ResolvedSet) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(set)
	if err != nil {
		slog.Warn("resolved cache encode failed", slog.Any("error", err))
		return
	}
	if err := s.redis.Set(ctx, resolvedKeyPrefix+worldID, data, s.ttl).Err(); err != nil {
		slog.Warn("resolved cache write failed", slog.Any("error", err))
	}
}

// invalidate drops the world's cached resolved set.
func (s *calendarService) invalidate(ctx context.Context, worldID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, resolvedKeyPrefix+worldID).Err(); err != nil {
		slog.Warn("resolved cache invalidation failed",
			slog.String("world_id", worldID),
			slog.Any("error", err),
		)
	}
}

// toAppError maps core calendar errors onto transport errors. Unrecognized
// errors are treated as internal.
func toAppError(err error) *apperror.AppError {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var cfgErr *calendar.ConfigError
	if errors.As(err, &cfgErr) {
		return apperror.NewValidation(cfgErr.Error())
	}
	var rangeErr *calendar.RangeError
	if errors.As(err, &rangeErr) {
		return apperror.NewBadRequest(rangeErr.Error())
	}
	var fmtErr *calendar.FormatError
	if errors.As(err, &fmtErr) {
		return apperror.NewBadRequest(fmtErr.Error())
	}
	return apperror.NewInternal(err)
}
