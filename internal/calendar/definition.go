// Package calendar implements Timekeeper's data-driven calendar engine.
// It converts a linear world-time value (whole seconds since an epoch) into a
// structured date and back, for calendars whose month lengths, week length,
// leap-year rule, intercalary days, seasons, and moons are all described by
// data instead of being fixed like the Gregorian calendar. The package also
// expands calendar variants (named override bundles) into standalone
// definitions and renders dates through per-calendar format templates.
//
// The engine is pure: no I/O, no globals, no mutation of its inputs. A
// Definition and the dates computed under it are safe to share across
// goroutines as long as callers treat them as read-only. Reloading a
// calendar means building a new Definition and swapping the reference.
package calendar

// Leap-year rule identifiers.
const (
	// LeapRuleNone disables leap-year adjustment.
	LeapRuleNone = "none"
	// LeapRuleGregorian reproduces the 4/100/400 pattern.
	LeapRuleGregorian = "gregorian"
	// LeapRuleCustom adds extra days to a named month on a fixed interval.
	LeapRuleCustom = "custom"
)

// Default time-unit sizes applied when a definition omits them.
const (
	defaultHoursInDay      = 24
	defaultMinutesInHour   = 60
	defaultSecondsInMinute = 60
)

// Definition is the declarative description of one calendar. It is pure data;
// behavior lives in Engine, Formatter, and the variant resolver. The JSON
// shape of this struct is the interchange format accepted from calendar
// authoring tools and VTT exports.
type Definition struct {
	// ID uniquely identifies the calendar, stable across sessions. Resolved
	// variants get ids of the form "<baseID>(<variantID>)".
	ID string `json:"id"`

	// Name is the human-readable display label.
	Name string `json:"name"`

	Description string `json:"description,omitempty"`

	// Months is the ordered regular month sequence. Order determines the
	// 1-based month number. Intercalary days are not months and live in
	// Intercalary instead.
	Months []Month `json:"months"`

	// Weekdays defines the repeating weekly cycle; its length is the week length.
	Weekdays []Weekday `json:"weekdays"`

	LeapYear    LeapYear         `json:"leapYear"`
	Intercalary []IntercalaryDay `json:"intercalary,omitempty"`
	Year        YearInfo         `json:"year"`
	Time        TimeUnits        `json:"time"`
	Seasons     []Season         `json:"seasons,omitempty"`
	Moons       []Moon           `json:"moons,omitempty"`

	// DateFormats maps template names ("short", "long", ...) to format
	// template strings consumed by the formatter.
	DateFormats map[string]string `json:"dateFormats,omitempty"`

	// Variants holds named override bundles. Present only on raw base
	// definitions; Expand strips it from every resolved calendar.
	Variants VariantMap `json:"variants,omitzero"`
}

// Month is a named period with a configurable number of days.
type Month struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
	Days         int    `json:"days"`
	Description  string `json:"description,omitempty"`
}

// Abbr returns the month's abbreviation, falling back to the full name.
func (m Month) Abbr() string {
	if m.Abbreviation != "" {
		return m.Abbreviation
	}
	return m.Name
}

// Weekday is a named day in the weekly cycle.
type Weekday struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

// Abbr returns the weekday's abbreviation, falling back to the full name.
func (w Weekday) Abbr() string {
	if w.Abbreviation != "" {
		return w.Abbreviation
	}
	return w.Name
}

// LeapYear configures the leap-year rule. For LeapRuleCustom, ExtraDays are
// added to the named Month every Interval years; the reference year for the
// interval is year 0, so year Y is leap iff Y mod Interval == 0 (Euclidean
// mod, so the rule extends symmetrically to negative years). LeapRuleGregorian
// uses the standard 4/100/400 predicate with the same Month/ExtraDays
// adjustment.
type LeapYear struct {
	Rule      string `json:"rule"`
	Interval  int    `json:"interval,omitempty"`
	Month     string `json:"month,omitempty"`
	ExtraDays int    `json:"extraDays,omitempty"`
}

// IntercalaryDay is a block of days inserted outside the regular month
// sequence (a festival day, a year-end gap). Exactly one of After/Before
// names the anchor month. Blocks with CountsForWeekdays=false do not advance
// the weekday rotation.
type IntercalaryDay struct {
	Name              string `json:"name"`
	Days              int    `json:"days"`
	After             string `json:"after,omitempty"`
	Before            string `json:"before,omitempty"`
	LeapYearOnly      bool   `json:"leapYearOnly,omitempty"`
	CountsForWeekdays bool   `json:"countsForWeekdays"`
	Description       string `json:"description,omitempty"`
}

// YearInfo anchors the calendar's year numbering. Epoch is the year number at
// world time 0 (the first day of year Epoch begins exactly at timestamp 0).
// StartDay is the weekday index of that first day. Prefix and Suffix decorate
// formatted year numbers ("AR 1042", "1042 BCE").
type YearInfo struct {
	Epoch       int    `json:"epoch"`
	CurrentYear int    `json:"currentYear,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
	Suffix      string `json:"suffix,omitempty"`
	StartDay    int    `json:"startDay,omitempty"`
}

// TimeUnits defines the sizes of the calendar's time-of-day units. Zero
// values fall back to 24/60/60.
type TimeUnits struct {
	HoursInDay      int           `json:"hoursInDay,omitempty"`
	MinutesInHour   int           `json:"minutesInHour,omitempty"`
	SecondsInMinute int           `json:"secondsInMinute,omitempty"`
	AMPMNotation    *AMPMNotation `json:"amPmNotation,omitempty"`
}

// AMPMNotation holds calendar-specific meridiem labels used by the hour
// helper's "ampm" modifier.
type AMPMNotation struct {
	AM string `json:"am"`
	PM string `json:"pm"`
}

// Season is a named month range. Ranges may wrap the year boundary
// (StartMonth > EndMonth). Overlap is allowed by convention; lookups return
// the first match in declaration order.
type Season struct {
	Name        string `json:"name"`
	StartMonth  int    `json:"startMonth"`
	EndMonth    int    `json:"endMonth"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// Contains reports whether the given 1-based month falls within the season,
// handling wrap-around ranges.
func (s Season) Contains(month int) bool {
	if s.StartMonth <= s.EndMonth {
		return month >= s.StartMonth && month <= s.EndMonth
	}
	return month >= s.StartMonth || month <= s.EndMonth
}

// Moon is a celestial body with a repeating phase cycle.
type Moon struct {
	Name         string        `json:"name"`
	CycleLength  float64       `json:"cycleLength"`
	FirstNewMoon ReferenceDate `json:"firstNewMoon"`
	Phases       []MoonPhase   `json:"phases"`
}

// ReferenceDate is a bare year/month/day anchor (no time-of-day), used for a
// moon's first recorded new moon.
type ReferenceDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// MoonPhase is one segment of a moon's cycle. Length is in days; phases are
// matched by cumulative length from the cycle start.
type MoonPhase struct {
	Name      string  `json:"name"`
	Length    float64 `json:"length"`
	SingleDay bool    `json:"singleDay,omitempty"`
	Icon      string  `json:"icon,omitempty"`
}

// withDefaults returns a copy of the time units with zero fields replaced by
// the 24/60/60 defaults. A tolerated default, not an error condition.
func (t TimeUnits) withDefaults() TimeUnits {
	if t.HoursInDay == 0 {
		t.HoursInDay = defaultHoursInDay
	}
	if t.MinutesInHour == 0 {
		t.MinutesInHour = defaultMinutesInHour
	}
	if t.SecondsInMinute == 0 {
		t.SecondsInMinute = defaultSecondsInMinute
	}
	return t
}

// monthIndex returns the 0-based index of the named month, or -1.
func (d *Definition) monthIndex(name string) int {
	for i, m := range d.Months {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks the definition for self-consistency. It returns a
// ConfigError describing the first problem found, or nil. Engine construction
// and variant expansion both call this, so a definition that reached an
// Engine is guaranteed convertible for every integer timestamp.
func (d *Definition) Validate() error {
	if len(d.Months) == 0 {
		return newConfigError(d.ID, "calendar must have at least one month")
	}
	total := 0
	for i, m := range d.Months {
		if m.Name == "" {
			return newConfigError(d.ID, "month %d: name is required", i+1)
		}
		if m.Days < 0 {
			return newConfigError(d.ID, "month %q: days cannot be negative", m.Name)
		}
		total += m.Days
	}
	if total == 0 {
		return newConfigError(d.ID, "calendar year has zero days")
	}
	if len(d.Weekdays) == 0 {
		return newConfigError(d.ID, "calendar must have at least one weekday")
	}

	switch d.LeapYear.Rule {
	case "", LeapRuleNone, LeapRuleGregorian, LeapRuleCustom:
	default:
		return newConfigError(d.ID, "unknown leap year rule %q", d.LeapYear.Rule)
	}
	if d.LeapYear.Rule == LeapRuleCustom && d.LeapYear.Interval <= 0 {
		return newConfigError(d.ID, "custom leap year rule requires a positive interval")
	}
	if (d.LeapYear.Rule == LeapRuleCustom || d.LeapYear.Rule == LeapRuleGregorian) &&
		d.LeapYear.ExtraDays != 0 {
		idx := d.monthIndex(d.LeapYear.Month)
		if idx < 0 {
			return newConfigError(d.ID, "leap year month %q does not exist", d.LeapYear.Month)
		}
		if d.Months[idx].Days+d.LeapYear.ExtraDays < 0 {
			return newConfigError(d.ID, "leap year month %q: extra days leave the month with negative days", d.LeapYear.Month)
		}
		// The year-walk decomposition needs every year to contain at least
		// one day; leap-only intercalary blocks count toward leap years.
		leapTotal := total + d.LeapYear.ExtraDays
		for _, ic := range d.Intercalary {
			if ic.LeapYearOnly {
				leapTotal += ic.Days
			}
		}
		if leapTotal <= 0 {
			return newConfigError(d.ID, "calendar leap year has zero days")
		}
	}

	seen := make(map[string]bool, len(d.Intercalary))
	for _, ic := range d.Intercalary {
		if ic.Name == "" {
			return newConfigError(d.ID, "intercalary day: name is required")
		}
		// Dates reference blocks by name, so names must be unique.
		if seen[ic.Name] {
			return newConfigError(d.ID, "intercalary day %q: duplicate name", ic.Name)
		}
		seen[ic.Name] = true
		if ic.Days <= 0 {
			return newConfigError(d.ID, "intercalary day %q: days must be positive", ic.Name)
		}
		switch {
		case ic.After != "" && ic.Before != "":
			return newConfigError(d.ID, "intercalary day %q: cannot anchor both after and before a month", ic.Name)
		case ic.After != "":
			if d.monthIndex(ic.After) < 0 {
				return newConfigError(d.ID, "intercalary day %q: anchor month %q does not exist", ic.Name, ic.After)
			}
		case ic.Before != "":
			if d.monthIndex(ic.Before) < 0 {
				return newConfigError(d.ID, "intercalary day %q: anchor month %q does not exist", ic.Name, ic.Before)
			}
		default:
			return newConfigError(d.ID, "intercalary day %q: must be anchored after or before a month", ic.Name)
		}
	}

	t := d.Time
	if t.HoursInDay < 0 || t.MinutesInHour < 0 || t.SecondsInMinute < 0 {
		return newConfigError(d.ID, "time unit sizes cannot be negative")
	}

	for _, s := range d.Seasons {
		if s.StartMonth < 1 || s.StartMonth > len(d.Months) || s.EndMonth < 1 || s.EndMonth > len(d.Months) {
			return newConfigError(d.ID, "season %q: month range outside the calendar", s.Name)
		}
	}
	for _, m := range d.Moons {
		if m.CycleLength <= 0 {
			return newConfigError(d.ID, "moon %q: cycle length must be positive", m.Name)
		}
		ref := m.FirstNewMoon
		if ref.Month < 1 || ref.Month > len(d.Months) {
			return newConfigError(d.ID, "moon %q: first new moon month outside the calendar", m.Name)
		}
		anchor := d.Months[ref.Month-1]
		maxDay := anchor.Days
		if d.LeapYear.Rule != "" && d.LeapYear.Rule != LeapRuleNone &&
			d.LeapYear.Month == anchor.Name && d.LeapYear.ExtraDays > 0 {
			maxDay += d.LeapYear.ExtraDays
		}
		if ref.Day < 1 || ref.Day > maxDay {
			return newConfigError(d.ID, "moon %q: first new moon day outside month %q", m.Name, anchor.Name)
		}
	}
	return nil
}

// Clone returns a deep copy of the definition. Variant expansion merges
// overrides onto clones so the base is never mutated.
func (d *Definition) Clone() *Definition {
	out := *d
	out.Months = append([]Month(nil), d.Months...)
	out.Weekdays = append([]Weekday(nil), d.Weekdays...)
	out.Intercalary = append([]IntercalaryDay(nil), d.Intercalary...)
	out.Seasons = append([]Season(nil), d.Seasons...)
	out.Moons = make([]Moon, len(d.Moons))
	for i, m := range d.Moons {
		out.Moons[i] = m
		out.Moons[i].Phases = append([]MoonPhase(nil), m.Phases...)
	}
	if d.Time.AMPMNotation != nil {
		n := *d.Time.AMPMNotation
		out.Time.AMPMNotation = &n
	}
	if d.DateFormats != nil {
		out.DateFormats = make(map[string]string, len(d.DateFormats))
		for k, v := range d.DateFormats {
			out.DateFormats[k] = v
		}
	}
	out.Variants = d.Variants.clone()
	return &out
}
