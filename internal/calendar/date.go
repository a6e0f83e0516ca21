package calendar

// TimeOfDay is a time within one calendar day. The zero value is midnight,
// which is also the documented default when a caller builds a date without a
// time.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// Date is a structured date bound to the calendar it was computed under.
// Dates are immutable by convention: no method mutates the receiver, and all
// derived values are returned fresh. Dates are created by
// Engine.WorldTimeToDate or by the explicit constructors below, which
// validate fields against the owning calendar.
type Date struct {
	// eng binds the date to the engine (and definition) that gave its fields
	// meaning. Comparison and formatting go through it.
	eng *Engine

	Year    int       `json:"year"`
	Month   int       `json:"month"`
	Day     int       `json:"day"`
	Weekday int       `json:"weekday"`
	Time    TimeOfDay `json:"time"`

	// Intercalary names the intercalary block this date falls on, empty for
	// regular dates. Month and Day then describe the anchor month and the
	// position within the block (see Engine's conventions).
	Intercalary string `json:"intercalary,omitempty"`
}

// NewDate builds a validated regular date under the engine's calendar.
// Out-of-range fields yield a RangeError.
func (e *Engine) NewDate(year, month, day int, t TimeOfDay) (Date, error) {
	if month < 1 || month > len(e.def.Months) {
		return Date{}, newRangeError("month", month, "calendar has %d months", len(e.def.Months))
	}
	max := e.DaysInMonth(month, year)
	if day < 1 || day > max {
		return Date{}, newRangeError("day", day, "month %q has %d days in year %d", e.def.Months[month-1].Name, max, year)
	}
	if err := e.validateTime(t); err != nil {
		return Date{}, err
	}
	d := Date{eng: e, Year: year, Month: month, Day: day, Time: t}
	d.Weekday = e.weekdayAt(year, e.countingDaysBeforeInYear(d))
	return d, nil
}

// NewIntercalaryDate builds a validated date on the named intercalary block.
func (e *Engine) NewIntercalaryDate(year int, name string, day int, t TimeOfDay) (Date, error) {
	for _, ic := range e.def.Intercalary {
		if ic.Name != name {
			continue
		}
		if ic.LeapYearOnly && !e.IsLeapYear(year) {
			return Date{}, newRangeError("year", year, "intercalary day %q occurs only in leap years", name)
		}
		if day < 1 || day > ic.Days {
			return Date{}, newRangeError("day", day, "intercalary day %q has %d days", name, ic.Days)
		}
		if err := e.validateTime(t); err != nil {
			return Date{}, err
		}
		anchor := ic.After
		if anchor == "" {
			anchor = ic.Before
		}
		d := Date{
			eng:         e,
			Year:        year,
			Month:       e.def.monthIndex(anchor) + 1,
			Day:         day,
			Time:        t,
			Intercalary: name,
		}
		d.Weekday = e.weekdayAt(year, e.countingDaysBeforeInYear(d))
		return d, nil
	}
	return Date{}, newRangeError("day", day, "no intercalary day named %q", name)
}

// validateTime checks time-of-day components against the calendar's units.
func (e *Engine) validateTime(t TimeOfDay) error {
	if t.Hour < 0 || t.Hour >= e.def.Time.HoursInDay {
		return newRangeError("hour", t.Hour, "day has %d hours", e.def.Time.HoursInDay)
	}
	if t.Minute < 0 || t.Minute >= e.def.Time.MinutesInHour {
		return newRangeError("minute", t.Minute, "hour has %d minutes", e.def.Time.MinutesInHour)
	}
	if t.Second < 0 || t.Second >= e.def.Time.SecondsInMinute {
		return newRangeError("second", t.Second, "minute has %d seconds", e.def.Time.SecondsInMinute)
	}
	return nil
}

// Calendar returns the definition the date was computed under.
func (d Date) Calendar() *Definition {
	if d.eng == nil {
		return nil
	}
	return d.eng.Definition()
}

// WorldTime returns the date's world-time value.
func (d Date) WorldTime() int64 {
	return d.eng.DateToWorldTime(d)
}

// Compare orders two dates by their world-time representation: -1 when d is
// earlier than other, 0 when equal, +1 when later. Comparing through world
// time rather than field by field keeps intercalary dates ordered correctly.
func (d Date) Compare(other Date) int {
	a, b := d.WorldTime(), other.WorldTime()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CountsForWeekdays reports whether this date advances the weekday rotation:
// true for every regular date, and for intercalary dates whose block is
// configured to count.
func (d Date) CountsForWeekdays() bool {
	if d.Intercalary == "" {
		return true
	}
	for _, ic := range d.eng.def.Intercalary {
		if ic.Name == d.Intercalary {
			return ic.CountsForWeekdays
		}
	}
	return false
}

// ToShortString renders the date with the calendar's "short" template, or the
// built-in fallback when the calendar defines none.
func (d Date) ToShortString() string {
	return d.formatNamedOrFallback("short", DefaultShortFormat)
}

// ToLongString renders the date with the calendar's "long" template, or the
// built-in fallback when the calendar defines none.
func (d Date) ToLongString() string {
	return d.formatNamedOrFallback("long", DefaultLongFormat)
}

// formatNamedOrFallback prefers the calendar's named template and falls back
// to the given built-in. Template errors degrade to the fallback rather than
// panicking, since these entry points return plain strings.
func (d Date) formatNamedOrFallback(name, fallback string) string {
	if tpl, ok := d.eng.def.DateFormats[name]; ok {
		if s, err := FormatTemplate(d.eng.def, d, tpl); err == nil {
			return s
		}
	}
	s, err := FormatTemplate(d.eng.def, d, fallback)
	if err != nil {
		return ""
	}
	return s
}

// FormatOptions selects which parts of a date Format renders.
type FormatOptions struct {
	// IncludeWeekday prefixes the weekday name.
	IncludeWeekday bool

	// IncludeTime appends the zero-padded time of day.
	IncludeTime bool
}

// Format renders the date with a template composed from the options.
func (d Date) Format(opts FormatOptions) string {
	tpl := `{{month format="name"}} {{day format="ordinal"}}, {{year}}`
	if opts.IncludeWeekday {
		tpl = `{{weekday format="name"}}, ` + tpl
	}
	if opts.IncludeTime {
		tpl += ` {{hour format="pad"}}:{{minute format="pad"}}:{{second format="pad"}}`
	}
	s, err := FormatTemplate(d.eng.def, d, tpl)
	if err != nil {
		return ""
	}
	return s
}
