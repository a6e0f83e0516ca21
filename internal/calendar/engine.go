package calendar

// Engine performs the bidirectional conversion between world time (whole
// seconds since the epoch) and structured dates under one resolved
// Definition. It is stateless beyond the definition it was built from: every
// method is a pure function, safe for concurrent use.
//
// Conventions, held invariant because external consumers depend on them:
//   - World time 0 is 00:00:00 on day 1 of month 1 of year Year.Epoch.
//   - Negative timestamps resolve to dates before the epoch via floor
//     division, so -1 is the last second of the day before the epoch.
//   - An intercalary date carries Month = the 1-based number of its anchor
//     month (the month the block sits after, or before), Day = the 1-based
//     position within the block, and Intercalary = the block's name.
//   - A day whose block has CountsForWeekdays=false does not advance the
//     weekday rotation; it reports the weekday the next counting day will
//     carry.
type Engine struct {
	def           *Definition
	weekLength    int
	secondsPerDay int64
}

// NewEngine validates the definition and builds an engine for it. Malformed
// definitions are rejected with a ConfigError here so that the conversion
// methods are total over all integer timestamps.
func NewEngine(def *Definition) (*Engine, error) {
	if def == nil {
		return nil, newConfigError("", "calendar definition is nil")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	d := def.Clone()
	d.Time = d.Time.withDefaults()
	spd := int64(d.Time.HoursInDay) * int64(d.Time.MinutesInHour) * int64(d.Time.SecondsInMinute)
	return &Engine{
		def:           d,
		weekLength:    len(d.Weekdays),
		secondsPerDay: spd,
	}, nil
}

// Definition returns the resolved definition the engine was built from.
// Callers must treat it as read-only.
func (e *Engine) Definition() *Definition {
	return e.def
}

// SecondsPerDay returns the length of one calendar day in seconds.
func (e *Engine) SecondsPerDay() int64 {
	return e.secondsPerDay
}

// IsLeapYear evaluates the calendar's leap-year rule for the given year.
func (e *Engine) IsLeapYear(year int) bool {
	switch e.def.LeapYear.Rule {
	case LeapRuleGregorian:
		return imod(year, 4) == 0 && (imod(year, 100) != 0 || imod(year, 400) == 0)
	case LeapRuleCustom:
		return imod(year, e.def.LeapYear.Interval) == 0
	default:
		return false
	}
}

// segment is one run of consecutive days within a year: either a regular
// month or an intercalary block anchored to one.
type segment struct {
	month       int    // 1-based anchor month number
	intercalary string // block name, empty for a regular month
	days        int
	counts      bool // whether these days advance the weekday rotation
}

// yearSegments returns the year's day runs in calendar order: for each month,
// blocks anchored before it, the month itself (with leap extra days when
// applicable), then blocks anchored after it. leapYearOnly blocks appear only
// in leap years.
func (e *Engine) yearSegments(year int) []segment {
	leap := e.IsLeapYear(year)
	segs := make([]segment, 0, len(e.def.Months)+len(e.def.Intercalary))
	for i, m := range e.def.Months {
		num := i + 1
		for _, ic := range e.def.Intercalary {
			if ic.Before == m.Name && (!ic.LeapYearOnly || leap) {
				segs = append(segs, segment{month: num, intercalary: ic.Name, days: ic.Days, counts: ic.CountsForWeekdays})
			}
		}
		days := m.Days
		if leap && e.def.LeapYear.Month == m.Name {
			days += e.def.LeapYear.ExtraDays
		}
		segs = append(segs, segment{month: num, days: days, counts: true})
		for _, ic := range e.def.Intercalary {
			if ic.After == m.Name && (!ic.LeapYearOnly || leap) {
				segs = append(segs, segment{month: num, intercalary: ic.Name, days: ic.Days, counts: ic.CountsForWeekdays})
			}
		}
	}
	return segs
}

// DaysInYear returns the total day count of the given year, including leap
// extra days and that year's intercalary blocks.
func (e *Engine) DaysInYear(year int) int {
	total := 0
	for _, s := range e.yearSegments(year) {
		total += s.days
	}
	return total
}

// countingDaysInYear returns the number of days in the year that advance the
// weekday rotation.
func (e *Engine) countingDaysInYear(year int) int {
	total := 0
	for _, s := range e.yearSegments(year) {
		if s.counts {
			total += s.days
		}
	}
	return total
}

// DaysInMonth returns the day count of a 1-based month in the given year,
// including leap extra days. Out-of-range months return 0.
func (e *Engine) DaysInMonth(month, year int) int {
	if month < 1 || month > len(e.def.Months) {
		return 0
	}
	m := e.def.Months[month-1]
	days := m.Days
	if e.IsLeapYear(year) && e.def.LeapYear.Month == m.Name {
		days += e.def.LeapYear.ExtraDays
	}
	return days
}

// WorldTimeToDate converts a world-time value to the structured date it falls
// in. Total over all int64 timestamps.
func (e *Engine) WorldTimeToDate(worldTime int64) Date {
	days := floorDiv(worldTime, e.secondsPerDay)
	rem := worldTime - days*e.secondsPerDay

	// Locate the containing year, walking one year length at a time.
	// DaysInYear is at least 1 for common and leap years alike (validation
	// rejects zero-day years and bounds leap adjustments), so both loops
	// terminate.
	year := e.def.Year.Epoch
	for days >= int64(e.DaysInYear(year)) {
		days -= int64(e.DaysInYear(year))
		year++
	}
	for days < 0 {
		year--
		days += int64(e.DaysInYear(year))
	}

	// Locate the containing segment within the year.
	offset := int(days)
	counting := 0
	var month, day int
	var icName string
	for _, s := range e.yearSegments(year) {
		if offset < s.days {
			month = s.month
			day = offset + 1
			icName = s.intercalary
			if s.counts {
				counting += offset
			}
			break
		}
		offset -= s.days
		if s.counts {
			counting += s.days
		}
	}

	secondsPerHour := int64(e.def.Time.MinutesInHour) * int64(e.def.Time.SecondsInMinute)
	d := Date{
		eng:         e,
		Year:        year,
		Month:       month,
		Day:         day,
		Intercalary: icName,
		Weekday:     e.weekdayAt(year, counting),
		Time: TimeOfDay{
			Hour:   int(rem / secondsPerHour),
			Minute: int(rem % secondsPerHour / int64(e.def.Time.SecondsInMinute)),
			Second: int(rem % int64(e.def.Time.SecondsInMinute)),
		},
	}
	return d
}

// DateToWorldTime converts a structured date back to world time: whole days
// from the epoch to the start of the date's day, times seconds per day, plus
// the time-of-day contribution. For every date produced by WorldTimeToDate
// the round trip is exact.
func (e *Engine) DateToWorldTime(d Date) int64 {
	days := e.daysFromEpochToYear(d.Year) + int64(e.daysBeforeInYear(d))
	t := d.Time
	seconds := days * e.secondsPerDay
	seconds += int64(t.Hour) * int64(e.def.Time.MinutesInHour) * int64(e.def.Time.SecondsInMinute)
	seconds += int64(t.Minute) * int64(e.def.Time.SecondsInMinute)
	seconds += int64(t.Second)
	return seconds
}

// daysFromEpochToYear returns the signed day count from the epoch year's
// first day to the given year's first day.
func (e *Engine) daysFromEpochToYear(year int) int64 {
	var days int64
	switch {
	case year > e.def.Year.Epoch:
		for y := e.def.Year.Epoch; y < year; y++ {
			days += int64(e.DaysInYear(y))
		}
	case year < e.def.Year.Epoch:
		for y := year; y < e.def.Year.Epoch; y++ {
			days -= int64(e.DaysInYear(y))
		}
	}
	return days
}

// daysBeforeInYear returns how many days of d's year precede d's day.
func (e *Engine) daysBeforeInYear(d Date) int {
	before := 0
	for _, s := range e.yearSegments(d.Year) {
		if s.month == d.Month && s.intercalary == d.Intercalary {
			return before + d.Day - 1
		}
		before += s.days
	}
	// Unreachable for engine-produced dates; explicit construction validates
	// the position first.
	return before
}

// countingDaysBeforeInYear returns how many weekday-counting days of d's year
// precede d's day.
func (e *Engine) countingDaysBeforeInYear(d Date) int {
	before := 0
	for _, s := range e.yearSegments(d.Year) {
		if s.month == d.Month && s.intercalary == d.Intercalary {
			if s.counts {
				before += d.Day - 1
			}
			return before
		}
		if s.counts {
			before += s.days
		}
	}
	return before
}

// weekdayAt returns the weekday index of the day preceded by `counting`
// weekday-counting days within the given year. Year.StartDay anchors the
// epoch year's first day.
func (e *Engine) weekdayAt(year, counting int) int {
	total := int64(e.def.Year.StartDay) + int64(counting)
	switch {
	case year > e.def.Year.Epoch:
		for y := e.def.Year.Epoch; y < year; y++ {
			total += int64(e.countingDaysInYear(y))
		}
	case year < e.def.Year.Epoch:
		for y := year; y < e.def.Year.Epoch; y++ {
			total -= int64(e.countingDaysInYear(y))
		}
	}
	return int(floorMod(total, int64(e.weekLength)))
}

// SeasonFor returns the first season whose month range contains the date's
// month, or nil when no season matches.
func (e *Engine) SeasonFor(d Date) *Season {
	for i := range e.def.Seasons {
		if e.def.Seasons[i].Contains(d.Month) {
			return &e.def.Seasons[i]
		}
	}
	return nil
}

// MoonPhaseFor returns the moon's phase on the given date, mapping the
// elapsed days since the moon's first new moon into the phase list by
// cumulative length. Returns nil when the moon has no phases.
func (e *Engine) MoonPhaseFor(moon Moon, d Date) *MoonPhase {
	if len(moon.Phases) == 0 || moon.CycleLength <= 0 {
		return nil
	}
	ref := Date{
		eng:   e,
		Year:  moon.FirstNewMoon.Year,
		Month: moon.FirstNewMoon.Month,
		Day:   moon.FirstNewMoon.Day,
	}
	elapsed := float64(e.daysFromEpochToYear(d.Year)+int64(e.daysBeforeInYear(d))) -
		float64(e.daysFromEpochToYear(ref.Year)+int64(e.daysBeforeInYear(ref)))
	pos := fmod(elapsed, moon.CycleLength)
	cum := 0.0
	for i := range moon.Phases {
		cum += moon.Phases[i].Length
		if pos < cum {
			return &moon.Phases[i]
		}
	}
	// Cycle length exceeding the summed phase lengths maps the tail onto the
	// last phase.
	return &moon.Phases[len(moon.Phases)-1]
}

// --- integer helpers ---

// floorDiv divides rounding toward negative infinity, so negative timestamps
// land on the correct earlier day.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod returns the non-negative remainder of floor division.
func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

// imod is floorMod for ints.
func imod(a, b int) int {
	return int(floorMod(int64(a), int64(b)))
}

// fmod is a floor-style float modulo (result in [0, b) for positive b).
func fmod(a, b float64) float64 {
	r := a - b*float64(int64(a/b))
	if r < 0 {
		r += b
	}
	return r
}
