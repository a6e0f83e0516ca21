package calendar

import "fmt"

// ConfigError reports a malformed or self-inconsistent calendar definition
// (empty months, unresolvable intercalary anchor, zero weekdays, a variant
// override naming a month that doesn't exist). It is raised when a definition
// is validated or expanded, never during date conversion — construction-time
// validation is what makes the conversion functions total.
type ConfigError struct {
	// CalendarID identifies the offending definition (may be empty if the
	// definition has no id yet).
	CalendarID string

	// Reason describes what is wrong, safe to surface to the user.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.CalendarID != "" {
		return fmt.Sprintf("calendar %q: %s", e.CalendarID, e.Reason)
	}
	return e.Reason
}

// newConfigError builds a ConfigError with a formatted reason.
func newConfigError(calendarID, format string, args ...any) *ConfigError {
	return &ConfigError{CalendarID: calendarID, Reason: fmt.Sprintf(format, args...)}
}

// RangeError reports a caller-supplied structured date with out-of-range
// fields (day past the end of its month, unknown month number, time component
// outside the calendar's units). Only explicit date construction raises it;
// timestamp conversion accepts every integer.
type RangeError struct {
	Field  string
	Value  int
	Reason string
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range: %s", e.Field, e.Value, e.Reason)
}

// newRangeError builds a RangeError with a formatted reason.
func newRangeError(field string, value int, format string, args ...any) *RangeError {
	return &RangeError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// FormatError reports a formatting failure: a named template missing from the
// calendar's dateFormats, or a template with a malformed or unknown helper.
type FormatError struct {
	Template string
	Reason   string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("format %q: %s", e.Template, e.Reason)
	}
	return e.Reason
}

// newFormatError builds a FormatError with a formatted reason.
func newFormatError(template, format string, args ...any) *FormatError {
	return &FormatError{Template: template, Reason: fmt.Sprintf(format, args...)}
}
