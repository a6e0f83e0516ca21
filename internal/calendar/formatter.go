package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// Built-in fallback templates used when a calendar defines no "short" or
// "long" entry in its dateFormats.
const (
	DefaultShortFormat = `{{month format="abbr"}} {{day}}, {{year}}`
	DefaultLongFormat  = `{{weekday format="name"}}, {{day format="ordinal"}} {{month format="name"}} {{year}}`
)

// Built-in meridiem labels, used when neither the template nor the calendar
// provides its own.
const (
	defaultAM = "AM"
	defaultPM = "PM"
)

// FormatNamed renders the date with the calendar's named template. A missing
// name is a FormatError, not a silent empty string.
func FormatNamed(def *Definition, d Date, name string) (string, error) {
	tpl, ok := def.DateFormats[name]
	if !ok {
		return "", newFormatError(name, "calendar %q defines no such date format", def.ID)
	}
	return FormatTemplate(def, d, tpl)
}

// FormatTemplate renders the date through a format template: literal text
// interspersed with helper invocations of the form
//
//	{{helper format="modifier" key="value"}}
//
// Supported helpers are hour, minute, second, day, month, weekday, and year.
// Rendering is a pure function of (definition, date, template); there is no
// helper registry to populate or reset.
func FormatTemplate(def *Definition, d Date, template string) (string, error) {
	var out strings.Builder
	rest := template
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:open])
		rest = rest[open+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			return "", newFormatError("", "unterminated helper invocation")
		}
		name, args, err := parseHelper(rest[:end])
		if err != nil {
			return "", err
		}
		s, err := applyHelper(def, d, name, args)
		if err != nil {
			return "", err
		}
		out.WriteString(s)
		rest = rest[end+2:]
	}
}

// parseHelper splits the inside of a {{...}} invocation into the helper name
// and its key="value" arguments.
func parseHelper(body string) (string, map[string]string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", nil, newFormatError("", "empty helper invocation")
	}
	fields, err := splitArgs(body)
	if err != nil {
		return "", nil, err
	}
	name := fields[0]
	if strings.Contains(name, "=") {
		return "", nil, newFormatError("", "helper invocation must start with a helper name")
	}
	args := make(map[string]string, len(fields)-1)
	for _, f := range fields[1:] {
		eq := strings.Index(f, "=")
		if eq <= 0 {
			return "", nil, newFormatError("", "malformed helper argument %q", f)
		}
		key := f[:eq]
		val := f[eq+1:]
		if len(val) < 2 || val[0] != '"' || val[len(val)-1] != '"' {
			return "", nil, newFormatError("", "helper argument %q must be quoted", key)
		}
		args[key] = val[1 : len(val)-1]
	}
	return name, args, nil
}

// splitArgs splits on spaces while keeping quoted values intact.
func splitArgs(s string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, newFormatError("", "unterminated quote in helper invocation")
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

// applyHelper evaluates one helper against the date.
func applyHelper(def *Definition, d Date, name string, args map[string]string) (string, error) {
	mod := args["format"]
	switch name {
	case "hour":
		return hourHelper(def, d.Time.Hour, mod, args)
	case "minute":
		return padHelper(d.Time.Minute, mod)
	case "second":
		return padHelper(d.Time.Second, mod)
	case "day":
		if mod == "ordinal" {
			return ordinal(d.Day), nil
		}
		return strconv.Itoa(d.Day), nil
	case "month":
		return monthHelper(def, d.Month, mod)
	case "weekday":
		return weekdayHelper(def, d.Weekday, mod)
	case "year":
		if mod == "raw" {
			return strconv.Itoa(d.Year), nil
		}
		return def.Year.Prefix + strconv.Itoa(d.Year) + def.Year.Suffix, nil
	default:
		return "", newFormatError("", "unknown helper %q", name)
	}
}

// hourHelper renders the hour with the requested modifier. The 12-hour
// conversion applies hour%12 literally (with 0 mapped to 12), so hours
// outside [0,24) are passed through unnormalized; hosts that feed raw
// over-24 hours see them unchanged, which some rely on.
func hourHelper(def *Definition, hour int, mod string, args map[string]string) (string, error) {
	switch mod {
	case "":
		return strconv.Itoa(hour), nil
	case "pad":
		return fmt.Sprintf("%02d", hour), nil
	case "12hour":
		return strconv.Itoa(hour12(hour)), nil
	case "12hour-pad":
		return fmt.Sprintf("%02d", hour12(hour)), nil
	case "ampm":
		am, pm := defaultAM, defaultPM
		if n := def.Time.AMPMNotation; n != nil {
			if n.AM != "" {
				am = n.AM
			}
			if n.PM != "" {
				pm = n.PM
			}
		}
		if v, ok := args["am"]; ok {
			am = v
		}
		if v, ok := args["pm"]; ok {
			pm = v
		}
		if hour < 12 {
			return am, nil
		}
		return pm, nil
	default:
		return "", newFormatError("", "unknown hour modifier %q", mod)
	}
}

// hour12 converts a 24-hour value to 12-hour display: 0 and 12 become 12,
// 13–23 drop 12, 1–11 pass through. Deliberately plain modulo arithmetic.
func hour12(hour int) int {
	h := hour % 12
	if h == 0 {
		return 12
	}
	return h
}

// padHelper renders minutes/seconds raw or zero-padded to two digits.
func padHelper(v int, mod string) (string, error) {
	switch mod {
	case "":
		return strconv.Itoa(v), nil
	case "pad":
		return fmt.Sprintf("%02d", v), nil
	default:
		return "", newFormatError("", "unknown modifier %q", mod)
	}
}

// monthHelper renders the month number, name, or abbreviation.
func monthHelper(def *Definition, month int, mod string) (string, error) {
	switch mod {
	case "":
		return strconv.Itoa(month), nil
	case "name", "abbr":
		if month < 1 || month > len(def.Months) {
			return "", newFormatError("", "month %d outside calendar %q", month, def.ID)
		}
		if mod == "name" {
			return def.Months[month-1].Name, nil
		}
		return def.Months[month-1].Abbr(), nil
	default:
		return "", newFormatError("", "unknown month modifier %q", mod)
	}
}

// weekdayHelper renders the weekday name or abbreviation.
func weekdayHelper(def *Definition, weekday int, mod string) (string, error) {
	if weekday < 0 || weekday >= len(def.Weekdays) {
		return "", newFormatError("", "weekday %d outside calendar %q", weekday, def.ID)
	}
	switch mod {
	case "", "name":
		return def.Weekdays[weekday].Name, nil
	case "abbr":
		return def.Weekdays[weekday].Abbr(), nil
	default:
		return "", newFormatError("", "unknown weekday modifier %q", mod)
	}
}

// ordinal renders 1 -> "1st", 2 -> "2nd", 13 -> "13th", and so on.
func ordinal(n int) string {
	suffix := "th"
	if v := imod(n, 100); v < 11 || v > 13 {
		switch imod(n, 10) {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
