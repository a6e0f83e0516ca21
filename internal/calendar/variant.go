package calendar

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// VariantSpec is one named override bundle inside a base definition.
type VariantSpec struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Default     bool      `json:"default,omitempty"`
	Overrides   Overrides `json:"overrides"`
}

// Overrides is a typed partial calendar merged onto a clone of the base.
// Every field is optional: scalars overwrite when present, nested maps merge
// key by key, and the name-keyed patch maps modify the matching base entry in
// place while leaving the rest of the sequence untouched. A patch naming an
// entry absent from the base is a ConfigError, caught at merge time instead
// of surfacing later as confusing date math.
type Overrides struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`

	Months   map[string]MonthPatch   `json:"months,omitempty"`
	Weekdays map[string]WeekdayPatch `json:"weekdays,omitempty"`
	Seasons  map[string]SeasonPatch  `json:"seasons,omitempty"`
	Moons    map[string]MoonPatch    `json:"moons,omitempty"`

	LeapYear *LeapYearPatch `json:"leapYear,omitempty"`
	Year     *YearPatch     `json:"year,omitempty"`
	Time     *TimePatch     `json:"time,omitempty"`

	DateFormats map[string]string `json:"dateFormats,omitempty"`
}

// MonthPatch overrides fields of one named month.
type MonthPatch struct {
	Name         *string `json:"name,omitempty"`
	Abbreviation *string `json:"abbreviation,omitempty"`
	Days         *int    `json:"days,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// WeekdayPatch overrides fields of one named weekday.
type WeekdayPatch struct {
	Name         *string `json:"name,omitempty"`
	Abbreviation *string `json:"abbreviation,omitempty"`
}

// SeasonPatch overrides fields of one named season.
type SeasonPatch struct {
	Name       *string `json:"name,omitempty"`
	StartMonth *int    `json:"startMonth,omitempty"`
	EndMonth   *int    `json:"endMonth,omitempty"`
	Icon       *string `json:"icon,omitempty"`
}

// MoonPatch overrides fields of one named moon.
type MoonPatch struct {
	Name        *string  `json:"name,omitempty"`
	CycleLength *float64 `json:"cycleLength,omitempty"`
}

// LeapYearPatch overrides the leap-year rule.
type LeapYearPatch struct {
	Rule      *string `json:"rule,omitempty"`
	Interval  *int    `json:"interval,omitempty"`
	Month     *string `json:"month,omitempty"`
	ExtraDays *int    `json:"extraDays,omitempty"`
}

// YearPatch overrides year numbering and decoration.
type YearPatch struct {
	Epoch       *int    `json:"epoch,omitempty"`
	CurrentYear *int    `json:"currentYear,omitempty"`
	Prefix      *string `json:"prefix,omitempty"`
	Suffix      *string `json:"suffix,omitempty"`
	StartDay    *int    `json:"startDay,omitempty"`
}

// TimePatch overrides time-unit sizes.
type TimePatch struct {
	HoursInDay      *int          `json:"hoursInDay,omitempty"`
	MinutesInHour   *int          `json:"minutesInHour,omitempty"`
	SecondsInMinute *int          `json:"secondsInMinute,omitempty"`
	AMPMNotation    *AMPMNotation `json:"amPmNotation,omitempty"`
}

// VariantMap is an insertion-ordered map of variant id to spec. JSON object
// order is preserved on decode so that expansion is deterministic and
// re-running it on identical input yields identical output.
type VariantMap struct {
	keys  []string
	specs map[string]VariantSpec
}

// Len returns the number of variants.
func (m VariantMap) Len() int { return len(m.keys) }

// IsZero lets encoding/json's omitzero drop empty variant maps.
func (m VariantMap) IsZero() bool { return len(m.keys) == 0 }

// Keys returns the variant ids in declaration order.
func (m VariantMap) Keys() []string { return append([]string(nil), m.keys...) }

// Get returns the override set for a variant id.
func (m VariantMap) Get(id string) (VariantSpec, bool) {
	s, ok := m.specs[id]
	return s, ok
}

// clone returns a copy sharing no mutable state.
func (m VariantMap) clone() VariantMap {
	if len(m.keys) == 0 {
		return VariantMap{}
	}
	out := VariantMap{
		keys:  append([]string(nil), m.keys...),
		specs: make(map[string]VariantSpec, len(m.specs)),
	}
	for k, v := range m.specs {
		out.specs[k] = v
	}
	return out
}

// UnmarshalJSON decodes a JSON object while recording key order.
func (m *VariantMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = VariantMap{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("variants: expected JSON object")
	}
	out := VariantMap{specs: make(map[string]VariantSpec)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var spec VariantSpec
		if err := dec.Decode(&spec); err != nil {
			return fmt.Errorf("variant %q: %w", key, err)
		}
		if _, dup := out.specs[key]; !dup {
			out.keys = append(out.keys, key)
		}
		out.specs[key] = spec
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// MarshalJSON encodes the map in declaration order.
func (m VariantMap) MarshalJSON() ([]byte, error) {
	if len(m.keys) == 0 {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.specs[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Expand resolves a raw base definition into the full set of selectable
// calendars: the base itself (with the variants field stripped), then one
// standalone definition per variant in declaration order, each a clone of the
// base with its overrides merged on top. The returned defaults map carries at
// most one entry, base id -> the id of the variant marked default, so hosts
// selecting the bare base id land on the default variant.
func Expand(base *Definition) ([]*Definition, map[string]string, error) {
	if base.ID == "" {
		return nil, nil, newConfigError("", "calendar id is required")
	}
	stripped := base.Clone()
	stripped.Variants = VariantMap{}
	if err := stripped.Validate(); err != nil {
		return nil, nil, err
	}

	out := []*Definition{stripped}
	defaults := make(map[string]string)
	for _, variantID := range base.Variants.keys {
		spec := base.Variants.specs[variantID]
		resolved := stripped.Clone()
		resolved.ID = fmt.Sprintf("%s(%s)", base.ID, variantID)
		resolved.Name = fmt.Sprintf("%s (%s)", base.Name, spec.Name)
		if err := mergeOverrides(resolved, base, spec.Overrides); err != nil {
			return nil, nil, err
		}
		if err := resolved.Validate(); err != nil {
			return nil, nil, err
		}
		if spec.Default {
			if _, taken := defaults[base.ID]; !taken {
				defaults[base.ID] = resolved.ID
			}
		}
		out = append(out, resolved)
	}
	return out, defaults, nil
}

// mergeOverrides applies a variant's overrides to a resolved clone. Patch
// maps are matched against the BASE entry names, so several patches can
// rename months without depending on application order.
func mergeOverrides(dst, base *Definition, o Overrides) error {
	if o.Name != nil {
		dst.Name = *o.Name
	}
	if o.Description != nil {
		dst.Description = *o.Description
	}

	for name, p := range o.Months {
		i := base.monthIndex(name)
		if i < 0 {
			return newConfigError(base.ID, "variant override references unknown month %q", name)
		}
		m := &dst.Months[i]
		if p.Name != nil {
			m.Name = *p.Name
		}
		if p.Abbreviation != nil {
			m.Abbreviation = *p.Abbreviation
		}
		if p.Days != nil {
			m.Days = *p.Days
		}
		if p.Description != nil {
			m.Description = *p.Description
		}
	}

	for name, p := range o.Weekdays {
		idx := -1
		for i, w := range base.Weekdays {
			if w.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return newConfigError(base.ID, "variant override references unknown weekday %q", name)
		}
		w := &dst.Weekdays[idx]
		if p.Name != nil {
			w.Name = *p.Name
		}
		if p.Abbreviation != nil {
			w.Abbreviation = *p.Abbreviation
		}
	}

	for name, p := range o.Seasons {
		idx := -1
		for i, s := range base.Seasons {
			if s.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return newConfigError(base.ID, "variant override references unknown season %q", name)
		}
		s := &dst.Seasons[idx]
		if p.Name != nil {
			s.Name = *p.Name
		}
		if p.StartMonth != nil {
			s.StartMonth = *p.StartMonth
		}
		if p.EndMonth != nil {
			s.EndMonth = *p.EndMonth
		}
		if p.Icon != nil {
			s.Icon = *p.Icon
		}
	}

	for name, p := range o.Moons {
		idx := -1
		for i, m := range base.Moons {
			if m.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return newConfigError(base.ID, "variant override references unknown moon %q", name)
		}
		m := &dst.Moons[idx]
		if p.Name != nil {
			m.Name = *p.Name
		}
		if p.CycleLength != nil {
			m.CycleLength = *p.CycleLength
		}
	}

	if p := o.LeapYear; p != nil {
		if p.Rule != nil {
			dst.LeapYear.Rule = *p.Rule
		}
		if p.Interval != nil {
			dst.LeapYear.Interval = *p.Interval
		}
		if p.Month != nil {
			dst.LeapYear.Month = *p.Month
		}
		if p.ExtraDays != nil {
			dst.LeapYear.ExtraDays = *p.ExtraDays
		}
	}
	if p := o.Year; p != nil {
		if p.Epoch != nil {
			dst.Year.Epoch = *p.Epoch
		}
		if p.CurrentYear != nil {
			dst.Year.CurrentYear = *p.CurrentYear
		}
		if p.Prefix != nil {
			dst.Year.Prefix = *p.Prefix
		}
		if p.Suffix != nil {
			dst.Year.Suffix = *p.Suffix
		}
		if p.StartDay != nil {
			dst.Year.StartDay = *p.StartDay
		}
	}
	if p := o.Time; p != nil {
		if p.HoursInDay != nil {
			dst.Time.HoursInDay = *p.HoursInDay
		}
		if p.MinutesInHour != nil {
			dst.Time.MinutesInHour = *p.MinutesInHour
		}
		if p.SecondsInMinute != nil {
			dst.Time.SecondsInMinute = *p.SecondsInMinute
		}
		if p.AMPMNotation != nil {
			n := *p.AMPMNotation
			dst.Time.AMPMNotation = &n
		}
	}
	for k, v := range o.DateFormats {
		if dst.DateFormats == nil {
			dst.DateFormats = make(map[string]string)
		}
		dst.DateFormats[k] = v
	}
	return nil
}

// Registry is the resolved, selectable calendar set for one world: every
// expanded definition by id, in deterministic order, with base ids
// redirecting to their default variant.
type Registry struct {
	order    []string
	byID     map[string]*Definition
	defaults map[string]string
}

// ResolveCalendars expands every raw definition and assembles the registry.
// Duplicate resolved ids are a ConfigError.
func ResolveCalendars(bases []*Definition) (*Registry, error) {
	r := &Registry{
		byID:     make(map[string]*Definition),
		defaults: make(map[string]string),
	}
	for _, base := range bases {
		defs, defaults, err := Expand(base)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			if _, dup := r.byID[def.ID]; dup {
				return nil, newConfigError(def.ID, "duplicate calendar id after expansion")
			}
			r.byID[def.ID] = def
			r.order = append(r.order, def.ID)
		}
		for k, v := range defaults {
			r.defaults[k] = v
		}
	}
	return r, nil
}

// NewRegistry rebuilds a registry from already-expanded definitions, e.g.
// when loading a cached resolution. Definitions are not re-validated here;
// they were validated when first expanded.
func NewRegistry(defs []*Definition, defaults map[string]string) *Registry {
	r := &Registry{
		byID:     make(map[string]*Definition, len(defs)),
		defaults: make(map[string]string, len(defaults)),
	}
	for _, def := range defs {
		if _, dup := r.byID[def.ID]; dup {
			continue
		}
		r.byID[def.ID] = def
		r.order = append(r.order, def.ID)
	}
	for k, v := range defaults {
		r.defaults[k] = v
	}
	return r
}

// Lookup resolves a calendar id. Selecting a base id whose variants include a
// default redirects to that variant.
func (r *Registry) Lookup(id string) (*Definition, bool) {
	if redirect, ok := r.defaults[id]; ok {
		id = redirect
	}
	def, ok := r.byID[id]
	return def, ok
}

// All returns every resolved definition in deterministic order.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Defaults returns the base-id to default-variant-id mapping.
func (r *Registry) Defaults() map[string]string {
	out := make(map[string]string, len(r.defaults))
	for k, v := range r.defaults {
		out[k] = v
	}
	return out
}
