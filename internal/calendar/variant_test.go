package calendar

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

// variantCalendarJSON is a base definition carrying two variants, expressed as
// JSON so the tests also cover the document shape calendars are stored in.
const variantCalendarJSON = `{
	"id": "harptos",
	"name": "Calendar of Harptos",
	"months": [
		{"name": "Hammer", "abbreviation": "Ham", "days": 30},
		{"name": "Alturiak", "abbreviation": "Alt", "days": 30}
	],
	"weekdays": [
		{"name": "First"},
		{"name": "Second"},
		{"name": "Third"}
	],
	"year": {"epoch": 1},
	"variants": {
		"dalereckoning": {
			"name": "Dalereckoning",
			"default": true,
			"overrides": {
				"year": {"suffix": " DR"}
			}
		},
		"northreckoning": {
			"name": "Northreckoning",
			"overrides": {
				"months": {
					"Hammer": {"name": "Deepwinter", "days": 31}
				},
				"dateFormats": {
					"short": "{{day}}/{{month}}"
				}
			}
		}
	}
}`

func decodeVariantCalendar(t *testing.T) *Definition {
	t.Helper()
	var def Definition
	if err := json.Unmarshal([]byte(variantCalendarJSON), &def); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &def
}

func TestVariantMap_PreservesDeclarationOrder(t *testing.T) {
	def := decodeVariantCalendar(t)

	want := []string{"dalereckoning", "northreckoning"}
	if got := def.Variants.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected keys %v, got %v", want, got)
	}

	spec, ok := def.Variants.Get("northreckoning")
	if !ok {
		t.Fatal("expected northreckoning to be present")
	}
	if spec.Name != "Northreckoning" {
		t.Errorf("unexpected spec %+v", spec)
	}
}

func TestVariantMap_MarshalRoundTrip(t *testing.T) {
	def := decodeVariantCalendar(t)

	data, err := json.Marshal(def.Variants)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again VariantMap
	if err := json.Unmarshal(data, &again); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(again.Keys(), def.Variants.Keys()) {
		t.Errorf("key order changed: %v vs %v", again.Keys(), def.Variants.Keys())
	}
}

func TestExpand(t *testing.T) {
	def := decodeVariantCalendar(t)

	defs, defaults, err := Expand(def)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("expected base + 2 variants, got %d", len(defs))
	}

	base := defs[0]
	if base.ID != "harptos" || base.Variants.Len() != 0 {
		t.Errorf("expected stripped base first, got %q with %d variants", base.ID, base.Variants.Len())
	}

	dale := defs[1]
	if dale.ID != "harptos(dalereckoning)" {
		t.Errorf("variant id: got %q", dale.ID)
	}
	if dale.Name != "Calendar of Harptos (Dalereckoning)" {
		t.Errorf("variant name: got %q", dale.Name)
	}
	if dale.Year.Suffix != " DR" {
		t.Errorf("expected year suffix override, got %q", dale.Year.Suffix)
	}
	// Untouched fields come from the base.
	if dale.Months[0].Name != "Hammer" || dale.Months[0].Days != 30 {
		t.Errorf("expected base months in dale variant, got %+v", dale.Months[0])
	}

	north := defs[2]
	if north.Months[0].Name != "Deepwinter" || north.Months[0].Days != 31 {
		t.Errorf("month patch not applied: %+v", north.Months[0])
	}
	if north.Months[0].Abbreviation != "Ham" {
		t.Errorf("unpatched month field should survive, got %q", north.Months[0].Abbreviation)
	}
	if north.Months[1].Name != "Alturiak" {
		t.Errorf("other months should be untouched, got %+v", north.Months[1])
	}
	if north.DateFormats["short"] != "{{day}}/{{month}}" {
		t.Errorf("dateFormats override missing: %v", north.DateFormats)
	}

	if got := defaults["harptos"]; got != "harptos(dalereckoning)" {
		t.Errorf("expected default redirect, got %q", got)
	}
}

func TestExpand_Deterministic(t *testing.T) {
	first, firstDefaults, err := Expand(decodeVariantCalendar(t))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	second, secondDefaults, err := Expand(decodeVariantCalendar(t))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical expansion on identical input")
	}
	if !reflect.DeepEqual(firstDefaults, secondDefaults) {
		t.Error("expected identical defaults on identical input")
	}
}

func TestExpand_ErrorCases(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		def := decodeVariantCalendar(t)
		def.ID = ""
		_, _, err := Expand(def)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
	})

	t.Run("unknown month in override", func(t *testing.T) {
		def := decodeVariantCalendar(t)
		def.Variants = VariantMap{}
		doc := `{
			"bad": {
				"name": "Bad",
				"overrides": {"months": {"Smarch": {"days": 40}}}
			}
		}`
		if err := json.Unmarshal([]byte(doc), &def.Variants); err != nil {
			t.Fatalf("unmarshal variants: %v", err)
		}
		_, _, err := Expand(def)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
	})

	t.Run("override breaks validation", func(t *testing.T) {
		def := decodeVariantCalendar(t)
		def.Variants = VariantMap{}
		doc := `{
			"broken": {
				"name": "Broken",
				"overrides": {"months": {"Hammer": {"days": 0}, "Alturiak": {"days": 0}}}
			}
		}`
		if err := json.Unmarshal([]byte(doc), &def.Variants); err != nil {
			t.Fatalf("unmarshal variants: %v", err)
		}
		if _, _, err := Expand(def); err == nil {
			t.Fatal("expected re-validation of the merged variant to fail")
		}
	})
}

func TestExpand_VariantsAreIndependentClones(t *testing.T) {
	def := decodeVariantCalendar(t)

	defs, _, err := Expand(def)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	defs[2].Months[0].Days = 99
	if defs[0].Months[0].Days != 30 {
		t.Error("mutating a variant leaked into the base")
	}
	if def.Months[0].Days != 30 {
		t.Error("mutating a variant leaked into the input definition")
	}
}

func TestResolveCalendars(t *testing.T) {
	reg, err := ResolveCalendars([]*Definition{decodeVariantCalendar(t)})
	if err != nil {
		t.Fatalf("ResolveCalendars: %v", err)
	}

	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 calendars, got %d", len(all))
	}

	// The bare base id redirects to the default variant.
	def, ok := reg.Lookup("harptos")
	if !ok {
		t.Fatal("expected base id to resolve")
	}
	if def.ID != "harptos(dalereckoning)" {
		t.Errorf("expected default redirect, got %q", def.ID)
	}

	// Variants resolve by their full id.
	def, ok = reg.Lookup("harptos(northreckoning)")
	if !ok || def.Months[0].Name != "Deepwinter" {
		t.Errorf("expected northreckoning lookup, got %+v (ok=%v)", def, ok)
	}

	if _, ok := reg.Lookup("nonexistent"); ok {
		t.Error("expected unknown id to miss")
	}
}

func TestResolveCalendars_NoDefaultKeepsBase(t *testing.T) {
	def := decodeVariantCalendar(t)
	def.Variants = VariantMap{}
	doc := `{
		"plain": {"name": "Plain", "overrides": {}}
	}`
	if err := json.Unmarshal([]byte(doc), &def.Variants); err != nil {
		t.Fatalf("unmarshal variants: %v", err)
	}

	reg, err := ResolveCalendars([]*Definition{def})
	if err != nil {
		t.Fatalf("ResolveCalendars: %v", err)
	}
	got, ok := reg.Lookup("harptos")
	if !ok || got.ID != "harptos" {
		t.Errorf("expected unmodified base without a default variant, got %+v", got)
	}
	if len(reg.Defaults()) != 0 {
		t.Errorf("expected no defaults, got %v", reg.Defaults())
	}
}

func TestResolveCalendars_DuplicateID(t *testing.T) {
	a := decodeVariantCalendar(t)
	b := decodeVariantCalendar(t)
	_, err := ResolveCalendars([]*Definition{a, b})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestNewRegistry_RebuildsFromExpanded(t *testing.T) {
	defs, defaults, err := Expand(decodeVariantCalendar(t))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	reg := NewRegistry(defs, defaults)
	if len(reg.All()) != 3 {
		t.Fatalf("expected 3 calendars, got %d", len(reg.All()))
	}
	def, ok := reg.Lookup("harptos")
	if !ok || def.ID != "harptos(dalereckoning)" {
		t.Errorf("expected default redirect after rebuild, got %+v (ok=%v)", def, ok)
	}
}

func TestVariantEngines_DivergeCorrectly(t *testing.T) {
	reg, err := ResolveCalendars([]*Definition{decodeVariantCalendar(t)})
	if err != nil {
		t.Fatalf("ResolveCalendars: %v", err)
	}

	baseDef, _ := reg.Lookup("harptos(dalereckoning)")
	northDef, _ := reg.Lookup("harptos(northreckoning)")
	baseEng := mustEngine(t, baseDef)
	northEng := mustEngine(t, northDef)

	// Deepwinter has one extra day, so the second month starts a day later.
	ts := 30 * day
	if d := baseEng.WorldTimeToDate(ts); d.Month != 2 || d.Day != 1 {
		t.Errorf("base: expected 2/1, got %+v", d)
	}
	if d := northEng.WorldTimeToDate(ts); d.Month != 1 || d.Day != 31 {
		t.Errorf("north: expected 1/31, got %+v", d)
	}
}
