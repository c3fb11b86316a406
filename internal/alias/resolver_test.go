package alias

import (
	"testing"

	"trip-delivery-correlation/internal/models"
)

func testEntries() []models.LocationAlias {
	lat, lng := 40.7, -74.0
	return []models.LocationAlias{
		{
			CanonicalName: "Linden Terminal",
			Type:          models.LocationTerminal,
			Aliases:       []string{"Linden NJ", "BP Linden"},
			Lat:           &lat,
			Lng:           &lng,
		},
		{
			CanonicalName: "Acme Fuels Depot",
			Type:          models.LocationDepot,
			Aliases:       []string{"Acme"},
		},
	}
}

func TestResolve_CanonicalExact(t *testing.T) {
	r := NewResolver(testEntries())
	e, m := r.Resolve("Linden Terminal")
	if e == nil || m != MethodCanonical {
		t.Fatalf("expected canonical match, got %v / %+v", m, e)
	}
	if e.CanonicalName != "Linden Terminal" {
		t.Fatalf("wrong entry: %+v", e)
	}
}

func TestResolve_CanonicalCaseAndWhitespace(t *testing.T) {
	r := NewResolver(testEntries())
	e, m := r.Resolve("  linden   TERMINAL ")
	if e == nil || m != MethodCanonical {
		t.Fatalf("normalization should make this a canonical match, got %v / %+v", m, e)
	}
}

func TestResolve_Alias(t *testing.T) {
	r := NewResolver(testEntries())
	e, m := r.Resolve("bp linden")
	if e == nil || m != MethodAlias {
		t.Fatalf("expected alias match, got %v / %+v", m, e)
	}
	if e.CanonicalName != "Linden Terminal" {
		t.Fatalf("alias resolved to wrong entry: %+v", e)
	}
}

func TestResolve_SubstringBothDirections(t *testing.T) {
	r := NewResolver(testEntries())

	// query contained in canonical
	if e, m := r.Resolve("Acme Fuels"); e == nil || m != MethodSubstring {
		t.Fatalf("expected substring match for shorter query, got %v / %+v", m, e)
	}
	// canonical contained in query
	if e, m := r.Resolve("Acme Fuels Depot - Gate 3"); e == nil || m != MethodSubstring {
		t.Fatalf("expected substring match for longer query, got %v / %+v", m, e)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	r := NewResolver(testEntries())
	if e, m := r.Resolve("Completely Unknown Place"); e != nil || m != MethodNone {
		t.Fatalf("expected no match, got %v / %+v", m, e)
	}
	if e, m := r.Resolve("   "); e != nil || m != MethodNone {
		t.Fatalf("blank query must not match, got %v / %+v", m, e)
	}
}

func TestResolve_FirstEntryWinsOnCollision(t *testing.T) {
	entries := []models.LocationAlias{
		{CanonicalName: "Shared Name", Type: models.LocationTerminal, Organization: "first"},
		{CanonicalName: "Shared Name", Type: models.LocationDepot, Organization: "second"},
	}
	r := NewResolver(entries)
	e, _ := r.Resolve("shared name")
	if e == nil || e.Organization != "first" {
		t.Fatalf("expected first entry to win, got %+v", e)
	}
}

func TestMatches_ExactOnly(t *testing.T) {
	entries := testEntries()
	r := NewResolver(entries)
	e := &entries[0]

	if !r.Matches(e, "LINDEN TERMINAL") {
		t.Fatal("canonical name should match")
	}
	if !r.Matches(e, "linden nj") {
		t.Fatal("alias should match")
	}
	if r.Matches(e, "Linden") {
		t.Fatal("substring must not count as an exact match")
	}
	if r.Matches(nil, "Linden Terminal") {
		t.Fatal("nil entry must not match")
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Foo   Bar ": "foo bar",
		"FOO\tBAR":     "foo bar",
		"":             "",
		"   ":          "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
