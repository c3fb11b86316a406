package match

import (
	"testing"

	"trip-delivery-correlation/internal/alias"
	"trip-delivery-correlation/internal/models"
)

func testResolver() *alias.Resolver {
	return alias.NewResolver([]models.LocationAlias{
		{
			CanonicalName: "Linden Terminal",
			Type:          models.LocationTerminal,
			Aliases:       []string{"BP Linden", "Linden NJ"},
		},
		{
			CanonicalName: "Acme Fuels",
			Type:          models.LocationCustomer,
		},
	})
}

func tripWithNames(start, end string) models.Trip {
	t := models.Trip{ID: 1}
	if start != "" {
		t.StartName = &start
	}
	if end != "" {
		t.EndName = &end
	}
	return t
}

func TestText_ExactAlias(t *testing.T) {
	r := testResolver()
	trip := tripWithNames("Depot A", "BP Linden")
	d := models.Delivery{Terminal: "Linden Terminal"}

	res := Text(trip, d, r)
	if res.Score != 100 || res.Method != TextMethodExactAlias {
		t.Fatalf("expected exact alias match with score 100, got %+v", res)
	}
	if len(res.Flags) != 0 {
		t.Fatalf("exact match must not raise flags: %+v", res)
	}
}

func TestText_CanonicalNameCountsAsExact(t *testing.T) {
	r := testResolver()
	trip := tripWithNames("linden terminal", "")
	d := models.Delivery{Terminal: "BP Linden"} // resolves via alias

	res := Text(trip, d, r)
	if res.Score != 100 || res.Method != TextMethodExactAlias {
		t.Fatalf("canonical name should count as exact, got %+v", res)
	}
}

func TestText_Substring(t *testing.T) {
	r := testResolver()
	trip := tripWithNames("", "Linden")
	d := models.Delivery{Terminal: "Linden Terminal"}

	res := Text(trip, d, r)
	if res.Score != 80 || res.Method != TextMethodSubstring {
		t.Fatalf("expected substring match with score 80, got %+v", res)
	}
	if len(res.Flags) != 1 || res.Flags[0] != models.FlagApproximateTextMatch {
		t.Fatalf("substring match must flag approximate_text_match, got %+v", res)
	}
}

func TestText_NoTerminalAlias(t *testing.T) {
	r := testResolver()
	trip := tripWithNames("Linden", "")
	d := models.Delivery{Terminal: "Unknown Terminal XYZ"}

	res := Text(trip, d, r)
	if res.Score != 0 || res.Method != TextMethodNone {
		t.Fatalf("unresolvable terminal must score 0, got %+v", res)
	}
	if len(res.Flags) != 1 || res.Flags[0] != models.FlagNoTerminalAlias {
		t.Fatalf("expected no_terminal_alias flag, got %+v", res)
	}
}

func TestText_NonTerminalAliasScoresZero(t *testing.T) {
	r := testResolver()
	trip := tripWithNames("Acme Fuels", "")
	d := models.Delivery{Terminal: "Acme Fuels"} // resolves, but type customer

	res := Text(trip, d, r)
	if res.Score != 0 {
		t.Fatalf("non-terminal alias types must not produce a terminal match, got %+v", res)
	}
}

func TestText_NoNameOverlap(t *testing.T) {
	r := testResolver()
	trip := tripWithNames("Somewhere Else", "Another Place")
	d := models.Delivery{Terminal: "Linden Terminal"}

	res := Text(trip, d, r)
	if res.Score != 0 || res.Method != TextMethodNone {
		t.Fatalf("expected score 0 for unrelated names, got %+v", res)
	}
}

func TestText_ScoreIsDiscrete(t *testing.T) {
	r := testResolver()
	d := models.Delivery{Terminal: "Linden Terminal"}
	names := []string{"BP Linden", "Linden", "Somewhere Else", "", "linden terminal gate 4"}

	for _, n := range names {
		res := Text(tripWithNames(n, ""), d, r)
		if res.Score != 0 && res.Score != 80 && res.Score != 100 {
			t.Fatalf("text score must be in {0, 80, 100}, got %d for %q", res.Score, n)
		}
	}
}
