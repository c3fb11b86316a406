package alias

import (
	"os"
	"path/filepath"
	"testing"

	"trip-delivery-correlation/internal/models"
	errs "trip-delivery-correlation/pkg/errors"
)

func writeAliasFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadFile_Valid(t *testing.T) {
	path := writeAliasFile(t, `
- name: Linden Terminal
  type: terminal
  organization: BP
  aliases: [BP Linden, Linden NJ]
  lat: 40.63
  lng: -74.24
  service_radius_km: 15
- name: Acme Fuels
  type: customer
`)
	entries, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}

	e := entries[0]
	if e.CanonicalName != "Linden Terminal" || e.Type != models.LocationTerminal {
		t.Fatalf("unexpected first entry: %+v", e)
	}
	if len(e.Aliases) != 2 || !e.HasCoordinates() {
		t.Fatalf("aliases or coordinates missing: %+v", e)
	}
	if e.ServiceRadiusKm == nil || *e.ServiceRadiusKm != 15 {
		t.Fatalf("service radius not parsed: %+v", e)
	}
	if entries[1].HasCoordinates() {
		t.Fatalf("entry without coordinates must report none: %+v", entries[1])
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !errs.Is(err, errs.ErrValidation) {
		t.Fatalf("missing file must be a validation error, got %v", err)
	}
}

func TestLoadFile_RejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"empty name":     "- name: \"\"\n  type: terminal\n",
		"duplicate name": "- name: Depot A\n  type: depot\n- name: depot  a\n  type: depot\n",
		"unknown type":   "- name: Depot A\n  type: warehouse\n",
		"not yaml":       "{{{",
	}
	for label, content := range cases {
		if _, err := LoadFile(writeAliasFile(t, content)); err == nil {
			t.Fatalf("%s must be rejected", label)
		}
	}
}

func TestMerge_FileOverridesDB(t *testing.T) {
	db := []models.LocationAlias{
		{CanonicalName: "Linden Terminal", Type: models.LocationTerminal, Organization: "db"},
		{CanonicalName: "Depot A", Type: models.LocationDepot},
	}
	file := []models.LocationAlias{
		{CanonicalName: "LINDEN terminal", Type: models.LocationTerminal, Organization: "file"},
		{CanonicalName: "New Place", Type: models.LocationOther},
	}

	merged := Merge(db, file)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged entries, got %+v", merged)
	}

	r := NewResolver(merged)
	e, _ := r.Resolve("Linden Terminal")
	if e == nil || e.Organization != "file" {
		t.Fatalf("file entry must replace the db entry: %+v", e)
	}
	if e, _ := r.Resolve("New Place"); e == nil {
		t.Fatal("file-only entry must be appended")
	}
	if e, _ := r.Resolve("Depot A"); e == nil {
		t.Fatal("db-only entry must survive")
	}
}

func TestMerge_EmptyFileKeepsDB(t *testing.T) {
	db := []models.LocationAlias{{CanonicalName: "Depot A", Type: models.LocationDepot}}
	merged := Merge(db, nil)
	if len(merged) != 1 || merged[0].CanonicalName != "Depot A" {
		t.Fatalf("nil file entries must leave db entries untouched: %+v", merged)
	}
}
