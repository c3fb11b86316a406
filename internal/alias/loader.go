package alias

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trip-delivery-correlation/internal/models"
	errs "trip-delivery-correlation/pkg/errors"
)

// LoadFile reads curated alias entries from a YAML file. The file is an
// optional supplement to the database table: curation teams hand the engine
// a reviewed export without a DB deploy.
func LoadFile(path string) ([]models.LocationAlias, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewValidation("alias.LoadFile", fmt.Sprintf("cannot read alias file %s", path), err)
	}

	var entries []models.LocationAlias
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errs.NewValidation("alias.LoadFile", fmt.Sprintf("cannot parse alias file %s", path), err)
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		key := Normalize(e.CanonicalName)
		if key == "" {
			return nil, errs.NewValidation("alias.LoadFile", "entry with empty canonical name", nil)
		}
		if _, dup := seen[key]; dup {
			return nil, errs.NewValidation("alias.LoadFile",
				fmt.Sprintf("duplicate canonical name %q", e.CanonicalName), nil)
		}
		seen[key] = struct{}{}
		if !validType(e.Type) {
			return nil, errs.NewValidation("alias.LoadFile",
				fmt.Sprintf("entry %q has unknown type %q", e.CanonicalName, e.Type), nil)
		}
	}
	return entries, nil
}

// Merge overlays file entries onto DB entries; a file entry replaces the DB
// entry with the same normalized canonical name.
func Merge(dbEntries, fileEntries []models.LocationAlias) []models.LocationAlias {
	if len(fileEntries) == 0 {
		return dbEntries
	}
	override := make(map[string]int, len(fileEntries))
	for i, e := range fileEntries {
		override[Normalize(e.CanonicalName)] = i
	}

	merged := make([]models.LocationAlias, 0, len(dbEntries)+len(fileEntries))
	replaced := make(map[int]struct{}, len(fileEntries))
	for _, e := range dbEntries {
		if i, ok := override[Normalize(e.CanonicalName)]; ok {
			merged = append(merged, fileEntries[i])
			replaced[i] = struct{}{}
			continue
		}
		merged = append(merged, e)
	}
	for i, e := range fileEntries {
		if _, done := replaced[i]; !done {
			merged = append(merged, e)
		}
	}
	return merged
}

func validType(t models.LocationType) bool {
	switch t {
	case models.LocationTerminal, models.LocationDepot, models.LocationCustomer, models.LocationOther:
		return true
	}
	return false
}
