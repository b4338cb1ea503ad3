// Package config loads the location list, the VPN alias mapping and the
// environment-driven settings of a run.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/apex/log"
)

// Location is a VPN server location to test.
type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// Name returns the display name used in results, e.g. "Tokyo, Japan".
func (l Location) Name() string {
	return fmt.Sprintf("%s, %s", l.City, l.Country)
}

// LocationFile is the layout of locations.json.
type LocationFile struct {
	Locations []Location `json:"locations"`
}

// Aliases maps country -> city -> VPN client alias.
type Aliases map[string]map[string]string

// Lookup returns the alias for a city. A missing entry is not an error.
func (a Aliases) Lookup(country, city string) (string, bool) {
	alias, ok := a[country][city]
	if !ok || alias == "" {
		return "", false
	}
	return alias, true
}

// LoadJSON decodes the JSON file at path into v. On a missing or malformed
// file it logs the error, leaves v untouched and returns false.
func LoadJSON(logger log.Interface, path string, v interface{}) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).Errorf("Error loading %s", path)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.WithError(err).Errorf("Error loading %s", path)
		return false
	}
	return true
}

// LoadLocations reads the location list. Entries without a country or city
// are dropped with a warning. The result is empty, never an error, when the
// file cannot be used.
func LoadLocations(logger log.Interface, path string) []Location {
	var file LocationFile
	if !LoadJSON(logger, path, &file) {
		return []Location{}
	}

	locations := make([]Location, 0, len(file.Locations))
	for i, loc := range file.Locations {
		if loc.Country == "" || loc.City == "" {
			logger.Warnf("Skipping location #%d in %s: country and city are required", i+1, path)
			continue
		}
		locations = append(locations, loc)
	}
	return locations
}

// LoadAliases reads the alias mapping. The result is never nil.
func LoadAliases(logger log.Interface, path string) Aliases {
	aliases := Aliases{}
	if !LoadJSON(logger, path, &aliases) || aliases == nil {
		return Aliases{}
	}
	return aliases
}
