package derive

import (
	"regexp"
	"strings"
)

// Columns holds resolved column indexes; -1 means the column is absent
type Columns struct {
	Lat     int
	Lon     int
	Species int
}

// HasCoords reports whether both coordinate columns were resolved
func (c Columns) HasCoords() bool {
	return c.Lat >= 0 && c.Lon >= 0
}

// ColumnResolver picks the latitude, longitude and species columns from a header row
type ColumnResolver interface {
	Resolve(header []string) Columns
}

// HeaderResolver resolves columns by known names, falling back to patterns
type HeaderResolver struct {
	LatNames     []string
	LonNames     []string
	SpeciesNames []string
	LatPattern   *regexp.Regexp
	LonPattern   *regexp.Regexp
}

// DefaultResolver knows the column names used by OBIS/GBIF style occurrence exports
var DefaultResolver = HeaderResolver{
	LatNames: []string{"decimalLatitude", "lat", "latitude", "Latitude", "LAT"},
	LonNames: []string{"decimalLongitude", "lon", "lng", "longitude", "Longitude", "LON", "LNG"},
	SpeciesNames: []string{
		"phytoplanktonscientificName",
		"scientific_name",
		"scientificName",
		"species",
		"Species",
	},
	LatPattern: regexp.MustCompile(`(?i)lat`),
	LonPattern: regexp.MustCompile(`(?i)(lon|lng)`),
}

// Resolve implements ColumnResolver.
// Coordinates match known names case-insensitively, then by pattern. Species columns
// must match exactly; the first candidate present in the header wins.
func (r HeaderResolver) Resolve(header []string) Columns {
	return Columns{
		Lat:     pickColumn(header, r.LatNames, r.LatPattern),
		Lon:     pickColumn(header, r.LonNames, r.LonPattern),
		Species: exactColumn(header, r.SpeciesNames),
	}
}

func pickColumn(header, names []string, pattern *regexp.Regexp) int {
	for _, name := range names {
		for i, h := range header {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	if pattern != nil {
		for i, h := range header {
			if pattern.MatchString(h) {
				return i
			}
		}
	}
	return -1
}

func exactColumn(header, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if h == name {
				return i
			}
		}
	}
	return -1
}

// cleanHeader trims header names and strips a UTF-8 byte-order mark from the first one
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
