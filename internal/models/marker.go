package models

import (
	"fmt"
	"math"
)

// Coords is a (longitude, latitude) pair in degrees
type Coords [2]float64

// Lon returns the longitude component
func (c Coords) Lon() float64 { return c[0] }

// Lat returns the latitude component
func (c Coords) Lat() float64 { return c[1] }

// Marker represents an aggregated occurrence point shown on the map
type Marker struct {
	ID     string `json:"id"`
	Coords Coords `json:"coords"` // [lon, lat]
}

// MarkerID builds a marker id from a grid bucket key and its aggregated count
func MarkerID(key string, count int) string {
	return fmt.Sprintf("%s:%d", key, count)
}

// MarkerIngestRequest is the body of POST /api/v1/phytoplankton/locations
type MarkerIngestRequest struct {
	Species string        `json:"species"`
	Markers []interface{} `json:"markers"` // entries are coerced one by one
	Mode    string        `json:"mode"`    // replace | append
}

// Marker write modes
const (
	ModeReplace = "replace"
	ModeAppend  = "append"
)

// CoerceMarkers converts decoded ingest entries into typed markers.
// Entries that are not objects, or whose coordinates do not resolve to two finite
// numbers, are dropped.
func CoerceMarkers(raw []interface{}) []Marker {
	out := make([]Marker, 0, len(raw))
	for _, item := range raw {
		rec, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		coords, _ := rec["coords"].([]interface{})
		var lon, lat float64 = math.NaN(), math.NaN()
		if len(coords) > 0 {
			lon = toFloat(coords[0])
		}
		if len(coords) > 1 {
			lat = toFloat(coords[1])
		}
		if !finite(lon) || !finite(lat) {
			continue
		}
		out = append(out, Marker{ID: stringify(rec["id"]), Coords: Coords{lon, lat}})
	}
	return out
}

// LocationsResponse is returned by GET /api/v1/phytoplankton/locations
type LocationsResponse struct {
	Species string   `json:"species"`
	Markers []Marker `json:"markers"`
}

// WriteResult acknowledges a write endpoint
type WriteResult struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}
