package spatial

import (
	"github.com/golang/geo/s2"
)

// Region is a longitude/latitude bounding box
type Region struct {
	Name string
	rect s2.Rect
	set  bool
}

// NewRegion builds a region from its corner coordinates in degrees
func NewRegion(name string, minLon, minLat, maxLon, maxLat float64) Region {
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(minLat, minLon))
	rect = rect.AddPoint(s2.LatLngFromDegrees(maxLat, maxLon))
	return Region{Name: name, rect: rect, set: true}
}

// IndiaRegion approximates the Indian subcontinent and its coastal waters
var IndiaRegion = NewRegion("india", 68.0, 6.0, 97.5, 37.5)

// Contains reports whether the point lies inside the region, edges included.
// The zero Region contains nothing.
func (r Region) Contains(lon, lat float64) bool {
	if !r.set {
		return false
	}
	return r.rect.ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

// Bounds returns the region corners as minLon, minLat, maxLon, maxLat in degrees
func (r Region) Bounds() (minLon, minLat, maxLon, maxLat float64) {
	lo, hi := r.rect.Lo(), r.rect.Hi()
	return lo.Lng.Degrees(), lo.Lat.Degrees(), hi.Lng.Degrees(), hi.Lat.Degrees()
}
