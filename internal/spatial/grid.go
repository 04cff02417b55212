package spatial

import (
	"fmt"
	"math"
	"sort"

	"github.com/marinedrive/phyto-backend/internal/models"
)

// DefaultResolution is the default grid cell size in degrees (~55km at the equator)
const DefaultResolution = 0.5

// Bucket accumulates occurrences that snap to the same grid point
type Bucket struct {
	Key   string
	Lon   float64
	Lat   float64
	Count int
}

// Snap rounds v to the nearest multiple of res. Halves round toward positive infinity.
func Snap(v, res float64) float64 {
	return math.Floor(v/res+0.5) * res
}

// BucketKey formats a snapped point as "lon,lat" with three decimals
func BucketKey(lon, lat float64) string {
	return fmt.Sprintf("%.3f,%.3f", lon, lat)
}

// ValidCoord reports whether lat/lon are finite and inside the geographic range
func ValidCoord(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// pool is an insertion-ordered set of buckets
type pool struct {
	index   map[string]int
	buckets []*Bucket
}

func newPool() *pool {
	return &pool{index: make(map[string]int)}
}

func (p *pool) add(key string, lon, lat float64) {
	i, ok := p.index[key]
	if !ok {
		i = len(p.buckets)
		p.index[key] = i
		p.buckets = append(p.buckets, &Bucket{Key: key, Lon: lon, Lat: lat})
	}
	p.buckets[i].Count++
}

// sorted returns buckets by count descending; equal counts keep first-seen order
func (p *pool) sorted() []*Bucket {
	out := make([]*Bucket, len(p.buckets))
	copy(out, p.buckets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Grid bins points into fixed-resolution buckets, keeping buckets inside a region of
// interest apart from the rest of the world so they can be ranked first.
type Grid struct {
	res      float64
	region   Region
	regional *pool
	global   *pool
}

// NewGrid creates a grid with the given resolution and priority region
func NewGrid(res float64, region Region) *Grid {
	if !(res > 0) || math.IsInf(res, 0) {
		res = DefaultResolution
	}
	return &Grid{
		res:      res,
		region:   region,
		regional: newPool(),
		global:   newPool(),
	}
}

// Add snaps a point to the grid and counts it. The snapped point decides the pool.
// Snapped values are clamped to the geographic range, since a resolution that does
// not divide 90 or 180 can round an edge coordinate past it.
func (g *Grid) Add(lon, lat float64) {
	bx := math.Max(-180, math.Min(180, Snap(lon, g.res)))
	by := math.Max(-90, math.Min(90, Snap(lat, g.res)))
	key := BucketKey(bx, by)
	if g.region.Contains(bx, by) {
		g.regional.add(key, bx, by)
		return
	}
	g.global.add(key, bx, by)
}

// RegionalBuckets returns the number of distinct buckets inside the region
func (g *Grid) RegionalBuckets() int { return len(g.regional.buckets) }

// GlobalBuckets returns the number of distinct buckets outside the region
func (g *Grid) GlobalBuckets() int { return len(g.global.buckets) }

// Markers returns at most limit markers: the densest regional buckets first, then the
// densest global buckets for whatever room is left. Pool order wins over bucket count.
func (g *Grid) Markers(limit int) []models.Marker {
	if limit <= 0 {
		return []models.Marker{}
	}
	markers := make([]models.Marker, 0, min(limit, len(g.regional.buckets)+len(g.global.buckets)))
	for _, p := range []*pool{g.regional, g.global} {
		for _, b := range p.sorted() {
			if len(markers) >= limit {
				return markers
			}
			markers = append(markers, models.Marker{
				ID:     models.MarkerID(b.Key, b.Count),
				Coords: models.Coords{b.Lon, b.Lat},
			})
		}
	}
	return markers
}
