// Package derive turns the phytoplankton occurrence dataset into map markers for a species.
package derive

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/marinedrive/phyto-backend/internal/markers"
	"github.com/marinedrive/phyto-backend/internal/models"
	"github.com/marinedrive/phyto-backend/internal/spatial"
)

// DefaultLimit is the default maximum number of markers per species
const DefaultLimit = 200

// cancelCheckEvery is how many rows are read between context checks
const cancelCheckEvery = 1024

// Options tune one derivation
type Options struct {
	BucketDeg float64 // grid resolution in degrees
	Limit     int     // maximum number of markers
}

func (o Options) withDefaults() Options {
	if !(o.BucketDeg > 0) || math.IsInf(o.BucketDeg, 0) {
		o.BucketDeg = spatial.DefaultResolution
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// Cache is the species marker cache the deriver writes into
type Cache interface {
	Get(species string) []models.Marker
	Set(species string, markers []models.Marker)
	Add(species string, markers []models.Marker)
}

// Stats describes one pass over the dataset
type Stats struct {
	Rows            int // data rows read
	Malformed       int // rows the CSV reader rejected
	Matched         int // rows whose species or genus matched
	RegionalBuckets int
	GlobalBuckets   int
	Markers         int
}

// Deriver derives species markers from a CSV occurrence dataset
type Deriver struct {
	src      Source
	cache    Cache
	resolver ColumnResolver
	region   spatial.Region
	logger   *zap.Logger
}

// Option configures a Deriver
type Option func(*Deriver)

// WithResolver overrides the column resolver
func WithResolver(r ColumnResolver) Option {
	return func(d *Deriver) { d.resolver = r }
}

// WithRegion overrides the priority region
func WithRegion(r spatial.Region) Option {
	return func(d *Deriver) { d.region = r }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Deriver) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a deriver reading from src and caching into cache
func New(src Source, cache Cache, opts ...Option) *Deriver {
	d := &Deriver{
		src:      src,
		cache:    cache,
		resolver: DefaultResolver,
		region:   spatial.IndiaRegion,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive streams the dataset once and returns at most o.Limit markers summarizing where
// the species, or failing an exact name match any species of its genus, was observed.
// Buckets inside the priority region come first. The result replaces the species entry
// in the cache.
//
// An unavailable or unreadable dataset yields an empty result and nothing is cached.
// The only error returned is the context's, when it is cancelled mid-pass.
func (d *Deriver) Derive(ctx context.Context, species string, o Options) ([]models.Marker, error) {
	o = o.withDefaults()
	log := d.logger.With(zap.String("species", species))

	rc, err := d.src.Open(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("dataset not found", zap.Error(err))
		} else {
			log.Warn("dataset unavailable", zap.Error(err))
		}
		return []models.Marker{}, nil
	}
	defer rc.Close()

	grid := spatial.NewGrid(o.BucketDeg, d.region)
	stats, err := d.scan(ctx, rc, species, grid)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn("dataset read failed", zap.Error(err), zap.Int("rows", stats.Rows))
		return []models.Marker{}, nil
	}

	result := grid.Markers(o.Limit)
	stats.RegionalBuckets = grid.RegionalBuckets()
	stats.GlobalBuckets = grid.GlobalBuckets()
	stats.Markers = len(result)

	log.Info("derived markers",
		zap.Int("rows", stats.Rows),
		zap.Int("malformed", stats.Malformed),
		zap.Int("matched", stats.Matched),
		zap.Int("buckets_regional", stats.RegionalBuckets),
		zap.Int("buckets_global", stats.GlobalBuckets),
		zap.Int("markers", stats.Markers),
		zap.Float64("bucket_deg", o.BucketDeg),
		zap.Int("limit", o.Limit),
	)

	if d.cache != nil {
		d.cache.Set(species, result)
	}
	return result, nil
}

// scan reads every record and feeds matching coordinates into the grid
func (d *Deriver) scan(ctx context.Context, r io.Reader, species string, grid *spatial.Grid) (Stats, error) {
	var stats Stats
	want := markers.Normalize(species)
	wantGenus := markers.Genus(species)

	cr := csv.NewReader(bufio.NewReaderSize(r, 256*1024))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}
	cols := d.resolver.Resolve(cleanHeader(header))
	d.logger.Debug("resolved dataset columns",
		zap.Int("lat", cols.Lat), zap.Int("lon", cols.Lon), zap.Int("species", cols.Species))

	for n := 1; ; n++ {
		if n%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				stats.Malformed++
				continue
			}
			return stats, err
		}
		stats.Rows++

		name := strings.TrimSpace(field(rec, cols.Species))
		if name == "" {
			continue
		}
		if markers.Normalize(name) != want && markers.Genus(name) != wantGenus {
			continue
		}
		stats.Matched++

		lat := parseCoord(field(rec, cols.Lat))
		lon := parseCoord(field(rec, cols.Lon))
		if !spatial.ValidCoord(lat, lon) {
			continue
		}
		grid.Add(lon, lat)
	}
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func parseCoord(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
