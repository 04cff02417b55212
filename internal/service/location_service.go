package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/marinedrive/phyto-backend/internal/derive"
	"github.com/marinedrive/phyto-backend/internal/markers"
	"github.com/marinedrive/phyto-backend/internal/models"
)

// MarkerDeriver derives markers for one species from the reference dataset
type MarkerDeriver interface {
	Derive(ctx context.Context, species string, o derive.Options) ([]models.Marker, error)
}

// LocationService serves species occurrence markers, deriving them on cache miss
type LocationService struct {
	cache    *markers.Store
	deriver  MarkerDeriver
	defaults derive.Options
	group    singleflight.Group
	logger   *zap.Logger
}

// NewLocationService creates a new location service
func NewLocationService(cache *markers.Store, deriver MarkerDeriver, defaults derive.Options, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{
		cache:    cache,
		deriver:  deriver,
		defaults: defaults,
		logger:   logger,
	}
}

// Get returns cached markers for the species, deriving them when the cache is
// empty or a refresh is requested. Zero options fall back to the service defaults.
func (s *LocationService) Get(ctx context.Context, q models.LocationQuery) (*models.LocationsResponse, error) {
	species := strings.TrimSpace(q.Species)
	if species == "" {
		return nil, ErrEmptySpecies
	}
	opts, err := s.options(q)
	if err != nil {
		return nil, err
	}

	result := s.cache.Get(species)
	s.logger.Debug("location lookup", zap.String("species", species), zap.Int("cached", len(result)))
	if len(result) > 0 && !q.Refresh {
		return &models.LocationsResponse{Species: q.Species, Markers: result}, nil
	}

	result, err = s.derive(ctx, species, opts)
	if err != nil {
		return nil, err
	}
	return &models.LocationsResponse{Species: q.Species, Markers: result}, nil
}

// derive collapses concurrent derivations of the same species and options into one
// pass. A follower whose leader was cancelled retries under its own context.
func (s *LocationService) derive(ctx context.Context, species string, opts derive.Options) ([]models.Marker, error) {
	key := fmt.Sprintf("%s|%g|%d", markers.Normalize(species), opts.BucketDeg, opts.Limit)
	for {
		v, err, shared := s.group.Do(key, func() (interface{}, error) {
			return s.deriver.Derive(ctx, species, opts)
		})
		if err != nil {
			if ctx.Err() == nil && isContextErr(err) {
				continue
			}
			return nil, err
		}
		out := v.([]models.Marker)
		if shared {
			cp := make([]models.Marker, len(out))
			copy(cp, out)
			out = cp
		}
		return out, nil
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s *LocationService) options(q models.LocationQuery) (derive.Options, error) {
	opts := s.defaults
	if q.BucketDeg != 0 {
		if !(q.BucketDeg > 0) || math.IsInf(q.BucketDeg, 0) {
			return opts, fmt.Errorf("%w: bucketDeg must be positive", ErrInvalidOption)
		}
		opts.BucketDeg = q.BucketDeg
	}
	if q.Limit != 0 {
		if q.Limit < 0 {
			return opts, fmt.Errorf("%w: limit must be positive", ErrInvalidOption)
		}
		opts.Limit = q.Limit
	}
	return opts, nil
}

// Ingest stores externally supplied markers for a species. Mode "replace"
// overwrites the cache entry; anything else appends.
func (s *LocationService) Ingest(req models.MarkerIngestRequest) (*models.WriteResult, error) {
	if strings.TrimSpace(req.Species) == "" {
		return nil, ErrEmptySpecies
	}
	if req.Markers == nil {
		return nil, ErrInvalidBody
	}

	filtered := models.CoerceMarkers(req.Markers)
	if req.Mode == models.ModeReplace {
		s.cache.Set(req.Species, filtered)
	} else {
		s.cache.Add(req.Species, filtered)
	}

	s.logger.Info("markers ingested",
		zap.String("species", req.Species),
		zap.String("mode", req.Mode),
		zap.Int("incoming", len(req.Markers)),
		zap.Int("stored", len(filtered)),
	)
	return &models.WriteResult{OK: true, Count: len(filtered)}, nil
}

// Species lists every cached species key
func (s *LocationService) Species() []string {
	return s.cache.Species()
}

// Clear drops every cached entry
func (s *LocationService) Clear() {
	s.cache.Clear()
	s.logger.Info("marker cache cleared")
}
