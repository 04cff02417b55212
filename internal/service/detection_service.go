package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/marinedrive/phyto-backend/internal/feed"
	"github.com/marinedrive/phyto-backend/internal/models"
	"github.com/marinedrive/phyto-backend/internal/repository"
	"github.com/marinedrive/phyto-backend/internal/stats"
)

// Snapshot listing bounds
const (
	DefaultSnapshotLimit = 20
	MaxSnapshotLimit     = 200
)

// DetectionService manages the live detection feed and its history
type DetectionService struct {
	store    *feed.Store
	snapRepo *repository.SnapshotRepository
	icons    *IconService
	logger   *zap.Logger
}

// NewDetectionService creates a new detection service. snapRepo may be nil, in
// which case detections are kept in memory only.
func NewDetectionService(store *feed.Store, snapRepo *repository.SnapshotRepository, icons *IconService, logger *zap.Logger) *DetectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetectionService{
		store:    store,
		snapRepo: snapRepo,
		icons:    icons,
		logger:   logger,
	}
}

// List returns the current detection snapshot
func (s *DetectionService) List() []models.Detection {
	return s.store.Get()
}

// Replace coerces a raw JSON array into detections, persists it and publishes it
// to live subscribers
func (s *DetectionService) Replace(ctx context.Context, raw []interface{}, source string) (*models.WriteResult, error) {
	if raw == nil {
		return nil, ErrInvalidBody
	}
	items := models.ParseDetections(raw)

	if s.snapRepo != nil {
		meta, err := s.snapRepo.Save(ctx, items, source)
		if err != nil {
			return nil, fmt.Errorf("failed to persist detections: %w", err)
		}
		s.logger.Debug("snapshot saved", zap.Int64("id", meta.ID), zap.Int("items", meta.ItemCount))
	}

	s.store.Set(items)
	s.logger.Info("detections replaced",
		zap.Int("incoming", len(raw)),
		zap.Int("stored", len(items)),
		zap.Int("subscribers", s.store.Subscribers()),
	)
	return &models.WriteResult{OK: true, Count: len(items)}, nil
}

// Restore loads the newest persisted snapshot into the live feed
func (s *DetectionService) Restore(ctx context.Context) error {
	if s.snapRepo == nil {
		return nil
	}
	items, meta, err := s.snapRepo.Latest(ctx)
	if errors.Is(err, repository.ErrNoSnapshot) {
		s.logger.Info("no detection snapshot to restore")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore detections: %w", err)
	}
	s.store.Set(items)
	s.logger.Info("detections restored", zap.Int64("snapshot", meta.ID), zap.Int("items", len(items)))
	return nil
}

// Snapshots lists persisted snapshot metadata, newest first
func (s *DetectionService) Snapshots(ctx context.Context, filter models.SnapshotFilter) ([]models.SnapshotMeta, error) {
	if s.snapRepo == nil {
		return []models.SnapshotMeta{}, nil
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultSnapshotLimit
	}
	if filter.Limit > MaxSnapshotLimit {
		filter.Limit = MaxSnapshotLimit
	}

	metas, err := s.snapRepo.List(ctx, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return metas, nil
}

// Summary computes the metric cards for the current snapshot
func (s *DetectionService) Summary() (models.Summary, error) {
	var files []string
	if s.icons != nil {
		var err error
		if files, err = s.icons.List(); err != nil {
			return models.Summary{}, err
		}
	}
	return stats.Summarize(s.store.Get(), files), nil
}

// Subscribe registers fn to run after every Replace or Restore
func (s *DetectionService) Subscribe(fn func()) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}
