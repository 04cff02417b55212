package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marinedrive/phyto-backend/internal/models"
)

// ErrNoSnapshot is returned by Latest when nothing has been persisted yet
var ErrNoSnapshot = errors.New("no detection snapshot")

// SnapshotRepository handles database operations for detection snapshots
type SnapshotRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

// Save persists a full detection list and returns its metadata
func (r *SnapshotRepository) Save(ctx context.Context, items []models.Detection, source string) (*models.SnapshotMeta, error) {
	if items == nil {
		items = []models.Detection{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	meta := &models.SnapshotMeta{
		CreatedAt: r.now().UnixMilli(),
		ItemCount: len(items),
		Source:    source,
	}

	query := `INSERT INTO detection_snapshots (created_at_ms, item_count, payload, source) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, meta.CreatedAt, meta.ItemCount, string(payload), meta.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	meta.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot id: %w", err)
	}
	return meta, nil
}

// Latest returns the most recent snapshot's detections
func (r *SnapshotRepository) Latest(ctx context.Context) ([]models.Detection, *models.SnapshotMeta, error) {
	query := `SELECT id, created_at_ms, item_count, source, payload
		FROM detection_snapshots ORDER BY id DESC LIMIT 1`

	var meta models.SnapshotMeta
	var payload string
	err := r.db.QueryRowContext(ctx, query).Scan(&meta.ID, &meta.CreatedAt, &meta.ItemCount, &meta.Source, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	var items []models.Detection
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, nil, fmt.Errorf("failed to decode snapshot %d: %w", meta.ID, err)
	}
	return items, &meta, nil
}

// List returns snapshot metadata, newest first
func (r *SnapshotRepository) List(ctx context.Context, limit int) ([]models.SnapshotMeta, error) {
	query := `SELECT id, created_at_ms, item_count, source
		FROM detection_snapshots ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	metas := []models.SnapshotMeta{}
	for rows.Next() {
		var m models.SnapshotMeta
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.ItemCount, &m.Source); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		metas = append(metas, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return metas, nil
}
