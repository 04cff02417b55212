package models

// LocationQuery represents query parameters for GET /api/v1/phytoplankton/locations
type LocationQuery struct {
	Species   string  `form:"species"`
	BucketDeg float64 `form:"bucketDeg"` // grid resolution in degrees, default 0.5
	Limit     int     `form:"limit"`     // max markers, default 200
	Refresh   bool    `form:"refresh"`   // bypass the species cache
}

// SnapshotFilter represents query parameters for listing detection snapshots
type SnapshotFilter struct {
	Limit int `form:"limit"`
}
