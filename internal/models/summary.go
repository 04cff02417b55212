package models

// Metric is a cell-count-weighted average of one water quality measure
type Metric struct {
	Value        float64 `json:"value"`
	Median       float64 `json:"median"`       // median of the positive measures, unweighted
	Contributors int     `json:"contributors"` // records that contributed to Value
	Fallback     bool    `json:"fallback"`     // true when no record had a cell count, plain mean used
}

// SpeciesCount is the aggregated cell count of one species in the live feed
type SpeciesCount struct {
	Name    string  `json:"name"`
	Count   float64 `json:"count"`
	Percent int     `json:"percent"` // share of the listed top species, rounded
	Icon    string  `json:"icon,omitempty"`
}

// AlertSummary describes the species with the most severe alert level
type AlertSummary struct {
	Name  string  `json:"name"`
	Level string  `json:"level,omitempty"`
	Count float64 `json:"count"`
	Icon  string  `json:"icon,omitempty"`
}

// Summary is the payload behind the live-feed metric cards
type Summary struct {
	Temperature       Metric         `json:"temperature"`
	Ph                Metric         `json:"ph"`
	DissolvedOxygen   Metric         `json:"dissolved_oxygen"`
	SampleVolume      Metric         `json:"sample_volume"`
	AreaConcentration Metric         `json:"area_concentration"`
	TotalCount        float64        `json:"total_count"`
	Detections        int            `json:"detections"`
	Diversity         float64        `json:"diversity"` // Shannon index H' over species counts
	Evenness          float64        `json:"evenness"`  // Pielou evenness, 0..1
	TopSpecies        []SpeciesCount `json:"top_species"`
	Alert             *AlertSummary  `json:"alert,omitempty"`
}
