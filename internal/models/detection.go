package models

import "strings"

// Detection is one species identification pushed by the microscope pipeline.
// JSON names match what the dashboard widgets consume.
type Detection struct {
	Name              string `json:"phytoplanktonscientificName"`
	Count             Value  `json:"no of that pyhtoplankon"`
	Confidence        *Value `json:"Confidence,omitempty"`
	OptimalPh         *Value `json:"optimalPh,omitempty"`
	OptimalTemp       *Value `json:"optimalTemp,omitempty"`
	Photosynthetic    *bool  `json:"photosynthetic,omitempty"`
	AlertLevel        string `json:"alertLevel,omitempty"`
	AreaConcentration *Value `json:"Area_Concentration,omitempty"`
	SampleVolume      *Value `json:"Sample_Volume,omitempty"`
	DissolvedOxygen   *Value `json:"Dissolved_Oxygen,omitempty"`
}

// Alias keys accepted for each detection field, in priority order
var (
	nameKeys       = []string{"phytoplanktonscientificName", "scientificName", "name"}
	countKeys      = []string{"no of that pyhtoplankon", "count", "n", "cells"}
	confidenceKeys = []string{"Confidence", "confidence"}
	phKeys         = []string{"optimalPh", "optimal_pH", "optimalpH", "optimal_ph", "optimumPh", "pH", "ph"}
	tempKeys       = []string{"optimalTemp", "optimalTemperature", "optimumTemp", "optimumTemperature", "temperatureOptimum", "tempOptimum", "temp", "Temp"}
	areaKeys       = []string{"Area_Concentration", "area_concentration", "areaConc", "area", "AreaConc"}
	volumeKeys     = []string{"Sample_Volume", "sample_volume", "volume", "Volume", "sampleVol"}
	oxygenKeys     = []string{"Dissolved_Oxygen", "dissolved_oxygen", "DO", "do", "oxygen"}
)

// ParseDetections coerces a decoded JSON array into detections.
// Items that are not objects or that carry no species name are dropped.
func ParseDetections(items []interface{}) []Detection {
	out := make([]Detection, 0, len(items))
	for _, item := range items {
		rec, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		d := parseDetection(rec)
		if d.Name == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

func parseDetection(rec map[string]interface{}) Detection {
	d := Detection{
		Name:              stringify(first(rec, nameKeys)),
		Confidence:        measure(first(rec, confidenceKeys)),
		OptimalPh:         measure(first(rec, phKeys)),
		OptimalTemp:       measure(first(rec, tempKeys)),
		AreaConcentration: measure(first(rec, areaKeys)),
		SampleVolume:      measure(first(rec, volumeKeys)),
		DissolvedOxygen:   measure(first(rec, oxygenKeys)),
	}

	if c := measure(first(rec, countKeys)); c != nil {
		d.Count = *c
	} else {
		d.Count = TextValue("0")
	}

	switch p := rec["photosynthetic"].(type) {
	case bool:
		d.Photosynthetic = &p
	case string:
		l := strings.ToLower(p)
		v := l == "true" || l == "1" || l == "yes"
		d.Photosynthetic = &v
	}

	if level, ok := rec["alertLevel"].(string); ok {
		d.AlertLevel = level
	}
	return d
}

// first returns the value of the first key present with a non-null value
func first(rec map[string]interface{}, keys []string) interface{} {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func measure(v interface{}) *Value {
	if v == nil {
		return nil
	}
	var out Value
	if f, ok := toNumber(v); ok {
		out = NumberValue(f)
	} else {
		out = TextValue(stringify(v))
	}
	return &out
}

// SnapshotMeta describes a persisted detection snapshot
type SnapshotMeta struct {
	ID        int64  `json:"id"`
	CreatedAt int64  `json:"created_at"` // Unix milliseconds
	ItemCount int    `json:"item_count"`
	Source    string `json:"source,omitempty"` // client address or "cli"
}
