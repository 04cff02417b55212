package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/marinedrive/phyto-backend/internal/icons"
	"github.com/marinedrive/phyto-backend/internal/models"
)

// TopSpeciesLimit is how many species the top species card lists
const TopSpeciesLimit = 8

// alertRank orders alert levels by severity; unknown levels rank last
var alertRank = map[string]int{"High": 0, "Mid": 1, "Low": 2}

func rankOf(level string) int {
	if r, ok := alertRank[strings.TrimSpace(level)]; ok {
		return r
	}
	return len(alertRank)
}

// WeightedMetric averages a measure weighted by each record's cell count. Records
// without a positive measure are ignored. When no record has both a cell count and
// a measure, the plain mean of the positive measures is returned with Fallback set.
func WeightedMetric(detections []models.Detection, measure func(models.Detection) *models.Value) models.Metric {
	var plain, values, weights []float64
	for _, d := range detections {
		v := measure(d)
		if v == nil {
			continue
		}
		m := v.Loose()
		if m <= 0 {
			continue
		}
		plain = append(plain, m)
		if cells := d.Count.Loose(); cells > 0 {
			values = append(values, m)
			weights = append(weights, cells)
		}
	}

	switch {
	case len(values) > 0:
		return models.Metric{Value: WeightedMean(values, weights), Median: Percentile(plain, 50), Contributors: len(values)}
	case len(plain) > 0:
		return models.Metric{Value: Mean(plain), Median: Percentile(plain, 50), Contributors: len(plain), Fallback: true}
	}
	return models.Metric{}
}

type speciesAgg struct {
	name  string
	count float64
	alert string
}

// aggregate sums counts per species name in first-seen order, keeping the most
// severe alert level reported for each
func aggregate(detections []models.Detection) []*speciesAgg {
	index := make(map[string]*speciesAgg)
	var order []*speciesAgg
	for _, d := range detections {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		a, ok := index[name]
		if !ok {
			a = &speciesAgg{name: name, alert: strings.TrimSpace(d.AlertLevel)}
			index[name] = a
			order = append(order, a)
		}
		a.count += math.Max(d.Count.Loose(), 0)
		if level := strings.TrimSpace(d.AlertLevel); rankOf(level) < rankOf(a.alert) {
			a.alert = level
		}
	}
	return order
}

// TopSpecies returns up to limit species by aggregated count, with matched icons
func TopSpecies(detections []models.Detection, iconFiles []string, limit int) []models.SpeciesCount {
	aggs := aggregate(detections)
	sort.SliceStable(aggs, func(i, j int) bool { return aggs[i].count > aggs[j].count })
	if len(aggs) > limit {
		aggs = aggs[:limit]
	}

	var total float64
	for _, a := range aggs {
		total += a.count
	}

	out := make([]models.SpeciesCount, 0, len(aggs))
	for _, a := range aggs {
		sc := models.SpeciesCount{Name: a.name, Count: a.count, Icon: icons.BestMatch(a.name, iconFiles)}
		if total > 0 {
			sc.Percent = int(math.Round(a.count / total * 100))
		}
		out = append(out, sc)
	}
	return out
}

// MostDangerous returns the species with the most severe alert level, larger counts
// breaking ties. Nil when there are no named detections.
func MostDangerous(detections []models.Detection, iconFiles []string) *models.AlertSummary {
	var pick *speciesAgg
	for _, a := range aggregate(detections) {
		if pick == nil {
			pick = a
			continue
		}
		ra, rp := rankOf(a.alert), rankOf(pick.alert)
		if ra < rp || (ra == rp && a.count > pick.count) {
			pick = a
		}
	}
	if pick == nil {
		return nil
	}
	return &models.AlertSummary{
		Name:  pick.name,
		Level: pick.alert,
		Count: pick.count,
		Icon:  icons.BestMatch(pick.name, iconFiles),
	}
}

// Summarize computes every live-feed metric card from one detection snapshot
func Summarize(detections []models.Detection, iconFiles []string) models.Summary {
	var total float64
	for _, d := range detections {
		total += math.Max(d.Count.Loose(), 0)
	}

	aggs := aggregate(detections)
	counts := make([]float64, len(aggs))
	for i, a := range aggs {
		counts[i] = a.count
	}

	return models.Summary{
		Temperature:       WeightedMetric(detections, func(d models.Detection) *models.Value { return d.OptimalTemp }),
		Ph:                WeightedMetric(detections, func(d models.Detection) *models.Value { return d.OptimalPh }),
		DissolvedOxygen:   WeightedMetric(detections, func(d models.Detection) *models.Value { return d.DissolvedOxygen }),
		SampleVolume:      WeightedMetric(detections, func(d models.Detection) *models.Value { return d.SampleVolume }),
		AreaConcentration: WeightedMetric(detections, func(d models.Detection) *models.Value { return d.AreaConcentration }),
		TotalCount:        total,
		Detections:        len(detections),
		Diversity:         ShannonEntropyNats(counts),
		Evenness:          NormalizedEntropy(counts),
		TopSpecies:        TopSpecies(detections, iconFiles, TopSpeciesLimit),
		Alert:             MostDangerous(detections, iconFiles),
	}
}
