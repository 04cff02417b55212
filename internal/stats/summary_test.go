package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marinedrive/phyto-backend/internal/models"
)

func val(f float64) *models.Value {
	v := models.NumberValue(f)
	return &v
}

func text(s string) *models.Value {
	v := models.TextValue(s)
	return &v
}

func TestWeightedMetric_WeightsByCellCount(t *testing.T) {
	detections := []models.Detection{
		{Name: "a", Count: models.NumberValue(3), OptimalTemp: val(20)},
		{Name: "b", Count: models.NumberValue(1), OptimalTemp: val(28)},
		{Name: "c", Count: models.NumberValue(5)},
		{Name: "d", Count: models.NumberValue(2), OptimalTemp: val(-4)},
	}
	m := WeightedMetric(detections, func(d models.Detection) *models.Value { return d.OptimalTemp })
	assert.InDelta(t, 22.0, m.Value, 1e-9)
	assert.InDelta(t, 24.0, m.Median, 1e-9)
	assert.Equal(t, 2, m.Contributors)
	assert.False(t, m.Fallback)
}

func TestWeightedMetric_FallsBackToPlainMean(t *testing.T) {
	detections := []models.Detection{
		{Name: "a", Count: models.TextValue("0"), DissolvedOxygen: text("5 mg/L")},
		{Name: "b", Count: models.TextValue("none"), DissolvedOxygen: val(7)},
	}
	m := WeightedMetric(detections, func(d models.Detection) *models.Value { return d.DissolvedOxygen })
	assert.InDelta(t, 6.0, m.Value, 1e-9)
	assert.InDelta(t, 6.0, m.Median, 1e-9)
	assert.Equal(t, 2, m.Contributors)
	assert.True(t, m.Fallback)

	empty := WeightedMetric(nil, func(d models.Detection) *models.Value { return d.DissolvedOxygen })
	assert.Equal(t, models.Metric{}, empty)
}

func TestTopSpecies(t *testing.T) {
	detections := []models.Detection{
		{Name: "Ceratium furca", Count: models.NumberValue(10)},
		{Name: " Ceratium furca ", Count: models.NumberValue(20)},
		{Name: "Noctiluca", Count: models.NumberValue(10)},
		{Name: "Skeletonema", Count: models.TextValue("x")},
	}
	got := TopSpecies(detections, []string{"ceratium-furca.svg"}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, models.SpeciesCount{Name: "Ceratium furca", Count: 30, Percent: 75, Icon: "ceratium-furca.svg"}, got[0])
	assert.Equal(t, models.SpeciesCount{Name: "Noctiluca", Count: 10, Percent: 25}, got[1])
}

func TestMostDangerous(t *testing.T) {
	detections := []models.Detection{
		{Name: "Skeletonema", Count: models.NumberValue(500), AlertLevel: "Low"},
		{Name: "Alexandrium", Count: models.NumberValue(5), AlertLevel: "Mid"},
		{Name: "Dinophysis", Count: models.NumberValue(8), AlertLevel: "Mid"},
		{Name: "Alexandrium", Count: models.NumberValue(1), AlertLevel: "High"},
	}
	got := MostDangerous(detections, nil)
	require.NotNil(t, got)
	assert.Equal(t, models.AlertSummary{Name: "Alexandrium", Level: "High", Count: 6}, *got)

	assert.Nil(t, MostDangerous(nil, nil))
}

func TestMostDangerous_NoLevelsPicksLargest(t *testing.T) {
	got := MostDangerous([]models.Detection{
		{Name: "a", Count: models.NumberValue(1)},
		{Name: "b", Count: models.NumberValue(9)},
	}, nil)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.Name)
	assert.Empty(t, got.Level)
}

func TestSummarize(t *testing.T) {
	detections := []models.Detection{
		{Name: "a", Count: models.NumberValue(10), OptimalPh: val(8), AlertLevel: "Low"},
		{Name: "b", Count: models.NumberValue(10), OptimalPh: val(7)},
	}
	s := Summarize(detections, nil)
	assert.Equal(t, 20.0, s.TotalCount)
	assert.Equal(t, 2, s.Detections)
	assert.InDelta(t, 7.5, s.Ph.Value, 1e-9)
	assert.InDelta(t, math.Ln2, s.Diversity, 1e-9)
	assert.InDelta(t, 1.0, s.Evenness, 1e-9)
	assert.Len(t, s.TopSpecies, 2)
	require.NotNil(t, s.Alert)
	assert.Equal(t, "a", s.Alert.Name)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(nil, 50))
	assert.Equal(t, 3.0, Percentile([]float64{5, 1, 3}, 50))
	assert.InDelta(t, 2.5, Percentile([]float64{4, 1, 2, 3}, 50), 1e-9)
	assert.Equal(t, 1.0, Percentile([]float64{4, 1}, -10))
	assert.Equal(t, 4.0, Percentile([]float64{4, 1}, 150))
}
