package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeArray(t *testing.T, s string) []interface{} {
	t.Helper()
	var items []interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &items))
	return items
}

func TestParseDetections_AliasesAndCoercion(t *testing.T) {
	items := decodeArray(t, `[
		{"scientificName": "Noctiluca scintillans", "count": "1,204 cells", "confidence": 0.93,
		 "pH": "8.1", "temp": 27, "photosynthetic": "Yes", "alertLevel": "High",
		 "area": "n/a", "volume": " ", "DO": "5.2 mg/L"},
		{"name": "Skeletonema", "photosynthetic": false},
		{"name": "", "count": 4},
		{"count": 4},
		42,
		"not an object"
	]`)

	got := ParseDetections(items)
	require.Len(t, got, 2)

	d := got[0]
	assert.Equal(t, "Noctiluca scintillans", d.Name)
	n, ok := d.Count.Number()
	assert.True(t, ok)
	assert.Equal(t, 1204.0, n)
	assert.Equal(t, NumberValue(0.93), *d.Confidence)
	assert.Equal(t, NumberValue(8.1), *d.OptimalPh)
	assert.Equal(t, NumberValue(27), *d.OptimalTemp)
	require.NotNil(t, d.Photosynthetic)
	assert.True(t, *d.Photosynthetic)
	assert.Equal(t, "High", d.AlertLevel)
	assert.Equal(t, NumberValue(0), *d.AreaConcentration, "stripped to nothing reads as zero")
	assert.Equal(t, NumberValue(0), *d.SampleVolume)
	assert.Equal(t, NumberValue(5.2), *d.DissolvedOxygen)

	s := got[1]
	assert.Equal(t, TextValue("0"), s.Count)
	require.NotNil(t, s.Photosynthetic)
	assert.False(t, *s.Photosynthetic)
	assert.Nil(t, s.OptimalPh)
	assert.Empty(t, s.AlertLevel)
}

func TestParseDetections_UnparsableTextIsKept(t *testing.T) {
	got := ParseDetections(decodeArray(t, `[{"name": "Ceratium", "count": "1.2.3", "optimalPh": true}]`))
	require.Len(t, got, 1)
	assert.Equal(t, TextValue("1.2.3"), got[0].Count)
	assert.Equal(t, TextValue("true"), *got[0].OptimalPh)
}

func TestDetection_JSONRoundTrip(t *testing.T) {
	in := ParseDetections(decodeArray(t, `[{"phytoplanktonscientificName": "Ceratium furca", "no of that pyhtoplankon": 12, "alertLevel": "Low", "Sample_Volume": "1-2"}]`))
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"phytoplanktonscientificName":"Ceratium furca","no of that pyhtoplankon":12,"alertLevel":"Low","Sample_Volume":"1-2"}]`, string(raw))

	var out []Detection
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestValue_Loose(t *testing.T) {
	assert.Equal(t, 7.5, NumberValue(7.5).Loose())
	assert.Equal(t, 12.5, TextValue("12.5 C").Loose())
	assert.Equal(t, 0.0, TextValue("warm").Loose())
	assert.Equal(t, "12", NumberValue(12).String())
}

func TestCoerceMarkers(t *testing.T) {
	var raw []interface{}
	require.NoError(t, json.Unmarshal([]byte(`[
		5,
		"loose",
		{"id": "a", "coords": [72.8, 19.0]},
		{"id": "flag", "coords": [true, false]},
		{"id": "flat", "coords": 3},
		{"id": 7, "coords": ["80.1", " 13.2 "]},
		{"id": "short", "coords": [1]},
		{"id": "text", "coords": ["east", 3]},
		{"id": "none"},
		{"coords": [1, 2]}
	]`), &raw))

	got := CoerceMarkers(raw)
	assert.Equal(t, []Marker{
		{ID: "a", Coords: Coords{72.8, 19.0}},
		{ID: "flag", Coords: Coords{1, 0}},
		{ID: "7", Coords: Coords{80.1, 13.2}},
		{ID: "", Coords: Coords{1, 2}},
	}, got)
}

func TestMarker_JSON(t *testing.T) {
	raw, err := json.Marshal(Marker{ID: MarkerID("10.000,20.000", 2), Coords: Coords{10, 20}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"10.000,20.000:2","coords":[10,20]}`, string(raw))
}
