package derive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/marinedrive/phyto-backend/internal/markers"
	"github.com/marinedrive/phyto-backend/internal/models"
)

const header = "scientificName,decimalLatitude,decimalLongitude\n"

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "occurrences.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestDeriver(t *testing.T, content string) (*Deriver, *markers.Store) {
	t.Helper()
	store := markers.NewStore()
	d := New(FileSource{Path: writeDataset(t, content)}, store, WithLogger(zaptest.NewLogger(t)))
	return d, store
}

// trackingSource serves fixed content and records whether it was closed
type trackingSource struct {
	r      io.Reader
	closed bool
}

func (s *trackingSource) Open(context.Context) (io.ReadCloser, error) {
	return s, nil
}

func (s *trackingSource) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *trackingSource) Close() error {
	s.closed = true
	return nil
}

type failingReader struct {
	data []byte
	done bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.done {
		return 0, errors.New("disk went away")
	}
	f.done = true
	return copy(p, f.data), nil
}

func TestDerive_SameBucketAggregates(t *testing.T) {
	d, store := newTestDeriver(t, header+
		"Alpha beta,20.002,10.001\n"+
		"Alpha beta,20.006,10.004\n")

	got, err := d.Derive(context.Background(), "Alpha beta", Options{BucketDeg: 0.5})
	require.NoError(t, err)

	want := []models.Marker{{ID: "10.000,20.000:2", Coords: models.Coords{10, 20}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("markers mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want, store.Get("  ALPHA BETA "))
}

func TestDerive_GenusFallback(t *testing.T) {
	d, _ := newTestDeriver(t, header+
		"Alpha gamma,13.1,80.2\n"+
		"Delta epsilon,13.1,80.2\n")

	got, err := d.Derive(context.Background(), "Alpha", Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "80.000,13.000:1", got[0].ID)
	assert.Equal(t, models.Coords{80, 13}, got[0].Coords)
}

func TestDerive_RegionalPoolWinsOverCount(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	for i := 0; i < 5; i++ {
		b.WriteString("Alpha beta,48.85,2.35\n") // Paris, global pool
	}
	for i := 0; i < 3; i++ {
		b.WriteString("Alpha beta,19.07,72.88\n") // Mumbai, regional pool
	}
	d, _ := newTestDeriver(t, b.String())

	got, err := d.Derive(context.Background(), "Alpha beta", Options{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "73.000,19.000:3", got[0].ID)
}

func TestDerive_RegionalFillsLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&b, "Alpha beta,%d.0,%d.0\n", 10+i, 75+i)
	}
	for i := 0; i < 10; i++ {
		b.WriteString("Alpha beta,-33.9,151.2\n")
	}
	d, _ := newTestDeriver(t, b.String())

	got, err := d.Derive(context.Background(), "Alpha beta", Options{Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, m := range got {
		assert.GreaterOrEqual(t, m.Coords.Lon(), 68.0)
		assert.LessOrEqual(t, m.Coords.Lon(), 97.5)
	}

	got, err = d.Derive(context.Background(), "Alpha beta", Options{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "151.000,-34.000:10", got[4].ID)
}

func TestDerive_EqualCountsKeepDatasetOrder(t *testing.T) {
	d, _ := newTestDeriver(t, header+
		"Alpha beta,50,10\n"+
		"Alpha beta,51,11\n"+
		"Alpha beta,52,12\n"+
		"Alpha beta,52,12\n")

	got, err := d.Derive(context.Background(), "alpha beta", Options{BucketDeg: 1})
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"12.000,52.000:2", "10.000,50.000:1", "11.000,51.000:1"}, ids)
}

func TestDerive_LimitAndRangeHold(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	for lat := -89; lat <= 89; lat += 3 {
		for lon := -179; lon <= 179; lon += 17 {
			fmt.Fprintf(&b, "Alpha beta,%d.25,%d.75\n", lat, lon)
		}
	}
	d, _ := newTestDeriver(t, b.String())

	first, err := d.Derive(context.Background(), "Alpha beta", Options{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, first, 50)
	for _, m := range first {
		assert.True(t, m.Coords.Lat() >= -90 && m.Coords.Lat() <= 90, m.ID)
		assert.True(t, m.Coords.Lon() >= -180 && m.Coords.Lon() <= 180, m.ID)
	}

	second, err := d.Derive(context.Background(), "Alpha beta", Options{Limit: 50})
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("derivation is not deterministic (-first +second):\n%s", diff)
	}
}

func TestDerive_EdgeRowsStayInRangeOnCoarseGrid(t *testing.T) {
	d, _ := newTestDeriver(t, header+
		"Alpha beta,90,179.9\n"+
		"Alpha beta,-90,10\n")

	got, err := d.Derive(context.Background(), "Alpha beta", Options{BucketDeg: 0.7})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, m := range got {
		assert.True(t, m.Coords.Lat() >= -90 && m.Coords.Lat() <= 90, m.ID)
		assert.True(t, m.Coords.Lon() >= -180 && m.Coords.Lon() <= 180, m.ID)
	}
	assert.Equal(t, 90.0, got[0].Coords.Lat())
	assert.Equal(t, -90.0, got[1].Coords.Lat())
}

func TestDerive_SkipsBadRows(t *testing.T) {
	d, _ := newTestDeriver(t, header+
		"Alpha beta,abc,10\n"+
		"Alpha beta,95,10\n"+
		"Alpha beta,10,-181\n"+
		"Alpha beta,NaN,10\n"+
		"Alpha beta\n"+
		",10,10\n"+
		"Alpha beta,2\"0,10\n"+
		"Alpha beta,-20.1,-40.2\n")

	got, err := d.Derive(context.Background(), "Alpha beta", Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "-40.000,-20.000:1", got[0].ID)
}

func TestDerive_HeaderSniffing(t *testing.T) {
	content := "\ufeffSpecies,Sample Lat (deg),Sample Long (deg)\n" +
		"\"Alpha beta\",\"20.1\",\"10.1\"\n"
	d, _ := newTestDeriver(t, content)

	got, err := d.Derive(context.Background(), "Alpha beta", Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "10.000,20.000:1", got[0].ID)
}

func TestDerive_NoCoordinateColumns(t *testing.T) {
	d, store := newTestDeriver(t, "scientificName,depth\nAlpha beta,12\n")

	got, err := d.Derive(context.Background(), "Alpha beta", Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []string{"alpha beta"}, store.Species())
}

func TestDerive_MissingDatasetIsEmpty(t *testing.T) {
	store := markers.NewStore()
	d := New(FileSource{Path: filepath.Join(t.TempDir(), "nope.csv")}, store)

	got, err := d.Derive(context.Background(), "Alpha beta", Options{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, store.Species())
}

func TestDerive_EmptyDataset(t *testing.T) {
	d, _ := newTestDeriver(t, "")

	got, err := d.Derive(context.Background(), "Alpha beta", Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDerive_ReadFailureCachesNothing(t *testing.T) {
	store := markers.NewStore()
	src := &trackingSource{r: &failingReader{data: []byte(header + "Alpha beta,20,10\n")}}
	d := New(src, store)

	got, err := d.Derive(context.Background(), "Alpha beta", Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, store.Species())
	assert.True(t, src.closed)
}

func TestDerive_CancelledMidStream(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	for i := 0; i < 3*cancelCheckEvery; i++ {
		b.WriteString("Alpha beta,20,10\n")
	}
	store := markers.NewStore()
	src := &trackingSource{r: strings.NewReader(b.String())}
	d := New(src, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := d.Derive(ctx, "Alpha beta", Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.True(t, src.closed)
	assert.Empty(t, store.Species())
}

func TestFileSource_CancelledBeforeOpen(t *testing.T) {
	path := writeDataset(t, header)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(FileSource{Path: path}, nil).Derive(ctx, "Alpha beta", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
