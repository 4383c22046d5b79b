package gridindex_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/gridindex"
)

// square returns a counter-clockwise 0.01-degree cell with its south-west corner at (lon, lat).
func square(lon, lat float64) orb.Polygon {
	const d = 0.01
	return orb.Polygon{orb.Ring{
		{lon, lat}, {lon + d, lat}, {lon + d, lat + d}, {lon, lat + d}, {lon, lat},
	}}
}

func testCells() []gridindex.Cell {
	return []gridindex.Cell{
		{GridID: 101, Geometry: square(77.20, 28.60)},
		{GridID: 102, Geometry: square(77.21, 28.60)},
		{GridID: 103, Geometry: square(77.20, 28.61)},
	}
}

func TestIndex_Lookup(t *testing.T) {
	ix, err := gridindex.New("memory", testCells())
	require.NoError(t, err)

	tests := []struct {
		name     string
		lat, lon float64
		want     int64
		found    bool
	}{
		{"inside first", 28.605, 77.205, 101, true},
		{"inside second", 28.605, 77.215, 102, true},
		{"inside third", 28.615, 77.205, 103, true},
		{"outside all", 28.70, 77.30, 0, false},
		{"between cells", 28.615, 77.215, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ix.Lookup(tt.lat, tt.lon)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestIndex_OverlapPrefersSourceOrder(t *testing.T) {
	big := orb.Polygon{orb.Ring{{77.0, 28.5}, {77.5, 28.5}, {77.5, 28.9}, {77.0, 28.9}, {77.0, 28.5}}}
	cells := []gridindex.Cell{
		{GridID: 1, Geometry: big},
		{GridID: 2, Geometry: square(77.20, 28.60)},
	}
	ix, err := gridindex.New("memory", cells)
	require.NoError(t, err)

	id, ok := ix.Lookup(28.605, 77.205)
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestIndex_MultiPolygonAndHole(t *testing.T) {
	withHole := orb.Polygon{
		orb.Ring{{77.0, 28.0}, {77.1, 28.0}, {77.1, 28.1}, {77.0, 28.1}, {77.0, 28.0}},
		orb.Ring{{77.04, 28.04}, {77.04, 28.06}, {77.06, 28.06}, {77.06, 28.04}, {77.04, 28.04}},
	}
	cells := []gridindex.Cell{
		{GridID: 7, Geometry: orb.MultiPolygon{withHole, square(78.0, 29.0)}},
	}
	ix, err := gridindex.New("memory", cells)
	require.NoError(t, err)

	id, ok := ix.Lookup(28.02, 77.02)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = ix.Lookup(28.05, 77.05)
	assert.False(t, ok, "point inside the hole")

	_, ok = ix.Lookup(29.005, 78.005)
	assert.True(t, ok, "second polygon")
}

func TestNew_Rejects(t *testing.T) {
	_, err := gridindex.New("empty", nil)
	assert.ErrorContains(t, err, "no grid cells")

	_, err = gridindex.New("points", []gridindex.Cell{{GridID: 1, Geometry: orb.Point{77, 28}}})
	assert.ErrorContains(t, err, "unsupported geometry")
}

func TestIndex_Duplicates(t *testing.T) {
	cells := append(testCells(), gridindex.Cell{GridID: 101, Geometry: square(77.3, 28.7)})
	ix, err := gridindex.New("memory", cells)
	require.NoError(t, err)
	assert.Equal(t, []int64{101}, ix.Duplicates())
	assert.Equal(t, 4, ix.Len())
}

func writeGeoJSON(t *testing.T, path, idKey string, cells []gridindex.Cell) {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	for _, c := range cells {
		f := geojson.NewFeature(c.Geometry)
		f.Properties[idKey] = c.GridID
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestLoad_GeoJSONIDAliases(t *testing.T) {
	for _, key := range []string{"Grid_ID", "grid_id", "gridId", "GRID_ID", "id"} {
		t.Run(key, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "grid_index.geojson")
			writeGeoJSON(t, path, key, testCells())

			ix, err := gridindex.LoadFile(path)
			require.NoError(t, err)
			id, ok := ix.Lookup(28.605, 77.215)
			require.True(t, ok)
			assert.Equal(t, int64(102), id)
		})
	}
}

func TestLoad_GeoJSONMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid_index.geojson")
	writeGeoJSON(t, path, "cell", testCells())

	_, err := gridindex.LoadFile(path)
	assert.ErrorContains(t, err, "no Grid_ID column")
}

type geoRow struct {
	GridID   int64  `parquet:"grid_id"`
	Geometry []byte `parquet:"geometry"`
}

func TestLoad_GeoParquet(t *testing.T) {
	var rows []geoRow
	for _, c := range testCells() {
		b, err := wkb.Marshal(c.Geometry)
		require.NoError(t, err)
		rows = append(rows, geoRow{GridID: c.GridID, Geometry: b})
	}
	path := filepath.Join(t.TempDir(), "grid_index.parquet")
	require.NoError(t, parquet.WriteFile(path, rows))

	ix, err := gridindex.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Len())

	id, ok := ix.Lookup(28.615, 77.205)
	require.True(t, ok)
	assert.Equal(t, int64(103), id)
}

func TestLoad_Shapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid_index.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.NumberField("GRID_ID", 10)}))

	for i, c := range testCells() {
		ring := c.Geometry.(orb.Polygon)[0]
		// Shapefile outer rings are clockwise.
		pts := make([]shp.Point, 0, len(ring))
		for j := len(ring) - 1; j >= 0; j-- {
			pts = append(pts, shp.Point{X: ring[j][0], Y: ring[j][1]})
		}
		w.Write(&shp.Polygon{
			Box:       shp.BBoxFromPoints(pts),
			NumParts:  1,
			NumPoints: int32(len(pts)),
			Parts:     []int32{0},
			Points:    pts,
		})
		require.NoError(t, w.WriteAttribute(i, 0, int(c.GridID)))
	}
	w.Close()
	renameSidecars(t, path)

	ix, err := gridindex.LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, ix.Len())
	require.NoError(t, err)

	id, ok := ix.Lookup(28.605, 77.205)
	require.True(t, ok)
	assert.Equal(t, int64(101), id)
	_, ok = ix.Lookup(28.0, 77.0)
	assert.False(t, ok)
}

// renameSidecars moves the writer's "<base>dbf" and "<base>shx" files to the
// "<base>.dbf" and "<base>.shx" names the reader opens.
func renameSidecars(t *testing.T, shpPath string) {
	t.Helper()
	base := strings.TrimSuffix(shpPath, ".shp")
	for _, ext := range []string{"dbf", "shx"} {
		if _, err := os.Stat(base + ext); err == nil {
			require.NoError(t, os.Rename(base+ext, base+"."+ext))
		}
	}
	_, err := os.Stat(base + ".dbf")
	require.NoError(t, err, "attribute table missing")
}

func TestLoad_FirstExistingWins(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "b.geojson")
	writeGeoJSON(t, second, "Grid_ID", testCells())

	ix, err := gridindex.Load([]string{filepath.Join(dir, "a.geojson"), second})
	require.NoError(t, err)
	assert.Equal(t, second, ix.Source())

	_, err = gridindex.Load([]string{filepath.Join(dir, "missing.geojson")})
	assert.ErrorIs(t, err, gridindex.ErrNoSource)
}

func TestLazy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid_index.geojson")
	writeGeoJSON(t, path, "Grid_ID", testCells())

	l := gridindex.NewLazy([]string{path}, discardLogger())
	assert.True(t, l.Available())

	// The file is read once; removing it does not affect later lookups.
	require.NoError(t, os.Remove(path))
	id, ok, err := l.LookupGridID(28.605, 77.205)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(101), id)
}

func TestLazy_Unavailable(t *testing.T) {
	l := gridindex.NewLazy([]string{filepath.Join(t.TempDir(), "none.geojson")}, discardLogger())
	assert.False(t, l.Available())

	_, _, err := l.LookupGridID(28.6, 77.2)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "grid index not available")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
