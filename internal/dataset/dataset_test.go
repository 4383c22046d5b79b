package dataset_test

import (
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-service/internal/dataset"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

func row(grid int64, hour time.Time, rain float64) domain.HistoricalRow {
	return domain.HistoricalRow{
		GridID: grid,
		Hour:   hour,
		ContinuousFeatures: domain.ContinuousFeatures{
			Elevation: 205, RoadDensity: 0.6, RainMM: rain, RainPast3h: rain * 2, DrainWaterLevel: 0.9, SoilMoisture: 0.5,
		},
	}
}

func testTable() *dataset.Table {
	jan := time.Date(2025, 1, 10, 3, 0, 0, 0, time.UTC)
	jul := time.Date(2025, 7, 15, 14, 0, 0, 0, time.UTC)
	return dataset.NewTable("memory", []domain.HistoricalRow{
		row(1, jan, 1),
		row(2, jan, 2),
		row(1, jul, 20),
		row(1, jul.Add(24*time.Hour), 30),
	})
}

func TestResolve(t *testing.T) {
	tbl := testTable()

	t.Run("exact match preferred over first row", func(t *testing.T) {
		r, match, err := tbl.Resolve(1, 7, 14)
		require.NoError(t, err)
		assert.Equal(t, domain.MatchExact, match)
		assert.Equal(t, 20.0, r.RainMM, "first matching row in file order")
	})

	t.Run("falls back to first row for grid", func(t *testing.T) {
		r, match, err := tbl.Resolve(1, 12, 0)
		require.NoError(t, err)
		assert.Equal(t, domain.MatchFallback, match)
		assert.Equal(t, 1.0, r.RainMM)
	})

	t.Run("unknown grid is a validation error", func(t *testing.T) {
		_, _, err := tbl.Resolve(999, 7, 14)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.EqualError(t, err, "no dataset rows for Grid_ID=999")
	})
}

func TestTable_Summary(t *testing.T) {
	tbl := testTable()
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, []int64{1, 2}, tbl.GridIDs())
	assert.Empty(t, tbl.MissingCounts())
}

func TestFillMissing(t *testing.T) {
	nan := math.NaN()

	t.Run("fixed defaults without coordinates", func(t *testing.T) {
		in := domain.ContinuousFeatures{Elevation: nan, RoadDensity: nan, RainMM: nan, RainPast3h: nan, DrainWaterLevel: nan, SoilMoisture: nan}
		got := dataset.FillMissing(in, nil, 7)
		assert.Equal(t, domain.ContinuousFeatures{
			Elevation: 210, RoadDensity: 0.5, RainMM: 5, RainPast3h: 5, DrainWaterLevel: 0.8, SoilMoisture: 0.4,
		}, got)
	})

	t.Run("Rain_Past3h follows present Rain_mm", func(t *testing.T) {
		in := domain.ContinuousFeatures{Elevation: 220, RoadDensity: 0.3, RainMM: 12, RainPast3h: nan, DrainWaterLevel: 0.7, SoilMoisture: 0.6}
		got := dataset.FillMissing(in, nil, 7)
		assert.Equal(t, 12.0, got.RainPast3h)
		assert.Equal(t, 220.0, got.Elevation)
	})

	t.Run("heuristic with coordinates", func(t *testing.T) {
		coords := &domain.Coordinates{Latitude: 28.65, Longitude: 77.2}
		in := domain.ContinuousFeatures{Elevation: 201, RoadDensity: nan, RainMM: nan, RainPast3h: 3, DrainWaterLevel: nan, SoilMoisture: 0.2}
		want := domain.DeriveFeatures(28.65, 77.2, 8)

		got := dataset.FillMissing(in, coords, 8)
		assert.Equal(t, 201.0, got.Elevation)
		assert.Equal(t, want.RoadDensity, got.RoadDensity)
		assert.Equal(t, want.RainMM, got.RainMM)
		assert.Equal(t, 3.0, got.RainPast3h)
		assert.Equal(t, want.DrainWaterLevel, got.DrainWaterLevel)
		assert.Equal(t, 0.2, got.SoilMoisture)
	})
}

type fileRow struct {
	GridID      int64     `parquet:"Grid_ID"`
	Hour        time.Time `parquet:"Hour,timestamp(millisecond)"`
	Elevation   float64   `parquet:"Elevation"`
	RoadDensity float64   `parquet:"Road_Density"`
	RainMM      *float64  `parquet:"Rain_mm,optional"`
	RainPast3h  float64   `parquet:"Rain_Past3h"`
	Drain       float64   `parquet:"Drain_Water_Level"`
	Soil        float64   `parquet:"Soil_Moisture"`
}

func TestLoadParquet(t *testing.T) {
	rain := 7.5
	rows := []fileRow{
		{GridID: 5, Hour: time.Date(2025, 7, 15, 14, 0, 0, 0, time.UTC), Elevation: 205, RoadDensity: 0.8, RainMM: &rain, RainPast3h: 12, Drain: 1.1, Soil: 0.6},
		{GridID: 5, Hour: time.Date(2025, 7, 15, 15, 0, 0, 0, time.UTC), Elevation: 205, RoadDensity: 0.8, RainMM: nil, RainPast3h: 10, Drain: 1.0, Soil: 0.6},
		{GridID: 6, Hour: time.Date(2025, 7, 15, 14, 0, 0, 0, time.UTC), Elevation: 230, RoadDensity: 0.3, RainMM: &rain, RainPast3h: 9, Drain: 0.4, Soil: 0.3},
	}
	path := filepath.Join(t.TempDir(), "dataset.parquet")
	require.NoError(t, parquet.WriteFile(path, rows))

	tbl, err := dataset.LoadParquet(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []int64{5, 6}, tbl.GridIDs())
	assert.Equal(t, map[string]int{"Rain_mm": 1}, tbl.MissingCounts())

	r, match, err := tbl.Resolve(5, 7, 15)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchExact, match)
	assert.True(t, math.IsNaN(r.RainMM))
	assert.Equal(t, 10.0, r.RainPast3h)
	assert.Equal(t, 15, r.Hour.Hour())
}

type stringHourRow struct {
	GridID int32   `parquet:"Grid_ID"`
	Hour   string  `parquet:"Hour"`
	RainMM float64 `parquet:"Rain_mm"`
}

func TestLoadParquet_StringHourAndMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.parquet")
	require.NoError(t, parquet.WriteFile(path, []stringHourRow{
		{GridID: 9, Hour: "2025-07-15 02:00:00", RainMM: 4},
	}))

	tbl, err := dataset.LoadParquet(path)
	require.NoError(t, err)

	r, match, err := tbl.Resolve(9, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchExact, match)
	assert.Equal(t, 4.0, r.RainMM)
	assert.True(t, math.IsNaN(r.Elevation))
}

type noHourRow struct {
	GridID int64 `parquet:"Grid_ID"`
}

func TestLoadParquet_MissingHour(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.parquet")
	require.NoError(t, parquet.WriteFile(path, []noHourRow{{GridID: 1}}))

	_, err := dataset.LoadParquet(path)
	assert.ErrorContains(t, err, "missing Hour column")
}

func TestLazy_Unavailable(t *testing.T) {
	l := dataset.NewLazy(filepath.Join(t.TempDir(), "missing.parquet"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.False(t, l.Available())

	_, _, err := l.Resolve(1, 7, 14)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "historical dataset not available")
}
