// Package dataset holds the hourly historical feature table and resolves a
// grid cell and calendar slot to one of its rows.
package dataset

import (
	"math"
	"slices"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Table is the historical dataset in file order, indexed by Grid_ID.
// It is immutable after NewTable.
type Table struct {
	source string
	rows   []domain.HistoricalRow
	byGrid map[int64][]int
}

// NewTable indexes rows without reordering them.
func NewTable(source string, rows []domain.HistoricalRow) *Table {
	byGrid := make(map[int64][]int)
	for i, r := range rows {
		byGrid[r.GridID] = append(byGrid[r.GridID], i)
	}
	return &Table{source: source, rows: rows, byGrid: byGrid}
}

// Resolve returns the first row for gridID whose hour and month match, or
// the grid's first row when none does.
func (t *Table) Resolve(gridID int64, month, hour int) (domain.HistoricalRow, domain.RowMatch, error) {
	idx, ok := t.byGrid[gridID]
	if !ok {
		return domain.HistoricalRow{}, "", domain.Invalidf("no dataset rows for Grid_ID=%d", gridID)
	}
	for _, i := range idx {
		r := t.rows[i]
		if int(r.Hour.Month()) == month && r.Hour.Hour() == hour {
			return r, domain.MatchExact, nil
		}
	}
	return t.rows[idx[0]], domain.MatchFallback, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Source returns the file the table was loaded from.
func (t *Table) Source() string { return t.source }

// GridIDs returns the distinct grid identifiers in ascending order.
func (t *Table) GridIDs() []int64 {
	ids := make([]int64, 0, len(t.byGrid))
	for id := range t.byGrid {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MissingCounts returns the number of NaN values per continuous column.
func (t *Table) MissingCounts() map[string]int {
	counts := make(map[string]int, domain.NumContinuous)
	for _, r := range t.rows {
		for i, v := range r.ContinuousFeatures.Values() {
			if math.IsNaN(v) {
				counts[domain.ContinuousFeatureNames[i]]++
			}
		}
	}
	return counts
}

// FillMissing replaces NaN features. With coordinates the substitutes come
// from the location heuristic for month; without, from the fixed defaults,
// where Rain_Past3h follows the row's (possibly defaulted) Rain_mm.
func FillMissing(row domain.ContinuousFeatures, coords *domain.Coordinates, month int) domain.ContinuousFeatures {
	if coords != nil {
		return row.FillFrom(domain.DeriveFeatures(coords.Latitude, coords.Longitude, month))
	}
	rain := row.RainMM
	if math.IsNaN(rain) {
		rain = domain.DefaultRainMM
	}
	return row.FillFrom(domain.DefaultFeatures(rain))
}
