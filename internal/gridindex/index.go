package gridindex

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// Cell is one grid polygon with its identifier.
type Cell struct {
	GridID   int64
	Geometry orb.Geometry // orb.Polygon or orb.MultiPolygon
}

// Index answers point-in-cell queries. It is immutable after New and safe
// for concurrent use.
type Index struct {
	source string
	cells  []Cell
	tree   rtree.RTree
}

// New builds an index over cells. source names where they were read from.
func New(source string, cells []Cell) (*Index, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("%s: no grid cells", source)
	}
	ix := &Index{source: source, cells: cells}
	for i, c := range cells {
		switch c.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("%s: cell %d (Grid_ID=%d) has unsupported geometry %T", source, i, c.GridID, c.Geometry)
		}
		b := c.Geometry.Bound()
		ix.tree.Insert([2]float64{b.Min.X(), b.Min.Y()}, [2]float64{b.Max.X(), b.Max.Y()}, i)
	}
	return ix, nil
}

// Lookup returns the Grid_ID of the first cell containing (lat, lon).
func (ix *Index) Lookup(lat, lon float64) (int64, bool) {
	pt := orb.Point{lon, lat}
	var candidates []int
	ix.tree.Search([2]float64{lon, lat}, [2]float64{lon, lat}, func(_, _ [2]float64, v any) bool {
		candidates = append(candidates, v.(int))
		return true
	})
	slices.Sort(candidates)
	for _, i := range candidates {
		if contains(ix.cells[i].Geometry, pt) {
			return ix.cells[i].GridID, true
		}
	}
	return 0, false
}

func contains(g orb.Geometry, pt orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	}
	return false
}

// Len returns the number of cells.
func (ix *Index) Len() int { return len(ix.cells) }

// Source returns the file the index was loaded from.
func (ix *Index) Source() string { return ix.source }

// Cells returns the cells in source order. Callers must not modify them.
func (ix *Index) Cells() []Cell { return ix.cells }

// Bound returns the bounding box of all cells.
func (ix *Index) Bound() orb.Bound {
	b := ix.cells[0].Geometry.Bound()
	for _, c := range ix.cells[1:] {
		b = b.Union(c.Geometry.Bound())
	}
	return b
}

// Duplicates returns each Grid_ID that appears on more than one cell.
func (ix *Index) Duplicates() []int64 {
	seen := make(map[int64]int, len(ix.cells))
	var dups []int64
	for _, c := range ix.cells {
		seen[c.GridID]++
		if seen[c.GridID] == 2 {
			dups = append(dups, c.GridID)
		}
	}
	return dups
}

// ErrNoSource is returned by Load when none of the candidate files exist.
var ErrNoSource = errors.New("no grid geometry source found")
