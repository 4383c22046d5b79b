package gridindex

import (
	"fmt"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

func readShapefile(path string) ([]Cell, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	col := pickIDColumn(names)
	if col == "" {
		return nil, fmt.Errorf("%s: no %s column", path, IDColumn)
	}
	colIdx := 0
	for i, n := range names {
		if n == col {
			colIdx = i
		}
	}

	var cells []Cell
	for r.Next() {
		n, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			return nil, fmt.Errorf("%s: record %d is %T, want polygon", path, n, shape)
		}
		id, err := parseID(r.ReadAttribute(n, colIdx))
		if err != nil {
			return nil, fmt.Errorf("%s: record %d %s: %w", path, n, col, err)
		}
		cells = append(cells, Cell{GridID: id, Geometry: shpPolygon(poly)})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return cells, nil
}

// shpPolygon converts shapefile parts to orb geometry. Shapefile outer rings
// are clockwise and holes counter-clockwise; each hole joins the last outer.
func shpPolygon(p *shp.Polygon) orb.Geometry {
	var mp orb.MultiPolygon
	for i := range p.Parts {
		start := int(p.Parts[i])
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if ring.Orientation() == orb.CW || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		mp[len(mp)-1] = append(mp[len(mp)-1], ring)
	}
	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}
