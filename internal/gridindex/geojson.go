package gridindex

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
)

func readGeoJSON(path string) ([]Cell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%s: no features", path)
	}

	names := make([]string, 0, len(fc.Features[0].Properties))
	for k := range fc.Features[0].Properties {
		names = append(names, k)
	}
	col := pickIDColumn(names)
	if col == "" {
		return nil, fmt.Errorf("%s: no %s column", path, IDColumn)
	}

	cells := make([]Cell, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("%s: feature %d has no geometry", path, i)
		}
		id, err := parseID(f.Properties[col])
		if err != nil {
			return nil, fmt.Errorf("%s: feature %d %s: %w", path, i, col, err)
		}
		cells = append(cells, Cell{GridID: id, Geometry: f.Geometry})
	}
	return cells, nil
}
