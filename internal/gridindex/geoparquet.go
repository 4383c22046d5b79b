package gridindex

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb/encoding/wkb"
	"github.com/parquet-go/parquet-go"
)

// geometryColumns are tried in order for the WKB geometry.
var geometryColumns = []string{"geometry", "geom", "wkb_geometry"}

const parquetBatch = 256

func readGeoParquet(path string) ([]Cell, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := parquet.NewReader(f)
	defer r.Close()

	schema := r.Schema()
	var names []string
	for _, field := range schema.Fields() {
		names = append(names, field.Name())
	}
	idName := pickIDColumn(names)
	if idName == "" {
		return nil, fmt.Errorf("%s: no %s column", path, IDColumn)
	}
	idCol, _ := schema.Lookup(idName)

	geomCol, ok := parquet.LeafColumn{}, false
	for _, name := range geometryColumns {
		if geomCol, ok = schema.Lookup(name); ok {
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("%s: no geometry column", path)
	}

	var cells []Cell
	rows := make([]parquet.Row, parquetBatch)
	for {
		n, err := r.ReadRows(rows)
		for _, row := range rows[:n] {
			cell, cerr := cellFromRow(row, idCol.ColumnIndex, geomCol.ColumnIndex)
			if cerr != nil {
				return nil, fmt.Errorf("%s: row %d: %w", path, len(cells), cerr)
			}
			cells = append(cells, cell)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return cells, nil
}

func cellFromRow(row parquet.Row, idIdx, geomIdx int) (Cell, error) {
	var (
		cell          Cell
		haveID, haveG bool
	)
	for _, v := range row {
		switch v.Column() {
		case idIdx:
			if v.IsNull() {
				return cell, errors.New("null id")
			}
			id, err := parseID(parquetScalar(v))
			if err != nil {
				return cell, err
			}
			cell.GridID, haveID = id, true
		case geomIdx:
			if v.IsNull() {
				return cell, errors.New("null geometry")
			}
			g, err := wkb.Unmarshal(v.ByteArray())
			if err != nil {
				return cell, fmt.Errorf("decode geometry: %w", err)
			}
			cell.Geometry, haveG = g, true
		}
	}
	if !haveID || !haveG {
		return cell, errors.New("missing id or geometry")
	}
	return cell, nil
}

func parquetScalar(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Int32:
		return v.Int32()
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	}
	return nil
}
