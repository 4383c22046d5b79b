package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Column names of the historical dataset.
const (
	ColumnGridID = "Grid_ID"
	ColumnHour   = "Hour"
)

const readBatch = 1024

// column maps a parquet leaf index to a decoder for it.
type column struct {
	index  int
	decode func(v parquet.Value, row *domain.HistoricalRow) error
}

// LoadParquet reads the whole table. Grid_ID and Hour are required; a missing
// feature column loads as all-NaN.
func LoadParquet(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := parquet.NewReader(f)
	defer r.Close()

	cols, err := columnsFor(r.Schema())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := make([]domain.HistoricalRow, 0, r.NumRows())
	buf := make([]parquet.Row, readBatch)
	for {
		n, rerr := r.ReadRows(buf)
		for _, pr := range buf[:n] {
			row, err := decodeRow(pr, cols)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", path, len(out), err)
			}
			out = append(out, row)
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return nil, fmt.Errorf("read %s: %w", path, rerr)
		}
	}
	return NewTable(path, out), nil
}

func columnsFor(schema *parquet.Schema) (map[int]column, error) {
	cols := make(map[int]column)

	id, ok := schema.Lookup(ColumnGridID)
	if !ok {
		return nil, fmt.Errorf("missing %s column", ColumnGridID)
	}
	cols[id.ColumnIndex] = column{index: id.ColumnIndex, decode: func(v parquet.Value, row *domain.HistoricalRow) error {
		if v.IsNull() {
			return fmt.Errorf("null %s", ColumnGridID)
		}
		n, err := toInt64(v)
		row.GridID = n
		return err
	}}

	hour, ok := schema.Lookup(ColumnHour)
	if !ok {
		return nil, fmt.Errorf("missing %s column", ColumnHour)
	}
	toTime, err := timeDecoder(hour.Node)
	if err != nil {
		return nil, err
	}
	cols[hour.ColumnIndex] = column{index: hour.ColumnIndex, decode: func(v parquet.Value, row *domain.HistoricalRow) error {
		if v.IsNull() {
			return fmt.Errorf("null %s", ColumnHour)
		}
		t, err := toTime(v)
		row.Hour = t
		return err
	}}

	for i, name := range domain.ContinuousFeatureNames {
		leaf, ok := schema.Lookup(name)
		if !ok {
			continue
		}
		cols[leaf.ColumnIndex] = column{index: leaf.ColumnIndex, decode: func(v parquet.Value, row *domain.HistoricalRow) error {
			x := math.NaN()
			if !v.IsNull() {
				var err error
				if x, err = toFloat64(v); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			setFeature(&row.ContinuousFeatures, i, x)
			return nil
		}}
	}
	return cols, nil
}

func decodeRow(pr parquet.Row, cols map[int]column) (domain.HistoricalRow, error) {
	nan := math.NaN()
	row := domain.HistoricalRow{ContinuousFeatures: domain.ContinuousFeatures{
		Elevation: nan, RoadDensity: nan, RainMM: nan, RainPast3h: nan, DrainWaterLevel: nan, SoilMoisture: nan,
	}}
	for _, v := range pr {
		c, ok := cols[v.Column()]
		if !ok {
			continue
		}
		if err := c.decode(v, &row); err != nil {
			return row, err
		}
	}
	return row, nil
}

func setFeature(c *domain.ContinuousFeatures, i int, v float64) {
	switch i {
	case 0:
		c.Elevation = v
	case 1:
		c.RoadDensity = v
	case 2:
		c.RainMM = v
	case 3:
		c.RainPast3h = v
	case 4:
		c.DrainWaterLevel = v
	case 5:
		c.SoilMoisture = v
	}
}

// timeDecoder picks how Hour values become wall-clock times. Timestamps are
// naive local hours, so they are kept in UTC and never shifted.
func timeDecoder(node parquet.Node) (func(parquet.Value) (time.Time, error), error) {
	lt := node.Type().LogicalType()
	switch {
	case lt != nil && lt.Timestamp != nil:
		unit := lt.Timestamp.Unit
		return func(v parquet.Value) (time.Time, error) {
			n := v.Int64()
			switch {
			case unit.Millis != nil:
				return time.UnixMilli(n).UTC(), nil
			case unit.Micros != nil:
				return time.UnixMicro(n).UTC(), nil
			default:
				return time.Unix(0, n).UTC(), nil
			}
		}, nil
	case node.Type().Kind() == parquet.ByteArray:
		return func(v parquet.Value) (time.Time, error) {
			return domain.ParseTimestamp(string(v.ByteArray()), time.UTC)
		}, nil
	case node.Type().Kind() == parquet.Int64:
		// Unannotated int64 is read as nanoseconds, as pandas writes them.
		return func(v parquet.Value) (time.Time, error) {
			return time.Unix(0, v.Int64()).UTC(), nil
		}, nil
	}
	return nil, fmt.Errorf("unsupported %s column type %s", ColumnHour, node.Type())
}

func toInt64(v parquet.Value) (int64, error) {
	switch v.Kind() {
	case parquet.Int32:
		return int64(v.Int32()), nil
	case parquet.Int64:
		return v.Int64(), nil
	case parquet.Float, parquet.Double:
		f := v.Double()
		if v.Kind() == parquet.Float {
			f = float64(v.Float())
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("non-integer %s %v", ColumnGridID, f)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("unsupported %s type %s", ColumnGridID, v.Kind())
}

func toFloat64(v parquet.Value) (float64, error) {
	switch v.Kind() {
	case parquet.Double:
		return v.Double(), nil
	case parquet.Float:
		return float64(v.Float()), nil
	case parquet.Int32:
		return float64(v.Int32()), nil
	case parquet.Int64:
		return float64(v.Int64()), nil
	}
	return 0, fmt.Errorf("unsupported type %s", v.Kind())
}
