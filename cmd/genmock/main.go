// Command genmock writes a small, deterministic set of fixtures for local
// runs and the validate command: a square Delhi grid index, one week of
// hourly dataset rows per cell, trained-artifact JSON files for a single
// decision tree, and sample prediction events scored by that tree.
//
// Usage:
//
//	go run ./cmd/genmock -out .
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/inference"
)

// weekStart is the first dataset hour, a Monday in the monsoon.
var weekStart = time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC)

// cellSize is the grid step in degrees.
const cellSize = 0.1

// datasetRow is the on-disk schema of the historical dataset.
type datasetRow struct {
	GridID          int64     `parquet:"Grid_ID"`
	Hour            time.Time `parquet:"Hour,timestamp(millisecond)"`
	Elevation       float64   `parquet:"Elevation"`
	RoadDensity     float64   `parquet:"Road_Density"`
	RainMM          float64   `parquet:"Rain_mm"`
	RainPast3h      float64   `parquet:"Rain_Past3h"`
	DrainWaterLevel float64   `parquet:"Drain_Water_Level"`
	SoilMoisture    *float64  `parquet:"Soil_Moisture,optional"`
}

type gridCell struct {
	id     int64
	center domain.Coordinates
	poly   orb.Polygon
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", ".", "root directory for the generated fixtures")
	seed := flag.Uint64("seed", 42, "seed for the synthetic rainfall series")
	flag.Parse()

	// Set a fixed clock for reproducible PredictedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.July, 21, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	cells := buildGrid(domain.DelhiBounds)
	log.Printf("grid: %d cells", len(cells))

	paths := inference.Paths{
		Model:   filepath.Join(*out, "model", "flood_model.json"),
		Scaler:  filepath.Join(*out, "scaler", "scaler.json"),
		Encoder: filepath.Join(*out, "encoder", "label_encoder.json"),
	}
	gridPath := filepath.Join(*out, "dataset", "grid_index.geojson")
	datasetPath := filepath.Join(*out, "dataset", "delhi_flood_dataset_demo.parquet")
	eventsPath := filepath.Join(*out, "dataset", "sample_predictions.json")

	if err := writeGrid(gridPath, cells); err != nil {
		return fmt.Errorf("writing grid index: %w", err)
	}
	log.Printf("wrote grid index: %s", gridPath)

	rows := buildDataset(cells, rand.New(rand.NewPCG(*seed, *seed)))
	if err := writeParquet(datasetPath, rows); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	log.Printf("wrote dataset: %s (%d rows)", datasetPath, len(rows))

	if err := writeArtifacts(paths); err != nil {
		return fmt.Errorf("writing artifacts: %w", err)
	}
	log.Printf("wrote artifacts: %s, %s, %s", paths.Model, paths.Scaler, paths.Encoder)

	events, err := scoreSample(paths, cells)
	if err != nil {
		return fmt.Errorf("scoring sample: %w", err)
	}
	if err := writeJSON(eventsPath, events); err != nil {
		return fmt.Errorf("writing sample events: %w", err)
	}
	log.Printf("wrote sample events: %s", eventsPath)

	printStats(events)
	return nil
}

// buildGrid tiles the bounds with square cells, numbered row-major from the
// south-west corner starting at 1.
func buildGrid(b domain.Bounds) []gridCell {
	rows := int(math.Round((b.MaxLat - b.MinLat) / cellSize))
	cols := int(math.Round((b.MaxLon - b.MinLon) / cellSize))

	cells := make([]gridCell, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			minLat := b.MinLat + float64(r)*cellSize
			minLon := b.MinLon + float64(c)*cellSize
			maxLat, maxLon := minLat+cellSize, minLon+cellSize
			cells = append(cells, gridCell{
				id:     int64(r*cols + c + 1),
				center: domain.Coordinates{Latitude: minLat + cellSize/2, Longitude: minLon + cellSize/2},
				poly: orb.Polygon{orb.Ring{
					{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
				}},
			})
		}
	}
	return cells
}

func writeGrid(path string, cells []gridCell) error {
	fc := geojson.NewFeatureCollection()
	for _, c := range cells {
		f := geojson.NewFeature(c.poly)
		f.Properties["Grid_ID"] = c.id
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// buildDataset starts from the heuristic features of each cell and varies
// rainfall hour by hour. Every 97th row has no soil moisture reading.
func buildDataset(cells []gridCell, rng *rand.Rand) []datasetRow {
	const hours = 7 * domain.HoursPerDay

	rows := make([]datasetRow, 0, len(cells)*hours)
	n := 0
	for _, c := range cells {
		base := domain.DeriveFeatures(c.center.Latitude, c.center.Longitude, int(weekStart.Month()))
		var past [3]float64
		for h := range hours {
			// A storm band across the middle of the week.
			rain := rng.ExpFloat64() * 3
			if h >= 60 && h < 84 {
				rain += 12 + rng.Float64()*10
			}
			rain = math.Round(rain*10) / 10
			rainPast3h := math.Round((past[0]+past[1]+past[2])/3*10) / 10
			past = [3]float64{past[1], past[2], rain}

			row := datasetRow{
				GridID:          c.id,
				Hour:            weekStart.Add(time.Duration(h) * time.Hour),
				Elevation:       base.Elevation,
				RoadDensity:     base.RoadDensity,
				RainMM:          rain,
				RainPast3h:      rainPast3h,
				DrainWaterLevel: math.Round((base.DrainWaterLevel*0.6+rain*0.05)*100) / 100,
			}
			if n%97 != 0 {
				soil := math.Min(1, math.Round((base.SoilMoisture*0.8+rainPast3h*0.02)*100)/100)
				row.SoilMoisture = &soil
			}
			rows = append(rows, row)
			n++
		}
	}
	return rows
}

func writeParquet(path string, rows []datasetRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, rows)
}

// writeArtifacts emits a standard scaler and a depth-two decision tree over
// scaled rainfall, drain level, and soil moisture.
func writeArtifacts(p inference.Paths) error {
	scaler := map[string]any{
		"kind":  inference.ScalerStandard,
		"mean":  []float64{210, 0.5, 8, 4, 0.8, 0.5},
		"scale": []float64{15, 0.2, 6, 3, 0.4, 0.2},
	}
	model := map[string]any{
		"kind":       inference.KindDecisionTree,
		"n_features": inference.NumModelInputs,
		"classes":    []int{0, 1, 2},
		"trees": []map[string]any{{
			"children_left":  []int{1, 3, 5, -1, -1, -1, -1},
			"children_right": []int{2, 4, 6, -1, -1, -1, -1},
			"feature":        []int{2, 5, 4, -2, -2, -2, -2},
			"threshold":      []float64{0.5, 0.75, 0.5, -2, -2, -2, -2},
			"value": [][]float64{
				{137, 128, 135},
				{22, 115, 63},
				{115, 13, 72},
				{2, 90, 8},
				{20, 25, 55},
				{30, 10, 60},
				{85, 3, 12},
			},
		}},
	}
	encoder := map[string]any{"classes": []string{"High", "Low", "Medium"}}

	if err := writeJSON(p.Scaler, scaler); err != nil {
		return err
	}
	if err := writeJSON(p.Model, model); err != nil {
		return err
	}
	return writeJSON(p.Encoder, encoder)
}

// scoreSample reloads the written artifacts and scores every cell at the
// heuristic features for a monsoon afternoon.
func scoreSample(p inference.Paths, cells []gridCell) ([]domain.PredictionEvent, error) {
	artifacts := inference.LoadArtifacts(p)
	if !artifacts.Available() {
		return nil, artifacts.Err()
	}
	predictor := inference.NewPredictor(artifacts)

	tc := domain.TimeComponentsAt(weekStart.Add(62 * time.Hour))
	rows := make([]domain.FeatureVector, len(cells))
	for i, c := range cells {
		rows[i] = domain.NewFeatureVector(domain.DeriveFeatures(c.center.Latitude, c.center.Longitude, tc.Month), tc)
	}
	results, err := predictor.Predict(rows)
	if err != nil {
		return nil, err
	}

	events := make([]domain.PredictionEvent, len(cells))
	for i, c := range cells {
		ev := domain.NewPredictionEvent(domain.ModeLocation, rows[i], results[i])
		ev.Location = &cells[i].center
		id := c.id
		ev.GridID = &id
		events[i] = ev
	}
	return events, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // fixtures are not sensitive
}

func printStats(events []domain.PredictionEvent) {
	counts := map[string]int{}
	for _, ev := range events {
		counts[ev.Prediction.Label]++
	}
	fmt.Println()
	fmt.Println("=== Sample predictions ===")
	for _, label := range []string{"High", "Medium", "Low"} {
		fmt.Printf("  %-8s %d\n", label, counts[label])
	}
}
