// Command validate checks the integrity of the files the service loads at
// runtime: trained artifacts, the grid index, and the historical dataset. It
// verifies they load, agree with each other, and produce sane predictions
// through the real pipeline.
//
// Paths default to the service's environment configuration.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -model model/flood_model.json \
//	  -dataset dataset/delhi_flood_dataset_demo.parquet \
//	  -grid dataset/grid_index.geojson
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"

	"github.com/couchcryptid/flood-risk-service/internal/config"
	"github.com/couchcryptid/flood-risk-service/internal/dataset"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/gridindex"
	"github.com/couchcryptid/flood-risk-service/internal/inference"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// sources holds whatever loaded; nil fields failed in an earlier phase.
type sources struct {
	region    domain.Region
	artifacts *inference.Artifacts
	index     *gridindex.Index
	table     *dataset.Table
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	modelPath := flag.String("model", cfg.ModelPath, "path to the model artifact")
	scalerPath := flag.String("scaler", cfg.ScalerPath, "path to the scaler artifact")
	encoderPath := flag.String("encoder", cfg.EncoderPath, "path to the label encoder artifact")
	datasetPath := flag.String("dataset", cfg.DatasetPath, "path to the historical dataset parquet file")
	gridPaths := flag.String("grid", strings.Join(cfg.GridIndexPaths, ","), "comma-separated grid index candidates, first existing wins")
	flag.Parse()

	src := &sources{region: cfg.Region}
	paths := inference.Paths{Model: *modelPath, Scaler: *scalerPath, Encoder: *encoderPath}

	if code := run(src, paths, strings.Split(*gridPaths, ","), *datasetPath); code != 0 {
		os.Exit(code)
	}
}

func run(src *sources, paths inference.Paths, gridPaths []string, datasetPath string) int {
	// Fixed clock so defaulted time fields are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.July, 15, 8, 30, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Flood Risk Data Integrity Validation ===")
	fmt.Println()

	phases := []*phase{
		validateArtifacts(src, paths),
		validateGridIndex(src, gridPaths),
		validateDataset(src, datasetPath),
		validatePredictions(src),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Sources: %s\n", describe(src))

	for _, p := range phases {
		if len(p.notes) == 0 && p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for _, n := range p.notes {
			fmt.Printf("  note: %s\n", n)
		}
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func describe(src *sources) string {
	parts := []string{}
	if src.artifacts != nil && src.artifacts.Available() {
		parts = append(parts, fmt.Sprintf("%s model with labels %v", src.artifacts.ModelKind(), src.artifacts.Labels()))
	}
	if src.index != nil {
		parts = append(parts, fmt.Sprintf("%d grid cells from %s", src.index.Len(), src.index.Source()))
	}
	if src.table != nil {
		parts = append(parts, fmt.Sprintf("%d dataset rows from %s", src.table.Len(), src.table.Source()))
	}
	if len(parts) == 0 {
		return "none loaded"
	}
	return strings.Join(parts, ", ")
}

// ── Phase 1: Artifacts ──
// Validates that scaler, model, and encoder load and agree with each other.

func validateArtifacts(src *sources, paths inference.Paths) *phase {
	p := &phase{name: "Phase 1: Trained Artifacts"}

	src.artifacts = inference.LoadArtifacts(paths)
	for _, s := range src.artifacts.Statuses() {
		if !s.Loaded() {
			p.errorf("%s (%s): %v", s.Name, s.Path, s.Err)
		}
	}
	if src.artifacts.Available() {
		p.notef("%s over %d inputs, labels %v", src.artifacts.ModelKind(), inference.NumModelInputs, src.artifacts.Labels())
	}
	return p
}

// ── Phase 2: Grid Index ──
// Validates that grid geometries load, ids are unique, and cells overlap the region.

func validateGridIndex(src *sources, paths []string) *phase {
	p := &phase{name: "Phase 2: Grid Index"}

	ix, err := gridindex.Load(paths)
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	src.index = ix

	if dups := ix.Duplicates(); len(dups) > 0 {
		p.errorf("%d Grid_IDs appear on more than one geometry: %v", len(dups), head(dups, 10))
	}

	rb := regionBound(src.region.Bounds)
	outside := 0
	for _, c := range ix.Cells() {
		if !c.Geometry.Bound().Intersects(rb) {
			outside++
		}
	}
	if outside > 0 {
		p.errorf("%d of %d cells lie entirely outside the %s bounds", outside, ix.Len(), src.region.Name)
	}
	return p
}

// ── Phase 3: Dataset ──
// Validates that the dataset loads and every row's grid has a geometry.

func validateDataset(src *sources, path string) *phase {
	p := &phase{name: "Phase 3: Historical Dataset"}

	table, err := dataset.LoadParquet(path)
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	src.table = table

	if table.Len() == 0 {
		p.errorf("dataset has no rows")
		return p
	}

	missing := table.MissingCounts()
	for _, name := range domain.ContinuousFeatureNames {
		if n := missing[name]; n > 0 {
			p.notef("%s missing in %d rows, filled at request time", name, n)
		}
	}

	if src.index == nil {
		p.notef("grid index unavailable, skipping cross-check")
		return p
	}
	known := map[int64]bool{}
	for _, c := range src.index.Cells() {
		known[c.GridID] = true
	}
	var orphans []int64
	for _, id := range table.GridIDs() {
		if !known[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		p.errorf("%d dataset Grid_IDs have no geometry: %v", len(orphans), head(orphans, 10))
	}
	return p
}

// ── Phase 4: Predictions ──
// Runs each prediction mode through the real pipeline and checks the outputs.

func validatePredictions(src *sources) *phase {
	p := &phase{name: "Phase 4: Smoke Predictions"}

	if src.artifacts == nil || !src.artifacts.Available() {
		p.errorf("artifacts unavailable, cannot predict")
		return p
	}

	var locator pipeline.GridLocator
	if src.index != nil {
		locator = indexLocator{src.index}
	}
	var resolver pipeline.RowResolver
	if src.table != nil {
		resolver = src.table
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pl := pipeline.New(inference.NewPredictor(src.artifacts), locator, resolver, nil, src.region,
		logger, observability.NewMetricsForTesting())

	ctx := context.Background()
	labels := src.artifacts.Labels()
	check := func(mode string, r domain.PredictionResult) {
		if !slices.Contains(labels, r.Label) {
			p.errorf("%s: label %q not in encoder classes", mode, r.Label)
		}
		if r.Confidence < 0 || r.Confidence > 100 {
			p.errorf("%s: confidence %v outside [0,100]", mode, r.Confidence)
		}
	}

	center := src.region.Bounds.Center()
	loc, err := pl.PredictLocation(ctx, pipeline.LocationRequest{Latitude: center.Latitude, Longitude: center.Longitude})
	if err != nil {
		p.errorf("location at region center: %v", err)
	} else {
		check("location", loc.Prediction)
		p.notef("region center %v -> %s (%.2f%%) at %+v", center, loc.Prediction.Label, loc.Prediction.Confidence, loc.TimeUsed)
	}

	if src.table == nil {
		return p
	}
	ids := src.table.GridIDs()
	id := ids[0]
	ds, err := pl.PredictFromDataset(ctx, pipeline.DatasetRequest{GridID: &id})
	if err != nil {
		p.errorf("dataset grid %d: %v", id, err)
		return p
	}
	check("dataset", ds.Prediction)
	p.notef("grid %d -> %s (%.2f%%), %s row at %s", id, ds.Prediction.Label, ds.Prediction.Confidence, ds.UsedRow.Match, ds.UsedRow.Hour)

	if src.index == nil {
		return p
	}
	for _, c := range src.index.Cells() {
		if c.GridID != id {
			continue
		}
		pt := c.Geometry.Bound().Center()
		lat, lon := pt.Lat(), pt.Lon()
		byCoords, err := pl.PredictFromDataset(ctx, pipeline.DatasetRequest{Latitude: &lat, Longitude: &lon})
		if err != nil {
			p.errorf("dataset at grid %d center: %v", id, err)
		} else if byCoords.GridID != id {
			p.errorf("grid %d center resolved to grid %d", id, byCoords.GridID)
		}
		break
	}
	return p
}

// indexLocator serves lookups from an index that is already loaded.
type indexLocator struct{ ix *gridindex.Index }

func (l indexLocator) LookupGridID(lat, lon float64) (int64, bool, error) {
	id, ok := l.ix.Lookup(lat, lon)
	return id, ok, nil
}

func regionBound(b domain.Bounds) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

func head(ids []int64, n int) []int64 {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}
