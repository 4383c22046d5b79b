package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/dataset"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// Pipeline resolves the three request modes to feature vectors and shares one
// classify step between them. It holds no per-request state.
type Pipeline struct {
	classifier Classifier
	grids      GridLocator
	rows       RowResolver
	sink       EventSink
	region     domain.Region
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Pipeline. sink may be nil to disable prediction events.
func New(c Classifier, grids GridLocator, rows RowResolver, sink EventSink, region domain.Region, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		classifier: c,
		grids:      grids,
		rows:       rows,
		sink:       sink,
		region:     region,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once the trained artifacts are loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.classifier.Available() {
		return errors.New("model artifacts not loaded")
	}
	return nil
}

// ModelLoaded reports whether predictions can be served.
func (p *Pipeline) ModelLoaded() bool { return p.classifier.Available() }

// PredictGrids classifies caller-supplied feature vectors in order.
func (p *Pipeline) PredictGrids(ctx context.Context, grids []domain.FeatureVector) (_ []domain.PredictionResult, err error) {
	defer p.observe(domain.ModeGrid, time.Now(), &err)

	if len(grids) == 0 {
		return nil, domain.Invalidf("No grids provided")
	}
	for i, g := range grids {
		if err := g.Validate(); err != nil {
			return nil, domain.Invalidf("grids[%d]: %v", i, err)
		}
	}
	p.metrics.BatchRows.Observe(float64(len(grids)))

	events := make([]eventContext, len(grids))
	return p.classify(ctx, domain.ModeGrid, grids, events)
}

// PredictLocation derives features from coordinates and classifies them.
func (p *Pipeline) PredictLocation(ctx context.Context, req LocationRequest) (_ LocationResponse, err error) {
	defer p.observe(domain.ModeLocation, time.Now(), &err)

	coords := domain.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}
	if err := p.region.CheckCoordinates(coords); err != nil {
		return LocationResponse{}, err
	}
	tc, err := p.resolveTime(nil, req.TimeFields)
	if err != nil {
		return LocationResponse{}, err
	}

	features := domain.DeriveFeatures(coords.Latitude, coords.Longitude, tc.Month)
	results, err := p.classify(ctx, domain.ModeLocation,
		[]domain.FeatureVector{domain.NewFeatureVector(features, tc)},
		[]eventContext{{location: &coords}},
	)
	if err != nil {
		return LocationResponse{}, err
	}
	return LocationResponse{
		Location:        coords,
		DerivedFeatures: features,
		TimeUsed:        tc,
		Prediction:      results[0],
	}, nil
}

// PredictFromDataset resolves a grid cell and hour to a historical row,
// fills its gaps, and classifies it.
func (p *Pipeline) PredictFromDataset(ctx context.Context, req DatasetRequest) (_ DatasetResponse, err error) {
	defer p.observe(domain.ModeDataset, time.Now(), &err)

	coords, err := datasetCoordinates(req)
	if err != nil {
		return DatasetResponse{}, err
	}
	if req.GridID == nil && coords == nil {
		return DatasetResponse{}, domain.Invalidf("Provide grid_id or both latitude and longitude")
	}
	tc, err := p.resolveTime(req.Timestamp, req.TimeFields)
	if err != nil {
		return DatasetResponse{}, err
	}

	var gridID int64
	if req.GridID != nil {
		gridID = *req.GridID
	} else {
		gridID, err = p.lookupGrid(*coords)
		if err != nil {
			return DatasetResponse{}, err
		}
	}

	row, match, err := p.rows.Resolve(gridID, tc.Month, tc.HourOfDay)
	if err != nil {
		return DatasetResponse{}, err
	}
	p.metrics.DatasetMatches.WithLabelValues(string(match)).Inc()
	if match == domain.MatchFallback {
		p.logger.DebugContext(ctx, "no dataset row for requested hour, using first row for grid",
			"grid_id", gridID, "month", tc.Month, "hour", tc.HourOfDay, "row_hour", row.Hour)
	}

	features := dataset.FillMissing(row.ContinuousFeatures, coords, tc.Month)
	results, err := p.classify(ctx, domain.ModeDataset,
		[]domain.FeatureVector{domain.NewFeatureVector(features, tc)},
		[]eventContext{{gridID: &gridID, location: coords}},
	)
	if err != nil {
		return DatasetResponse{}, err
	}
	return DatasetResponse{
		GridID: gridID,
		UsedRow: UsedRow{
			ContinuousFeatures: features,
			Hour:               row.Hour.Format(hourLayout),
			Match:              match,
			Filled:             filledNames(row.ContinuousFeatures),
		},
		TimeUsed:   tc,
		Prediction: results[0],
	}, nil
}

func datasetCoordinates(req DatasetRequest) (*domain.Coordinates, error) {
	switch {
	case req.Latitude == nil && req.Longitude == nil:
		return nil, nil
	case req.Latitude == nil || req.Longitude == nil:
		return nil, domain.Invalidf("latitude and longitude must be provided together")
	}
	c := domain.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *Pipeline) lookupGrid(c domain.Coordinates) (int64, error) {
	id, ok, err := p.grids.LookupGridID(c.Latitude, c.Longitude)
	switch {
	case err != nil:
		p.metrics.GridLookups.WithLabelValues("error").Inc()
		return 0, err
	case !ok:
		p.metrics.GridLookups.WithLabelValues("miss").Inc()
		return 0, domain.Invalidf("no grid geometry found for latitude=%v, longitude=%v", c.Latitude, c.Longitude)
	}
	p.metrics.GridLookups.WithLabelValues("found").Inc()
	return id, nil
}

// resolveTime takes every component from timestamp when given, otherwise each
// explicit field, falling back to the current time in the region's zone.
func (p *Pipeline) resolveTime(timestamp *string, f TimeFields) (domain.TimeComponents, error) {
	var tc domain.TimeComponents
	if timestamp != nil {
		t, err := domain.ParseTimestamp(*timestamp, p.region.Location)
		if err != nil {
			return tc, err
		}
		return domain.TimeComponentsAt(t), nil
	}
	tc = p.region.CurrentTime()
	if f.HourOfDay != nil {
		tc.HourOfDay = *f.HourOfDay
	}
	if f.Month != nil {
		tc.Month = *f.Month
	}
	if f.DayOfWeek != nil {
		tc.DayOfWeek = *f.DayOfWeek
	}
	return tc, tc.Validate()
}

func filledNames(c domain.ContinuousFeatures) []string {
	var names []string
	for i, missing := range c.Missing() {
		if missing {
			names = append(names, domain.ContinuousFeatureNames[i])
		}
	}
	return names
}

// observe records duration and, for failures, the error kind.
func (p *Pipeline) observe(mode string, start time.Time, err *error) {
	p.metrics.PredictionDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if *err != nil {
		p.metrics.PredictionErrors.WithLabelValues(mode, ErrorKind(*err)).Inc()
	}
}

// ErrorKind classifies err as validation, unavailable, or internal.
func ErrorKind(err error) string {
	switch {
	case domain.IsValidation(err):
		return "validation"
	case domain.IsUnavailable(err):
		return "unavailable"
	default:
		return "internal"
	}
}
