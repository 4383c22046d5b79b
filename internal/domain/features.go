package domain

import (
	"math"
	"time"
)

// NumFeatures is the width of a FeatureVector: six continuous measurements
// followed by three calendar components.
const NumFeatures = 9

// NumContinuous is the number of continuous features scaled by the trained scaler.
const NumContinuous = 6

// ContinuousFeatureNames lists the continuous columns in model order.
var ContinuousFeatureNames = [NumContinuous]string{
	"Elevation",
	"Road_Density",
	"Rain_mm",
	"Rain_Past3h",
	"Drain_Water_Level",
	"Soil_Moisture",
}

// ContinuousFeatures holds the environmental measurements for one grid cell and hour.
type ContinuousFeatures struct {
	Elevation       float64 `json:"Elevation"`
	RoadDensity     float64 `json:"Road_Density"`
	RainMM          float64 `json:"Rain_mm"`
	RainPast3h      float64 `json:"Rain_Past3h"`
	DrainWaterLevel float64 `json:"Drain_Water_Level"`
	SoilMoisture    float64 `json:"Soil_Moisture"`
}

// Values returns the features in model column order.
func (c ContinuousFeatures) Values() [NumContinuous]float64 {
	return [NumContinuous]float64{
		c.Elevation,
		c.RoadDensity,
		c.RainMM,
		c.RainPast3h,
		c.DrainWaterLevel,
		c.SoilMoisture,
	}
}

// TimeComponents are the calendar inputs of a prediction.
// DayOfWeek counts from Monday=0 to Sunday=6.
type TimeComponents struct {
	HourOfDay int `json:"hour_of_day"`
	Month     int `json:"month"`
	DayOfWeek int `json:"day_of_week"`
}

// TimeComponentsAt extracts the calendar components of t in its own location.
func TimeComponentsAt(t time.Time) TimeComponents {
	return TimeComponents{
		HourOfDay: t.Hour(),
		Month:     int(t.Month()),
		DayOfWeek: MondayFirstWeekday(t.Weekday()),
	}
}

// MondayFirstWeekday converts Go's Sunday=0 weekday to the Monday=0 convention
// the classifier was trained with.
func MondayFirstWeekday(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Validate checks the calendar ranges.
func (t TimeComponents) Validate() error {
	if t.HourOfDay < 0 || t.HourOfDay > 23 {
		return Invalidf("hour_of_day must be in [0,23], got %d", t.HourOfDay)
	}
	if t.Month < 1 || t.Month > 12 {
		return Invalidf("month must be in [1,12], got %d", t.Month)
	}
	if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
		return Invalidf("day_of_week must be in [0,6], got %d", t.DayOfWeek)
	}
	return nil
}

// FeatureVector is the fixed-order classifier input:
// Elevation, Road_Density, Rain_mm, Rain_Past3h, Drain_Water_Level,
// Soil_Moisture, hour_of_day, month, day_of_week.
type FeatureVector struct {
	ContinuousFeatures
	TimeComponents
}

// NewFeatureVector combines continuous features with calendar components.
func NewFeatureVector(c ContinuousFeatures, t TimeComponents) FeatureVector {
	return FeatureVector{ContinuousFeatures: c, TimeComponents: t}
}

// Validate rejects negative or non-finite measurements and out-of-range time fields.
func (v FeatureVector) Validate() error {
	for i, x := range v.Values() {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Invalidf("%s must be a finite number", ContinuousFeatureNames[i])
		}
		if x < 0 {
			return Invalidf("%s must be non-negative, got %g", ContinuousFeatureNames[i], x)
		}
	}
	return v.TimeComponents.Validate()
}

// Coordinates is a WGS-84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the global coordinate ranges.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return Invalidf("latitude must be between -90 and 90")
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return Invalidf("longitude must be between -180 and 180")
	}
	return nil
}

// HistoricalRow is one hourly observation for one grid cell. Missing
// measurements are NaN until filled.
type HistoricalRow struct {
	GridID int64
	Hour   time.Time
	ContinuousFeatures
}

// RowMatch records how a dataset row was selected.
type RowMatch string

const (
	// MatchExact means the row's month and hour equal the requested ones.
	MatchExact RowMatch = "exact"
	// MatchFallback means no row matched and the grid's first row was used.
	MatchFallback RowMatch = "fallback"
)

// PredictionResult is the classifier output for one feature vector.
type PredictionResult struct {
	Class      int     `json:"class"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ConfidencePercent converts a probability to a percentage rounded to two decimals.
func ConfidencePercent(p float64) float64 {
	return math.Round(p*100*100) / 100
}
