package domain

import "math"

// Seasons used by the heuristic: monsoon is July–September, the shoulder
// months are June and October.
func isMonsoon(month int) bool  { return month >= 7 && month <= 9 }
func isShoulder(month int) bool { return month == 6 || month == 10 }

// DeriveFeatures approximates the continuous features for a point in the Delhi
// grid when no dataset row or sensor feed is available. It is a pure function
// of position and calendar month. Thresholds are part of the contract with the
// trained model and must stay as written.
func DeriveFeatures(lat, lon float64, month int) ContinuousFeatures {
	elevation := deriveElevation(lat, lon)

	roadDensity := 0.3
	switch {
	case lat >= 28.6 && lat <= 28.7 && lon >= 77.1 && lon <= 77.3:
		roadDensity = 0.8
	case lat >= 28.55 && lat <= 28.75 && lon >= 77.05 && lon <= 77.35:
		roadDensity = 0.6
	}

	var rain, rainPast3h float64
	switch {
	case isMonsoon(month):
		rain, rainPast3h = 15.0, 8.0
	case isShoulder(month):
		rain, rainPast3h = 8.0, 4.0
	default:
		rain, rainPast3h = 2.0, 1.0
	}

	drain := 0.5
	if elevation < 210 {
		drain = 1.2
	}
	if isMonsoon(month) {
		drain *= 1.5
	}

	soil := 0.3
	switch {
	case isMonsoon(month):
		soil = 0.7
	case isShoulder(month):
		soil = 0.5
	}
	if elevation < 210 {
		soil = math.Min(1.0, soil+0.2)
	}

	return ContinuousFeatures{
		Elevation:       elevation,
		RoadDensity:     roadDensity,
		RainMM:          rain,
		RainPast3h:      rainPast3h,
		DrainWaterLevel: drain,
		SoilMoisture:    soil,
	}
}

// deriveElevation is higher in the south and west of the city, clamped to [180, 250] m.
func deriveElevation(lat, lon float64) float64 {
	base := 200.0
	if lat < 28.6 {
		base += 20
	}
	if lon < 77.1 {
		base += 10
	}
	e := base + (lat-28.6)*50 + (lon-77.1)*30
	return math.Max(180, math.Min(250, e))
}
