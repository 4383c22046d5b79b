package domain

import "time"

// Bounds is a latitude/longitude box, inclusive on all edges.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether c lies inside the box.
func (b Bounds) Contains(c Coordinates) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLon && c.Longitude <= b.MaxLon
}

// Region describes the area the grid and model cover.
type Region struct {
	Name          string
	Location      *time.Location
	Bounds        Bounds
	EnforceBounds bool
}

// DelhiBounds is the rough extent of the National Capital Territory.
var DelhiBounds = Bounds{MinLat: 28.4, MaxLat: 28.9, MinLon: 76.8, MaxLon: 77.3}

// CheckCoordinates validates c globally and, when the region enforces its
// bounds, rejects points outside it.
func (r Region) CheckCoordinates(c Coordinates) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if r.EnforceBounds && !r.Bounds.Contains(c) {
		return Invalidf("Coordinates appear to be outside %s region", r.displayName())
	}
	return nil
}

// CurrentTime returns the current calendar components in the region's zone.
func (r Region) CurrentTime() TimeComponents {
	return TimeComponentsAt(Now(r.Location))
}

func (r Region) displayName() string {
	if r.Name == "" {
		return "the configured"
	}
	return r.Name
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Coordinates {
	return Coordinates{
		Latitude:  (b.MinLat + b.MaxLat) / 2,
		Longitude: (b.MinLon + b.MaxLon) / 2,
	}
}
