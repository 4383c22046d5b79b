package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // region zones must resolve on hosts without zoneinfo

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// regionFile is the YAML shape of a region profile.
type regionFile struct {
	Name          string `yaml:"name"`
	Timezone      string `yaml:"timezone"`
	EnforceBounds *bool  `yaml:"enforce_bounds"`
	Bounds        *struct {
		MinLat float64 `yaml:"min_lat"`
		MaxLat float64 `yaml:"max_lat"`
		MinLon float64 `yaml:"min_lon"`
		MaxLon float64 `yaml:"max_lon"`
	} `yaml:"bounds"`
}

const (
	defaultRegionName     = "Delhi"
	defaultRegionTimezone = "Asia/Kolkata"
)

// DefaultRegion is the built-in Delhi profile.
func DefaultRegion() (domain.Region, error) {
	loc, err := time.LoadLocation(defaultRegionTimezone)
	if err != nil {
		return domain.Region{}, fmt.Errorf("load time zone %s: %w", defaultRegionTimezone, err)
	}
	return domain.Region{
		Name:          defaultRegionName,
		Location:      loc,
		Bounds:        domain.DelhiBounds,
		EnforceBounds: true,
	}, nil
}

// LoadRegion reads a YAML region profile. Omitted keys keep the Delhi defaults.
func LoadRegion(path string) (domain.Region, error) {
	region, err := DefaultRegion()
	if err != nil {
		return region, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return region, fmt.Errorf("read region file: %w", err)
	}
	var f regionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return region, fmt.Errorf("parse region file %s: %w", path, err)
	}

	if f.Name != "" {
		region.Name = f.Name
	}
	if f.Timezone != "" {
		loc, err := time.LoadLocation(f.Timezone)
		if err != nil {
			return region, fmt.Errorf("region timezone %q: %w", f.Timezone, err)
		}
		region.Location = loc
	}
	if f.EnforceBounds != nil {
		region.EnforceBounds = *f.EnforceBounds
	}
	if b := f.Bounds; b != nil {
		region.Bounds = domain.Bounds{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLon: b.MinLon, MaxLon: b.MaxLon}
	}
	if region.Bounds.MinLat >= region.Bounds.MaxLat || region.Bounds.MinLon >= region.Bounds.MaxLon {
		return region, errors.New("region bounds must have min below max")
	}
	return region, nil
}
