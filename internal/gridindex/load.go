package gridindex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Load builds an index from the first path that exists. Missing files are
// skipped; a file that exists but cannot be read is an error.
func Load(paths []string) (*Index, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		return LoadFile(p)
	}
	return nil, fmt.Errorf("%w (tried %s)", ErrNoSource, strings.Join(paths, ", "))
}

// LoadFile builds an index from one file, chosen by extension.
func LoadFile(path string) (*Index, error) {
	var (
		cells []Cell
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		cells, err = readGeoJSON(path)
	case ".parquet", ".geoparquet":
		cells, err = readGeoParquet(path)
	case ".shp":
		cells, err = readShapefile(path)
	default:
		return nil, fmt.Errorf("%s: unsupported grid source format", path)
	}
	if err != nil {
		return nil, err
	}
	return New(path, cells)
}
