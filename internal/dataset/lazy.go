package dataset

import (
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Capability names the dataset in unavailable errors.
const Capability = "historical dataset"

// Lazy loads the table on first use and shares the outcome with every later
// caller. A missing file fails requests, never startup.
type Lazy struct {
	load func() (*Table, error)
}

// NewLazy returns a Lazy over the Parquet file at path.
func NewLazy(path string, logger *slog.Logger) *Lazy {
	return newLazy(path, func() (*Table, error) { return LoadParquet(path) }, logger)
}

func newLazy(path string, load func() (*Table, error), logger *slog.Logger) *Lazy {
	return &Lazy{load: sync.OnceValues(func() (*Table, error) {
		start := time.Now()
		t, err := load()
		if err != nil {
			logger.Warn("historical dataset unavailable", "path", path, "error", err)
			return nil, domain.Unavailable(Capability, err)
		}
		logger.Info("historical dataset loaded",
			"path", path,
			"rows", t.Len(),
			"grids", len(t.GridIDs()),
			"duration", time.Since(start),
		)
		return t, nil
	})}
}

// Table returns the loaded table or an UnavailableError.
func (l *Lazy) Table() (*Table, error) {
	return l.load()
}

// Available loads the table if needed and reports whether it is usable.
func (l *Lazy) Available() bool {
	_, err := l.load()
	return err == nil
}

// Resolve loads the table if needed and delegates to Table.Resolve.
func (l *Lazy) Resolve(gridID int64, month, hour int) (domain.HistoricalRow, domain.RowMatch, error) {
	t, err := l.load()
	if err != nil {
		return domain.HistoricalRow{}, "", err
	}
	return t.Resolve(gridID, month, hour)
}
