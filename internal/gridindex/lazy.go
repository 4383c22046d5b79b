package gridindex

import (
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Capability names the grid index in unavailable errors.
const Capability = "grid index"

// Lazy loads the index on first use and shares the outcome, including a load
// failure, with every later caller. There is no reload path.
type Lazy struct {
	load func() (*Index, error)
}

// NewLazy returns a Lazy that reads the first existing file among paths.
func NewLazy(paths []string, logger *slog.Logger) *Lazy {
	return newLazy(func() (*Index, error) { return Load(paths) }, logger)
}

func newLazy(load func() (*Index, error), logger *slog.Logger) *Lazy {
	return &Lazy{load: sync.OnceValues(func() (*Index, error) {
		start := time.Now()
		ix, err := load()
		if err != nil {
			logger.Warn("grid index unavailable", "error", err)
			return nil, domain.Unavailable(Capability, err)
		}
		logger.Info("grid index loaded",
			"source", ix.Source(),
			"cells", ix.Len(),
			"duration", time.Since(start),
		)
		return ix, nil
	})}
}

// Index returns the loaded index or an UnavailableError.
func (l *Lazy) Index() (*Index, error) {
	return l.load()
}

// Available loads the index if needed and reports whether it is usable.
func (l *Lazy) Available() bool {
	_, err := l.load()
	return err == nil
}

// LookupGridID returns the containing cell's Grid_ID, or false on a miss.
func (l *Lazy) LookupGridID(lat, lon float64) (int64, bool, error) {
	ix, err := l.load()
	if err != nil {
		return 0, false, err
	}
	id, ok := ix.Lookup(lat, lon)
	return id, ok, nil
}
