package store

import (
	"time"

	"github.com/rs/zerolog"
)

// WipeInterval is the deliberate coarse GC period: every 5 hours both the
// mapping cache and the credit ledger are wiped wholesale, bounding
// memory in the absence of any persistent store for either.
const WipeInterval = 5 * time.Hour

// GC owns the shared wipe timer for a MappingCache/CreditLedger pair.
type GC struct {
	mappings *MappingCache
	credits  *CreditLedger
	log      zerolog.Logger
	stop     chan struct{}
}

// NewGC constructs a GC bound to the given services.
func NewGC(mappings *MappingCache, credits *CreditLedger, log zerolog.Logger) *GC {
	return &GC{mappings: mappings, credits: credits, log: log, stop: make(chan struct{})}
}

// Run blocks, wiping both services every WipeInterval until Stop is
// called. Intended to be launched with `go gc.Run()`.
func (g *GC) Run() {
	ticker := time.NewTicker(WipeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			before := g.mappings.Len()
			g.mappings.Wipe()
			g.credits.Wipe()
			g.log.Info().Int("mappings_evicted", before).Msg("periodic cache wipe")
		case <-g.stop:
			return
		}
	}
}

// Stop ends the Run loop.
func (g *GC) Stop() {
	close(g.stop)
}
