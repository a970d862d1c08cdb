package recorder

import (
	"context"
	"time"

	"BreakoutSentinel/internal/model"
)

// Recorder caches fetched opening ranges so a restarted session on the same
// market day does not spend market-data quota fetching them again. It never
// stores breakout events.
type Recorder interface {
	// LookupRange returns the cached range for (symbol, interval, day), or
	// found=false when nothing is cached.
	LookupRange(ctx context.Context, symbol, interval string, day time.Time) (r *model.OpeningRange, found bool, err error)
	RecordRange(ctx context.Context, r *model.OpeningRange) error
	Close() error
}

const dateLayout = "2006-01-02"
