package recorder

import (
	"context"
	"time"

	"BreakoutSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) LookupRange(_ context.Context, _, _ string, _ time.Time) (*model.OpeningRange, bool, error) {
	return nil, false, nil
}
func (n *NoopRecorder) RecordRange(_ context.Context, _ *model.OpeningRange) error { return nil }
func (n *NoopRecorder) Close() error                                               { return nil }
