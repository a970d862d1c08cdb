package orchestrator

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/monitor"
)

// RangeSource resolves a symbol's opening range for the market day at or
// before asOf.
type RangeSource interface {
	FetchOpeningRange(ctx context.Context, symbol, interval string, asOf time.Time) (*model.OpeningRange, error)
}

// Options is the read-only configuration shared by every monitor of a run.
type Options struct {
	PollInterval  time.Duration
	Subject       string
	MaxConcurrent int       // 0 means one task per symbol; queued symbols stay PENDING
	AsOf          time.Time // zero means now

	// OnUpdate, when set, is called each time a symbol changes status.
	// It may be called from several goroutines at once.
	OnUpdate func(model.MonitorSession)
}

// Orchestrator acquires opening ranges and runs one SymbolMonitor per symbol.
type Orchestrator struct {
	ranges   RangeSource
	prices   monitor.PriceSource
	notifier monitor.Notifier
	opts     Options
	clock    monitor.Clock
	log      *logrus.Logger
	now      func() time.Time
}

// New creates an Orchestrator.
func New(ranges RangeSource, prices monitor.PriceSource, n monitor.Notifier, opts Options, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		ranges:   ranges,
		prices:   prices,
		notifier: n,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// WithClock sets the clock handed to every monitor.
func (o *Orchestrator) WithClock(c monitor.Clock) *Orchestrator {
	o.clock = c
	return o
}

// Run monitors every symbol until each reaches a terminal status or ctx is
// cancelled. A failure for one symbol never affects the others; the returned
// map has an entry for every distinct symbol.
func (o *Orchestrator) Run(ctx context.Context, symbols []string, interval string, channel model.Channel, recipients []string) map[string]model.MonitorSession {
	symbols = normalize(symbols)
	sessions := make([]model.MonitorSession, len(symbols))
	for i, sym := range symbols {
		sessions[i] = model.MonitorSession{Symbol: sym, Status: model.StatusPending}
	}

	asOf := o.opts.AsOf
	if asOf.IsZero() {
		asOf = o.now()
	}
	log := o.log.WithField("component", "orchestrator")
	log.Infof("session started: %d symbol(s), interval %s, channel %s", len(symbols), interval, channel)

	// Phase 1: ranges. Each task writes only its own slot.
	var acquire errgroup.Group
	acquire.SetLimit(o.limit())
	for i := range sessions {
		s := &sessions[i]
		acquire.Go(func() error {
			r, err := o.ranges.FetchOpeningRange(ctx, s.Symbol, interval, asOf)
			if err != nil {
				log.WithField("symbol", s.Symbol).Errorf("opening range unavailable, symbol skipped: %v", err)
				s.Status, s.Err = model.StatusFailed, err
				o.notify(*s)
				return nil
			}
			s.Range = r
			return nil
		})
	}
	_ = acquire.Wait()

	// Phase 2: one monitor per symbol that has a range. A symbol is reported
	// MONITORING only once its monitor holds a slot.
	settings := monitor.Settings{
		PollInterval: o.opts.PollInterval,
		Channel:      channel,
		Recipients:   recipients,
		Subject:      o.opts.Subject,
	}
	var watch errgroup.Group
	watch.SetLimit(o.limit())
	for i := range sessions {
		s := &sessions[i]
		if s.Range == nil {
			continue
		}
		m := monitor.New(*s.Range, o.prices, o.notifier, settings, o.log)
		if o.clock != nil {
			m.WithClock(o.clock)
		}
		watch.Go(func() error {
			s.Status = model.StatusMonitoring
			o.notify(*s)
			res := m.Run(ctx)
			s.Status, s.Event, s.Polls, s.Err = res.Status, res.Event, res.Polls, res.Err
			o.notify(*s)
			return nil
		})
	}
	_ = watch.Wait()

	out := make(map[string]model.MonitorSession, len(sessions))
	sent, failed := 0, 0
	for _, s := range sessions {
		out[s.Symbol] = s
		switch s.Status {
		case model.StatusAlertSent:
			sent++
		case model.StatusFailed:
			failed++
		}
	}
	log.Infof("session finished: %d alert(s) sent, %d symbol(s) failed", sent, failed)
	return out
}

// Sorted returns the sessions of a Run result ordered by symbol.
func Sorted(results map[string]model.MonitorSession) []model.MonitorSession {
	out := make([]model.MonitorSession, 0, len(results))
	for _, s := range results {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (o *Orchestrator) limit() int {
	if o.opts.MaxConcurrent <= 0 {
		return -1
	}
	return o.opts.MaxConcurrent
}

func (o *Orchestrator) notify(s model.MonitorSession) {
	if o.opts.OnUpdate != nil {
		o.opts.OnUpdate(s)
	}
}

func normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}
