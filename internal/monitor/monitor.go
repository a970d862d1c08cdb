package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"BreakoutSentinel/internal/calculator"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/notifier"
)

// PriceSource samples the current price of a symbol.
type PriceSource interface {
	FetchCurrentPrice(ctx context.Context, symbol string) (model.PriceSample, error)
}

// Notifier delivers an alert to every recipient on a channel.
type Notifier interface {
	Deliver(ctx context.Context, msg notifier.Message, channel model.Channel, recipients []string) error
}

// Clock provides the wait between polls. Tests substitute a fake.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// State is the monitor's position in its state machine.
type State string

const (
	StatePending          State = "PENDING"
	StatePolling          State = "POLLING"
	StateAlertDispatching State = "ALERT_DISPATCHING"
	StateTerminated       State = "TERMINATED"
)

// DefaultDeliveryTimeout bounds an alert broadcast when Settings leaves it unset.
const DefaultDeliveryTimeout = time.Minute

// Settings is the read-only configuration shared by every monitor of a run.
type Settings struct {
	PollInterval    time.Duration
	Channel         model.Channel
	Recipients      []string
	Subject         string
	DeliveryTimeout time.Duration
}

// Result is the terminal outcome of a monitor.
type Result struct {
	Status model.Status // AlertSent or Failed
	Event  *model.BreakoutEvent
	Polls  int
	Err    error
}

// SymbolMonitor polls one symbol until its price leaves the opening range,
// then dispatches a single alert and stops. A monitor runs once.
type SymbolMonitor struct {
	rng      model.OpeningRange
	prices   PriceSource
	notifier Notifier
	clock    Clock
	settings Settings
	log      *logrus.Entry

	state State
	polls int
}

// New creates a monitor for the symbol of r.
func New(r model.OpeningRange, prices PriceSource, n Notifier, settings Settings, log *logrus.Logger) *SymbolMonitor {
	return &SymbolMonitor{
		rng:      r,
		prices:   prices,
		notifier: n,
		clock:    realClock{},
		settings: settings,
		log:      log.WithFields(logrus.Fields{"component": "monitor", "symbol": r.Symbol}),
		state:    StatePending,
	}
}

// WithClock replaces the wall clock used between polls.
func (m *SymbolMonitor) WithClock(c Clock) *SymbolMonitor {
	m.clock = c
	return m
}

// State reports the current state. Only safe to call from the goroutine
// running the monitor or after Run returns.
func (m *SymbolMonitor) State() State { return m.state }

// Run drives the monitor to a terminal state. Polls are strictly sequential.
// A price-fetch error aborts monitoring without retry; a cancelled context
// abandons the current poll and never sends an alert; a broadcast already
// under way runs to completion.
func (m *SymbolMonitor) Run(ctx context.Context) Result {
	if m.state != StatePending {
		return Result{Status: model.StatusFailed, Polls: m.polls, Err: errors.New("monitor already ran")}
	}
	m.state = StatePolling
	m.log.Infof("monitoring started: range %s-%s, polling every %s",
		m.rng.Low.StringFixed(2), m.rng.High.StringFixed(2), m.settings.PollInterval)

	for {
		if err := ctx.Err(); err != nil {
			return m.cancelled(err)
		}

		sample, err := m.prices.FetchCurrentPrice(ctx, m.rng.Symbol)
		m.polls++
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return m.cancelled(ctxErr)
			}
			m.log.Errorf("price fetch failed after %d poll(s), monitoring aborted: %v", m.polls, err)
			return m.terminate(model.StatusFailed, nil, err)
		}

		c := calculator.Classify(sample.Price, m.rng)
		m.log.Debugf("poll %d: price %s -> %s", m.polls, sample.Price.StringFixed(2), c)
		if c != model.NoBreakout {
			if err := ctx.Err(); err != nil {
				return m.cancelled(err)
			}
			return m.dispatch(ctx, calculator.NewBreakoutEvent(c, sample, m.rng))
		}

		select {
		case <-ctx.Done():
			return m.cancelled(ctx.Err())
		case <-m.clock.After(m.settings.PollInterval):
		}
	}
}

func (m *SymbolMonitor) dispatch(ctx context.Context, evt *model.BreakoutEvent) Result {
	m.state = StateAlertDispatching
	m.log.WithField("direction", evt.Direction).
		Infof("breakout detected: price %s crossed %s", evt.TriggerPrice.StringFixed(2), evt.RangeBoundary.StringFixed(2))

	// Once started, a broadcast is not cut short by cancellation: every
	// recipient gets the alert or none do.
	timeout := m.settings.DeliveryTimeout
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	msg := notifier.FormatBreakoutAlert(evt, &m.rng, m.settings.Subject)
	if err := m.notifier.Deliver(dctx, msg, m.settings.Channel, m.settings.Recipients); err != nil {
		m.log.Errorf("alert failed: %v", err)
		return m.terminate(model.StatusFailed, evt, err)
	}
	m.log.Infof("alert sent via %s", m.settings.Channel)
	return m.terminate(model.StatusAlertSent, evt, nil)
}

func (m *SymbolMonitor) cancelled(cause error) Result {
	m.log.Warnf("monitoring cancelled after %d poll(s)", m.polls)
	return m.terminate(model.StatusFailed, nil, fmt.Errorf("%w: %v", model.ErrCancelled, cause))
}

func (m *SymbolMonitor) terminate(status model.Status, evt *model.BreakoutEvent, err error) Result {
	m.state = StateTerminated
	return Result{Status: status, Event: evt, Polls: m.polls, Err: err}
}
