package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"BreakoutSentinel/internal/marketday"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/notifier"
	"BreakoutSentinel/internal/orchestrator"
)

// Runner runs one monitoring session over a symbol set.
type Runner interface {
	Run(ctx context.Context, symbols []string, interval string, channel model.Channel, recipients []string) map[string]model.MonitorSession
}

// Session is what every scheduled firing monitors.
type Session struct {
	Symbols     []string
	Interval    string
	Channel     model.Channel
	Recipients  []string
	StopAtClose bool
}

// Scheduler starts a monitoring session on a cron schedule in the exchange
// timezone. A firing is skipped while the previous session is still running.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Exchange *marketday.Exchange
	Ctx      context.Context

	// OnDone receives the result of every completed session.
	OnDone func([]model.MonitorSession)

	mu      sync.Mutex
	session Session
	running atomic.Bool
	log     *logrus.Entry
	now     func() time.Time
}

// NewScheduler creates a Scheduler. ctx bounds every session it starts.
func NewScheduler(ctx context.Context, runner Runner, ex *marketday.Exchange, session Session, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(ex.Loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		Runner:   runner,
		Exchange: ex,
		Ctx:      ctx,
		session:  session,
		log:      log.WithField("component", "scheduler"),
		now:      time.Now,
	}
}

// Register adds the session task under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.sessionTask); err != nil {
		return fmt.Errorf("%w: register session task %q: %v", model.ErrConfiguration, spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	if entries := s.Cron.Entries(); len(entries) > 0 {
		s.log.Infof("scheduler started, next session at %s", entries[0].Next.Format(time.RFC3339))
	} else {
		s.log.Info("scheduler started")
	}
}

// Stop stops the scheduler and waits for a running session to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// SetSession replaces what later firings monitor. A running session is not affected.
func (s *Scheduler) SetSession(session Session) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	s.log.Infof("session updated: %d symbol(s), interval %s", len(session.Symbols), session.Interval)
}

// Session returns what the next firing will monitor.
func (s *Scheduler) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// RunNow executes one session immediately. It returns nil without running
// when a session, scheduled or manual, is already in progress.
func (s *Scheduler) RunNow() []model.MonitorSession {
	return s.runSession()
}

func (s *Scheduler) sessionTask() {
	s.runSession()
}

func (s *Scheduler) runSession() []model.MonitorSession {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("previous session still running, skipped")
		return nil
	}
	defer s.running.Store(false)

	session := s.Session()
	now := s.now()
	if !marketday.IsMarketDay(s.Exchange.Day(now)) {
		s.log.Infof("%s is not a market day, session skipped", now.In(s.Exchange.Loc).Format("Mon 2006-01-02"))
		return nil
	}

	ctx := s.Ctx
	if session.StopAtClose {
		closeAt := s.Exchange.CloseAt(now)
		if !now.Before(closeAt) {
			s.log.Infof("market already closed at %s, session skipped", closeAt.Format("15:04 MST"))
			return nil
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, closeAt)
		defer cancel()
		s.log.Infof("session will stop at market close %s", closeAt.Format("15:04 MST"))
	}

	s.log.Infof("running monitoring session for %d symbol(s)", len(session.Symbols))
	res := orchestrator.Sorted(s.Runner.Run(ctx, session.Symbols, session.Interval, session.Channel, session.Recipients))
	s.log.Info("\n" + notifier.FormatSummary(res))
	if s.OnDone != nil {
		s.OnDone(res)
	}
	return res
}
