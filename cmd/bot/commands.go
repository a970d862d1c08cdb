package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"BreakoutSentinel/internal/config"
	"BreakoutSentinel/internal/marketday"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/notifier"
	"BreakoutSentinel/internal/orchestrator"
	"BreakoutSentinel/internal/scheduler"
)

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:   "breakout-sentinel",
		Short: "Opening range breakout monitor",
		Long: `Watches a set of symbols after the market open and sends a single alert
per symbol when its price leaves the range of the first intraday bar.`,
		Version:      "1.0.0",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath(), "path to config.yaml")

	root.AddCommand(newRunCmd(&cfgPath), newWatchCmd(&cfgPath), newRangeCmd(&cfgPath))
	return root
}

type sessionFlags struct {
	channel  string
	to       []string
	interval string
	date     string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.channel, "channel", "", "alert channel: email, sms or telegram")
	cmd.Flags().StringSliceVar(&f.to, "to", nil, "alert recipients (comma separated)")
	cmd.Flags().StringVar(&f.interval, "interval", "", "intraday interval: "+strings.Join(config.SupportedIntervals, ", "))
}

// apply overrides the config with flags and positional symbols, then validates.
func (f *sessionFlags) apply(cfg *config.Config, symbols []string) (model.Channel, error) {
	if len(symbols) > 0 {
		cfg.Monitor.Symbols = symbols
	}
	if f.channel != "" {
		cfg.Notify.Channel = f.channel
	}
	if len(f.to) > 0 {
		cfg.Notify.Recipients = f.to
	}
	if f.interval != "" {
		cfg.MarketData.Interval = f.interval
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if len(cfg.Monitor.Symbols) == 0 {
		return "", fmt.Errorf("%w: no symbols to monitor", model.ErrConfiguration)
	}
	return model.ParseChannel(cfg.Notify.Channel)
}

func newRunCmd(cfgPath *string) *cobra.Command {
	var flags sessionFlags
	cmd := &cobra.Command{
		Use:   "run [SYMBOL...]",
		Short: "Monitor symbols until each breaks out or fails",
		Long: `Fetches the opening range of every symbol, then polls the current price
until it leaves the range. Symbols default to monitor.symbols from the config.
Per-symbol failures are reported in the summary and do not fail the command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			channel, err := flags.apply(cfg, args)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			asOf, err := parseDate(flags.date, a.exchange)
			if err != nil {
				return err
			}
			d, err := a.newDispatcher(channel)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()
			if closeAt := a.exchange.CloseAt(time.Now()); cfg.Monitor.StopAtClose && time.Now().Before(closeAt) {
				var cancel context.CancelFunc
				ctx, cancel = context.WithDeadline(ctx, closeAt)
				defer cancel()
			}

			out := cmd.OutOrStdout()
			p := &progress{out: out}
			o := orchestrator.New(a.collector, a.collector, d, orchestrator.Options{
				PollInterval:  cfg.Monitor.PollInterval,
				Subject:       cfg.Notify.Subject,
				MaxConcurrent: cfg.Monitor.MaxConcurrent,
				AsOf:          asOf,
				OnUpdate:      p.update,
			}, log)

			res := o.Run(ctx, cfg.Monitor.Symbols, cfg.MarketData.Interval, channel, cfg.Notify.Recipients)
			fmt.Fprintln(out)
			fmt.Fprint(out, notifier.FormatSummary(orchestrator.Sorted(res)))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.date, "date", "", "resolve the opening range as of YYYY-MM-DD (default today)")
	return cmd
}

func newWatchCmd(cfgPath *string) *cobra.Command {
	var (
		flags sessionFlags
		now   bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run a monitoring session every market morning",
		Long: `Starts a monitoring session on schedule.session_cron, evaluated in the
exchange timezone. Edits to symbols, recipients and interval in the config
file apply from the next session. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			channel, err := flags.apply(cfg, nil)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()
			d, err := a.newDispatcher(channel)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			o := orchestrator.New(a.collector, a.collector, d, orchestrator.Options{
				PollInterval:  cfg.Monitor.PollInterval,
				Subject:       cfg.Notify.Subject,
				MaxConcurrent: cfg.Monitor.MaxConcurrent,
			}, log)
			sched := scheduler.NewScheduler(ctx, o, a.exchange, scheduler.Session{
				Symbols:     cfg.Monitor.Symbols,
				Interval:    cfg.MarketData.Interval,
				Channel:     channel,
				Recipients:  cfg.Notify.Recipients,
				StopAtClose: cfg.Monitor.StopAtClose,
			}, log)
			out := cmd.OutOrStdout()
			sched.OnDone = func(res []model.MonitorSession) { fmt.Fprint(out, notifier.FormatSummary(res)) }
			if err := sched.Register(cfg.Schedule.SessionCron); err != nil {
				return err
			}
			err = config.Watch(ctx, *cfgPath, 500*time.Millisecond, log, func(next *config.Config) {
				ch, err := flags.apply(next, nil)
				if err != nil {
					log.Warnf("reloaded config rejected: %v", err)
					return
				}
				if ch != channel {
					log.Warnf("channel change to %s needs a restart, keeping %s", ch, channel)
					return
				}
				sched.SetSession(scheduler.Session{
					Symbols:     next.Monitor.Symbols,
					Interval:    next.MarketData.Interval,
					Channel:     channel,
					Recipients:  next.Notify.Recipients,
					StopAtClose: next.Monitor.StopAtClose,
				})
			})
			if err != nil {
				log.Warnf("config hot reload disabled: %v", err)
			}

			sched.Start()
			defer sched.Stop()

			if now || os.Getenv("RUN_ON_START") == "true" {
				log.Info("running a session now")
				go sched.RunNow()
			}

			log.Info("BreakoutSentinel is running. Press Ctrl+C to stop.")
			<-ctx.Done()
			log.Info("shutdown signal received, stopping...")
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&now, "now", false, "also run a session immediately")
	return cmd
}

func newRangeCmd(cfgPath *string) *cobra.Command {
	var interval, date string
	cmd := &cobra.Command{
		Use:   "range SYMBOL",
		Short: "Print the opening range of a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if interval != "" {
				cfg.MarketData.Interval = interval
			}
			if err := cfg.ValidateMarketData(); err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			asOf, err := parseDate(date, a.exchange)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			symbol := strings.ToUpper(strings.TrimSpace(args[0]))
			r, err := a.collector.FetchOpeningRange(ctx, symbol, cfg.MarketData.Interval, asOf)
			if err != nil {
				return fmt.Errorf("opening range for %s: %w", symbol, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatRange(r))
			return nil
		},
	}
	cmd.Flags().StringVar(&interval, "interval", "", "intraday interval: "+strings.Join(config.SupportedIntervals, ", "))
	cmd.Flags().StringVar(&date, "date", "", "resolve the opening range as of YYYY-MM-DD (default today)")
	return cmd
}

// parseDate reads YYYY-MM-DD in the exchange timezone. Empty means now.
func parseDate(s string, ex *marketday.Exchange) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, ex.Loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --date %q: %v", model.ErrConfiguration, s, err)
	}
	return t, nil
}

// progress streams one line per status change. Updates come from many goroutines.
type progress struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *progress) update(s model.MonitorSession) {
	var line string
	switch {
	case s.Status == model.StatusMonitoring:
		line = fmt.Sprintf("opening range %s-%s on %s, monitoring",
			s.Range.Low.StringFixed(2), s.Range.High.StringFixed(2), s.Range.Date.Format("2006-01-02"))
	case s.Status == model.StatusAlertSent:
		line = fmt.Sprintf("breakout %s at %s, alert sent",
			strings.ToLower(string(s.Event.Direction)), s.Event.TriggerPrice.StringFixed(2))
	case s.Event != nil:
		line = fmt.Sprintf("breakout %s at %s, alert failed: %v",
			strings.ToLower(string(s.Event.Direction)), s.Event.TriggerPrice.StringFixed(2), s.Err)
	case s.Range == nil:
		line = fmt.Sprintf("opening range unavailable: %v", s.Err)
	default:
		line = fmt.Sprintf("stopped after %d poll(s): %v", s.Polls, s.Err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %-8s %s\n", time.Now().Format("15:04:05"), s.Symbol, line)
}
