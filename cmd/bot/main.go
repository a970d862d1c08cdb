package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"BreakoutSentinel/internal/collector"
	"BreakoutSentinel/internal/config"
	"BreakoutSentinel/internal/logger"
	"BreakoutSentinel/internal/marketday"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/notifier"
	"BreakoutSentinel/internal/recorder"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the components shared by every command.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	exchange  *marketday.Exchange
	collector *collector.Collector
	recorder  recorder.Recorder
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// loadConfig reads the config and sets up logging. Nothing else is built.
func loadConfig(path string) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// newApp wires the market-data side: exchange, fetcher, range cache and collector.
// cfg must already be validated.
func newApp(cfg *config.Config, log *logrus.Logger) (*app, error) {
	ex, err := marketday.NewExchange(cfg.Market.Calendar, cfg.Market.Open, cfg.Market.Close)
	if err != nil {
		return nil, err
	}
	if ex.Fallback {
		log.Warnf("calendar %q unknown, using %s", cfg.Market.Calendar, ex.Loc)
	}

	var fetcher collector.Fetcher
	switch cfg.MarketData.Provider {
	case "yahoo":
		fetcher = collector.NewYahooFetcher()
	default:
		fetcher = collector.NewAlphaVantageFetcher(cfg.MarketData.BaseURL, cfg.MarketData.APIKey,
			cfg.MarketData.OutputSize, cfg.Proxy, cfg.MarketData.Timeout, ex.Loc)
	}
	log.Infof("data source: %s", fetcher.Name())

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warnf("init sqlite range cache failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	return &app{
		cfg:       cfg,
		log:       log,
		exchange:  ex,
		collector: collector.NewCollector(fetcher, ex, rec, log),
		recorder:  rec,
	}, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		a.log.Warnf("close range cache: %v", err)
	}
}

// newDispatcher registers the sender for the selected channel only.
func (a *app) newDispatcher(channel model.Channel) (*notifier.Dispatcher, error) {
	n := a.cfg.Notify
	var s notifier.Sender
	switch channel {
	case model.ChannelEmail:
		s = notifier.NewEmailSender(n.Email.Host, n.Email.Port, n.Email.Username, n.Email.Password, n.Email.From)
	case model.ChannelSMS:
		s = notifier.NewSMSSender(n.SMS.BaseURL, n.SMS.AccountSID, n.SMS.AuthToken, n.SMS.From, a.cfg.Proxy)
	case model.ChannelTelegram:
		s = notifier.NewTelegramSender(n.Telegram.BaseURL, n.Telegram.BotToken, a.cfg.Proxy)
	default:
		return nil, fmt.Errorf("%w: unknown channel %q", model.ErrConfiguration, channel)
	}
	return notifier.NewDispatcher(a.log, s), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
