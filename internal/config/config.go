package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"BreakoutSentinel/internal/model"
)

// Config holds all application configuration. It is built once at startup
// and never mutated afterwards.
type Config struct {
	MarketData struct {
		Provider   string        `yaml:"provider"`
		APIKey     string        `yaml:"api_key"`
		BaseURL    string        `yaml:"base_url"`
		Interval   string        `yaml:"interval"`
		OutputSize string        `yaml:"output_size"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"market_data"`
	Market struct {
		Calendar string `yaml:"calendar"`
		Open     string `yaml:"open"`
		Close    string `yaml:"close"`
	} `yaml:"market"`
	Monitor struct {
		Symbols       []string      `yaml:"symbols"`
		PollInterval  time.Duration `yaml:"poll_interval"`
		MaxConcurrent int           `yaml:"max_concurrent"`
		StopAtClose   bool          `yaml:"stop_at_close"`
	} `yaml:"monitor"`
	Notify struct {
		Channel    string   `yaml:"channel"`
		Recipients []string `yaml:"recipients"`
		Subject    string   `yaml:"subject"`
		Email      struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			From     string `yaml:"from"`
		} `yaml:"email"`
		SMS struct {
			AccountSID string `yaml:"account_sid"`
			AuthToken  string `yaml:"auth_token"`
			From       string `yaml:"from"`
			BaseURL    string `yaml:"base_url"`
		} `yaml:"sms"`
		Telegram struct {
			BotToken string `yaml:"bot_token"`
			BaseURL  string `yaml:"base_url"`
		} `yaml:"telegram"`
	} `yaml:"notify"`
	Schedule struct {
		SessionCron string `yaml:"session_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// SupportedIntervals are the intraday granularities the market-data feeds accept.
var SupportedIntervals = []string{"1min", "5min", "15min", "30min", "60min"}

// Load reads config from a YAML file and a .env file, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: read config: %v", model.ErrConfiguration, err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse config: %v", model.ErrConfiguration, err)
		}
	}

	// Credentials usually live in .env next to the binary.
	_ = godotenv.Load()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv("MARKET_DATA_PROVIDER"); v != "" {
		c.MarketData.Provider = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.Notify.Email.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SMTP_PORT %q: %v", model.ErrConfiguration, v, err)
		}
		c.Notify.Email.Port = port
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.Notify.Email.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Notify.Email.Password = v
	}
	if v := os.Getenv("EMAIL_FROM"); v != "" {
		c.Notify.Email.From = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		c.Notify.SMS.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		c.Notify.SMS.AuthToken = v
	}
	if v := os.Getenv("TWILIO_FROM_NUMBER"); v != "" {
		c.Notify.SMS.From = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Notify.Telegram.BotToken = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: POLL_INTERVAL %q: %v", model.ErrConfiguration, v, err)
		}
		c.Monitor.PollInterval = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.MarketData.Provider == "" {
		c.MarketData.Provider = "alphavantage"
	}
	if c.MarketData.BaseURL == "" && c.MarketData.Provider == "alphavantage" {
		c.MarketData.BaseURL = "https://www.alphavantage.co"
	}
	if c.MarketData.Interval == "" {
		c.MarketData.Interval = "15min"
	}
	if c.MarketData.OutputSize == "" {
		c.MarketData.OutputSize = "compact"
	}
	if c.MarketData.Timeout == 0 {
		c.MarketData.Timeout = 30 * time.Second
	}
	if c.Market.Calendar == "" {
		c.Market.Calendar = "xnys"
	}
	if c.Market.Open == "" {
		c.Market.Open = "09:30"
	}
	if c.Market.Close == "" {
		c.Market.Close = "16:00"
	}
	if c.Monitor.PollInterval == 0 {
		c.Monitor.PollInterval = 5 * time.Second
	}
	if c.Notify.Channel == "" {
		c.Notify.Channel = string(model.ChannelEmail)
	}
	if c.Notify.Email.Port == 0 {
		c.Notify.Email.Port = 587
	}
	if c.Notify.SMS.BaseURL == "" {
		c.Notify.SMS.BaseURL = "https://api.twilio.com"
	}
	if c.Notify.Telegram.BaseURL == "" {
		c.Notify.Telegram.BaseURL = "https://api.telegram.org"
	}
	if c.Schedule.SessionCron == "" {
		c.Schedule.SessionCron = "0 45 9 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/breakout_sentinel.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	for i, s := range c.Monitor.Symbols {
		c.Monitor.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

// Validate checks that all required fields are set. Every error wraps
// model.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	return nil
}

// ValidateMarketData checks only what is needed to read market data.
func (c *Config) ValidateMarketData() error {
	if err := c.validateMarketData(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	return nil
}

func (c *Config) validateMarketData() error {
	switch c.MarketData.Provider {
	case "alphavantage":
		if c.MarketData.APIKey == "" {
			return fmt.Errorf("market_data.api_key is required for alphavantage")
		}
	case "yahoo":
	default:
		return fmt.Errorf("unknown market_data.provider %q", c.MarketData.Provider)
	}
	if !IsSupportedInterval(c.MarketData.Interval) {
		return fmt.Errorf("market_data.interval %q must be one of %s",
			c.MarketData.Interval, strings.Join(SupportedIntervals, ", "))
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.validateMarketData(); err != nil {
		return err
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	if c.Monitor.MaxConcurrent < 0 {
		return fmt.Errorf("monitor.max_concurrent cannot be negative")
	}
	if len(c.Notify.Recipients) == 0 {
		return fmt.Errorf("notify.recipients must list at least one recipient")
	}

	channel, err := model.ParseChannel(c.Notify.Channel)
	if err != nil {
		return err
	}
	switch channel {
	case model.ChannelEmail:
		if c.Notify.Email.Host == "" {
			return fmt.Errorf("notify.email.host is required")
		}
		if c.Notify.Email.From == "" {
			return fmt.Errorf("notify.email.from is required")
		}
	case model.ChannelSMS:
		if c.Notify.SMS.AccountSID == "" || c.Notify.SMS.AuthToken == "" {
			return fmt.Errorf("notify.sms.account_sid and notify.sms.auth_token are required")
		}
		if c.Notify.SMS.From == "" {
			return fmt.Errorf("notify.sms.from is required")
		}
	case model.ChannelTelegram:
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token is required")
		}
	}
	return nil
}

// IsSupportedInterval reports whether interval is a known intraday granularity.
func IsSupportedInterval(interval string) bool {
	for _, s := range SupportedIntervals {
		if s == interval {
			return true
		}
	}
	return false
}
