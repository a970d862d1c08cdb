package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"BreakoutSentinel/internal/model"
)

// SQLiteRecorder persists opening ranges to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logrus.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.WithField("component", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Infof("sqlite range cache opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	// Prices are TEXT so decimals round-trip exactly.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS opening_ranges (
			symbol      TEXT NOT NULL,
			trade_date  TEXT NOT NULL,
			interval    TEXT NOT NULL,
			high        TEXT NOT NULL,
			low         TEXT NOT NULL,
			fetched_at  INTEGER NOT NULL,
			PRIMARY KEY (symbol, trade_date, interval)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ranges_date ON opening_ranges(trade_date)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) LookupRange(ctx context.Context, symbol, interval string, day time.Time) (*model.OpeningRange, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var high, low string
	err := r.db.QueryRowContext(ctx,
		`SELECT high, low FROM opening_ranges WHERE symbol = ? AND trade_date = ? AND interval = ?`,
		symbol, day.Format(dateLayout), interval,
	).Scan(&high, &low)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup range: %w", err)
	}

	h, err := decimal.NewFromString(high)
	if err != nil {
		return nil, false, fmt.Errorf("decode cached high %q: %w", high, err)
	}
	l, err := decimal.NewFromString(low)
	if err != nil {
		return nil, false, fmt.Errorf("decode cached low %q: %w", low, err)
	}
	return &model.OpeningRange{Symbol: symbol, Date: day, Interval: interval, High: h, Low: l}, true, nil
}

func (r *SQLiteRecorder) RecordRange(ctx context.Context, or *model.OpeningRange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO opening_ranges
		(symbol, trade_date, interval, high, low, fetched_at)
		VALUES (?,?,?,?,?,?)`,
		or.Symbol, or.Date.Format(dateLayout), or.Interval,
		or.High.String(), or.Low.String(), time.Now().Unix(),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite range cache")
	return r.db.Close()
}
