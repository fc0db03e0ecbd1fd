package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the journal to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			tool        TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			duration_ms INTEGER,
			error_kind  TEXT,
			summary     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON analysis_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol ON analysis_runs(symbol, tool)`,

		`CREATE TABLE IF NOT EXISTS trend_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			price         REAL,
			rsi           REAL,
			above_sma50   INTEGER,
			above_sma200  INTEGER,
			rs_score      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trend_symbol_ts ON trend_snapshots(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores one tool invocation. A run without an ID gets a new one.
func (r *SQLiteRecorder) RecordRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.At.IsZero() {
		run.At = time.Now()
	}

	_, err := r.db.Exec(`INSERT INTO analysis_runs
		(id, timestamp, tool, symbol, duration_ms, error_kind, summary)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.At.UnixMilli(), run.Tool, run.Symbol,
		run.Duration.Milliseconds(), run.ErrKind, run.Summary,
	)
	return err
}

// RecordTrend stores one watchlist trend reading
func (r *SQLiteRecorder) RecordTrend(snap *TrendSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := snap.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.Exec(`INSERT INTO trend_snapshots
		(run_id, timestamp, symbol, price, rsi, above_sma50, above_sma200, rs_score)
		VALUES (?,?,?,?,?,?,?,?)`,
		snap.RunID, at.UnixMilli(), snap.Symbol, snap.Price, snap.RSI,
		snap.AboveSMA50, snap.AboveSMA200, snap.RSScore,
	)
	return err
}

// Recent returns the latest runs, newest first
func (r *SQLiteRecorder) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`SELECT id, timestamp, tool, symbol, duration_ms, error_kind, summary
		FROM analysis_runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			ts, durMS  int64
			kind, summ sql.NullString
		)
		if err := rows.Scan(&run.ID, &ts, &run.Tool, &run.Symbol, &durMS, &kind, &summ); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.At = time.UnixMilli(ts)
		run.Duration = time.Duration(durMS) * time.Millisecond
		run.ErrKind = kind.String
		run.Summary = summ.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TrendHistory returns the stored trend readings for a symbol, oldest first
func (r *SQLiteRecorder) TrendHistory(symbol string, limit int) ([]TrendSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(`SELECT run_id, timestamp, symbol, price, rsi, above_sma50, above_sma200, rs_score
		FROM (SELECT * FROM trend_snapshots WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT ?)
		ORDER BY timestamp ASC, id ASC`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query trend: %w", err)
	}
	defer rows.Close()

	var out []TrendSnapshot
	for rows.Next() {
		var (
			s        TrendSnapshot
			ts       int64
			rsi, rs  sql.NullFloat64
			a50, a20 bool
		)
		if err := rows.Scan(&s.RunID, &ts, &s.Symbol, &s.Price, &rsi, &a50, &a20, &rs); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		s.At = time.UnixMilli(ts)
		s.AboveSMA50, s.AboveSMA200 = a50, a20
		if rsi.Valid {
			s.RSI = &rsi.Float64
		}
		if rs.Valid {
			s.RSScore = &rs.Float64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
