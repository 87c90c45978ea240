package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS update_runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at    INTEGER NOT NULL,
			duration_ms   INTEGER,
			outcome       TEXT NOT NULL,
			last_before   TEXT,
			last_after    TEXT,
			source_a_days INTEGER,
			source_b_bars INTEGER,
			batch_size    INTEGER,
			incomplete    INTEGER,
			series_size   INTEGER,
			error         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON update_runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO update_runs
		(started_at, duration_ms, outcome, last_before, last_after,
		 source_a_days, source_b_bars, batch_size, incomplete, series_size, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		evt.StartedAt.Unix(), evt.Duration.Milliseconds(), evt.Outcome,
		evt.LastBefore, evt.LastAfter,
		evt.SourceADays, evt.SourceBBars, evt.BatchSize, evt.Incomplete, evt.SeriesSize,
		evt.Error,
	)
	return err
}

// countRuns returns how many runs ended with outcome; an empty outcome counts all.
func (r *SQLiteRecorder) countRuns(outcome string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	var err error
	if outcome == "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM update_runs`).Scan(&n)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM update_runs WHERE outcome = ?`, outcome).Scan(&n)
	}
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
