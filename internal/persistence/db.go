// Package persistence keeps a write-only SQLite ledger of simulation runs:
// the configuration each run used, its event log and periodic tallies.
// Nothing is ever loaded back into a running simulation.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/talgya/drone-harvest/internal/config"
	"github.com/talgya/drone-harvest/internal/engine"
)

// ErrNoRun is returned by run-scoped writes before StartRun.
var ErrNoRun = errors.New("no run started")

// DB wraps a SQLite connection for the run ledger.
type DB struct {
	conn     *sqlx.DB
	runID    string
	runLabel string
}

// Tally is a point-in-time score line.
type Tally struct {
	Tick      uint64 `db:"tick" json:"tick"`
	Red       int    `db:"red" json:"red"`
	Blue      int    `db:"blue" json:"blue"`
	Collected int    `db:"collected" json:"collected"`
}

// Run is one ledger row per simulation run.
type Run struct {
	ID         string         `db:"id"`
	Label      string         `db:"label"` // Human-friendly name, e.g. "brave-falcon"
	Seed       int64          `db:"seed"`
	StartedAt  string         `db:"started_at"`
	FinishedAt sql.NullString `db:"finished_at"`
	Ticks      uint64         `db:"ticks"`
	Red        int            `db:"red"`
	Blue       int            `db:"blue"`
	Collected  int            `db:"collected"`
	ConfigYAML string         `db:"config_yaml"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		ticks INTEGER NOT NULL DEFAULT 0,
		red INTEGER NOT NULL DEFAULT 0,
		blue INTEGER NOT NULL DEFAULT 0,
		collected INTEGER NOT NULL DEFAULT 0,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tallies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		red INTEGER NOT NULL,
		blue INTEGER NOT NULL,
		collected INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_tallies_run_tick ON tallies(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun opens a new ledger run for the given configuration and makes it
// the target of later writes.
func (db *DB) StartRun(cfg config.Config) (string, error) {
	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	id := uuid.NewString()
	label := petname.Generate(2, "-")
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, label, seed, started_at, config_yaml) VALUES (?, ?, ?, ?, ?)",
		id, label, cfg.Seed, time.Now().UTC().Format(time.RFC3339), string(cfgYAML),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	db.runID = id
	db.runLabel = label
	slog.Info("ledger run started", "run", id, "label", label, "seed", cfg.Seed)
	return id, nil
}

// RunID returns the current run, or "" before StartRun.
func (db *DB) RunID() string {
	return db.runID
}

// RunLabel returns the current run's human-friendly name.
func (db *DB) RunLabel() string {
	return db.runLabel
}

// SaveEvents appends events to the current run.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}
	if db.runID == "" {
		return ErrNoRun
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("INSERT INTO events (run_id, tick, description, category) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(db.runID, e.Tick, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// SaveTally records a score line for the current run.
func (db *DB) SaveTally(t Tally) error {
	if db.runID == "" {
		return ErrNoRun
	}
	_, err := db.conn.Exec(
		"INSERT INTO tallies (run_id, tick, red, blue, collected) VALUES (?, ?, ?, ?, ?)",
		db.runID, t.Tick, t.Red, t.Blue, t.Collected,
	)
	if err != nil {
		return fmt.Errorf("insert tally: %w", err)
	}
	return nil
}

// FinishRun stamps the final tally on the current run.
func (db *DB) FinishRun(t Tally) error {
	if db.runID == "" {
		return ErrNoRun
	}
	if err := db.SaveTally(t); err != nil {
		return err
	}
	_, err := db.conn.Exec(
		`UPDATE runs SET finished_at = ?, ticks = ?, red = ?, blue = ?, collected = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), t.Tick, t.Red, t.Blue, t.Collected, db.runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	slog.Info("ledger run finished", "run", db.runID, "tick", t.Tick, "red", t.Red, "blue", t.Blue)
	return nil
}

// RecentEvents returns the most recent N events of the current run,
// newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		db.runID, limit,
	)
	return events, err
}

// Tallies returns the score lines of the current run in tick order.
func (db *DB) Tallies() ([]Tally, error) {
	var out []Tally
	err := db.conn.Select(&out,
		"SELECT tick, red, blue, collected FROM tallies WHERE run_id = ? ORDER BY id",
		db.runID,
	)
	return out, err
}

// GetRun loads one run row.
func (db *DB) GetRun(id string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", id)
	return r, err
}
