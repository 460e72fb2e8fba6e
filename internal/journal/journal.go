// Package journal persists processing traces to SQLite so CLI runs can be
// inspected after the fact. The journal is a diagnostics sink: the store's
// model stays purely in memory, and losing the journal loses nothing but
// history.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/conduit/internal/trace"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// Journal provides durable storage for conduit processing traces.
// Uses SQLite with WAL mode for concurrent read access.
type Journal struct {
	db *sql.DB
}

// Open creates or opens a SQLite journal at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// WriteEvent inserts one trace event under the named scenario.
// The event is stored twice over: as columns for querying and as canonical
// JSON for byte-exact reproduction. The row ID is the event's
// content-addressed hash, keyed per scenario, so rewriting the same event
// under the same scenario is idempotent while the same event under a
// different scenario gets its own row.
func (j *Journal) WriteEvent(ctx context.Context, scenario string, e trace.Event) error {
	id, err := trace.EventID(e)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	canonical, err := trace.MarshalEvent(e)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO events
		(id, scenario, seq, token, action, changed, notified, error, canonical)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scenario, id) DO NOTHING
	`,
		id,
		scenario,
		e.Seq,
		e.Token,
		e.Action,
		e.Changed,
		e.Notified,
		e.Error,
		string(canonical),
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// WriteSnapshot writes every event of a trace in one transaction.
func (j *Journal) WriteSnapshot(ctx context.Context, s trace.Snapshot) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, e := range s.Events {
		id, err := trace.EventID(e)
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		canonical, err := trace.MarshalEvent(e)
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events
			(id, scenario, seq, token, action, changed, notified, error, canonical)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(scenario, id) DO NOTHING
		`,
			id,
			s.Scenario,
			e.Seq,
			e.Token,
			e.Action,
			e.Changed,
			e.Notified,
			e.Error,
			string(canonical),
		)
		if err != nil {
			return fmt.Errorf("write snapshot: insert seq %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write snapshot: commit: %w", err)
	}

	return nil
}

// ReadEvents returns the events recorded for a scenario in processing
// order. Args are not reconstructed; callers needing them parse the
// canonical JSON column via ReadCanonical.
func (j *Journal) ReadEvents(ctx context.Context, scenario string) ([]trace.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, token, action, changed, notified, error
		FROM events
		WHERE scenario = ?
		ORDER BY seq ASC
	`, scenario)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []trace.Event
	for rows.Next() {
		var e trace.Event
		if err := rows.Scan(&e.Seq, &e.Token, &e.Action, &e.Changed, &e.Notified, &e.Error); err != nil {
			return nil, fmt.Errorf("read events: scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}

	return events, nil
}

// ReadCanonical returns the canonical JSON rows for a scenario in
// processing order, for byte-exact comparison against a live trace.
func (j *Journal) ReadCanonical(ctx context.Context, scenario string) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT canonical FROM events
		WHERE scenario = ?
		ORDER BY seq ASC
	`, scenario)
	if err != nil {
		return nil, fmt.Errorf("read canonical: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("read canonical: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read canonical: %w", err)
	}

	return out, nil
}

// Scenarios lists the distinct scenario names present in the journal.
func (j *Journal) Scenarios(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT DISTINCT scenario FROM events ORDER BY scenario ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("list scenarios: scan: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}

	return names, nil
}

// Verify recomputes each event's content hash from its columns and checks
// it against the stored row ID. A mismatch means the row was edited after
// being written.
func (j *Journal) Verify(ctx context.Context, scenario string) error {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, canonical FROM events
		WHERE scenario = ?
		ORDER BY seq ASC
	`, scenario)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, canonical string
		if err := rows.Scan(&id, &canonical); err != nil {
			return fmt.Errorf("verify: scan: %w", err)
		}
		if got := trace.HashCanonical([]byte(canonical)); got != id {
			return fmt.Errorf("verify: event %s: stored hash does not match content (%s)", id, got)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}
