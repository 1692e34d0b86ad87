// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/crewlog/pkg/pipeline"
	"github.com/papercomputeco/crewlog/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	path           TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	blocks         INTEGER NOT NULL,
	total_tokens   INTEGER NOT NULL,
	cost_usd       REAL NOT NULL,
	final_answers  INTEGER NOT NULL,
	parsing_errors INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS call_blocks (
	run_id            TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx               INTEGER NOT NULL,
	task_hint         TEXT NOT NULL,
	model             TEXT NOT NULL,
	task_id           TEXT NOT NULL,
	agent_id          TEXT NOT NULL,
	prompt_tokens     INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	total_tokens      INTEGER NOT NULL,
	cost_usd          REAL NOT NULL,
	start_time        TIMESTAMP,
	final_answer      TEXT NOT NULL,
	tool_used         TEXT NOT NULL,
	api_errors        INTEGER NOT NULL,
	parsing_error     BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS call_blocks_task ON call_blocks(task_id);
`

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db  *sql.DB
	now func() time.Time
}

// NewDriver opens (creating if needed) a SQLite database and applies the
// schema. The dbPath can be a file path or ":memory:" for an in-memory
// database.
func NewDriver(dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	// SQLite-specific pragmas
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{db: db, now: time.Now}, nil
}

// SaveRun stores a run and its blocks in one transaction, replacing any run
// with the same id.
func (d *Driver) SaveRun(ctx context.Context, result *pipeline.Result) error {
	if result == nil {
		return errors.New("cannot store nil run")
	}

	run, blocks := storage.Records(result, d.now())

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("replace run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, path, created_at, blocks, total_tokens, cost_usd, final_answers, parsing_errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Path, run.CreatedAt, run.Blocks, run.TotalTokens, run.Cost, run.FinalAnswers, run.ParsingErrors,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO call_blocks (run_id, idx, task_hint, model, task_id, agent_id, prompt_tokens,
		 completion_tokens, total_tokens, cost_usd, start_time, final_answer, tool_used, api_errors, parsing_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare block insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range blocks {
		var start sql.NullTime
		if b.StartTime != nil {
			start = sql.NullTime{Time: *b.StartTime, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			b.RunID, b.Index, b.TaskHint, b.Model, b.TaskID, b.AgentID, b.PromptTokens,
			b.CompletionTokens, b.TotalTokens, b.Cost, start, b.FinalAnswer, b.ToolUsed, b.APIErrors, b.ParsingError,
		); err != nil {
			return fmt.Errorf("insert block %d: %w", b.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, path, created_at, blocks, total_tokens, cost_usd, final_answers, parsing_errors`

// GetRun retrieves a run by id.
func (d *Driver) GetRun(ctx context.Context, runID string) (*storage.Run, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{RunID: runID}
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns every run, oldest first.
func (d *Driver) ListRuns(ctx context.Context) ([]*storage.Run, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*storage.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Blocks returns the blocks of a run in detection order.
func (d *Driver) Blocks(ctx context.Context, runID string) ([]*storage.Block, error) {
	if _, err := d.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT run_id, idx, task_hint, model, task_id, agent_id, prompt_tokens, completion_tokens,
		 total_tokens, cost_usd, start_time, final_answer, tool_used, api_errors, parsing_error
		 FROM call_blocks WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("list blocks for %s: %w", runID, err)
	}
	defer rows.Close()

	var blocks []*storage.Block
	for rows.Next() {
		var (
			b     storage.Block
			start sql.NullTime
		)
		if err := rows.Scan(
			&b.RunID, &b.Index, &b.TaskHint, &b.Model, &b.TaskID, &b.AgentID, &b.PromptTokens,
			&b.CompletionTokens, &b.TotalTokens, &b.Cost, &start, &b.FinalAnswer, &b.ToolUsed,
			&b.APIErrors, &b.ParsingError,
		); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		if start.Valid {
			t := start.Time.UTC()
			b.StartTime = &t
		}
		blocks = append(blocks, &b)
	}
	return blocks, rows.Err()
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*storage.Run, error) {
	var run storage.Run
	if err := s.Scan(
		&run.ID, &run.Path, &run.CreatedAt, &run.Blocks, &run.TotalTokens, &run.Cost,
		&run.FinalAnswers, &run.ParsingErrors,
	); err != nil {
		return nil, err
	}
	run.CreatedAt = run.CreatedAt.UTC()
	return &run, nil
}
