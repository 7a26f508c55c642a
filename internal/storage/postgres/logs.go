package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alfawal/LoA/internal/storage/logs"
)

func (db *Database) CreateLogTable(ctx context.Context) error {
	if err := db.createTable(ctx, createRunLogTableSQL, "create run_logs table"); err != nil {
		return err
	}
	return db.createTable(ctx, createRunLogIndexSQL, "create run_logs index")
}

// InsertLogs stores a run's entries in one transaction.
func (db *Database) InsertLogs(ctx context.Context, entries []logs.Entry) error {
	if err := db.ensureReady(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		args, err := logArgs(entry)
		if err != nil {
			return err
		}
		batch.Queue(insertRunLogSQL, args...)
	}

	return db.withTx(ctx, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert %d log entries: %w", len(entries), err)
		}
		return nil
	})
}

func logArgs(entry logs.Entry) ([]any, error) {
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}
	if entry.Attrs == nil {
		entry.Attrs = map[string]any{}
	}
	payload, err := json.Marshal(entry.Attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal log attrs: %w", err)
	}
	return []any{entry.RunID, entry.Time, entry.Level, entry.Message, string(payload)}, nil
}

const insertRunLogSQL = `
INSERT INTO run_logs (run_id, logged_at, level, message, attrs)
VALUES ($1, $2, $3, $4, $5::jsonb)
`

const createRunLogTableSQL = `
CREATE TABLE IF NOT EXISTS run_logs (
	id bigserial PRIMARY KEY,
	run_id text NOT NULL,
	logged_at timestamptz NOT NULL,
	level text NOT NULL,
	message text NOT NULL,
	attrs jsonb NOT NULL DEFAULT '{}'::jsonb
)
`

const createRunLogIndexSQL = `
CREATE INDEX IF NOT EXISTS run_logs_run_id_idx ON run_logs (run_id, logged_at)
`
