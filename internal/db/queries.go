package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/script"
)

// createdAtLayout is fixed-width so created_at sorts lexically.
const createdAtLayout = "2006-01-02T15:04:05.000000Z"

var _ history.Backend = (*DB)(nil)

// RunEvent represents a row in the run_events table.
type RunEvent struct {
	ID        int
	RunID     string
	Event     string
	Stage     string
	Detail    string
	Timestamp string
}

// Save archives a completed script.
func (d *DB) Save(ctx context.Context, topic, model string, blocks []script.Block) (*history.Record, error) {
	data, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("marshal script: %w", err)
	}
	now := time.Now().UTC()
	res, err := d.conn.ExecContext(ctx,
		`INSERT INTO history (created_at, topic, model, script) VALUES (?, ?, ?, ?)`,
		now.Format(createdAtLayout), topic, model, string(data),
	)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("history id: %w", err)
	}
	return &history.Record{
		ID:        id,
		CreatedAt: now.Truncate(time.Microsecond),
		Topic:     topic,
		Model:     model,
		Script:    script.Clone(blocks),
	}, nil
}

// List returns all history records, newest first.
func (d *DB) List(ctx context.Context) ([]history.Record, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, created_at, topic, model, script FROM history ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []history.Record
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Get returns one history record.
func (d *DB) Get(ctx context.Context, id int64) (*history.Record, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT id, created_at, topic, model, script FROM history WHERE id = ?`, id)
	rec, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history %d: %w", id, history.ErrNotFound)
	}
	return rec, err
}

// Delete removes a history record.
func (d *DB) Delete(ctx context.Context, id int64) error {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete history %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("history %d: %w", id, history.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(row scanner) (*history.Record, error) {
	var rec history.Record
	var createdAt, raw string
	if err := row.Scan(&rec.ID, &createdAt, &rec.Topic, &rec.Model, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan history: %w", err)
	}
	t, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for history %d: %w", rec.ID, err)
	}
	rec.CreatedAt = t
	if err := json.Unmarshal([]byte(raw), &rec.Script); err != nil {
		return nil, fmt.Errorf("decode script for history %d: %w", rec.ID, err)
	}
	return &rec, nil
}

// LogRunEvent inserts a run event.
func (d *DB) LogRunEvent(runID, event, stage, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO run_events (run_id, event, stage, detail) VALUES (?, ?, ?, ?)`,
		runID, event, stage, detail,
	)
	if err != nil {
		return fmt.Errorf("log run event: %w", err)
	}
	return nil
}

// GetRunEvents returns all events for a run, oldest first.
func (d *DB) GetRunEvents(runID string) ([]RunEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, event, stage, detail, timestamp
		 FROM run_events WHERE run_id = ? ORDER BY timestamp ASC, id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get run events: %w", err)
	}
	defer rows.Close()

	var events []RunEvent
	for rows.Next() {
		var e RunEvent
		var stage, detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Event, &stage, &detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		e.Stage = stage.String
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// RecentRuns returns the ids of the most recently active runs, newest first.
func (d *DB) RecentRuns(limit int) ([]string, error) {
	rows, err := d.conn.Query(
		`SELECT run_id FROM run_events GROUP BY run_id ORDER BY MAX(id) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
