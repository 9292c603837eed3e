package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lucasnoah/mediawar/internal/script"
)

// Table is the remote history table name.
const Table = "mediawar_history"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS mediawar_history (
    id         BIGSERIAL PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    topic      TEXT NOT NULL,
    model      TEXT NOT NULL,
    script     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mediawar_history_created ON mediawar_history(created_at DESC);
`

// Postgres is a Backend over a Postgres table compatible with hosted
// Supabase projects.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate creates the history table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate %s: %w", Table, err)
	}
	return nil
}

// Reset drops and recreates the history table.
func (p *Postgres) Reset(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "DROP TABLE IF EXISTS "+Table); err != nil {
		return fmt.Errorf("drop %s: %w", Table, err)
	}
	return p.Migrate(ctx)
}

func (p *Postgres) Save(ctx context.Context, topic, model string, blocks []script.Block) (*Record, error) {
	data, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("marshal script: %w", err)
	}
	rec := &Record{Topic: topic, Model: model, Script: script.Clone(blocks)}
	err = p.pool.QueryRow(ctx,
		`INSERT INTO mediawar_history (topic, model, script) VALUES ($1, $2, $3::jsonb) RETURNING id, created_at`,
		topic, model, string(data),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	return rec, nil
}

func (p *Postgres) List(ctx context.Context) ([]Record, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, created_at, topic, model, script::text FROM mediawar_history ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

func (p *Postgres) Get(ctx context.Context, id int64) (*Record, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, created_at, topic, model, script::text FROM mediawar_history WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("history %d: %w", id, ErrNotFound)
	}
	return rec, err
}

func (p *Postgres) Delete(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM mediawar_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete history %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("history %d: %w", id, ErrNotFound)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var raw string
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.Topic, &rec.Model, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan history: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &rec.Script); err != nil {
		return nil, fmt.Errorf("decode script for history %d: %w", rec.ID, err)
	}
	return &rec, nil
}
