// Package history defines the archive of completed scripts and its storage
// backends.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/lucasnoah/mediawar/internal/script"
)

var (
	// ErrUnavailable is returned when no history backend is configured.
	ErrUnavailable = errors.New("history backend unavailable")
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("history record not found")
)

// Record is one archived script. Records are immutable except for deletion.
type Record struct {
	ID        int64          `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Topic     string         `json:"topic"`
	Model     string         `json:"model"`
	Script    []script.Block `json:"script"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.Script = script.Clone(r.Script)
	return r
}

// CloneAll deep-copies a record list.
func CloneAll(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Backend stores history records.
type Backend interface {
	// Save archives a completed script and returns the stored record.
	Save(ctx context.Context, topic, model string, blocks []script.Block) (*Record, error)
	// List returns all records, newest first.
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id int64) (*Record, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Disabled is the backend used when history is turned off. Listing yields
// nothing; every write fails with ErrUnavailable.
type Disabled struct{}

func (Disabled) Save(context.Context, string, string, []script.Block) (*Record, error) {
	return nil, ErrUnavailable
}

func (Disabled) List(context.Context) ([]Record, error) { return nil, nil }

func (Disabled) Get(context.Context, int64) (*Record, error) { return nil, ErrUnavailable }

func (Disabled) Delete(context.Context, int64) error { return ErrUnavailable }

func (Disabled) Close() error { return nil }
