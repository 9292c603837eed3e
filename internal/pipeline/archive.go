package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/script"
)

// Archive keeps the store's history list in step with a history backend.
// Backend failures never fail a run.
type Archive struct {
	backend history.Backend
	store   *Store
	log     *zap.Logger
}

// NewArchive creates an Archive over backend.
func NewArchive(backend history.Backend, store *Store, log *zap.Logger) *Archive {
	if backend == nil {
		backend = history.Disabled{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Archive{backend: backend, store: store, log: log}
}

// Backend returns the underlying history backend.
func (a *Archive) Backend() history.Backend { return a.backend }

// Load replaces the store's history with the backend's records. On failure
// the list is emptied and the error logged.
func (a *Archive) Load(ctx context.Context) error {
	records, err := a.backend.List(ctx)
	if err != nil {
		a.log.Error("load history", zap.Error(err))
		a.store.ReplaceHistory(nil)
		a.store.AppendLog(fmt.Sprintf("ERROR: Could not load history: %s", err))
		return fmt.Errorf("load history: %w", err)
	}
	a.store.ReplaceHistory(records)
	return nil
}

// Save archives a completed script. A failure is logged here but never
// fails the run; the caller reports the outcome in the run log.
func (a *Archive) Save(ctx context.Context, topic, model string, blocks []script.Block) (*history.Record, error) {
	rec, err := a.backend.Save(ctx, topic, model, blocks)
	if err != nil {
		a.log.Warn("history not saved", zap.String("topic", topic), zap.Error(err))
		return nil, fmt.Errorf("save history: %w", err)
	}
	return rec, nil
}

// Delete removes a record. The store's list drops it immediately and gets
// it back in its old place if the backend refuses.
func (a *Archive) Delete(ctx context.Context, id int64) error {
	removed, next, ok := a.store.RemoveHistory(id)

	if err := a.backend.Delete(ctx, id); err != nil {
		if ok {
			a.store.ReinsertHistory(removed, next)
		}
		a.store.AppendLog(fmt.Sprintf(">>> ERROR: COULD NOT DELETE ARCHIVE ID %d.", id))
		a.log.Warn("delete history", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("delete history %d: %w", id, err)
	}
	a.store.AppendLog(fmt.Sprintf(">>> ARCHIVE ID %d DELETED PERMANENTLY.", id))
	return nil
}

// Find returns a record from the loaded list, falling back to the backend.
func (a *Archive) Find(ctx context.Context, id int64) (*history.Record, error) {
	for _, r := range a.store.Snapshot().History {
		if r.ID == id {
			return &r, nil
		}
	}
	rec, err := a.backend.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find history %d: %w", id, err)
	}
	return rec, nil
}
