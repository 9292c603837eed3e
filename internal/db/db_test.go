package db

import (
	"context"
	"errors"
	"testing"

	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/script"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func sampleScript() []script.Block {
	return []script.Block{
		{Timecode: "00:00 - 00:04", VisualCue: "FARA filing", AudioScript: "Look at this signature.", BlockType: script.BlockHook},
		{Timecode: "00:04 - 00:09", VisualCue: "Map", AudioScript: "The budget is $4.2 Billion.", BlockType: script.BlockBody, ImageURL: "data:image/png;base64,AA=="},
	}
}

func TestMigrate(t *testing.T) {
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, table := range []string{"schema_version", "history", "run_events"} {
		var name string
		err := d.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	var version int
	if err := d.conn.QueryRow("SELECT version FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("query schema_version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected schema version 1, got %d", version)
	}

	if err := d.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestReset(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	if _, err := d.Save(ctx, "topic", "model", sampleScript()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := d.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	recs, err := d.List(ctx)
	if err != nil {
		t.Fatalf("list after reset: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected empty history after reset, got %d", len(recs))
	}
}

func TestSaveAndList(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	first, err := d.Save(ctx, "first", "gemini-3-pro-preview", sampleScript())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := d.Save(ctx, "second", "gemini-3-pro-preview", sampleScript()[:1])
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("ids should differ")
	}

	recs, err := d.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Topic != "second" || recs[1].Topic != "first" {
		t.Errorf("order = %q, %q; want newest first", recs[0].Topic, recs[1].Topic)
	}
	if got := recs[1].Script[1].ImageURL; got != "data:image/png;base64,AA==" {
		t.Errorf("image url = %q", got)
	}
	if !recs[1].CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at = %v, want %v", recs[1].CreatedAt, first.CreatedAt)
	}
}

func TestGet(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	saved, err := d.Save(ctx, "topic", "m", sampleScript())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := d.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Topic != "topic" || len(got.Script) != 2 {
		t.Errorf("got %+v", got)
	}

	if _, err := d.Get(ctx, 999); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("get missing err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	saved, err := d.Save(ctx, "topic", "m", sampleScript())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := d.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := d.Delete(ctx, saved.ID); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestLogRunEvent_GetRunEvents(t *testing.T) {
	d := testDB(t)

	if err := d.LogRunEvent("run-1", "started", "RADAR", ""); err != nil {
		t.Fatalf("log event: %v", err)
	}
	if err := d.LogRunEvent("run-1", "waiting", "RADAR", ""); err != nil {
		t.Fatalf("log event: %v", err)
	}
	if err := d.LogRunEvent("run-2", "failed", "SCOUT", "boom"); err != nil {
		t.Fatalf("log event: %v", err)
	}

	events, err := d.GetRunEvents("run-1")
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Event != "started" || events[1].Event != "waiting" {
		t.Errorf("events = %+v", events)
	}

	runs, err := d.RecentRuns(10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 || runs[0] != "run-2" {
		t.Errorf("recent runs = %v, want run-2 first", runs)
	}
}

func TestLogRunEvent_RejectsUnknownEvent(t *testing.T) {
	d := testDB(t)
	if err := d.LogRunEvent("run-1", "exploded", "RADAR", ""); err == nil {
		t.Fatal("expected CHECK constraint failure")
	}
}
