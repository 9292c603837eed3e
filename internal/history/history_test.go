package history

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/lucasnoah/mediawar/internal/script"
)

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	var b Backend = Disabled{}

	if _, err := b.Save(ctx, "t", "m", nil); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Save err = %v, want ErrUnavailable", err)
	}
	recs, err := b.List(ctx)
	if err != nil || len(recs) != 0 {
		t.Errorf("List = %v, %v; want empty, nil", recs, err)
	}
	if err := b.Delete(ctx, 1); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Delete err = %v, want ErrUnavailable", err)
	}
}

func TestCloneAll_Independent(t *testing.T) {
	orig := []Record{{ID: 1, Script: []script.Block{{AudioScript: "a"}}}}
	cp := CloneAll(orig)
	cp[0].Script[0].AudioScript = "changed"
	if orig[0].Script[0].AudioScript != "a" {
		t.Error("CloneAll shares script storage with the original")
	}
	if CloneAll(nil) != nil {
		t.Error("CloneAll(nil) should be nil")
	}
}

func TestPostgres_RoundTrip(t *testing.T) {
	dsn := os.Getenv("MEDIAWAR_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MEDIAWAR_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	p, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer p.Close()
	if err := p.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	blocks := []script.Block{{Timecode: "00:00 - 00:02", AudioScript: "Look at this.", BlockType: script.BlockHook}}
	first, err := p.Save(ctx, "first", "gemini-3-pro-preview", blocks)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := p.Save(ctx, "second", "gemini-3-pro-preview", blocks)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	recs, err := p.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != second.ID {
		t.Fatalf("List = %+v, want newest first", recs)
	}
	if recs[1].Script[0].AudioScript != "Look at this." {
		t.Errorf("script not round-tripped: %+v", recs[1].Script)
	}

	if err := p.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := p.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
	if _, err := p.Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get deleted err = %v, want ErrNotFound", err)
	}
}
