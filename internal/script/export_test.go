package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sample() []Block {
	return []Block{
		{Timecode: "00:00 - 00:04", VisualCue: "Map of Europe", OverlayFX: "Red arrows", AudioScript: "Watch the border.", RussianScript: "Смотрите на границу.", BlockType: BlockHook},
		{Timecode: "00:04 - 00:09", AudioScript: "Then money moved.", BlockType: BlockBody, ImageURL: "data:image/png;base64,AAAA"},
	}
}

func TestWriteReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "script.json")
	if err := WriteJSON(path, sample()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	got, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if diff := cmp.Diff(sample(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"visualCue": "Map of Europe"`) {
		t.Errorf("json field names not preserved:\n%s", data)
	}
	if strings.Contains(string(data), `"imageUrl": ""`) {
		t.Error("empty imageUrl should be omitted")
	}
}

func TestReadJSON_Errors(t *testing.T) {
	if _, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte(`{"not": "an array"}`), 0o644)
	if _, err := ReadJSON(bad); err == nil {
		t.Error("expected error for non-array json")
	}
}

func TestWriteAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := WriteAtomic(path, []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := WriteAtomic(path, []byte("two")); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "two" {
		t.Errorf("content = %q, want %q", data, "two")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only out.txt, found %d entries", len(entries))
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown("Soft power", sample())

	for _, want := range []string{
		"# Soft power\n",
		"## 1. [00:00 - 00:04] HOOK",
		"**Visual:** Map of Europe",
		"**Overlay:** Red arrows",
		"> Watch the border.",
		"_Смотрите на границу._",
		"## 2. [00:04 - 00:09] BODY",
		"(storyboard frame attached)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
	if strings.Contains(md, "base64") {
		t.Error("inline image data should not be rendered")
	}
	if strings.Count(md, "**Visual:**") != 1 {
		t.Error("empty visual cue should be skipped")
	}
}

func TestClone_Independent(t *testing.T) {
	orig := sample()
	c := Clone(orig)
	c[0].AudioScript = "changed"
	if orig[0].AudioScript == "changed" {
		t.Error("Clone shares backing array")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
