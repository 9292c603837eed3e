package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteAtomic writes data to a file atomically by writing to a temp file
// in the same directory, then renaming.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpName, path, err)
	}
	tmpName = ""
	return nil
}

// WriteJSON writes blocks as pretty-printed JSON to path atomically.
func WriteJSON(path string, blocks []Block) error {
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	return WriteAtomic(path, data)
}

// ReadJSON reads a JSON array of blocks from path.
func ReadJSON(path string) ([]Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return blocks, nil
}

// Markdown renders the script as an editor-facing markdown document.
// Inline image data is omitted; only its presence is noted.
func Markdown(topic string, blocks []Block) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", topic)
	for i, blk := range blocks {
		fmt.Fprintf(&b, "## %d. [%s] %s\n\n", i+1, blk.Timecode, blk.BlockType)
		if blk.VisualCue != "" {
			fmt.Fprintf(&b, "**Visual:** %s\n\n", blk.VisualCue)
		}
		if blk.OverlayFX != "" {
			fmt.Fprintf(&b, "**Overlay:** %s\n\n", blk.OverlayFX)
		}
		fmt.Fprintf(&b, "> %s\n\n", blk.AudioScript)
		if blk.RussianScript != "" {
			fmt.Fprintf(&b, "_%s_\n\n", blk.RussianScript)
		}
		if blk.ImageURL != "" {
			b.WriteString("(storyboard frame attached)\n\n")
		}
	}
	return b.String()
}

// WriteMarkdown renders the script as markdown and writes it to path atomically.
func WriteMarkdown(path, topic string, blocks []Block) error {
	return WriteAtomic(path, []byte(Markdown(topic, blocks)))
}
