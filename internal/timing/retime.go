// Package timing derives script timecodes from a characters-per-second
// speech model. The model's own timecode guesses are always discarded.
package timing

import (
	"fmt"

	"github.com/lucasnoah/mediawar/internal/script"
)

// Pace is the speech model used to turn text length into seconds.
type Pace struct {
	CharsPerSecond  int `yaml:"chars_per_second" json:"chars_per_second"`
	MinBlockSeconds int `yaml:"min_block_seconds" json:"min_block_seconds"`
}

// DefaultPace is a documentary reading pace of roughly 130-140 words per minute.
func DefaultPace() Pace {
	return Pace{CharsPerSecond: 12, MinBlockSeconds: 2}
}

func (p Pace) normalized() Pace {
	d := DefaultPace()
	if p.CharsPerSecond <= 0 {
		p.CharsPerSecond = d.CharsPerSecond
	}
	if p.MinBlockSeconds < 0 {
		p.MinBlockSeconds = d.MinBlockSeconds
	}
	return p
}

// Seconds returns the spoken duration of an already expanded text.
func (p Pace) Seconds(expanded string) int {
	p = p.normalized()
	n := len(expanded)
	secs := (n + p.CharsPerSecond - 1) / p.CharsPerSecond
	if secs < p.MinBlockSeconds {
		secs = p.MinBlockSeconds
	}
	return secs
}

// Duration expands text and returns how long it takes to read aloud.
func Duration(text string, p Pace) int {
	return p.Seconds(Expand(text))
}

// Retime returns a copy of blocks with contiguous timecodes starting at 00:00.
// The input slice is not modified.
func Retime(blocks []script.Block, p Pace) []script.Block {
	out := script.Clone(blocks)
	running := 0
	for i := range out {
		d := Duration(out[i].AudioScript, p)
		out[i].Timecode = FormatRange(running, running+d)
		running += d
	}
	return out
}

// Total returns the cumulative spoken length of blocks in seconds.
func Total(blocks []script.Block, p Pace) int {
	total := 0
	for _, b := range blocks {
		total += Duration(b.AudioScript, p)
	}
	return total
}

// FormatRange formats a [start, end) pair of second offsets as "MM:SS - MM:SS".
func FormatRange(start, end int) string {
	return FormatClock(start) + " - " + FormatClock(end)
}

// FormatClock formats seconds as MM:SS. Minutes are not wrapped at 60.
func FormatClock(secs int) string {
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
