package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GenerateImage renders a storyboard frame for one block of the final
// script. Image requests do not supersede the current operation; a frame
// that arrives after the script was replaced is dropped.
func (c *Controller) GenerateImage(ctx context.Context, index int) error {
	s := c.store.Snapshot()
	if index < 0 || index >= len(s.FinalScript) {
		return &ValidationError{Op: "generate image", Message: fmt.Sprintf("block %d out of range (script has %d)", index, len(s.FinalScript))}
	}
	return c.generateImage(ctx, s.ScriptRev, index, s.FinalScript[index].VisualCue)
}

func (c *Controller) generateImage(ctx context.Context, rev, index int, cue string) error {
	if strings.TrimSpace(cue) == "" {
		return &ValidationError{Op: "generate image", Message: fmt.Sprintf("block %d has no visual cue", index)}
	}
	c.store.AppendLog(fmt.Sprintf(">>> GENERATING IMAGE FOR BLOCK %d...", index))

	url, err := c.stages.Image(ctx, cue)
	if err != nil {
		c.store.AppendLog(fmt.Sprintf(">>> FAILED TO GENERATE IMAGE FOR BLOCK %d.", index))
		c.log.Warn("image generation failed", zap.Int("block", index), zap.Error(err))
		return fmt.Errorf("block %d: %w", index, err)
	}
	if err := c.store.AttachImage(rev, index, url); err != nil {
		return err
	}
	c.store.AppendLog(fmt.Sprintf(">>> IMAGE GENERATED FOR BLOCK %d.", index))
	return nil
}

// GenerateImages renders frames for every block with a visual cue, at most
// ImageConcurrency at a time. With skipExisting, blocks that already have
// an image are left alone. It returns how many frames were attached and
// the joined per-block failures.
func (c *Controller) GenerateImages(ctx context.Context, skipExisting bool) (int, error) {
	s := c.store.Snapshot()
	if len(s.FinalScript) == 0 {
		return 0, &ValidationError{Op: "generate images", Message: "no script"}
	}

	var (
		mu       sync.Mutex
		errs     []error
		attached int
	)
	g := new(errgroup.Group)
	g.SetLimit(c.imageLimit)
	for i, blk := range s.FinalScript {
		if strings.TrimSpace(blk.VisualCue) == "" || (skipExisting && blk.ImageURL != "") {
			continue
		}
		i, cue := i, blk.VisualCue
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			err := c.generateImage(ctx, s.ScriptRev, i, cue)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			} else {
				attached++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return attached, err
	}
	return attached, errors.Join(errs...)
}
