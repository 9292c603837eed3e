// Package pipeline sequences the five generation stages, suspends for human
// approval and discards the results of superseded work.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucasnoah/mediawar/internal/dossier"
	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/script"
	"github.com/lucasnoah/mediawar/internal/timing"
)

// Stages performs the model call behind each stage.
type Stages interface {
	Scout(ctx context.Context) ([]TopicCandidate, error)
	Radar(ctx context.Context, topic string) (string, error)
	Analyst(ctx context.Context, topic, radarText string) (dossier.Dossier, error)
	Architect(ctx context.Context, dossierText string) (string, error)
	Writer(ctx context.Context, structureText, dossierText string) ([]script.Block, error)
	Image(ctx context.Context, visualCue string) (string, error)
}

// Recorder receives run lifecycle events. Failures are logged and ignored.
type Recorder interface {
	LogRunEvent(runID, event, stage, detail string) error
}

// Options configures a Controller.
type Options struct {
	Pace             timing.Pace
	WriterModel      string // recorded on archived scripts
	ImageConcurrency int
	Recorder         Recorder
	Logger           *zap.Logger
}

// Controller owns stage order and transition rules. One operation is
// current at a time; starting another cancels it.
type Controller struct {
	store   *Store
	stages  Stages
	archive *Archive

	pace        timing.Pace
	writerModel string
	imageLimit  int
	recorder    Recorder
	log         *zap.Logger

	mu      sync.Mutex
	current *token
}

// token identifies one top-level operation. runID is the run its events
// are recorded under; only the operation's own goroutine touches it.
type token struct {
	ctx    context.Context
	cancel context.CancelFunc
	runID  string
}

// NewController wires a controller over store. archive may be nil.
func NewController(store *Store, stages Stages, archive *Archive, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ImageConcurrency <= 0 {
		opts.ImageConcurrency = 4
	}
	if opts.Pace == (timing.Pace{}) {
		opts.Pace = timing.DefaultPace()
	}
	if archive == nil {
		archive = NewArchive(history.Disabled{}, store, opts.Logger)
	}
	return &Controller{
		store:       store,
		stages:      stages,
		archive:     archive,
		pace:        opts.Pace,
		writerModel: opts.WriterModel,
		imageLimit:  opts.ImageConcurrency,
		recorder:    opts.Recorder,
		log:         opts.Logger,
	}
}

// Store returns the controller's run state store.
func (c *Controller) Store() *Store { return c.store }

// Archive returns the controller's history component.
func (c *Controller) Archive() *Archive { return c.archive }

// begin makes a new operation current, cancelling the previous one. check
// runs against the state under the same lock; if it fails nothing changes.
func (c *Controller) begin(parent context.Context, check func(State) error) (*token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.store.Snapshot()
	if check != nil {
		if err := check(snap); err != nil {
			return nil, err
		}
	}
	if c.current != nil {
		c.current.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	tok := &token{ctx: ctx, cancel: cancel, runID: snap.RunID}
	c.current = tok
	return tok, nil
}

// end releases tok's resources once its operation returns.
func (c *Controller) end(tok *token) {
	c.mu.Lock()
	if c.current == tok {
		c.current = nil
	}
	c.mu.Unlock()
	tok.cancel()
}

// Cancel aborts the current operation, if any. Its results are discarded
// and a processing run drops back to IDLE.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	c.current.cancel()
	c.current = nil
	c.store.Update(func(s *State) {
		if s.StepStatus == StepProcessing {
			s.StepStatus = StepIdle
		}
	})
	c.store.AppendLog(">>> OPERATION ABORTED.")
}

// apply mutates the state only if tok is still current.
func (c *Controller) apply(tok *token, fn func(*State)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != tok {
		return ErrSuperseded
	}
	c.store.Update(fn)
	return nil
}

func (c *Controller) isCurrent(tok *token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == tok
}

// logf appends to the run log on behalf of tok. Stale operations log nothing.
func (c *Controller) logf(tok *token, format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != tok {
		return ErrSuperseded
	}
	c.store.AppendLog(fmt.Sprintf(format, args...))
	return nil
}

func (c *Controller) record(tok *token, event string, stage Stage, detail string) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.LogRunEvent(tok.runID, event, string(stage), detail); err != nil {
		c.log.Warn("record run event", zap.String("event", event), zap.Error(err))
	}
}

// newRun assigns a fresh run id. Called by stage-0 operations only.
func (c *Controller) newRun(tok *token) error {
	id := uuid.NewString()
	if err := c.apply(tok, func(s *State) { s.RunID = id }); err != nil {
		return err
	}
	tok.runID = id
	return nil
}

// archived mirrors a finished save into the history list and reports it in
// the run log. The record is listed even when tok was superseded, since the
// backend holds it, but only the current operation writes the log line.
func (c *Controller) archived(tok *token, rec *history.Record, saveErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec != nil {
		c.store.PrependHistory(*rec)
	}
	if c.current != tok {
		return ErrSuperseded
	}
	if saveErr != nil {
		c.store.AppendLog(fmt.Sprintf(">>> WARNING: SCRIPT NOT ARCHIVED: %s", errors.Unwrap(saveErr)))
	} else {
		c.store.AppendLog(fmt.Sprintf(">>> ARCHIVED AS ID %d.", rec.ID))
	}
	return nil
}

// runStage brackets one stage call: PROCESSING on entry, and on failure IDLE
// with the error recorded. Failures of superseded or cancelled calls are
// never recorded.
func (c *Controller) runStage(tok *token, stage Stage, call func(ctx context.Context) error) error {
	err := c.apply(tok, func(s *State) {
		s.CurrentStage = stage
		s.StepStatus = StepProcessing
		s.LastError = ""
		s.EditBuffer = ""
	})
	if err != nil {
		return err
	}
	c.record(tok, "started", stage, "")

	err = call(tok.ctx)
	if err == nil {
		return nil
	}
	if !c.isCurrent(tok) {
		return ErrSuperseded
	}
	if ctxErr := tok.ctx.Err(); ctxErr != nil {
		if err := c.apply(tok, func(s *State) { s.StepStatus = StepIdle }); err != nil {
			return err
		}
		return ctxErr
	}

	msg := err.Error()
	if err := c.apply(tok, func(s *State) {
		s.StepStatus = StepIdle
		s.LastError = msg
	}); err != nil {
		return err
	}
	c.logf(tok, "ERROR: %s", msg)
	c.record(tok, "failed", stage, msg)
	c.log.Error("stage failed", zap.String("stage", string(stage)), zap.Error(err))
	return &StageError{Stage: stage, Err: err}
}

// pause is the auto-advance decision point after an approvable stage. It
// stores the stage output and reads IsSteppable at this moment: when set
// the run waits for approval with output in the edit buffer, otherwise it
// stays PROCESSING for the next stage.
func (c *Controller) pause(tok *token, stage Stage, output string, store func(*State)) (bool, error) {
	var wait bool
	err := c.apply(tok, func(s *State) {
		store(s)
		wait = s.IsSteppable
		if wait {
			s.StepStatus = StepWaiting
			s.EditBuffer = output
		} else {
			s.StepStatus = StepProcessing
		}
	})
	if err != nil {
		return false, err
	}
	if wait {
		c.record(tok, "waiting", stage, "")
	} else {
		c.record(tok, "completed", stage, "")
	}
	return wait, nil
}

// RunScout scans for topic candidates. It supersedes any in-flight
// operation and never advances on its own.
func (c *Controller) RunScout(ctx context.Context) ([]TopicCandidate, error) {
	tok, _ := c.begin(ctx, nil)
	defer c.end(tok)

	if err := c.newRun(tok); err != nil {
		return nil, err
	}
	if err := c.apply(tok, func(s *State) { s.Candidates = nil }); err != nil {
		return nil, err
	}
	c.logf(tok, ">>> ACTIVATING AGENT S: THE SCOUT (Google Search)...")

	var candidates []TopicCandidate
	err := c.runStage(tok, StageScout, func(ctx context.Context) error {
		var err error
		candidates, err = c.stages.Scout(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logf(tok, ">>> SCOUT REPORT: %d TARGETS IDENTIFIED.", len(candidates))
	err = c.apply(tok, func(s *State) {
		s.Candidates = append([]TopicCandidate(nil), candidates...)
		s.StepStatus = StepIdle
	})
	if err != nil {
		return nil, err
	}
	c.record(tok, "completed", StageScout, fmt.Sprintf("%d candidates", len(candidates)))
	return candidates, nil
}

// SelectTopic confirms a Scout candidate and runs the chain from Radar.
func (c *Controller) SelectTopic(ctx context.Context, candidate TopicCandidate) error {
	if strings.TrimSpace(candidate.Title) == "" {
		c.store.AppendLog("ERROR: No Target Vector.")
		return &ValidationError{Op: "select topic", Message: "candidate has no title"}
	}
	tok, _ := c.begin(ctx, nil)
	defer c.end(tok)

	c.logf(tok, ">>> TARGET CONFIRMED: %s", candidate.Title)
	if err := c.newRun(tok); err != nil {
		return err
	}
	return c.radar(tok, candidate.Title)
}

// RunRadar starts the chain for topic. An empty topic fails before any call
// and leaves any in-flight operation alone.
func (c *Controller) RunRadar(ctx context.Context, topic string) error {
	if strings.TrimSpace(topic) == "" {
		c.store.AppendLog("ERROR: No Target Vector.")
		return &ValidationError{Op: "run radar", Message: "topic is empty"}
	}
	tok, _ := c.begin(ctx, nil)
	defer c.end(tok)

	if err := c.newRun(tok); err != nil {
		return err
	}
	return c.radar(tok, topic)
}

// RunAnalyst runs the chain from Analyst over radarText.
func (c *Controller) RunAnalyst(ctx context.Context, radarText string) error {
	tok, err := c.begin(ctx, requireTopic("run analyst"))
	if err != nil {
		return err
	}
	defer c.end(tok)
	return c.analyst(tok, radarText)
}

// RunArchitect runs the chain from Architect over dossierText.
func (c *Controller) RunArchitect(ctx context.Context, dossierText string) error {
	tok, err := c.begin(ctx, requireTopic("run architect"))
	if err != nil {
		return err
	}
	defer c.end(tok)
	return c.architect(tok, dossierText)
}

// RunWriter runs the terminal Writer stage.
func (c *Controller) RunWriter(ctx context.Context, structureText, dossierText string) error {
	tok, err := c.begin(ctx, requireTopic("run writer"))
	if err != nil {
		return err
	}
	defer c.end(tok)
	return c.writer(tok, structureText, dossierText)
}

func requireTopic(op string) func(State) error {
	return func(s State) error {
		if strings.TrimSpace(s.Topic) == "" {
			return &ValidationError{Op: op, Message: "no topic selected"}
		}
		return nil
	}
}

// ApproveRadar resumes a run waiting after Radar with the reviewed text.
func (c *Controller) ApproveRadar(ctx context.Context, text string) error {
	return c.approve(ctx, StageRadar, text)
}

// ApproveAnalyst resumes a run waiting after Analyst with the reviewed dossier text.
func (c *Controller) ApproveAnalyst(ctx context.Context, text string) error {
	return c.approve(ctx, StageAnalyst, text)
}

// ApproveArchitect resumes a run waiting after Architect with the reviewed structure.
func (c *Controller) ApproveArchitect(ctx context.Context, text string) error {
	return c.approve(ctx, StageArchitect, text)
}

// Approve resumes whichever stage is waiting.
func (c *Controller) Approve(ctx context.Context, text string) error {
	s := c.store.Snapshot()
	if s.StepStatus != StepWaiting {
		return &ValidationError{Op: "approve", Message: "no stage is waiting for approval"}
	}
	return c.approve(ctx, s.CurrentStage, text)
}

// ApproveEdit resumes the waiting stage with the current edit buffer.
func (c *Controller) ApproveEdit(ctx context.Context) error {
	return c.Approve(ctx, c.store.Snapshot().EditBuffer)
}

func (c *Controller) approve(ctx context.Context, stage Stage, text string) error {
	op := "approve " + strings.ToLower(string(stage))
	tok, err := c.begin(ctx, func(s State) error {
		if !s.Waiting(stage) {
			return &ValidationError{Op: op, Message: fmt.Sprintf("run is not waiting on %s (stage %s, status %s)", stage, s.CurrentStage, s.StepStatus)}
		}
		if stage == StageArchitect && s.DossierText == "" {
			return &ValidationError{Op: op, Message: "no dossier to write from"}
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer c.end(tok)
	c.record(tok, "approved", stage, "")

	switch stage {
	case StageRadar:
		return c.analyst(tok, text)
	case StageAnalyst:
		return c.architect(tok, text)
	default:
		return c.writer(tok, text, c.store.Snapshot().DossierText)
	}
}

// SetSteppable toggles step mode; see Store.SetSteppable.
func (c *Controller) SetSteppable(v bool) error {
	return c.store.SetSteppable(v)
}

// SetEdit replaces the edit buffer of the waiting stage.
func (c *Controller) SetEdit(text string) error {
	return c.store.SetEdit(text)
}

func (c *Controller) radar(tok *token, topic string) error {
	if err := c.apply(tok, func(s *State) { s.Topic = topic }); err != nil {
		return err
	}
	c.logf(tok, ">>> ACTIVATING AGENT A: THE RADAR...")

	var out string
	err := c.runStage(tok, StageRadar, func(ctx context.Context) error {
		var err error
		out, err = c.stages.Radar(ctx, topic)
		return err
	})
	if err != nil {
		return err
	}

	c.logf(tok, ">>> RADAR SCAN COMPLETE.")
	wait, err := c.pause(tok, StageRadar, out, func(s *State) { s.RadarOutput = out })
	if err != nil || wait {
		return err
	}
	return c.analyst(tok, out)
}

func (c *Controller) analyst(tok *token, radarText string) error {
	var topic string
	if err := c.apply(tok, func(s *State) {
		s.RadarOutput = radarText
		topic = s.Topic
	}); err != nil {
		return err
	}
	c.logf(tok, ">>> ACTIVATING AGENT B: THE ANALYST (Google Grounding)...")

	var d dossier.Dossier
	err := c.runStage(tok, StageAnalyst, func(ctx context.Context) error {
		var err error
		d, err = c.stages.Analyst(ctx, topic, radarText)
		return err
	})
	if err != nil {
		return err
	}

	c.logf(tok, ">>> DOSSIER COMPILED.")
	text := dossier.ToText(d)
	wait, err := c.pause(tok, StageAnalyst, text, func(s *State) { s.DossierText = text })
	if err != nil || wait {
		return err
	}
	return c.architect(tok, text)
}

func (c *Controller) architect(tok *token, dossierText string) error {
	if err := c.apply(tok, func(s *State) { s.DossierText = dossierText }); err != nil {
		return err
	}
	c.logf(tok, ">>> ACTIVATING AGENT C: THE ARCHITECT...")

	var structure string
	err := c.runStage(tok, StageArchitect, func(ctx context.Context) error {
		var err error
		structure, err = c.stages.Architect(ctx, dossierText)
		return err
	})
	if err != nil {
		return err
	}

	c.logf(tok, ">>> STRUCTURE LOCKED.")
	wait, err := c.pause(tok, StageArchitect, structure, func(s *State) { s.Structure = structure })
	if err != nil || wait {
		return err
	}
	return c.writer(tok, structure, dossierText)
}

func (c *Controller) writer(tok *token, structureText, dossierText string) error {
	var topic string
	if err := c.apply(tok, func(s *State) {
		s.Structure = structureText
		topic = s.Topic
	}); err != nil {
		return err
	}
	c.logf(tok, ">>> ACTIVATING AGENT D: THE WRITER...")

	var blocks []script.Block
	err := c.runStage(tok, StageWriter, func(ctx context.Context) error {
		var err error
		blocks, err = c.stages.Writer(ctx, structureText, dossierText)
		return err
	})
	if err != nil {
		return err
	}

	blocks = timing.Retime(blocks, c.pace)
	if err := c.logf(tok, ">>> SCRIPT GENERATED."); err != nil {
		return err
	}

	rec, saveErr := c.archive.Save(tok.ctx, topic, c.writerModel, blocks)
	if err := c.archived(tok, rec, saveErr); err != nil {
		return err
	}

	err = c.apply(tok, func(s *State) {
		s.FinalScript = blocks
		s.ScriptRev++
		s.CurrentStage = StageCompleted
		s.StepStatus = StepIdle
	})
	if err != nil {
		return err
	}
	c.record(tok, "completed", StageWriter, fmt.Sprintf("%d blocks, %ds", len(blocks), timing.Total(blocks, c.pace)))
	c.logf(tok, ">>> SYSTEM STANDBY.")
	return nil
}

// Restore loads an archived script into the run as a completed run.
// Intermediate outputs are cleared. It supersedes any in-flight operation.
func (c *Controller) Restore(ctx context.Context, id int64) error {
	rec, err := c.archive.Find(ctx, id)
	if err != nil {
		return err
	}
	tok, _ := c.begin(ctx, nil)
	defer c.end(tok)

	err = c.apply(tok, func(s *State) {
		s.Topic = rec.Topic
		s.FinalScript = script.Clone(rec.Script)
		s.ScriptRev++
		s.CurrentStage = StageCompleted
		s.StepStatus = StepIdle
		s.LastError = ""
		s.Candidates = nil
		s.RadarOutput = ""
		s.DossierText = ""
		s.Structure = ""
		s.EditBuffer = ""
	})
	if err != nil {
		return err
	}
	c.record(tok, "loaded", StageCompleted, fmt.Sprintf("history %d", rec.ID))
	return c.logf(tok, ">>> LOADED ARCHIVE ID: %d [%s]", rec.ID, rec.Topic)
}

// IsSuperseded reports whether err means the operation's result was discarded.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}
