package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/lucasnoah/mediawar/internal/dossier"
	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/script"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeStages returns canned outputs and records every input it receives.
// Any hook left nil falls back to the canned output.
type fakeStages struct {
	mu sync.Mutex

	scout     func(ctx context.Context) ([]TopicCandidate, error)
	radar     func(ctx context.Context, topic string) (string, error)
	analyst   func(ctx context.Context, topic, radar string) (dossier.Dossier, error)
	architect func(ctx context.Context, dossierText string) (string, error)
	writer    func(ctx context.Context, structure, dossierText string) ([]script.Block, error)
	image     func(ctx context.Context, cue string) (string, error)

	calls         []string
	analystInput  string
	architectIn   string
	writerStruct  string
	writerDossier string
}

func (f *fakeStages) called(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeStages) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeStages) Scout(ctx context.Context) ([]TopicCandidate, error) {
	f.called("scout")
	if f.scout != nil {
		return f.scout(ctx)
	}
	out := make([]TopicCandidate, 4)
	for i := range out {
		out[i] = TopicCandidate{Title: fmt.Sprintf("Topic %d", i+1), Hook: "hook", NarrativeAngle: "angle", ViralFactor: "viral"}
	}
	return out, nil
}

func (f *fakeStages) Radar(ctx context.Context, topic string) (string, error) {
	f.called("radar")
	if f.radar != nil {
		return f.radar(ctx, topic)
	}
	return "RADAR FOR " + topic, nil
}

func (f *fakeStages) Analyst(ctx context.Context, topic, radar string) (dossier.Dossier, error) {
	f.called("analyst")
	f.mu.Lock()
	f.analystInput = radar
	f.mu.Unlock()
	if f.analyst != nil {
		return f.analyst(ctx, topic, radar)
	}
	return sampleDossier(topic), nil
}

func (f *fakeStages) Architect(ctx context.Context, dossierText string) (string, error) {
	f.called("architect")
	f.mu.Lock()
	f.architectIn = dossierText
	f.mu.Unlock()
	if f.architect != nil {
		return f.architect(ctx, dossierText)
	}
	return "STRUCTURE", nil
}

func (f *fakeStages) Writer(ctx context.Context, structure, dossierText string) ([]script.Block, error) {
	f.called("writer")
	f.mu.Lock()
	f.writerStruct, f.writerDossier = structure, dossierText
	f.mu.Unlock()
	if f.writer != nil {
		return f.writer(ctx, structure, dossierText)
	}
	return sampleBlocks(), nil
}

func (f *fakeStages) Image(ctx context.Context, cue string) (string, error) {
	f.called("image")
	if f.image != nil {
		return f.image(ctx, cue)
	}
	return "data:image/png;base64,QQ==", nil
}

func sampleDossier(topic string) dossier.Dossier {
	return dossier.Dossier{
		Topic:          topic,
		VisualEvidence: []string{"Graph"},
		SmokingGun:     dossier.SmokingGun{Source: "10-K", URL: "https://sec.gov", QuoteOrFact: "Risk"},
		ContextPoints:  []dossier.ContextPoint{{Label: "Loss", Value: "-$150 Million"}},
	}
}

func sampleBlocks() []script.Block {
	return []script.Block{
		{Timecode: "99:99 - 99:99", VisualCue: "Document close-up", AudioScript: "Look at this line.", BlockType: script.BlockHook},
		{Timecode: "bogus", VisualCue: "Map", AudioScript: "The budget was $4.2 Billion in 2025.", BlockType: script.BlockBody},
		{VisualCue: "", AudioScript: "Next.", BlockType: script.BlockOutro},
	}
}

// memBackend is an in-memory history backend with switchable failures.
type memBackend struct {
	mu      sync.Mutex
	records []history.Record
	nextID  int64

	failSave, failList, failDelete bool

	// beforeSave and beforeDelete run ahead of the operation, outside the lock.
	beforeSave, beforeDelete func(ctx context.Context) error
}

var errBackend = errors.New("backend down")

func (b *memBackend) Save(ctx context.Context, topic, model string, blocks []script.Block) (*history.Record, error) {
	if b.beforeSave != nil {
		if err := b.beforeSave(ctx); err != nil {
			return nil, err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSave {
		return nil, errBackend
	}
	b.nextID++
	rec := history.Record{ID: b.nextID, Topic: topic, Model: model, Script: script.Clone(blocks)}
	b.records = append([]history.Record{rec}, b.records...)
	return &rec, nil
}

func (b *memBackend) List(context.Context) ([]history.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failList {
		return nil, errBackend
	}
	return history.CloneAll(b.records), nil
}

func (b *memBackend) Get(_ context.Context, id int64) (*history.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.records {
		if r.ID == id {
			r := r.Clone()
			return &r, nil
		}
	}
	return nil, history.ErrNotFound
}

func (b *memBackend) Delete(ctx context.Context, id int64) error {
	if b.beforeDelete != nil {
		if err := b.beforeDelete(ctx); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failDelete {
		return errBackend
	}
	for i, r := range b.records {
		if r.ID == id {
			b.records = append(b.records[:i], b.records[i+1:]...)
			return nil
		}
	}
	return history.ErrNotFound
}

func (b *memBackend) Close() error { return nil }

type eventLog struct {
	mu     sync.Mutex
	events []string
	runIDs []string
}

func (e *eventLog) LogRunEvent(runID, event, stage, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event+":"+stage)
	e.runIDs = append(e.runIDs, runID)
	return nil
}

func (e *eventLog) RunIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.runIDs...)
}

func (e *eventLog) Events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

type harness struct {
	ctrl    *Controller
	store   *Store
	stages  *fakeStages
	backend *memBackend
	events  *eventLog
}

func newHarness(t *testing.T, steppable bool) *harness {
	t.Helper()
	store := NewStore(StoreOptions{})
	if steppable {
		if err := store.SetSteppable(true); err != nil {
			t.Fatal(err)
		}
	}
	stages := &fakeStages{}
	backend := &memBackend{}
	events := &eventLog{}
	ctrl := NewController(store, stages, NewArchive(backend, store, nil), Options{
		WriterModel: "gemini-3-pro-preview",
		Recorder:    events,
	})
	return &harness{ctrl: ctrl, store: store, stages: stages, backend: backend, events: events}
}
