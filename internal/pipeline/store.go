package pipeline

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/script"
)

// DefaultMaxLogEntries caps the run log.
const DefaultMaxLogEntries = 500

// initialLogs seed every new store.
var initialLogs = []string{
	"> MEDIAWAR.CORE INITIALIZED...",
	"> WAITING FOR TARGET VECTOR...",
}

// Store holds the run state. All changes go through its named transitions,
// each atomic under one lock; readers only ever see deep copies.
type Store struct {
	mu       sync.Mutex
	state    State
	maxLogs  int
	logTotal int // entries ever appended, including dropped ones
	log      *zap.Logger
}

// StoreOptions configures a Store.
type StoreOptions struct {
	MaxLogEntries int
	Logger        *zap.Logger
}

// NewStore creates a Store in the IDLE state.
func NewStore(opts StoreOptions) *Store {
	if opts.MaxLogEntries <= 0 {
		opts.MaxLogEntries = DefaultMaxLogEntries
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Store{
		state: State{
			CurrentStage: StageIdle,
			StepStatus:   StepIdle,
			History:      []history.Record{},
		},
		maxLogs: opts.MaxLogEntries,
		log:     opts.Logger,
	}
	for _, l := range initialLogs {
		s.appendLocked(l)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Update applies fn to the state under the lock. fn must not retain the pointer.
func (s *Store) Update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Patch is a partial state update; nil fields are left unchanged.
type Patch struct {
	Topic        *string
	CurrentStage *Stage
	StepStatus   *StepStatus
	LastError    *string
	Candidates   *[]TopicCandidate
	RadarOutput  *string
	DossierText  *string
	Structure    *string
	FinalScript  *[]script.Block
	EditBuffer   *string
}

// Merge applies every non-nil field of p in one transition.
func (s *Store) Merge(p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.state
	if p.Topic != nil {
		st.Topic = *p.Topic
	}
	if p.CurrentStage != nil {
		st.CurrentStage = *p.CurrentStage
	}
	if p.StepStatus != nil {
		st.StepStatus = *p.StepStatus
	}
	if p.LastError != nil {
		st.LastError = *p.LastError
	}
	if p.Candidates != nil {
		st.Candidates = append([]TopicCandidate(nil), (*p.Candidates)...)
	}
	if p.RadarOutput != nil {
		st.RadarOutput = *p.RadarOutput
	}
	if p.DossierText != nil {
		st.DossierText = *p.DossierText
	}
	if p.Structure != nil {
		st.Structure = *p.Structure
	}
	if p.FinalScript != nil {
		st.FinalScript = script.Clone(*p.FinalScript)
		st.ScriptRev++
	}
	if p.EditBuffer != nil {
		st.EditBuffer = *p.EditBuffer
	}
}

// AppendLog adds a line to the run log, dropping the oldest entries past the cap.
func (s *Store) AppendLog(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(msg)
}

func (s *Store) appendLocked(msg string) {
	s.state.Logs = append(s.state.Logs, msg)
	if over := len(s.state.Logs) - s.maxLogs; over > 0 {
		s.state.Logs = append([]string(nil), s.state.Logs[over:]...)
	}
	s.logTotal++
	s.log.Info(msg, zap.String("run_id", s.state.RunID))
}

// LogsSince returns the log entries appended after the first `seq` entries
// ever written, and the new sequence number. Entries already dropped from
// the ring are skipped.
func (s *Store) LogsSince(seq int) ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.logTotal - len(s.state.Logs)
	if seq < first {
		seq = first
	}
	if seq >= s.logTotal {
		return nil, s.logTotal
	}
	return append([]string(nil), s.state.Logs[seq-first:]...), s.logTotal
}

// AttachImage sets the image of one script block. rev must match the
// script revision the caller read; a replaced script rejects the image.
func (s *Store) AttachImage(rev, index int, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev != s.state.ScriptRev {
		return ErrSuperseded
	}
	if index < 0 || index >= len(s.state.FinalScript) {
		return &ValidationError{Op: "attach image", Message: fmt.Sprintf("block %d out of range", index)}
	}
	s.state.FinalScript[index].ImageURL = url
	return nil
}

// ReplaceHistory swaps the whole history list.
func (s *Store) ReplaceHistory(records []history.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if records == nil {
		records = []history.Record{}
	}
	s.state.History = history.CloneAll(records)
}

// PrependHistory puts a newly archived record at the head of the history
// list. A record already in the list is left where it is.
func (s *Store) PrependHistory(rec history.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.state.History {
		if r.ID == rec.ID {
			return
		}
	}
	s.state.History = append([]history.Record{rec.Clone()}, s.state.History...)
}

// RemoveHistory drops the record with id from the history list. It returns
// the removed record and the id of the record that followed it (0 when it
// was last), so ReinsertHistory can put it back in place.
func (s *Store) RemoveHistory(id int64) (removed history.Record, next int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.state.History {
		if r.ID != id {
			continue
		}
		if i+1 < len(s.state.History) {
			next = s.state.History[i+1].ID
		}
		s.state.History = append(s.state.History[:i:i], s.state.History[i+1:]...)
		return r, next, true
	}
	return history.Record{}, 0, false
}

// ReinsertHistory puts rec back in front of the record with id next, or at
// the end when next is 0 or no longer listed. Records added since the
// removal keep their places.
func (s *Store) ReinsertHistory(rec history.Record, next int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := len(s.state.History)
	for i, r := range s.state.History {
		if r.ID == rec.ID {
			return
		}
		if next != 0 && r.ID == next {
			at = i
		}
	}
	list := make([]history.Record, 0, len(s.state.History)+1)
	list = append(list, s.state.History[:at]...)
	list = append(list, rec.Clone())
	list = append(list, s.state.History[at:]...)
	s.state.History = list
}

// SetEdit replaces the edit buffer. Only valid while waiting for approval.
func (s *Store) SetEdit(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.StepStatus != StepWaiting {
		return &ValidationError{Op: "edit", Message: "no stage is waiting for approval"}
	}
	s.state.EditBuffer = text
	return nil
}

// SetSteppable toggles step mode. It is rejected while an operation is
// processing, and switching off while a stage waits for approval is rejected
// too: the waiting stage must be approved first.
func (s *Store) SetSteppable(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state.StepStatus == StepProcessing:
		return &ValidationError{Op: "set steppable", Message: "an operation is processing"}
	case !v && s.state.StepStatus == StepWaiting:
		return &ValidationError{Op: "set steppable", Message: "a stage is waiting for approval"}
	}
	s.state.IsSteppable = v
	return nil
}

func ptr[T any](v T) *T { return &v }
