package pipeline

import (
	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/script"
)

// Stage is the pipeline position of a run.
type Stage string

const (
	StageIdle      Stage = "IDLE"
	StageScout     Stage = "SCOUT"
	StageRadar     Stage = "RADAR"
	StageAnalyst   Stage = "ANALYST"
	StageArchitect Stage = "ARCHITECT"
	StageWriter    Stage = "WRITER"
	StageCompleted Stage = "COMPLETED"
)

// Approvable reports whether a run may wait for approval after this stage.
func (s Stage) Approvable() bool {
	return s == StageRadar || s == StageAnalyst || s == StageArchitect
}

// StepStatus is orthogonal to Stage: what the current stage is doing.
type StepStatus string

const (
	StepIdle       StepStatus = "IDLE"
	StepProcessing StepStatus = "PROCESSING"
	StepWaiting    StepStatus = "WAITING_FOR_APPROVAL"
)

// TopicCandidate is one Scout suggestion.
type TopicCandidate struct {
	Title          string `json:"title"`
	Hook           string `json:"hook"`
	NarrativeAngle string `json:"narrativeAngle"`
	ViralFactor    string `json:"viralFactor"`
}

// State is the run state. Values handed out by the Store are deep copies.
type State struct {
	RunID        string     `json:"run_id"`
	Topic        string     `json:"topic"`
	CurrentStage Stage      `json:"current_stage"`
	StepStatus   StepStatus `json:"step_status"`
	IsSteppable  bool       `json:"is_steppable"`
	LastError    string     `json:"last_error,omitempty"`

	Candidates  []TopicCandidate `json:"candidates,omitempty"`
	RadarOutput string           `json:"radar_output,omitempty"`
	DossierText string           `json:"dossier_text,omitempty"`
	Structure   string           `json:"structure,omitempty"`
	FinalScript []script.Block   `json:"final_script,omitempty"`
	// ScriptRev increments whenever FinalScript is replaced.
	ScriptRev int `json:"script_rev"`

	// EditBuffer holds the reviewer's working copy while waiting for approval.
	EditBuffer string `json:"edit_buffer,omitempty"`

	Logs    []string         `json:"logs"`
	History []history.Record `json:"history"`
}

// Processing reports whether an operation is in flight.
func (s State) Processing() bool {
	return s.StepStatus == StepProcessing
}

// Waiting reports whether the run is suspended for approval of stage.
func (s State) Waiting(stage Stage) bool {
	return s.StepStatus == StepWaiting && s.CurrentStage == stage
}

func (s State) clone() State {
	out := s
	if s.Candidates != nil {
		out.Candidates = append([]TopicCandidate(nil), s.Candidates...)
	}
	out.FinalScript = script.Clone(s.FinalScript)
	out.Logs = append([]string(nil), s.Logs...)
	out.History = history.CloneAll(s.History)
	return out
}
