package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/pipeline"
	"github.com/lucasnoah/mediawar/internal/script"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("write response", zap.Error(err))
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case pipeline.IsValidation(err):
		status = http.StatusConflict
	case errors.Is(err, history.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, history.ErrUnavailable), errors.Is(err, errShuttingDown):
		status = http.StatusServiceUnavailable
	case pipeline.IsSuperseded(err):
		status = http.StatusConflict
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// decode reads an optional JSON body into dst. An empty body is allowed.
func decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

type accepted struct {
	Status string `json:"status"`
	Op     string `json:"op"`
}

func (s *Server) accept(w http.ResponseWriter, op string, fn func(ctx context.Context) error) {
	if err := s.launch(op, fn); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, accepted{Status: "accepted", Op: op})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ctrl.Store().Snapshot())
}

// handleScript returns the final script as JSON, or as Markdown with
// ?format=markdown.
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.Store().Snapshot()
	if len(st.FinalScript) == 0 {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: "no script"})
		return
	}
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(script.Markdown(st.Topic, st.FinalScript)))
		return
	}
	s.writeJSON(w, http.StatusOK, st.FinalScript)
}

func (s *Server) handleScout(w http.ResponseWriter, r *http.Request) {
	s.accept(w, "scout", func(ctx context.Context) error {
		_, err := s.ctrl.RunScout(ctx)
		return err
	})
}

type selectRequest struct {
	Index *int                     `json:"index,omitempty"`
	Topic *pipeline.TopicCandidate `json:"topic,omitempty"`
}

// handleSelect confirms a candidate, either by index into the last scout
// report or given inline.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, "invalid body: "+err.Error())
		return
	}

	var cand pipeline.TopicCandidate
	switch {
	case req.Topic != nil:
		cand = *req.Topic
	case req.Index != nil:
		cands := s.ctrl.Store().Snapshot().Candidates
		if *req.Index < 0 || *req.Index >= len(cands) {
			s.badRequest(w, "candidate index out of range")
			return
		}
		cand = cands[*req.Index]
	default:
		s.badRequest(w, "index or topic required")
		return
	}
	if strings.TrimSpace(cand.Title) == "" {
		s.writeError(w, &pipeline.ValidationError{Op: "select topic", Message: "candidate has no title"})
		return
	}
	s.accept(w, "select", func(ctx context.Context) error {
		return s.ctrl.SelectTopic(ctx, cand)
	})
}

type runRequest struct {
	Topic string `json:"topic"`
	// Stage restarts the chain at ANALYST, ARCHITECT or WRITER with Text
	// as that stage's input. Empty means RADAR.
	Stage   pipeline.Stage `json:"stage,omitempty"`
	Text    string         `json:"text,omitempty"`
	Dossier string         `json:"dossier,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, "invalid body: "+err.Error())
		return
	}

	var fn func(ctx context.Context) error
	switch req.Stage {
	case "", pipeline.StageRadar:
		if strings.TrimSpace(req.Topic) == "" {
			s.ctrl.Store().AppendLog("ERROR: No Target Vector.")
			s.writeError(w, &pipeline.ValidationError{Op: "run radar", Message: "topic is empty"})
			return
		}
		fn = func(ctx context.Context) error { return s.ctrl.RunRadar(ctx, req.Topic) }
	case pipeline.StageAnalyst:
		fn = func(ctx context.Context) error { return s.ctrl.RunAnalyst(ctx, req.Text) }
	case pipeline.StageArchitect:
		fn = func(ctx context.Context) error { return s.ctrl.RunArchitect(ctx, req.Text) }
	case pipeline.StageWriter:
		fn = func(ctx context.Context) error { return s.ctrl.RunWriter(ctx, req.Text, req.Dossier) }
	default:
		s.badRequest(w, "unknown stage "+string(req.Stage))
		return
	}
	if req.Stage != "" && req.Stage != pipeline.StageRadar && strings.TrimSpace(s.ctrl.Store().Snapshot().Topic) == "" {
		s.writeError(w, &pipeline.ValidationError{Op: "run " + strings.ToLower(string(req.Stage)), Message: "no topic selected"})
		return
	}
	s.accept(w, "run", fn)
}

type textRequest struct {
	Text *string `json:"text,omitempty"`
}

// handleApprove resumes the waiting stage with the given text, or with the
// edit buffer when no text is sent.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, "invalid body: "+err.Error())
		return
	}
	if st := s.ctrl.Store().Snapshot(); st.StepStatus != pipeline.StepWaiting {
		s.writeError(w, &pipeline.ValidationError{Op: "approve", Message: "no stage is waiting for approval"})
		return
	}
	s.accept(w, "approve", func(ctx context.Context) error {
		if req.Text != nil {
			return s.ctrl.Approve(ctx, *req.Text)
		}
		return s.ctrl.ApproveEdit(ctx)
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Cancel()
	s.writeJSON(w, http.StatusOK, s.ctrl.Store().Snapshot())
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decode(r, &req); err != nil || req.Text == nil {
		s.badRequest(w, "text required")
		return
	}
	if err := s.ctrl.SetEdit(*req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.ctrl.Store().Snapshot())
}

type steppableRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleSteppable(w http.ResponseWriter, r *http.Request) {
	var req steppableRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, "invalid body: "+err.Error())
		return
	}
	if err := s.ctrl.SetSteppable(req.Enabled); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.ctrl.Store().Snapshot())
}

type imagesRequest struct {
	// Index selects one block; nil renders every block with a visual cue.
	Index        *int `json:"index,omitempty"`
	SkipExisting bool `json:"skip_existing"`
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	var req imagesRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, "invalid body: "+err.Error())
		return
	}
	st := s.ctrl.Store().Snapshot()
	if len(st.FinalScript) == 0 {
		s.writeError(w, &pipeline.ValidationError{Op: "generate images", Message: "no script"})
		return
	}
	if req.Index != nil {
		idx := *req.Index
		if idx < 0 || idx >= len(st.FinalScript) {
			s.badRequest(w, "block index out of range")
			return
		}
		s.accept(w, "image", func(ctx context.Context) error {
			return s.ctrl.GenerateImage(ctx, idx)
		})
		return
	}
	s.accept(w, "images", func(ctx context.Context) error {
		_, err := s.ctrl.GenerateImages(ctx, req.SkipExisting)
		return err
	})
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ctrl.Store().Snapshot().History)
}

func (s *Server) handleHistoryReload(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Archive().Load(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.ctrl.Store().Snapshot().History)
}

func historyID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleHistoryLoad(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(r)
	if !ok {
		s.badRequest(w, "invalid history id")
		return
	}
	if err := s.ctrl.Restore(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.ctrl.Store().Snapshot())
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(r)
	if !ok {
		s.badRequest(w, "invalid history id")
		return
	}
	if err := s.ctrl.Archive().Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
