package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lucasnoah/mediawar/internal/pipeline"
)

// handleLogStream serves a Server-Sent Events stream of the run log. It
// polls the store and sends each new entry as one message whose id is the
// entry's sequence number, so a reconnecting client resumes via
// Last-Event-ID. A "state" event carries the stage and step status whenever
// either changes.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	seq := 0
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			seq = n
		}
	} else if v := r.URL.Query().Get("since"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			seq = n
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering if present
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	tick := time.NewTicker(s.pollInterval)
	defer tick.Stop()

	var lastStage pipeline.Stage
	var lastStatus pipeline.StepStatus
	for {
		store := s.ctrl.Store()
		lines, next := store.LogsSince(seq)
		first := next - len(lines)
		for i, entry := range lines {
			fmt.Fprintf(w, "id: %d\n", first+i+1)
			// multi-line entries become multiple data: lines, joined with \n by the client
			for _, line := range strings.Split(entry, "\n") {
				fmt.Fprintf(w, "data: %s\n", line)
			}
			fmt.Fprint(w, "\n")
		}
		seq = next

		st := store.Snapshot()
		if st.CurrentStage != lastStage || st.StepStatus != lastStatus {
			lastStage, lastStatus = st.CurrentStage, st.StepStatus
			fmt.Fprintf(w, "event: state\ndata: {\"current_stage\":%q,\"step_status\":%q}\n\n", st.CurrentStage, st.StepStatus)
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case <-s.ctx.Done():
			fmt.Fprintf(w, "event: done\ndata: server shutting down\n\n")
			flusher.Flush()
			return
		case <-tick.C:
		}
	}
}
