// Package web serves the JSON control API over a pipeline controller and a
// Server-Sent Events stream of the run log.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lucasnoah/mediawar/internal/pipeline"
)

// Server is the control API server.
type Server struct {
	ctrl *pipeline.Controller
	port int
	log  *zap.Logger

	// pollInterval is how often the log stream checks for new entries.
	pollInterval time.Duration

	// long-running operations run detached from the request under ctx
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

var errShuttingDown = errors.New("server is shutting down")

// NewServer creates a Server over ctrl.
func NewServer(ctrl *pipeline.Controller, port int, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		ctrl:         ctrl,
		port:         port,
		log:          log,
		pollInterval: 500 * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/script", s.handleScript)
	mux.HandleFunc("POST /api/scout", s.handleScout)
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("POST /api/run", s.handleRun)
	mux.HandleFunc("POST /api/approve", s.handleApprove)
	mux.HandleFunc("POST /api/cancel", s.handleCancel)
	mux.HandleFunc("PUT /api/edit", s.handleEdit)
	mux.HandleFunc("PUT /api/steppable", s.handleSteppable)
	mux.HandleFunc("POST /api/images", s.handleImages)
	mux.HandleFunc("GET /api/history", s.handleHistoryList)
	mux.HandleFunc("POST /api/history/reload", s.handleHistoryReload)
	mux.HandleFunc("POST /api/history/{id}/load", s.handleHistoryLoad)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleHistoryDelete)
	mux.HandleFunc("GET /api/logs/stream", s.handleLogStream)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down and waits
// for in-flight operations.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("control API listening", zap.String("url", "http://localhost"+addr))

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close cancels running operations and waits for them to return.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// launch runs fn in the background. Its outcome lands in the run state;
// superseded results are expected and not logged. Once Close has begun no
// new operation starts.
func (s *Server) launch(op string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errShuttingDown
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := fn(s.ctx)
		switch {
		case err == nil, pipeline.IsSuperseded(err), errors.Is(err, context.Canceled):
		default:
			s.log.Warn("operation failed", zap.String("op", op), zap.Error(err))
		}
	}()
	return nil
}
