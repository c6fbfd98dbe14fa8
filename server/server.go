package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/byte4ever/repo_editor/gitops/git"
	"github.com/byte4ever/repo_editor/gitops/prer"
	"github.com/byte4ever/repo_editor/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 10 << 20

// Config holds the collaborators of the API server.
type Config struct {
	// Workflow submits revisions and reads files.
	Workflow *prer.Workflow
	// Tracker serves issues and pull requests. Nil
	// answers 501 on those routes. Each call is bounded
	// by the workflow step timeout.
	Tracker git.Tracker
	// Sessions issues and verifies credentials.
	Sessions *session.Manager
	// DataDir and DataExt select the listed files.
	DataDir string
	DataExt string
	// CookieSecure sets the Secure cookie attribute.
	CookieSecure bool
}

// Server is the JSON HTTP API of the editor.
type Server struct {
	cfg     Config
	handler http.Handler
}

// New validates cfg and builds the routes.
func New(cfg Config) (*Server, error) {
	const errCtx = "creating api server"

	if cfg.Workflow == nil {
		return nil, fmt.Errorf(
			"%s: workflow must be set", errCtx,
		)
	}

	if cfg.Sessions == nil {
		return nil, fmt.Errorf(
			"%s: session manager must be set", errCtx,
		)
	}

	if cfg.Tracker != nil {
		cfg.Tracker = git.TrackerWithTimeout(
			cfg.Tracker, cfg.Workflow.StepTimeout(),
		)
	}

	s := &Server{cfg: cfg}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/check", s.handleCheck)

	mux.Handle("POST /api/revisions", s.authed(s.handleSubmit))
	mux.Handle("POST /api/revisions/preview", s.authed(s.handlePreview))
	mux.Handle("GET /api/files", s.authed(s.handleListFiles))
	mux.Handle("GET /api/files/content", s.authed(s.handleReadFile))

	mux.Handle("GET /api/issues", s.authed(s.handleListIssues))
	mux.Handle("POST /api/issues", s.authed(s.handleCreateIssue))
	mux.Handle("GET /api/issues/{number}", s.authed(s.handleGetIssue))
	mux.Handle("PATCH /api/issues/{number}", s.authed(s.handleUpdateIssue))
	mux.Handle("GET /api/issues/{number}/comments", s.authed(s.handleListComments))

	mux.Handle("GET /api/pulls", s.authed(s.handleListPulls))
	mux.Handle("GET /api/pulls/{number}", s.authed(s.handleGetPull))
	mux.Handle("GET /api/pulls/{number}/files", s.authed(s.handleListPullFiles))

	s.handler = logRequests(mux)

	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve handles requests on ln. Blocks until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		sctx, cancel := context.WithTimeout(
			context.Background(), 10*time.Second,
		)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			slog.Warn("shutdown", "error", err)
		}
	}()

	slog.Info("serving api", "addr", ln.Addr().String())

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving api: %w", err)
	}

	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info(
			"request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
