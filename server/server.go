// Package server exposes the kernel over HTTP: a Connect unary procedure
// for runs plus health and metrics endpoints on a chi router.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/alfred/kernel"
)

const (
	// ServiceName is the fully-qualified Connect service name.
	ServiceName = "alfred.v1.AgentService"

	// RunProcedure is the HTTP path of the Run procedure.
	RunProcedure = "/" + ServiceName + "/Run"
)

// Runner answers a single query. *kernel.Kernel satisfies it.
type Runner interface {
	Run(ctx context.Context, query, sessionID string) (*kernel.Result, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithGatherer serves g on /metrics. Without it /metrics is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithRunTimeout bounds each Run call. Zero leaves runs bounded only by the
// request context.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) { s.runTimeout = d }
}

// Server serves Run requests against a Runner.
type Server struct {
	runner     Runner
	logger     *slog.Logger
	gatherer   prometheus.Gatherer
	runTimeout time.Duration
}

func New(runner Runner, opts ...Option) *Server {
	s := &Server{runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Handler returns the router serving all endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Handle(RunProcedure, connect.NewUnaryHandler(RunProcedure, s.run))
	return r
}

// run decodes {"query", "session_id"} and replies with
// {"answer", "iterations", "session_id"}.
func (s *Server) run(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	query := fields["query"].GetStringValue()
	sessionID := fields["session_id"].GetStringValue()

	if strings.TrimSpace(query) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, kernel.ErrEmptyQuery)
	}

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	result, err := s.runner.Run(ctx, query, sessionID)
	if err != nil {
		s.logger.Warn("run failed", "session_id", sessionID, "error", err)
		return nil, connect.NewError(codeOf(err), err)
	}

	msg, err := structpb.NewStruct(map[string]any{
		"answer":     result.Response,
		"iterations": result.Iterations,
		"session_id": result.SessionID,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func codeOf(err error) connect.Code {
	switch {
	case errors.Is(err, kernel.ErrEmptyQuery):
		return connect.CodeInvalidArgument
	case errors.Is(err, kernel.ErrMaxIterations):
		return connect.CodeResourceExhausted
	case errors.Is(err, kernel.ErrModelBackend):
		return connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	default:
		return connect.CodeInternal
	}
}
