package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace/noop"
	oteltrace "go.opentelemetry.io/otel/trace"

	"alexa-smarthome-bridge/internal/observability"
	"alexa-smarthome-bridge/internal/ports"
)

const maxBodyBytes = 1 << 20

type Options struct {
	// CORSOrigins lists the origins allowed on the management API.
	CORSOrigins []string
	// JWTSecret guards the management API with HS256 bearer tokens when set.
	JWTSecret string
	Metrics   http.Handler
	Tracer    oteltrace.Tracer
	// Ready reports whether the hub connection is up. Nil means always ready.
	Ready func() bool
}

type Server struct {
	smartHome ports.SmartHomePort
	devices   ports.DevicesPort
	opts      Options
	log       *slog.Logger
}

func NewServer(smartHome ports.SmartHomePort, devices ports.DevicesPort, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{smartHome: smartHome, devices: devices, opts: opts, log: log.With("component", "http")}
}

// Handler builds the router: the Alexa directive endpoint, the device
// management API, health and metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observability.Middleware(s.opts.Tracer))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if s.opts.Ready != nil && !s.opts.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Post("/alexa/directive", s.handleDirective)

	r.Route("/api/devices", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
		if s.opts.JWTSecret != "" {
			r.Use(requireJWT([]byte(s.opts.JWTSecret)))
		}
		r.Get("/", s.handleListDevices)
		r.Post("/", s.handleCreateDevice)
		r.Post("/report", s.handleReport)
		r.Get("/{id}", s.handleGetDevice)
		r.Patch("/{id}", s.handleUpdateDevice)
		r.Delete("/{id}", s.handleDeleteDevice)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
