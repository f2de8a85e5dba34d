// Package server wires the HTTP surface: an echo instance carrying the
// v1 REST API, health and metrics endpoints, and the assembled scheduling
// engine over the store.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/blockwise/engine"
	"github.com/hrygo/blockwise/engine/metrics"
	"github.com/hrygo/blockwise/engine/phrase"
	"github.com/hrygo/blockwise/engine/slotfinder"
	"github.com/hrygo/blockwise/engine/timeblock"
	"github.com/hrygo/blockwise/internal/profile"
	apiv1 "github.com/hrygo/blockwise/server/router/api/v1"
	"github.com/hrygo/blockwise/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	engine     *engine.Engine
	exporter   *metrics.Exporter
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	exporter := metrics.NewExporter(metrics.DefaultConfig())
	eng, err := newEngine(profile, store, exporter)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble engine: %w", err)
	}

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
		engine:     eng,
		exporter:   exporter,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))

	apiV1Service := apiv1.NewAPIV1Service(profile, store, eng)
	apiV1Service.RegisterRoutes(e)

	return s, nil
}

// newEngine assembles the scheduling engine from the runtime profile: the
// store-backed history source, tuned day window, metrics, and the optional
// phrase rewriter.
func newEngine(p *profile.Profile, st *store.Store, exporter *metrics.Exporter) (*engine.Engine, error) {
	cfg := engine.DefaultConfig()
	cfg.WindowDays = p.WindowDays

	day := slotfinder.DefaultWindow()
	if p.DayStart != "" {
		start, err := timeblock.ParseClock(p.DayStart)
		if err != nil {
			return nil, fmt.Errorf("invalid day start: %w", err)
		}
		day.Start = start
	}
	if p.DayEnd != "" {
		end, err := timeblock.ParseClock(p.DayEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid day end: %w", err)
		}
		day.End = end
	}
	if day.End <= day.Start {
		return nil, fmt.Errorf("day end %s must be after day start %s", p.DayEnd, p.DayStart)
	}
	cfg.Day = day

	opts := []engine.Option{
		engine.WithConfig(cfg),
		engine.WithMetrics(exporter),
	}

	if p.IsPhraseEnabled() {
		rewriter, err := phrase.NewService(phrase.Config{
			Provider: p.PhraseProvider,
			Model:    p.PhraseModel,
			APIKey:   p.PhraseAPIKey,
			BaseURL:  p.PhraseBaseURL,
			Timeout:  p.PhraseTimeout,
		})
		if err != nil {
			slog.Warn("failed to initialize phrase service, suggestions keep deterministic reasons",
				"provider", p.PhraseProvider,
				"error", err)
		} else {
			slog.Info("phrase service initialized",
				"provider", p.PhraseProvider,
				"model", p.PhraseModel)
			hardTimeout := time.Duration(p.PhraseTimeout) * time.Second
			opts = append(opts, engine.WithRewriter(phrase.NewResilient(rewriter, hardTimeout)))
		}
	}

	return engine.New(store.NewBlockSource(st), opts...)
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil && !strings.Contains(err.Error(), "context canceled") {
		slog.Error("failed to shutdown server", "error", err)
	}

	// Close database connection.
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("blockwise stopped properly")
}

// Engine exposes the assembled scheduling engine, mainly for plugins that
// run alongside the server.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}
