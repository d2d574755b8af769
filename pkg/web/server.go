// Package web serves the estimator over HTTP and streams results to
// websocket subscribers.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-odometry/pkg/hub"
	"github.com/teslashibe/go-odometry/pkg/odometry"
	"github.com/teslashibe/go-odometry/pkg/trajectory"
)

// EventEstimate is the hub event type carrying a Record.
const EventEstimate = "estimate"

// bodyLimit allows two full-resolution PNG frames per request.
const bodyLimit = 32 * 1024 * 1024

// Record is a served estimate.
type Record struct {
	ID         string          `json:"id"`
	Vector     odometry.Vector `json:"vector"`
	Confidence float64         `json:"confidence"`
	Trials     int             `json:"trials"`
	Rounds     int             `json:"rounds"`
	Accepted   bool            `json:"accepted"`
	Matcher    string          `json:"matcher"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	ElapsedMS  float64         `json:"elapsed_ms"`
	Position   [2]int          `json:"position"` // Trajectory position after this estimate
	CreatedAt  time.Time       `json:"created_at"`
}

// Config configures the server.
type Config struct {
	Port        int
	HistorySize int
	Preset      string
	Odometry    odometry.Config
}

// Server is the odometry HTTP API.
type Server struct {
	app    *fiber.App
	port   int
	logger *slog.Logger
	start  time.Time

	mu     sync.RWMutex
	cfg    odometry.Config
	preset string
	est    *odometry.Estimator
	opts   []odometry.Option

	historyMu   sync.RWMutex
	history     []Record
	historySize int

	path      *trajectory.Trajectory
	estimates *hub.Hub
}

// NewServer builds the server and its routes. opts are passed to every
// estimator the server creates. A nil logger uses slog.Default().
func NewServer(cfg Config, log *slog.Logger, opts ...odometry.Option) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.HistorySize < 1 {
		cfg.HistorySize = 100
	}

	est, err := odometry.New(cfg.Odometry, log, opts...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		port:        cfg.Port,
		logger:      log.With("component", "web"),
		start:       time.Now(),
		cfg:         cfg.Odometry,
		preset:      cfg.Preset,
		est:         est,
		opts:        opts,
		history:     make([]Record, 0, cfg.HistorySize),
		historySize: cfg.HistorySize,
		path:        trajectory.New(cfg.Odometry.ConfidenceThreshold),
		estimates:   hub.New("estimates", log),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-odometry",
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Post("/estimate", s.handleEstimate)
	api.Get("/config", s.handleGetConfig)
	api.Put("/config", s.handlePutConfig)
	api.Get("/presets", s.handleListPresets)
	api.Post("/presets/:name", s.handleApplyPreset)
	api.Get("/history", s.handleHistory)
	api.Get("/trajectory", s.handleTrajectory)
	api.Delete("/trajectory", s.handleResetTrajectory)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/estimates", websocket.New(s.handleEstimatesWS))

	s.app = app
	return s, nil
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the estimate broadcast hub.
func (s *Server) Hub() *hub.Hub {
	return s.estimates
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.estimates.Run(ctx)
	go func() {
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			s.logger.Warn("shutdown", "error", err)
		}
	}()

	s.logger.Info("listening", "addr", fmt.Sprintf("http://localhost:%d", s.port))
	return s.app.Listen(fmt.Sprintf(":%d", s.port))
}

// estimator returns the current estimator and config together.
func (s *Server) estimator() (*odometry.Estimator, odometry.Config) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.est, s.cfg
}

// setConfig validates cfg and swaps in a new estimator.
func (s *Server) setConfig(cfg odometry.Config, preset string) error {
	est, err := odometry.New(cfg, s.logger, s.opts...)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.preset = preset
	s.est = est
	s.path.SetThreshold(cfg.ConfidenceThreshold)
	s.mu.Unlock()

	s.logger.Info("config updated",
		"preset", preset,
		"threshold", cfg.ConfidenceThreshold,
		"max_trials", cfg.MaxTrials,
		"matcher", cfg.Matcher,
	)
	return nil
}

func (s *Server) record(r Record) {
	s.historyMu.Lock()
	s.history = append(s.history, r)
	if len(s.history) > s.historySize {
		s.history = s.history[len(s.history)-s.historySize:]
	}
	s.historyMu.Unlock()

	if err := s.estimates.Publish(EventEstimate, r); err != nil {
		s.logger.Warn("publish estimate", "error", err)
	}
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleError renders every error as {"error": "..."}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case odometry.IsPrecondition(err):
		code = fiber.StatusBadRequest
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
