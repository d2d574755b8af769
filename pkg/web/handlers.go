package web

import (
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-odometry/pkg/frame"
	"github.com/teslashibe/go-odometry/pkg/hub"
	"github.com/teslashibe/go-odometry/pkg/odometry"
)

// handleHealth reports liveness and a few counters
func (s *Server) handleHealth(c *fiber.Ctx) error {
	s.historyMu.RLock()
	served := len(s.history)
	s.historyMu.RUnlock()

	return c.JSON(fiber.Map{
		"status":      "ok",
		"uptime_s":    int(time.Since(s.start).Seconds()),
		"matchers":    odometry.MatcherNames(),
		"subscribers": s.estimates.ClientCount(),
		"recent":      served,
	})
}

// handleEstimate runs the estimator on multipart fields frame1 and frame2.
func (s *Server) handleEstimate(c *fiber.Ctx) error {
	prev, err := formFrame(c, "frame1")
	if err != nil {
		return err
	}
	next, err := formFrame(c, "frame2")
	if err != nil {
		return err
	}

	est, cfg := s.estimator()
	result, err := est.Estimate(c.UserContext(), prev, next)
	if err != nil {
		return err
	}

	step := s.path.Add(result)
	rows, cols := prev.Dims()
	rec := Record{
		ID:         uuid.NewString(),
		Vector:     result.Vector,
		Confidence: result.Confidence,
		Trials:     result.Trials,
		Rounds:     result.Rounds,
		Accepted:   step.Accepted,
		Matcher:    cfg.Matcher,
		Width:      cols,
		Height:     rows,
		ElapsedMS:  float64(result.Elapsed.Microseconds()) / 1000,
		Position:   [2]int{step.Position.X, step.Position.Y},
		CreatedAt:  time.Now().UTC(),
	}
	s.record(rec)

	s.logger.Info("estimate",
		"id", rec.ID,
		"vector", rec.Vector.String(),
		"confidence", rec.Confidence,
		"trials", rec.Trials,
		"elapsed_ms", rec.ElapsedMS,
	)
	return c.JSON(rec)
}

func formFrame(c *fiber.Ctx, field string) (*frame.Frame, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("missing form file %q", field))
	}
	return decodeUpload(fh, field)
}

func decodeUpload(fh *multipart.FileHeader, field string) (*frame.Frame, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer file.Close()

	f, err := frame.Decode(file)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s: %v", field, err))
	}
	return f, nil
}

// ConfigResponse is returned by the config endpoints.
type ConfigResponse struct {
	Preset string          `json:"preset"`
	Config odometry.Config `json:"config"`
}

func (s *Server) currentConfig() ConfigResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ConfigResponse{Preset: s.preset, Config: s.cfg}
}

func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(s.currentConfig())
}

// ConfigUpdate is a partial config; nil fields keep their value.
type ConfigUpdate struct {
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	InitialTrials       *int     `json:"initial_trials"`
	TrialIncrement      *int     `json:"trial_increment"`
	MaxTrials           *int     `json:"max_trials"`
	Workers             *int     `json:"workers"`
	Seed                *uint64  `json:"seed"`
	Matcher             *string  `json:"matcher"`
}

// Apply returns cfg with the set fields replaced.
func (u ConfigUpdate) Apply(cfg odometry.Config) odometry.Config {
	if u.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = *u.ConfidenceThreshold
	}
	if u.InitialTrials != nil {
		cfg.InitialTrials = *u.InitialTrials
	}
	if u.TrialIncrement != nil {
		cfg.TrialIncrement = *u.TrialIncrement
	}
	if u.MaxTrials != nil {
		cfg.MaxTrials = *u.MaxTrials
	}
	if u.Workers != nil {
		cfg.Workers = *u.Workers
	}
	if u.Seed != nil {
		cfg.Seed = *u.Seed
	}
	if u.Matcher != nil {
		cfg.Matcher = *u.Matcher
	}
	return cfg
}

// handlePutConfig applies a partial update. The preset becomes "custom".
func (s *Server) handlePutConfig(c *fiber.Ctx) error {
	var update ConfigUpdate
	if err := c.BodyParser(&update); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	current := s.currentConfig()
	if err := s.setConfig(update.Apply(current.Config), "custom"); err != nil {
		return err
	}
	return c.JSON(s.currentConfig())
}

func (s *Server) handleListPresets(c *fiber.Ctx) error {
	return c.JSON(odometry.Presets())
}

func (s *Server) handleApplyPreset(c *fiber.Ctx) error {
	name := c.Params("name")
	cfg := odometry.GetPreset(name)
	if cfg == nil {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown preset %q", name))
	}

	// Keep the deployment's execution settings.
	current := s.currentConfig().Config
	cfg.Workers = current.Workers
	cfg.Seed = current.Seed

	if err := s.setConfig(*cfg, name); err != nil {
		return err
	}
	return c.JSON(s.currentConfig())
}

// handleHistory returns recent records, newest last. ?limit=n keeps the
// last n.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	s.historyMu.RLock()
	out := append([]Record(nil), s.history...)
	s.historyMu.RUnlock()

	if limit > 0 && limit < len(out) {
		out = out[len(out)-limit:]
	}
	return c.JSON(out)
}

func (s *Server) handleTrajectory(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"summary": s.path.Summary(),
		"steps":   s.path.Steps(),
	})
}

func (s *Server) handleResetTrajectory(c *fiber.Ctx) error {
	s.path.Reset()
	return c.SendStatus(fiber.StatusNoContent)
}

// handleEstimatesWS streams every new record to the subscriber.
func (s *Server) handleEstimatesWS(c *websocket.Conn) {
	client := hub.NewClient(s.estimates, c)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
