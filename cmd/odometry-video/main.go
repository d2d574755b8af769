// odometry-video - track camera translation through a video or live camera
//
// Consecutive frames are estimated pairwise and chained into a trajectory.
//
//	odometry-video -in clip.mp4 [-every 2] [-max 500]
//	odometry-video -in 0            # first camera
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-odometry/internal/config"
	"github.com/teslashibe/go-odometry/internal/log"
	"github.com/teslashibe/go-odometry/pkg/frame"
	"github.com/teslashibe/go-odometry/pkg/odometry"
	"github.com/teslashibe/go-odometry/pkg/odometry/cvmatch"
	"github.com/teslashibe/go-odometry/pkg/trajectory"
)

func main() {
	in := flag.String("in", "", "video file, stream URL or camera index")
	every := flag.Int("every", 1, "estimate every n-th frame")
	maxSteps := flag.Int("max", 0, "stop after this many estimates (0 = until end)")
	configPath := flag.String("config", "", "YAML config file")
	matcher := flag.String("matcher", "", "matcher backend (overrides config)")
	asJSON := flag.Bool("json", false, "print steps as JSON lines")
	flag.Parse()

	if *in == "" || *every < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.L().Error("configuration error", "error", err)
		os.Exit(1)
	}
	if *matcher != "" {
		cfg.Odometry.Matcher = *matcher
	}
	logger := log.Init(cfg.LogLevel)

	est, err := odometry.New(cfg.Odometry, logger)
	if err != nil {
		logger.Error("estimator setup failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := trajectory.New(cfg.Odometry.ConfidenceThreshold)
	if err := track(ctx, *in, *every, *maxSteps, est, path, *asJSON); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("tracking failed", "error", err)
		os.Exit(1)
	}

	s := path.Summary()
	logger.Info("trajectory",
		"steps", s.Steps,
		"position", s.Position.String(),
		"path_length", s.PathLength,
		"min_confidence", s.MinConfidence,
		"rejected", s.Rejected,
	)
	if !*asJSON {
		fmt.Printf("\nfinal position %v after %d steps (path %.1fpx, %d below threshold)\n",
			s.Position, s.Steps, s.PathLength, s.Rejected)
	}
}

func openCapture(in string) (*gocv.VideoCapture, error) {
	if idx, err := strconv.Atoi(in); err == nil {
		return gocv.OpenVideoCapture(idx)
	}
	return gocv.OpenVideoCapture(in)
}

func track(ctx context.Context, in string, every, maxSteps int, est *odometry.Estimator, path *trajectory.Trajectory, asJSON bool) error {
	vc, err := openCapture(in)
	if err != nil {
		return fmt.Errorf("open %s: %w", in, err)
	}
	defer vc.Close()

	img := gocv.NewMat()
	defer img.Close()

	enc := json.NewEncoder(os.Stdout)
	var prev *frame.Frame
	for n := 0; ctx.Err() == nil; n++ {
		if ok := vc.Read(&img); !ok || img.Empty() {
			return nil
		}
		if n%every != 0 {
			continue
		}

		next, err := cvmatch.FrameFromMat(img)
		if err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if prev == nil {
			prev = next
			continue
		}

		result, err := est.Estimate(ctx, prev, next)
		if err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		step := path.Add(result)
		prev = next

		if asJSON {
			if err := enc.Encode(step); err != nil {
				return err
			}
		} else {
			fmt.Printf("frame %5d  %-10s conf=%.2f trials=%2d  position=%v\n",
				n, step.Vector, step.Confidence, step.Trials, step.Position)
		}

		if maxSteps > 0 && path.Len() >= maxSteps {
			return nil
		}
	}
	return ctx.Err()
}
