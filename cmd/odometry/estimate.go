package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/teslashibe/go-odometry/internal/log"
	"github.com/teslashibe/go-odometry/pkg/frame"
	"github.com/teslashibe/go-odometry/pkg/odometry"
)

func runEstimate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	pathA := fs.String("a", "", "earlier frame (PNG or JPEG)")
	pathB := fs.String("b", "", "later frame (PNG or JPEG)")
	asJSON := fs.Bool("json", false, "print the full estimate as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pathA == "" || *pathB == "" {
		fs.Usage()
		return errors.New("both -a and -b are required")
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}

	prev, err := frame.Load(*pathA)
	if err != nil {
		return err
	}
	next, err := frame.Load(*pathB)
	if err != nil {
		return err
	}

	est, err := odometry.New(cfg.Odometry, log.L())
	if err != nil {
		return err
	}
	result, err := est.Estimate(ctx, prev, next)
	if err != nil {
		return err
	}

	log.L().Info("estimate",
		"vector", result.Vector.String(),
		"confidence", result.Confidence,
		"trials", result.Trials,
		"rounds", result.Rounds,
		"elapsed", result.Elapsed,
	)

	if *asJSON {
		return printJSON(result)
	}

	status := "accepted"
	if !result.Accepted(cfg.Odometry.ConfidenceThreshold) {
		status = "below threshold"
	}
	fmt.Printf("dx=%d dy=%d confidence=%.3f trials=%d (%s)\n",
		result.Vector.DX, result.Vector.DY, result.Confidence, result.Trials, status)
	return nil
}
