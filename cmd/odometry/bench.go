package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/teslashibe/go-odometry/internal/log"
	"github.com/teslashibe/go-odometry/pkg/bench"
	"github.com/teslashibe/go-odometry/pkg/frame"
	"github.com/teslashibe/go-odometry/pkg/odometry"
)

func runBench(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	image := fs.String("image", "", "source image (empty = synthetic texture)")
	pairs := fs.Int("n", 0, "number of pairs")
	size := fs.Int("size", 0, "side of each window in pixels")
	maxOffset := fs.Int("max-offset", -1, "largest offset per axis")
	binary := fs.Float64("binary", -1, "threshold the source at this percent first (0 = off)")
	benchSeed := fs.Uint64("bench-seed", 0, "seed for pair generation (0 = random)")
	asJSON := fs.Bool("json", false, "print every case as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	bc := cfg.Bench
	if *pairs > 0 {
		bc.Pairs = *pairs
	}
	if *size > 0 {
		bc.Size = *size
	}
	if *maxOffset >= 0 {
		bc.MaxOffset = *maxOffset
	}
	if *binary >= 0 {
		bc.Binary = float32(*binary)
	}
	if *benchSeed != 0 {
		bc.Seed = *benchSeed
	}

	src, err := benchSource(*image, bc)
	if err != nil {
		return err
	}

	est, err := odometry.New(cfg.Odometry, log.L())
	if err != nil {
		return err
	}

	log.L().Info("bench starting",
		"pairs", bc.Pairs,
		"size", bc.Size,
		"max_offset", bc.MaxOffset,
		"matcher", cfg.Odometry.Matcher,
	)
	report, err := bench.Run(ctx, est, src, bc, log.L())
	if err != nil {
		return err
	}
	log.L().Info("bench finished", "report", report)

	if *asJSON {
		return printJSON(report)
	}

	for i, c := range report.Cases {
		fmt.Printf("%4d  conf=%.2f  trials=%2d  result=%-10s offset=%-10s err=%.1f\n",
			i, c.Confidence, c.Trials, c.Result, c.Offset, c.Error)
	}
	fmt.Printf("\nmean error %.3fpx (sd %.3f, p95 %.1f), exact %.1f%%, mean trials %.1f, %v\n",
		report.MeanError, report.StdError, report.P95Error,
		100*report.ExactRate, report.MeanTrials, report.Elapsed)
	return nil
}

// benchSource loads path, or synthesizes a blurred texture big enough for
// the configured windows.
func benchSource(path string, bc bench.Config) (*frame.Frame, error) {
	if path != "" {
		return frame.Load(path)
	}
	side := 2 * (bc.Size + bc.MaxOffset)
	return frame.Texture(side, side, 1.5, odometry.NewSource(bc.Seed))
}
