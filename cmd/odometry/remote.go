package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/teslashibe/go-odometry/internal/httpc"
	"github.com/teslashibe/go-odometry/internal/log"
	"github.com/teslashibe/go-odometry/pkg/web"
)

func runRemote(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("remote", flag.ContinueOnError)
	url := fs.String("url", "http://localhost:8090", "odometry-server base URL")
	pathA := fs.String("a", "", "earlier frame (PNG or JPEG)")
	pathB := fs.String("b", "", "later frame (PNG or JPEG)")
	timeout := fs.Duration("timeout", httpc.DefaultTimeout, "request timeout")
	asJSON := fs.Bool("json", false, "print the record as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pathA == "" || *pathB == "" {
		fs.Usage()
		return errors.New("both -a and -b are required")
	}
	log.Init("")

	var rec web.Record
	endpoint := strings.TrimRight(*url, "/") + "/api/estimate"
	err := httpc.UploadFiles(ctx, httpc.NewClient(*timeout), endpoint,
		map[string]string{"frame1": *pathA, "frame2": *pathB}, &rec)
	if err != nil {
		return err
	}

	if *asJSON {
		return printJSON(rec)
	}
	fmt.Printf("%s  dx=%d dy=%d confidence=%.3f trials=%d  %.1fms  %s\n",
		rec.ID, rec.Vector.DX, rec.Vector.DY, rec.Confidence, rec.Trials,
		rec.ElapsedMS, rec.CreatedAt.Local().Format(time.TimeOnly))
	return nil
}
