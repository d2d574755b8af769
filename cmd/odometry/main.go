// odometry - estimate camera translation between frames
//
// Usage:
//
//	odometry estimate -a prev.png -b next.png [-preset fast] [-json]
//	odometry bench -image scene.png [-n 100] [-size 200] [-max-offset 50]
//	odometry remote -url http://localhost:8090 -a prev.png -b next.png
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-odometry/internal/config"
	"github.com/teslashibe/go-odometry/internal/log"
	"github.com/teslashibe/go-odometry/pkg/odometry"
	_ "github.com/teslashibe/go-odometry/pkg/odometry/cvmatch"
)

const usage = `usage: odometry <command> [flags]

commands:
  estimate   estimate the translation between two images
  bench      measure accuracy on synthetic pairs cut from one image
  remote     send two images to a running odometry-server

run "odometry <command> -h" for command flags`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "estimate":
		err = runEstimate(ctx, args)
	case "bench":
		err = runBench(ctx, args)
	case "remote":
		err = runRemote(ctx, args)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.L().Error("odometry failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// commonFlags are shared by the local commands.
type commonFlags struct {
	configPath string
	preset     string
	matcher    string
	seed       uint64
	workers    int
	logLevel   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML config file")
	fs.StringVar(&c.preset, "preset", "", fmt.Sprintf("parameter preset %v", odometry.PresetNames()))
	fs.StringVar(&c.matcher, "matcher", "", fmt.Sprintf("matcher backend %v", odometry.MatcherNames()))
	fs.Uint64Var(&c.seed, "seed", 0, "random seed (0 = random)")
	fs.IntVar(&c.workers, "workers", 0, "parallel matchers (0 = all CPUs)")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
}

// load resolves the config file and environment, then applies flags the
// user actually set.
func (c *commonFlags) load(fs *flag.FlagSet) (config.AppConfig, error) {
	cfg, err := config.LoadWithPreset(c.configPath, c.preset)
	if err != nil {
		return config.AppConfig{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "matcher":
			cfg.Odometry.Matcher = c.matcher
		case "seed":
			cfg.Odometry.Seed = c.seed
		case "workers":
			cfg.Odometry.Workers = c.workers
		case "log-level":
			cfg.LogLevel = c.logLevel
		}
	})
	log.Init(cfg.LogLevel)

	if err := cfg.Odometry.Validate(); err != nil {
		return config.AppConfig{}, err
	}
	return cfg, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
