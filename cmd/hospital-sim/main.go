// Command hospital-sim loads a hospital configuration and simulates it day
// by day until the ward is empty, the run stalls or the day limit is hit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MRamiBalles/ecshospital/internal/app"
	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/intake"
	"github.com/MRamiBalles/ecshospital/internal/platform/config"
	"github.com/MRamiBalles/ecshospital/internal/platform/metrics"
	"github.com/MRamiBalles/ecshospital/internal/report"
)

func main() {
	source := flag.String("config", "", "hospital configuration file or http(s) URL")
	envFile := flag.String("env", ".env", "optional .env file")
	seed := flag.Int64("seed", -1, "random seed (overrides HOSPITAL_SEED)")
	maxDays := flag.Int("max-days", -1, "day limit, 0 for none (overrides HOSPITAL_MAX_DAYS)")
	stallDays := flag.Int("stall-days", -1, "idle days before giving up, 0 to disable (overrides HOSPITAL_STALL_DAYS)")
	verbose := flag.Bool("v", false, "print assignments and countdowns")
	flag.Parse()

	if *source == "" {
		fmt.Fprintln(os.Stderr, "usage: hospital-sim -config <file|url> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	if *seed >= 0 {
		cfg.Seed = uint64(*seed)
	}
	if *maxDays >= 0 {
		cfg.MaxDays = *maxDays
	}
	if *stallDays >= 0 {
		cfg.StallDays = *stallDays
	}

	appLogger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	setup, lineErrs, err := intake.Load(ctx, *source)
	if err != nil {
		appLogger.Err(err, "Failed to load hospital configuration")
		os.Exit(1)
	}
	for _, le := range lineErrs {
		appLogger.Warn(le.Error())
	}

	infra, err := app.Open(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Err(err, "Failed to initialize infrastructure")
		os.Exit(1)
	}
	defer func() {
		if err := infra.Close(ctx); err != nil {
			appLogger.Err(err, "Failed to close infrastructure")
		}
	}()

	reporters := append([]engine.Reporter{report.NewConsole(os.Stdout, *verbose)}, infra.Reporters()...)
	hospital, rejected := engine.NewEngine(infra.EventLog, appLogger, setup, engine.Options{
		Seed:      cfg.Seed,
		MaxDays:   cfg.MaxDays,
		StallDays: cfg.StallDays,
		Reporters: reporters,
	})
	if len(rejected) > 0 {
		appLogger.Warn(fmt.Sprintf("%d configuration records rejected", len(rejected)))
	}

	summary, err := hospital.Run(ctx)
	if err != nil {
		appLogger.Err(err, "Run interrupted")
	}

	for _, note := range config.Analyze(metrics.Get().Snapshot()).Notes {
		appLogger.Info("Tuning: " + note)
	}
	appLogger.Event("RUN_FINISHED", summary.RunID, string(summary.Outcome))
}
