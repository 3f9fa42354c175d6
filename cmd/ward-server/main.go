// Command ward-server runs a hospital in real time: one simulated day per
// tick, with a REST API, a websocket event stream and websocket admissions.
// It only handles dependency injection and server initialization.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/ecshospital/internal/app"
	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/intake"
	"github.com/MRamiBalles/ecshospital/internal/network"
	"github.com/MRamiBalles/ecshospital/internal/platform/config"
)

func main() {
	source := flag.String("config", "", "hospital configuration file or http(s) URL (empty opens an empty default hospital)")
	envFile := flag.String("env", ".env", "optional .env file")
	addr := flag.String("addr", "", "listen address (overrides HOSPITAL_HTTP_ADDR)")
	interval := flag.Duration("interval", 0, "wall time per simulated day (overrides HOSPITAL_DAY_INTERVAL)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *interval > 0 {
		cfg.DayInterval = *interval
	}

	appLogger := app.NewLogger(cfg)
	appLogger.Info("Initializing ward server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	setup := engine.Setup{Capacities: engine.DefaultCapacities()}
	if *source != "" {
		var lineErrs []intake.LineError
		setup, lineErrs, err = intake.Load(ctx, *source)
		if err != nil {
			appLogger.Err(err, "Failed to load hospital configuration")
			os.Exit(1)
		}
		for _, le := range lineErrs {
			appLogger.Warn(le.Error())
		}
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

	appLogger.Info("Bootstrapping hospital engine...")
	// A live ward never stalls or completes on its own; new patients can
	// arrive at any time.
	hospital, _ := engine.NewEngine(infra.EventLog, appLogger, setup, engine.Options{
		Seed:        cfg.Seed,
		DayInterval: cfg.DayInterval,
		Reporters:   infra.Reporters(),
	})

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(hospital, network.HubOptions{
		BroadcastBuffer:      cfg.Tuning.BroadcastBuffer,
		ClientSendBuffer:     cfg.Tuning.ClientSendBuffer,
		MaxMessagesPerSecond: cfg.Tuning.MaxMessagesPerSecond,
	}, appLogger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           network.NewRouter(hospital, infra.EventLog, hub, appLogger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	hub.StartEventPoller(gctx, infra.EventLog)
	g.Go(func() error {
		hospital.Start(gctx)
		<-gctx.Done()
		hospital.Stop()
		return nil
	})
	g.Go(func() error {
		appLogger.Info("HTTP API & WS server listening on " + cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Err(err, "Ward server stopped")
	}
	summary := hospital.Summary()
	appLogger.Info(fmt.Sprintf("Ward closed after %d days: %d admitted, %d discharged", summary.Days, summary.Admitted, summary.Discharged))
}
