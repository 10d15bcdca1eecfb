package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/core/observability/log"
	"github.com/skylift/skylift/internal/core/observability/monitor"
	"github.com/skylift/skylift/internal/core/policy"
	"github.com/skylift/skylift/internal/server"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	serve      = flag.Bool("serve", false, "serve telemetry after training even if disabled in config")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "skylift:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return err
		}
	}

	logger, err := log.New(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rec := monitor.NewRecorder(4096, monitor.WithLogger(logger))
	defer rec.Close()

	trainer, err := policy.NewTrainer(cfg.Trainer, cfg.Flight,
		policy.WithLogger(logger), policy.WithRecorder(rec))
	if err != nil {
		return err
	}

	summary, err := trainer.Train(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("training interrupted", log.Int("iterations", summary.Iterations))
		return nil
	case err != nil:
		return err
	}
	logger.Info("run summary",
		log.Int("episodes", summary.Episodes),
		log.Float64("best_return", summary.BestReturn),
		log.Float64("final_mean_return", summary.FinalMeanReturn),
		log.Float64("final_landing_rate", summary.FinalLandingRate),
	)

	if !cfg.Server.Enabled && !*serve {
		return nil
	}

	srv, err := server.New(cfg.Server, cfg.Flight,
		server.WithLogger(logger),
		server.WithRecorder(rec),
		server.WithActFunc(trainer.Policy().Mean),
		server.WithEpisodeSource(trainer.Recent),
	)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return srv.Stop(shutdownCtx)
}
