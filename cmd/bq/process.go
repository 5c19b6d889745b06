package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	bq "github.com/beanqueue/bq-go"
	"github.com/beanqueue/bq-go/internal/db"
	"github.com/beanqueue/bq-go/internal/healthz"
	"github.com/beanqueue/bq-go/internal/loop"
	"github.com/beanqueue/bq-go/internal/logger"
)

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process [channels...]",
		Short: "Run a worker, dispatching tasks from the given channels",
		Long:  "Run a worker subscribed to the given channels (default: \"default\"). Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			channels := args
			if len(channels) == 0 {
				channels = []string{"default"}
			}
			return runProcess(channels)
		},
	}
}

func runProcess(channels []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Get()

	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	app := bq.New(pool)
	if err := app.LoadHandlers(bq.DefaultScanner(), cfg.Database.ProcessorPackages); err != nil {
		return err
	}

	taskAdapter, err := cfg.Models.TaskAdapter()
	if err != nil {
		return err
	}
	workerAdapter, err := cfg.Models.WorkerAdapter()
	if err != nil {
		return err
	}

	w := loop.New(pool, app.Registry, loop.Config{
		Channels:         channels,
		BatchSize:        cfg.Worker.BatchSize,
		PollTimeout:      cfg.Worker.PollTimeout,
		HeartbeatPeriod:  cfg.Worker.HeartbeatPeriod,
		HeartbeatTimeout: cfg.Worker.HeartbeatTimeout,
		ShutdownTimeout:  cfg.Worker.ShutdownTimeout,
		TaskAdapter:      taskAdapter,
		WorkerAdapter:    workerAdapter,
	})

	if cfg.Metrics.Enabled {
		addr := cfg.Metrics.Interface + ":" + strconv.Itoa(cfg.Metrics.Port)
		srv := &http.Server{Addr: addr, Handler: healthz.NewServer(w.ID, w.WorkerState)}
		go func() {
			log.Info().Str("addr", addr).Msg("bq: healthz server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("bq: healthz server stopped")
			}
		}()
		defer srv.Close()
	}

	log.Info().Strs("channels", channels).Msg("bq: worker starting")
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "bq-worker"
	}
	if err := w.Run(ctx, hostname); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("bq: worker stopped")
	return nil
}
