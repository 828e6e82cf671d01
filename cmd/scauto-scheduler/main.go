// scauto-scheduler — периодический обход директории run sheet.
//
// Новые flowcell публикуются в flowcells.pending. Без RabbitMQ
// scheduler обрабатывает их сам, по одному за тик.
// Из нескольких экземпляров тики выполняет только держатель pg advisory lock.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/scauto/internal/app"
	"github.com/shaiso/scauto/internal/config"
	"github.com/shaiso/scauto/internal/mq"
	"github.com/shaiso/scauto/internal/repo"
	"github.com/shaiso/scauto/internal/scheduler"
	"github.com/shaiso/scauto/internal/telemetry"
)

const schedLockKey int64 = 424242

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting scauto-scheduler")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := scheduler.ValidateSchedule(cfg.Schedule); err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(1)
	}

	var (
		opts    app.Options
		history scheduler.History
		leader  func(ctx context.Context) bool
	)

	// DB pool: история запусков и выбор лидера
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Warn("database not available, running as a single instance", "error", err)
	} else {
		defer pool.Close()
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		store := repo.NewStore(pool)
		opts.Store = store
		history = store

		lock := repo.NewAdvisoryLock(pool, schedLockKey)
		defer lock.Release(context.Background())
		leader = func(ctx context.Context) bool {
			err := lock.TryAcquire(ctx)
			switch {
			case err == nil:
				return true
			case errors.Is(err, repo.ErrLockHeld):
				return false
			default:
				logger.Warn("leader lock error", "error", err)
				return false
			}
		}
		logger.Info("database connected")
	}

	// RabbitMQ: без брокера обрабатываем сами
	var publisher *mq.Publisher
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, processing flowcells inline", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		publisher = mq.NewPublisher(mqConn, logger)
		opts.Notifier = mq.NewNotifier(publisher)
		logger.Info("RabbitMQ connected")
	}

	a, err := app.New(cfg, logger, opts)
	if err != nil {
		logger.Error("failed to build orchestrator", "error", err)
		os.Exit(1)
	}

	enqueue := func(ctx context.Context, flowcell, sheetPath string) error {
		_, err := a.Daemon.RunFlowcell(ctx, flowcell, sheetPath)
		return err
	}
	if publisher != nil {
		enqueue = publisher.PublishFlowcellPending
	}

	sched := scheduler.New(scheduler.Config{
		RunSheetDir: cfg.RunSheetDir,
		Enqueue:     enqueue,
		SkipList:    a.SkipList,
		History:     history,
		Archive:     a.Tables,
		Leader:      leader,
		Logger:      logger,
	})
	if err := sched.Start(ctx, cfg.Schedule); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	sched.Stop()
	a.Daemon.Stop()
	logger.Info("scauto-scheduler stopped")
}
