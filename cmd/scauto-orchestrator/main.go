// scauto-orchestrator — демон обработки flowcell.
//
// Orchestrator:
//   - Получает flowcell.pending из RabbitMQ
//   - Читает run sheet и запускает инструменты по образцам
//   - Аннотирует образцы и пишет пути результатов в run sheet
//   - Сохраняет итоги в Postgres и публикует события завершения
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/scauto/internal/app"
	"github.com/shaiso/scauto/internal/config"
	"github.com/shaiso/scauto/internal/mq"
	"github.com/shaiso/scauto/internal/repo"
	"github.com/shaiso/scauto/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting scauto-orchestrator")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var opts app.Options

	// DB pool: без базы итоги только логируются
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Warn("database not available, results will not be stored", "error", err)
	} else {
		defer pool.Close()
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		opts.Store = repo.NewStore(pool)
		logger.Info("database connected")
	}

	// RabbitMQ
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}
	logger.Debug("topology", "info", mq.TopologyInfo())

	opts.Conn = mqConn
	opts.Notifier = mq.NewNotifier(mq.NewPublisher(mqConn, logger))

	a, err := app.New(cfg, logger, opts)
	if err != nil {
		logger.Error("failed to build orchestrator", "error", err)
		os.Exit(1)
	}

	if err := a.Daemon.Start(ctx); err != nil {
		logger.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("ORCH_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Дочерние процессы уже получили отмену через ctx, ждём сводку
	a.Daemon.Stop()
	logger.Info("scauto-orchestrator stopped")
}
