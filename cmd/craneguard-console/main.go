package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Craneguard/internal/api"
	"github.com/shaiso/Craneguard/internal/archive"
	"github.com/shaiso/Craneguard/internal/events"
	"github.com/shaiso/Craneguard/internal/orchestrator"
	"github.com/shaiso/Craneguard/internal/scheduler"
	"github.com/shaiso/Craneguard/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "craneguard_console_http_requests_total",
		Help: "Total HTTP requests handled by craneguard-console",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting craneguard-console")

	backendURL := os.Getenv("CG_BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:8000/api"
	}

	// Архив прогонов — опционален
	var runArchive *archive.Archive
	if dsn := os.Getenv("CG_DB_URL"); dsn != "" {
		pool, err := archive.NewPool(context.Background(), dsn)
		if err != nil {
			logger.Error("failed to connect to archive database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		runArchive = archive.New(pool, logger)
		if err := runArchive.Init(context.Background()); err != nil {
			logger.Error("failed to init archive schema", "error", err)
			os.Exit(1)
		}
		logger.Info("run archive enabled")
	}

	// Издатель событий — опционален
	var notifier orchestrator.Notifier
	if amqpURL := os.Getenv("CG_AMQP_URL"); amqpURL != "" {
		conn, err := events.NewConnection(amqpURL, logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		publisher, err := events.NewPublisher(conn, logger)
		if err != nil {
			logger.Error("failed to set up event topology", "error", err)
			os.Exit(1)
		}
		notifier = publisher
		logger.Info("event publishing enabled")
	}

	orchCfg := orchestrator.Config{
		BaseURL:  backendURL,
		Notifier: notifier,
		OwnerOrg: os.Getenv("CG_OWNER_ORG"),
		Logger:   logger,
	}
	if runArchive != nil {
		orchCfg.Archiver = runArchive
	}
	orch := orchestrator.New(orchCfg)

	// Сессии готовим сразу; недоступный бэкенд не мешает старту,
	// bootstrap можно повторить через API.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := orch.Bootstrap(bootCtx); err != nil {
		logger.Warn("initial bootstrap failed, retry via POST /api/v1/workflow/bootstrap", "error", err)
	}
	bootCancel()

	handler := api.NewHandler(api.Config{
		Orchestrator: orch,
		Archive:      runArchive,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("CG_API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Smoke-прогоны по расписанию — опционально
	if cronExpr := os.Getenv("CG_SMOKE_CRON"); cronExpr != "" {
		smoke, err := scheduler.New(scheduler.Config{
			Orchestrator: orch,
			CronExpr:     cronExpr,
			Logger:       logger,
		})
		if err != nil {
			logger.Error("invalid smoke schedule", "cron", cronExpr, "error", err)
			os.Exit(1)
		}
		go func() {
			if err := smoke.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("smoke scheduler error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Активный прогон дорабатывает до конца шага
	orch.Wait()

	logger.Info("stopped")
}
