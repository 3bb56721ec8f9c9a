package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkovs/paperflow/internal/bootstrap"
	"github.com/avolkovs/paperflow/internal/config"
	"github.com/avolkovs/paperflow/internal/observability/logging"
	"github.com/avolkovs/paperflow/internal/observability/metrics"
)

const service = "paperflow-worker"

// processTimeout is an operational backstop against a wedged OCR engine or
// database call, far above any observed scan duration. Scans otherwise run
// to completion or failure.
const processTimeout = 30 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, logger, pageCounter{metrics: workerMetrics})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(workerMetrics),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	// Scans stuck in processing are crash survivors from a previous run.
	recovered, err := app.RecoverUC.RecoverStalled(ctx)
	if err != nil {
		logger.Error("startup recovery failed", "error", err)
	} else if recovered > 0 {
		logger.Info("recovered stalled scans", "count", recovered)
	}

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeScanQueued(ctx, func(handlerCtx context.Context, scanID string) error {
		if err := app.Limiter.Acquire(handlerCtx); err != nil {
			return err
		}
		defer app.Limiter.Release()

		if scan, err := app.Scans.GetByID(handlerCtx, scanID); err == nil {
			workerMetrics.ObserveQueueLag(service, time.Since(scan.CreatedAt))
		}

		workerMetrics.StartScan()
		start := time.Now()

		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()
		processErr := app.ProcessUC.ProcessByID(processCtx, scanID)

		workerMetrics.FinishScan(service, time.Since(start), processErr)
		if processErr != nil {
			logger.Error("scan processing failed", "scan", scanID, "error", processErr)
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func metricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

// pageCounter adapts WorkerMetrics to the per-page monitor port.
type pageCounter struct {
	metrics *metrics.WorkerMetrics
}

func (c pageCounter) PageExtracted(documentType string) {
	c.metrics.PageExtracted(service, documentType)
}
