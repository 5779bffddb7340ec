package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkovalev/qa-assistant/internal/bootstrap"
	"github.com/mkovalev/qa-assistant/internal/config"
	"github.com/mkovalev/qa-assistant/internal/core/domain"
	"github.com/mkovalev/qa-assistant/internal/core/usecase"
	"github.com/mkovalev/qa-assistant/internal/observability/metrics"
)

const serviceName = "qa-worker"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux(workerMetrics),
	}
	go func() {
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeQuestions(ctx, func(handlerCtx context.Context, job domain.DeferredQuestion) error {
		answerCtx, cancel := context.WithTimeout(handlerCtx, cfg.WorkerAnswerTimeout)
		defer cancel()

		workerMetrics.StartQuestion()
		started := time.Now()

		resp, err := app.AnswerUC.Answer(answerCtx, job.Request, job.UserID, usecase.AnswerOptions{
			RealTime:        false,
			EnableReflexion: cfg.ReflexionEnabled,
		})
		workerMetrics.FinishQuestion(serviceName, time.Since(started), err)
		if err != nil {
			return err
		}
		if resp.EvalResValid != nil {
			workerMetrics.RecordReflexion(serviceName, *resp.EvalResValid)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func metricsMux(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
