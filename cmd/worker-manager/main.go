// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"credx-fairscore/internal/api"
	"credx-fairscore/internal/app"
	"credx-fairscore/internal/common/aws"
	"credx-fairscore/internal/common/camunda"
	"credx-fairscore/internal/common/config"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/common/observability"

	acr "credx-fairscore/internal/workers/credit/assess-credit-risk"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code once the service has shut down.
func run() int {
	bootLog := logger.New("info", "console")
	bootLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Model bundle ---
	engine, _, closeSource, err := app.Bootstrap(ctx, cfg, app.DefaultRetryPolicy, log)
	if err != nil {
		zapLog.Fatal("model bundle failed to load", zap.Error(err))
	}
	defer closeSource()
	zapLog.Info("Scoring engine ready",
		zap.String("primary", engine.Primary()),
		zap.Strings("scorers", engine.Scorers()),
		zap.Float64("threshold", engine.Threshold()),
	)

	// --- Decision events ---
	var publisher acr.DecisionPublisher
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		publisher = aws.NewDecisionPublisher(snsClient, cfg.Notifications.SNS.TopicARN)
		zapLog.Info("Decision events enabled", zap.String("topic", cfg.Notifications.SNS.TopicARN))
	}

	// --- Zeebe worker ---
	var (
		zeebe  *camunda.Client
		worker *camunda.CamundaWorker
		ready  func(context.Context) error
	)
	if cfg.Camunda.Enabled {
		err = app.RetryWithBackoff(ctx, app.DefaultRetryPolicy, log, "Zeebe client initialization", func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		})
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		ready = zeebe.HealthCheck

		if config.IsWorkerEnabled(cfg, acr.TaskType) {
			wcfg := acr.ConfigFromApp(cfg)
			handler, err := acr.NewHandler(acr.HandlerOptions{
				Config:        wcfg,
				Engine:        engine,
				Publisher:     publisher,
				Observability: obs,
				Retrier:       zeebe,
				Logger:        log,
			})
			if err != nil {
				zapLog.Fatal("failed to create assess-credit-risk handler", zap.Error(err))
			}
			worker = camunda.NewWorker(zeebe.GetClient(), acr.TaskType, camunda.WorkerOptions{
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       wcfg.Timeout,
			}, handler, zapLog)
		} else {
			zapLog.Info("worker disabled", zap.String("taskType", acr.TaskType))
		}
	} else {
		zapLog.Info("Camunda disabled, serving HTTP only")
	}

	// --- HTTP: submit, health, metrics ---
	server := &http.Server{
		Addr: cfg.Server.Address(),
		Handler: api.NewServer(api.Options{
			Engine:         engine,
			AllowedOrigins: cfg.Server.CORSAllowedOrigins,
			Ready:          ready,
			Observability:  obs,
			Logger:         log,
		}).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
	}
	serverErr := startServer(server, zapLog)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	exitCode := awaitShutdown(sigCh, serverErr, zapLog)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if worker != nil {
		worker.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
	return exitCode
}

// startServer serves in the background. A listener failure is delivered on
// the returned channel.
func startServer(server *http.Server, zapLog *zap.Logger) <-chan error {
	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	return serverErr
}

// awaitShutdown blocks until a signal arrives or the HTTP server fails and
// returns the exit code.
func awaitShutdown(sigCh <-chan os.Signal, serverErr <-chan error, zapLog *zap.Logger) int {
	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, stopping workers...")
		return 0
	case err := <-serverErr:
		zapLog.Error("HTTP server failed, stopping workers...", zap.Error(err))
		return 1
	}
}
