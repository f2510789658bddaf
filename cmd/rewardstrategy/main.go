package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/bigcity/rewardstrategy/internal/app"
	"github.com/bigcity/rewardstrategy/internal/leads"
	"github.com/bigcity/rewardstrategy/internal/observability"
	"github.com/bigcity/rewardstrategy/internal/platform/cache"
	"github.com/bigcity/rewardstrategy/internal/shared"
	"github.com/bigcity/rewardstrategy/internal/view"
	"github.com/bigcity/rewardstrategy/internal/webhook"
	"github.com/bigcity/rewardstrategy/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "rewardstrategy_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	locker := shared.NewLocker(redisClient, cfg.SubmitLockTTL)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	controllerCfg := leads.ControllerConfig{
		Submitter: webhook.NewClient(cfg.WebhookURL, cfg.WebhookTimeout, logger.With(slog.String("component", "webhook"))),
		Guard:     locker,
		Dedup:     shared.NewIdempotencyStore(redisClient, cfg.SubmitDedupTTL),
		Recorder:  metrics,
		Logger:    logger.With(slog.String("component", "leads")),
		Source:    cfg.LeadSourceTag,
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	var jobHandler *jobs.Handler
	if cfg.AckEnabled {
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		controllerCfg.Acknowledger = jobClient

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			_ = inspector.Close()
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	controller, err := leads.NewController(controllerCfg)
	if err != nil {
		logger.Error("init lead controller", slog.Any("error", err))
		os.Exit(1)
	}
	leadHandler := leads.NewHandler(logger, controller, templates, csrfManager)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		LeadHandler:    leadHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("ack_enabled", cfg.AckEnabled))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
