package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/internal/cycles"
	"github.com/redeciclos/ciclos-backend/internal/scheduler"
	"github.com/redeciclos/ciclos-backend/pkg/config"
	"github.com/redeciclos/ciclos-backend/pkg/db"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/metrics"
	"github.com/redeciclos/ciclos-backend/pkg/migrate"
	"github.com/redeciclos/ciclos-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "scheduler"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "scheduler",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Scheduler.Interval.String(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var lock scheduler.Lock = &scheduler.LocalLock{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		if lock, err = scheduler.NewRedisLock(redisClient, redis.SchedulerLockKey(cfg.App.Env), cfg.Scheduler.LockTTL); err != nil {
			logg.Error(ctx, "failed to create scheduler lock", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "redis not configured, scheduler lock is process local")
	}

	registry := prometheus.NewRegistry()
	jobMetrics := metrics.NewJobMetrics(registry)

	cycleRepo := cycles.NewRepository(dbClient.DB())
	cycleSvc, err := cycles.NewService(cycles.ServiceParams{
		Logger:  logg,
		DB:      dbClient,
		Repo:    cycleRepo,
		Catalog: catalog.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(ctx, "failed to create cycles service", err)
		os.Exit(1)
	}
	phaseJob, err := scheduler.NewCyclePhaseJob(scheduler.CyclePhaseJobParams{
		Logger:   logg,
		Cycles:   cycleRepo,
		Advancer: cycleSvc,
		Metrics:  jobMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cycle phase job", err)
		os.Exit(1)
	}

	service, err := scheduler.NewService(scheduler.ServiceParams{
		Logger:     logg,
		Jobs:       []scheduler.Job{phaseJob},
		Lock:       lock,
		Metrics:    jobMetrics,
		Interval:   cfg.Scheduler.Interval,
		JobTimeout: cfg.Scheduler.JobTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create scheduler", err)
		os.Exit(1)
	}

	if addr := cfg.Scheduler.MetricsAddr; addr != "" {
		metricsServer := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "metrics listener stopped", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	logg.Info(ctx, "starting scheduler")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "scheduler stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "scheduler shut down gracefully")
}
