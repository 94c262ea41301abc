// internal/app/app.go
// Package app assembles the activities service from configuration: seed
// catalog, registry, event sinks, tracing and the HTTP server.
package app

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"time"

	"mergington-activities/internal/activities"
	"mergington-activities/internal/api"
	awsclient "mergington-activities/internal/common/aws"
	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/database"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/observability"
	"mergington-activities/internal/events"
	"mergington-activities/pkg/registry"
)

var (
	connectRetries = 10
	connectDelay   = 2 * time.Second
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	Registry *activities.Registry
	Server   *http.Server
	closers  []func(context.Context) error
}

// New wires every component named by cfg. On error, anything already
// opened is closed before returning.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	seed, err := loadSeed(cfg.Seed)
	if err != nil {
		return nil, err
	}

	tp, err := observability.NewTracerProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracer provider: %w", err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	obs := observability.New(cfg.App.Name)
	a.closers = append(a.closers, func(context.Context) error {
		obs.Shutdown()
		return nil
	})

	sinks, checks, err := a.buildSinks(ctx)
	if err != nil {
		return nil, err
	}

	opts := []activities.Option{
		activities.WithLogger(log),
		activities.WithTracer(tp.Tracer()),
		activities.WithObservability(obs),
	}
	if len(sinks) > 0 {
		fanout := events.NewFanout(config.GetDuration(cfg.Events.SinkTimeout), log, sinks...)
		opts = append(opts, activities.WithEventSink(fanout))
	}

	a.Registry, err = activities.NewRegistry(seed, opts...)
	if err != nil {
		return nil, err
	}

	handler := api.NewRouter(api.NewHandler(a.Registry, log, checks...), cfg.Server.StaticDir, log)
	a.Server = api.NewServer(cfg.Server, handler)

	log.Info("application assembled", map[string]interface{}{
		"activities": len(seed.Activities),
		"sinks":      len(sinks),
		"address":    cfg.Server.Address,
	})
	return a, nil
}

func loadSeed(cfg config.SeedConfig) (*registry.ActivityRegistry, error) {
	if cfg.Path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(cfg.Path)
}

func (a *App) buildSinks(ctx context.Context) ([]events.Sink, []api.ReadinessCheck, error) {
	var (
		sinks  []events.Sink
		checks []api.ReadinessCheck
	)

	if a.cfg.Events.Audit.Enabled {
		var pg *database.PostgresClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			pg, err = database.NewPostgres(a.cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			return nil
		}, connectRetries, connectDelay, a.logger, "PostgreSQL connection")
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return pg.Close() })

		audit, err := events.NewAuditSink(pg.DB, a.cfg.Events.Audit.Table)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, audit)
		checks = append(checks, api.ReadinessCheck{Name: "postgres", Check: pg.Ping})
		a.logger.Info("PostgreSQL connected successfully", nil)
	}

	if a.cfg.Events.Redis.Enabled {
		var rdb *database.RedisClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			rdb, err = database.NewRedis(a.cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rdb.Ping(ctx); err != nil {
				_ = rdb.Close()
				return err
			}
			return nil
		}, connectRetries, connectDelay, a.logger, "Redis connection")
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

		sinks = append(sinks, events.NewRedisPublisher(rdb.Client, a.cfg.Events.Redis.Channel))
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: rdb.Ping})
		a.logger.Info("Redis connected successfully", nil)
	}

	region := a.cfg.Notifications.AWS.Region
	if a.cfg.Notifications.SNS.Enabled {
		client, err := awsclient.NewSNSClient(ctx, region)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, events.NewSNSPublisher(client, a.cfg.Notifications.SNS.TopicARN))
	}
	if a.cfg.Notifications.Email.Enabled {
		client, err := awsclient.NewSESClient(ctx, region)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, events.NewEmailNotifier(client, a.cfg.Notifications.Email.FromEmail))
	}

	return sinks, checks, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", map[string]interface{}{"address": a.Server.Addr})
		if err := a.Server.ListenAndServe(); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutdown signal received, stopping server...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(a.cfg.Server.ShutdownTimeout))
	defer cancel()
	return a.Server.Shutdown(shutdownCtx)
}

// Close releases connections and flushes telemetry in reverse order of
// acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return goerrors.Join(errs...)
}

// retryWithBackoff attempts to execute a function with exponential backoff.
// It stops waiting as soon as ctx is done.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s aborted after %d attempts: %w", operationName, i+1, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
