package pipremium

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/pi-premium/internal/cache"
	"github.com/magabrotheeeer/pi-premium/internal/config"
	"github.com/magabrotheeeer/pi-premium/internal/lib/metrics"
	"github.com/magabrotheeeer/pi-premium/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/pi-premium/internal/lib/sl"
	"github.com/magabrotheeeer/pi-premium/internal/migrations"
	"github.com/magabrotheeeer/pi-premium/internal/paymentprovider"
	authservice "github.com/magabrotheeeer/pi-premium/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/pi-premium/internal/services/payment"
	userservice "github.com/magabrotheeeer/pi-premium/internal/services/user"
	"github.com/magabrotheeeer/pi-premium/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	publisher *rabbitmq.Publisher
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app *App, err error) {
	const op = "app.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = db.Close()
		}
	}()
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	if cfg.ServerAPIKey == "" {
		logger.Warn("PI_SERVER_API_KEY is empty, payment calls will be rejected by Pi")
	}
	piClient := paymentprovider.NewClient(cfg.BaseURL, cfg.ServerAPIKey, cfg.TimeoutPi, m)

	var (
		publisher *rabbitmq.Publisher
		events    paymentservice.EventPublisher
	)
	if cfg.RabbitMQURL != "" {
		publisher, err = rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			logger.Warn("rabbitmq is not available, payment events are disabled", sl.Err(err))
			publisher, err = nil, nil
		} else {
			events = publisher
		}
	}

	authService := authservice.New(logger, piClient, db, cacheRedis)
	paymentService := paymentservice.New(logger, piClient, db, cacheRedis, events, m,
		paymentservice.Options{Deduplicate: cfg.Deduplicate, ReinvalidateAfter: cfg.CacheReinvalidateDelay})
	userService := userservice.New(logger, db, cacheRedis, cfg.CacheTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.HTTPServer, Services{
		Auth:     authService,
		Approve:  paymentService,
		Complete: paymentService,
		User:     userService,
		DB:       db,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		cache:     cacheRedis,
		publisher: publisher,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	a.close()
	return err
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq publisher", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
