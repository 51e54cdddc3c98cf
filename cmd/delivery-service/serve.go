package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/freshcart/delivery-service/internal/api"
	"github.com/freshcart/delivery-service/internal/api/handler"
	"github.com/freshcart/delivery-service/internal/core/ports"
	"github.com/freshcart/delivery-service/internal/core/service"
	"github.com/freshcart/delivery-service/internal/infrastructure/db/memory"
	mongodb "github.com/freshcart/delivery-service/internal/infrastructure/db/mongo"
	rediscache "github.com/freshcart/delivery-service/internal/infrastructure/db/redis"
	"github.com/freshcart/delivery-service/internal/infrastructure/queue"
	"github.com/freshcart/delivery-service/internal/infrastructure/realtime"
	"github.com/freshcart/delivery-service/internal/infrastructure/routing"
	"github.com/freshcart/delivery-service/internal/pkg/config"
	"github.com/freshcart/delivery-service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP and websocket server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen address, overrides PORT (e.g. :4001)",
			},
		},
		Action: func(c *cli.Context) error {
			return serve(c.Context, c.String("listen"))
		},
	}
}

func serve(parent context.Context, listen string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "delivery-service",
	})

	// --- Delivery directory (optional) ---
	var (
		directory   ports.DeliveryDirectory
		trackingOpt []service.TrackingOption
	)
	checks := map[string]handler.Check{}

	if cfg.Mongo.URI != "" {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		}, logger.Component("mongo"))
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		repo := mongodb.NewDeliveryRepository(db, cfg.Mongo.Collection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("could not ensure deliveries index")
		}
		directory = repo
		checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

		if cfg.Redis.Addr != "" {
			rdb, err := rediscache.Connect(ctx, rediscache.Config{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			}, logger.Component("redis"))
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer func() { _ = rdb.Close() }()

			cache := rediscache.NewDeliveryCache(rdb, repo, cfg.Redis.CacheTTL, logger.Component("directory_cache"))
			directory = cache
			trackingOpt = append(trackingOpt, service.WithDirectoryInvalidator(cache))
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	// --- Core ---
	store := memory.NewTrackingStore(cfg.Tracking.HistoryLimit)
	hub := realtime.NewHub(logger.Component("hub"))

	var authz service.Authorizer
	if cfg.Tracking.PublisherAuth {
		authz = service.NewPublisherPolicy(directory)
	}
	tracking := service.NewTrackingService(store, hub, authz, logger.Component("tracking"), trackingOpt...)

	osrm := routing.NewOSRMClient(routing.Config{
		BaseURL: cfg.Routing.BaseURL,
		Profile: cfg.Routing.Profile,
		Timeout: cfg.Routing.Timeout,
	})
	routes := service.NewRouteService(osrm, directory, store, logger.Component("routing"))

	dispatcher := queue.NewDispatcher(cfg.Tracking.IngestWorkers, tracking, logger.Component("dispatcher"))
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	if cfg.Tracking.RetentionTTL > 0 {
		sweeper := memory.NewSweeper(store, cfg.Tracking.RetentionTTL, cfg.Tracking.SweepInterval, logger.Component("retention"))
		go sweeper.Run(ctx)
	}

	// --- Transport ---
	validator := handler.NewValidator()
	stream := realtime.NewServer(hub, dispatcher, validator, cfg.AllowedOrigins, logger.Component("realtime"))

	e := api.NewRouter(api.Options{
		Tracking:       tracking,
		Routes:         routes,
		Stream:         stream,
		Validator:      validator,
		Readiness:      checks,
		AllowedOrigins: cfg.AllowedOrigins,
		BodyLimit:      cfg.BodyLimit,
		JWTSecret:      cfg.JWTSecret,
		PublisherAuth:  cfg.Tracking.PublisherAuth,
		DeliveryETA:    directory != nil,
		Metrics:        prometheus.DefaultRegisterer,
		Log:            logger.Component("http"),
	})

	addr := cfg.Address()
	if listen != "" {
		addr = listen
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Strs("allowed_origins", cfg.AllowedOrigins).
			Bool("publisher_auth", cfg.Tracking.PublisherAuth).
			Bool("directory", directory != nil).
			Msg("delivery service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
