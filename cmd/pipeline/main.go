// Command pipeline serves the CRM list API.
//
// @title CRM List Pipeline API
// @version 1.0
// @description Filter, sort, paginate, summarize and export CRM list views.
// @BasePath /api/v1
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-pipeline/internal/api"
	"crm-pipeline/internal/api/handler"
	"crm-pipeline/internal/app"
	"crm-pipeline/internal/config"
	"crm-pipeline/internal/metrics"
	"crm-pipeline/internal/refresh"
	"crm-pipeline/internal/sink"
	"crm-pipeline/internal/store"
	"crm-pipeline/pkg/router"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults to $CRM_CONFIG)")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		bootLogger := app.DefaultLogger("info")
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := app.DefaultLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := app.NewRedis(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("record cache enabled")
	}

	registry, err := app.BuildRegistry(cfg, app.Deps{
		Datasets: db,
		Redis:    rdb,
		Client:   &http.Client{Timeout: 30 * time.Second},
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	m := metrics.New()
	scheduler := refresh.New(registry, m, logger)
	go scheduler.Run(ctx, cfg.RefreshInterval)

	local, err := sink.NewLocal(cfg.Storage.ExportDir)
	if err != nil {
		return err
	}
	var out sink.Sink = local
	if cfg.S3.Bucket != "" {
		s3Sink, err := sink.NewS3(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix)
		if err != nil {
			return err
		}
		out = s3Sink
		logger.Info().Str("bucket", cfg.S3.Bucket).Msg("exports go to S3")
	}

	h := handler.New(handler.Options{
		Config:   cfg,
		Records:  scheduler,
		Store:    db,
		Sink:     out,
		Files:    local,
		Metrics:  m,
		Logger:   logger,
		Location: loc,
	})

	r := router.New(logger)
	api.RegisterRoutes(r, h, m)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Export-Id", "X-Export-Location"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           c.Handler(r.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Int("entities", len(cfg.Entities)).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
