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
	_ "time/tzdata"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spotprices/internal/config"
	"spotprices/internal/httpx"
	"spotprices/internal/logging"
	"spotprices/internal/provider/spotovaelektrina"
	"spotprices/internal/synthetic"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	loc, err := cfg.Prices.Location()
	if err != nil {
		return err
	}

	httpClient := httpx.FromConfig(cfg.Upstream)
	fetcher := spotovaelektrina.New(
		spotovaelektrina.WithURL(cfg.Upstream.URL),
		spotovaelektrina.WithHTTPClient(httpClient),
		spotovaelektrina.WithTimeout(cfg.Upstream.Timeout()),
		spotovaelektrina.WithLogger(logger.Named("upstream")),
	)

	handler := newHandler(serverDeps{
		fetcher:   fetcher,
		generator: synthetic.New(nil),
		loc:       loc,
		logger:    logger,
		staticDir: cfg.Server.StaticDir,
		version:   cfg.Server.Version,
		debugAPI:  cfg.Server.DebugAPI,
		metrics:   cfg.Metrics.Enabled,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("upstream", fetcher.URL()),
			zap.String("timezone", loc.String()),
			zap.Bool("debug_api", cfg.Server.DebugAPI),
			zap.Bool("metrics", cfg.Metrics.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
