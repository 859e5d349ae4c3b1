package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/myway/internal/docserver"
	"github.com/five82/myway/internal/docstore"
	"github.com/five82/myway/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, MYWAYD_* env vars also apply)")
	flag.Parse()

	cfg, err := docserver.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mywayd: %v\n", err)
		return 1
	}

	logger := logging.NewConsole(os.Stderr, cfg.LogLevel)

	docs, err := docstore.Open(cfg.Driver, cfg.DSN, nil)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Driver).Msg("failed to open document store")
		return 1
	}
	defer func() {
		if err := docs.Close(); err != nil {
			logger.Error().Err(err).Msg("document store close error")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           docserver.New(docs, cfg.APIKey, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("driver", cfg.Driver).Bool("auth", cfg.APIKey != "").Msg("mywayd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error().Err(err).Msg("http server error")
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}

	logger.Info().Msg("shutdown complete")
	return exitCode
}
