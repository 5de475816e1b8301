// Package main wires together the rank tracker service binary.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/naver-rank-tracker/internal/app"
	"github.com/JakeFAU/naver-rank-tracker/internal/config"
	"github.com/JakeFAU/naver-rank-tracker/internal/logging"
	"github.com/JakeFAU/naver-rank-tracker/internal/metrics"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the binary and returns its exit status. Deferred cleanups
// complete before the caller exits.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("ranktracker", flag.ContinueOnError)
	flags.SetOutput(stderr)
	cfgPath := flags.String("config", "", "Path to config file")
	once := flags.Bool("once", false, "Check all active keywords and tracked URLs, print the reports, and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config failed: %v\n", err)
		return 1
	}
	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		fmt.Fprintf(stderr, "logger init failed: %v\n", err)
		return 1
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("service init failed", zap.Error(err))
		return 1
	}
	defer func() {
		if closeErr := services.Close(); closeErr != nil {
			logger.Warn("service close failed", zap.Error(closeErr))
		}
	}()

	if *once {
		if err := runOnce(ctx, services, stdout); err != nil {
			logger.Error("one-shot run failed", zap.Error(err))
			return 1
		}
		return 0
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           services.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}

// runOnce checks every active keyword and tracked URL and writes both report
// arrays to stdout as one JSON document.
func runOnce(ctx context.Context, services *app.App, out io.Writer) error {
	t := services.Tracker()
	keywords, err := t.CheckActiveKeywords(ctx, t.DefaultScope())
	if err != nil {
		return err
	}
	urls, err := t.CheckActiveTrackedURLs(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"keywords": keywords, "tracked_urls": urls}); err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	return nil
}
