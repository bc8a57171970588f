package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/ledger/internal/app"
	"github.com/odyssey-erp/ledger/jobs"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return nil
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	logger := c.Logger

	var jobHandler *jobs.Handler
	if c.Redis != nil {
		inspector := asynq.NewInspector(redisOpts(c.Config.RedisAddr))
		defer inspector.Close()
		client, err := jobs.NewClient(redisOpts(c.Config.RedisAddr))
		if err != nil {
			return err
		}
		defer client.Close()
		jobHandler = jobs.NewHandler(inspector, client, logger)
		go func() {
			if err := c.Cache.ListenForInvalidation(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("cache invalidation listener", slog.Any("error", err))
			}
		}()
	}

	server := &http.Server{
		Addr:         c.Config.AppAddr,
		Handler:      c.Routes(jobHandler),
		ReadTimeout:  c.Config.AppReadTimeout,
		WriteTimeout: c.Config.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", c.Config.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
