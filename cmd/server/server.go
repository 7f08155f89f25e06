package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/config"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/container"
	httpapi "github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/interfaces/http"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/utils"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API, event stream and background workers",
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting Daily Activity task tracker",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container shutdown failed", zap.Error(err))
		}
	}()

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}

	server := httpapi.NewServer(cfg.ToServerConfig(), c.HTTPDependencies(), utils.NewKeyValueLogger(logger))
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("http server failed: %w", err)
	}

	logger.Info("Shutdown complete")
	return nil
}

// bootstrap loads configuration and builds the logger shared by every subcommand
func bootstrap(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(cfg.ToLoggerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}
