package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ArticleHunter/internal/app"
	"ArticleHunter/internal/config"
	"ArticleHunter/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
)

const redacted = "<redacted>"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "articlehunter",
		Short:        "Keyword-watch article aggregator",
		Long:         "articlehunter polls StackExchange and RSS feeds for watched keywords and pushes new matches to websocket subscribers.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default $"+config.ConfigPathEnv+")")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the push channel and poll sources on the configured interval",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration with secrets redacted",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printConfig(cmd, config.Load(configPath))
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "articlehunter %s (commit: %s)\n", version, commit)
			},
		},
	)
	return root
}

func runServe(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load(configPath)
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}

func printConfig(cmd *cobra.Command, cfg config.Config) error {
	if cfg.Database.DSN != "" {
		cfg.Database.DSN = redacted
	}
	if cfg.Notifications.Telegram.BotToken != "" {
		cfg.Notifications.Telegram.BotToken = redacted
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
