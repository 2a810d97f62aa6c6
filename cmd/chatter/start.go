package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/keepmind9/chatter/internal/core"
	"github.com/keepmind9/chatter/internal/demo"
	"github.com/keepmind9/chatter/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bot on the configured chat platforms",
	Long:  "Connect to every enabled chat platform and answer messages until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runStart(ctx, configFile)
	},
}

func runStart(ctx context.Context, path string) error {
	config, err := core.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(config.LoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	b, err := core.NewBot(config.BotOptions(demo.NewHandler))
	if err != nil {
		return err
	}
	n, err := b.RegisterConfiguredAdapters(config)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("no bots are enabled in the configuration")
	}

	logger.WithFields(logrus.Fields{
		"config_file": path,
		"bots":        config.EnabledBots(),
		"key_by":      config.Conversation.KeyBy,
		"whitelist":   config.Security.WhitelistEnabled,
	}).Info("chatter-starting")

	if err := b.Run(ctx); err != nil {
		return err
	}
	logger.Info("chatter-stopped")
	return nil
}

func init() {
	startCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
}
