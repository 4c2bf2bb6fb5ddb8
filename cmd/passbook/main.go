package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/passbook-dev/passbook/internal/cli"
	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "passbook",
		Short: "📒 Statement ingestion and categorization for personal ledgers",
		Long: `passbook ingests bank and credit card statement exports, normalizes
them into canonical transaction records, deduplicates them against your
transaction logs, categorizes them with your rules, and appends only what
is new.

Runs as a batch: point it at your statements, then review the ledger.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/passbook/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add commands
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(learnCmd())
	rootCmd.AddCommand(recategorizeCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) && userErr.Err != nil {
			slog.Error("command failed", "error", userErr.Err)
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.UserMessage)) //nolint:forbidigo // User-facing output
		} else {
			fmt.Fprintln(os.Stderr, cli.FormatError(err.Error())) //nolint:forbidigo // User-facing output
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in standard locations
		viper.AddConfigPath(config.DefaultConfigDir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("PASSBOOK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging() error {
	level := viper.GetString("logging.level")
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	format := viper.GetString("logging.format")
	switch format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}

	return common.SetupLogger(common.ParseLogLevel(level), format)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("passbook version", "version", version)
		},
	}
}
