package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate the Google Sheets data source using OAuth2.

This command will:
1. Open your browser to authenticate with Google
2. Save the token for future use
3. Update your config file with the refresh token

Run this once before using the sheets source without a service account.`,
		RunE: runAuth,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")

	return cmd
}

func runAuth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Get OAuth2 config
	clientID := viper.GetString("source.sheets.client_id")
	clientSecret := viper.GetString("source.sheets.client_secret")

	// Override with flags if provided
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}

	// Check for environment variables as fallback
	if clientID == "" {
		clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Please set source.sheets.client_id and source.sheets.client_secret in config or use --client-id and --client-secret flags")
	}

	tokenFile := config.DefaultTokenFile()
	slog.Info("Starting Google Sheets authentication", "token_file", tokenFile)

	token, err := sheets.AuthenticateOAuth2Interactive(ctx, sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	// Update config file with refresh token
	viper.Set("source.sheets.refresh_token", token.RefreshToken)

	if err := saveConfig(); err != nil {
		slog.Warn("Failed to update config file with refresh token", "error", err)
		slog.Info("Please add this to your config.yaml manually:")
		slog.Info(fmt.Sprintf("source:\n  sheets:\n    refresh_token: %q", token.RefreshToken))
	} else {
		slog.Info("Updated config file with refresh token")
		slog.Info("✅ Authentication successful!")
	}

	slog.Info("📊 Google Sheets is now configured and ready to use.")
	slog.Info("Run 'passbook import' to ingest statements.")

	return nil
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = filepath.Join(config.DefaultConfigDir(), "config.yaml")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}
