package config

import (
	"os"
	"path/filepath"

	"github.com/passbook-dev/passbook/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig loads the Google source configuration. It follows this
// precedence:
// 1. Viper configuration (from config file or PASSBOOK_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig() (*sheets.Config, error) {
	config := &sheets.Config{}

	// Load from Viper first
	if v := viper.GetString("source.sheets.spreadsheet_id"); v != "" {
		config.SpreadsheetID = v
	}
	if v := viper.GetString("source.sheets.statement_folder_id"); v != "" {
		config.StatementFolderID = v
	}
	if v := viper.GetString("source.sheets.service_account_path"); v != "" {
		config.ServiceAccountPath = ExpandPath(v)
	}
	if v := viper.GetString("source.sheets.client_id"); v != "" {
		config.ClientID = v
	}
	if v := viper.GetString("source.sheets.client_secret"); v != "" {
		config.ClientSecret = v
	}
	if v := viper.GetString("source.sheets.refresh_token"); v != "" {
		config.RefreshToken = v
	}
	if v := viper.GetString("source.sheets.token_file"); v != "" {
		config.TokenFile = ExpandPath(v)
	}

	// Override with direct environment variables if not set
	if config.SpreadsheetID == "" {
		config.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
	}
	if config.StatementFolderID == "" {
		config.StatementFolderID = os.Getenv("GOOGLE_SHEETS_STATEMENT_FOLDER_ID")
	}
	if config.ServiceAccountPath == "" {
		if v := os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"); v != "" {
			config.ServiceAccountPath = ExpandPath(v)
		}
	}
	if config.ClientID == "" {
		config.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if config.ClientSecret == "" {
		config.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}
	if config.RefreshToken == "" {
		config.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")
	}

	// A saved token from `passbook auth` is the fallback auth material.
	if config.TokenFile == "" && config.ServiceAccountPath == "" && config.RefreshToken == "" {
		config.TokenFile = DefaultTokenFile()
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultTokenFile is where `passbook auth` saves the OAuth2 token.
func DefaultTokenFile() string {
	return filepath.Join(DefaultConfigDir(), "token.json")
}
