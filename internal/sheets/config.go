// Package sheets implements the Google-backed data source: statement
// spreadsheets living in a Drive folder, and the bank/cc transaction logs
// living as two tabs of one consolidated spreadsheet.
package sheets

import "fmt"

// Config holds everything the Google source needs to reach Drive and Sheets.
type Config struct {
	// SpreadsheetID is the consolidated spreadsheet holding both
	// transaction log tabs.
	SpreadsheetID string
	// StatementFolderID is the Drive folder holding raw statement files.
	StatementFolderID string

	// Authentication. Exactly one of the service account path or the OAuth2
	// client credentials must be configured.
	ServiceAccountPath string
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet id is required")
	}
	if c.StatementFolderID == "" {
		return fmt.Errorf("statement folder id is required")
	}

	hasServiceAccount := c.ServiceAccountPath != ""
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" &&
		(c.RefreshToken != "" || c.TokenFile != "")

	if !hasServiceAccount && !hasOAuth {
		return fmt.Errorf("no authentication method configured: provide a service account key or OAuth2 client credentials")
	}
	if hasServiceAccount && hasOAuth {
		return fmt.Errorf("multiple authentication methods configured; use either a service account or OAuth2")
	}

	return nil
}
