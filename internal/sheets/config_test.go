package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "service account auth",
			config: Config{
				SpreadsheetID:      "sheet-id",
				StatementFolderID:  "folder-id",
				ServiceAccountPath: "/secrets/google.json",
			},
		},
		{
			name: "oauth refresh token auth",
			config: Config{
				SpreadsheetID:     "sheet-id",
				StatementFolderID: "folder-id",
				ClientID:          "client",
				ClientSecret:      "secret",
				RefreshToken:      "refresh",
			},
		},
		{
			name: "oauth token file auth",
			config: Config{
				SpreadsheetID:     "sheet-id",
				StatementFolderID: "folder-id",
				ClientID:          "client",
				ClientSecret:      "secret",
				TokenFile:         "/tokens/sheets.json",
			},
		},
		{
			name: "missing spreadsheet id",
			config: Config{
				StatementFolderID:  "folder-id",
				ServiceAccountPath: "/secrets/google.json",
			},
			wantErr: "spreadsheet id is required",
		},
		{
			name: "missing statement folder",
			config: Config{
				SpreadsheetID:      "sheet-id",
				ServiceAccountPath: "/secrets/google.json",
			},
			wantErr: "statement folder id is required",
		},
		{
			name: "no auth method",
			config: Config{
				SpreadsheetID:     "sheet-id",
				StatementFolderID: "folder-id",
			},
			wantErr: "no authentication method configured",
		},
		{
			name: "oauth client without token material",
			config: Config{
				SpreadsheetID:     "sheet-id",
				StatementFolderID: "folder-id",
				ClientID:          "client",
				ClientSecret:      "secret",
			},
			wantErr: "no authentication method configured",
		},
		{
			name: "both auth methods",
			config: Config{
				SpreadsheetID:      "sheet-id",
				StatementFolderID:  "folder-id",
				ServiceAccountPath: "/secrets/google.json",
				ClientID:           "client",
				ClientSecret:       "secret",
				RefreshToken:       "refresh",
			},
			wantErr: "multiple authentication methods configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
