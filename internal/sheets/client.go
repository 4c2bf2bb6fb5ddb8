package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// oauthScopes covers everything the source touches: the transaction log
// spreadsheet is written through the Sheets API, statements are only ever
// read from Drive.
func oauthScopes() []string {
	return []string{sheets.SpreadsheetsScope, drive.DriveReadonlyScope}
}

// newServices builds the Sheets and Drive clients over one authenticated
// HTTP client.
func newServices(ctx context.Context, config Config) (*sheets.Service, *drive.Service, error) {
	tokenSource, err := newTokenSource(ctx, config)
	if err != nil {
		return nil, nil, err
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)

	sheetsSrv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	driveSrv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return sheetsSrv, driveSrv, nil
}

func newTokenSource(ctx context.Context, config Config) (oauth2.TokenSource, error) {
	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, oauthScopes()...)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return jwtConfig.TokenSource(ctx), nil
	}

	oauthConfig := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       oauthScopes(),
	}

	// A refresh token straight from configuration beats a saved token file.
	if config.RefreshToken != "" {
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		return oauthConfig.TokenSource(ctx, token), nil
	}

	token, err := LoadToken(config.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load token file %s (run `passbook auth` first): %w", config.TokenFile, err)
	}
	return oauthConfig.TokenSource(ctx, token), nil
}
