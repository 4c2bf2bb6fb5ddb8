package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/passbook-dev/passbook/internal/cli"
	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/passbook-dev/passbook/internal/pipeline"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Ingest new statement files into the transaction logs",
		Long: `Ingest every unprocessed statement into its transaction log.

Statements come from the configured data source: spreadsheet and OFX
exports in a Google Drive folder, or files in a local directory. Each
statement is parsed with its institution's statement config, deduplicated
against the ledger, categorized with your rules, and appended in one
piece. A statement that fails to parse is skipped and reported; the rest
of the run continues.`,
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	engine, err := initEngine(settings)
	if err != nil {
		return err
	}

	p, err := initPipeline(ctx, settings, engine, nil)
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle("Importing statements"))
	slog.Info("Scanning for statements", "source", settings.SourceType)

	summary, err := p.Run(ctx)
	displayRunSummary(summary)
	if err != nil {
		return common.NewUserError("import aborted before all statements were ingested", err)
	}

	if failed := summary.TotalFailed(); failed > 0 {
		slog.Warn(cli.FormatWarning(fmt.Sprintf("%d statement(s) failed and were skipped", failed)))
	}
	slog.Info(cli.FormatSuccess(fmt.Sprintf("Imported %d new records in %s",
		summary.TotalAppended(), summary.Duration.Round(time.Millisecond))))

	return nil
}

func displayRunSummary(summary *pipeline.Summary) {
	for _, log := range summary.Logs {
		content := fmt.Sprintf(`Statements: %d matched, %d ingested, %d skipped, %d failed
Records: %d parsed, %d duplicate, %d appended
Categories: %d matched, %d uncategorized`,
			log.FilesListed, log.FilesProcessed, len(log.FilesSkipped), len(log.FilesFailed),
			log.RecordsParsed, log.Duplicates, log.Appended,
			log.Matched, log.Unmatched)

		for _, failed := range log.FilesFailed {
			content += fmt.Sprintf("\n%s %s: %v", cli.ErrorIcon, failed.Name, failed.Err)
		}

		slog.Info(cli.RenderBox(fmt.Sprintf("%s log", logTitle(log.LogType)), content))
	}
}

func logTitle(logType model.LogType) string {
	if logType == model.LogTypeCC {
		return "Credit card"
	}
	return "Bank"
}
