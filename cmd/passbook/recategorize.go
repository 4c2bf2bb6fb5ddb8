package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/passbook-dev/passbook/internal/cli"
	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/spf13/cobra"
)

func recategorizeCmd() *cobra.Command {
	var (
		force  bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "recategorize",
		Short: "Re-run the rules over every ledger record",
		Long: `Re-run the matcher over every record in both transaction logs and
rewrite each log in place. Only the category column changes; record order,
dates, amounts and remarks are preserved.

Use this after editing the rule file so past records pick up new rules.

Examples:
  # Preview how many records would change
  passbook recategorize --dry-run

  # Rewrite the logs without the confirmation prompt
  passbook recategorize --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := config.LoadSettings()
			if err != nil {
				return err
			}

			engine, err := initEngine(settings)
			if err != nil {
				return err
			}

			p, err := initPipeline(ctx, settings, engine, cli.NewProgressBar(os.Stderr))
			if err != nil {
				return err
			}

			if dryRun {
				slog.Info(cli.FormatTitle("Recategorizing (dry run)"))
			} else {
				slog.Info(cli.FormatTitle("Recategorizing the transaction logs"))

				// Confirm action
				if !force {
					fmt.Print(cli.FormatPrompt("This rewrites both transaction logs in place. Continue? (y/N)")) //nolint:forbidigo // User prompt
					var response string
					if _, scanErr := fmt.Scanln(&response); scanErr != nil {
						response = "n"
					}
					if strings.ToLower(response) != "y" {
						fmt.Println("Recategorization canceled.") //nolint:forbidigo // User-facing output
						return nil
					}
				}
			}

			summary, err := p.Recategorize(ctx, dryRun)
			if err != nil {
				return common.NewUserError("recategorization aborted; re-run once the data source recovers", err)
			}

			for _, log := range summary.Logs {
				content := fmt.Sprintf(`Records: %d
Changed: %d
Categories: %d matched, %d uncategorized`,
					log.Records, log.Changed, log.Matched, log.Unmatched)
				slog.Info(cli.RenderBox(fmt.Sprintf("%s log", logTitle(log.LogType)), content))
			}

			if dryRun {
				slog.Info(cli.FormatInfo(fmt.Sprintf("Dry run complete: %d record(s) would change, nothing was written", summary.TotalChanged())))
				return nil
			}

			slog.Info(cli.FormatSuccess(fmt.Sprintf("Recategorization complete: %d record(s) changed", summary.TotalChanged())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without rewriting the logs")

	return cmd
}
