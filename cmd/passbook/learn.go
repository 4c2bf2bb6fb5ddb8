package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/passbook-dev/passbook/internal/cli"
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/learner"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func learnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Propose new rules from categorized ledger history",
		Long: `Mine both transaction logs for recurring description patterns and
propose rules that would categorize records your current rules miss.

Proposals are ranked by how many currently uncategorized records each
pattern would newly match. Nothing is ever written: copy the suggestions
you like into the rule file yourself.`,
		RunE: runLearn,
	}

	cmd.Flags().Float64("min-fraction", 0.3, "Share of a group's descriptions a pattern must recur in")
	cmd.Flags().Int("max-suggestions", 10, "Maximum proposals per category and direction group")

	_ = viper.BindPFlag("learner.min_fraction", cmd.Flags().Lookup("min-fraction"))
	_ = viper.BindPFlag("learner.max_suggestions", cmd.Flags().Lookup("max-suggestions"))

	return cmd
}

func runLearn(cmd *cobra.Command, _ []string) error {
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

	slog.Info(cli.FormatTitle("Mining the ledger for rule candidates"))

	var txns []model.Transaction
	for _, logType := range model.LogTypes {
		ledger, err := p.Ledger(ctx, logType)
		if err != nil {
			return err
		}
		txns = append(txns, ledger...)
	}

	suggestions := learner.Learn(txns, engine, learner.Options{
		MinFraction:    settings.LearnerMinFraction,
		MaxSuggestions: settings.LearnerMaxSuggestions,
	})

	if len(suggestions) == 0 {
		slog.Info(cli.FormatInfo("No new patterns found; your rules already cover the recurring descriptions"))
		return nil
	}

	displaySuggestions(suggestions)

	slog.Info(cli.FormatInfo(fmt.Sprintf("%d proposal(s); the rule file was not modified", len(suggestions))))
	return nil
}

func displaySuggestions(suggestions []learner.Suggestion) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() {
		if err := w.Flush(); err != nil {
			slog.Warn("failed to flush suggestion table", "error", err)
		}
	}()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", //nolint:forbidigo // User-facing output
		cli.BoldStyle.Render("Pattern"),
		cli.BoldStyle.Render("Category"),
		cli.BoldStyle.Render("Direction"),
		cli.BoldStyle.Render("Support"),
		cli.BoldStyle.Render("New matches"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", //nolint:forbidigo // User-facing output
		strings.Repeat("-", 24),
		strings.Repeat("-", 16),
		strings.Repeat("-", 9),
		strings.Repeat("-", 7),
		strings.Repeat("-", 11))

	for _, s := range suggestions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\n", //nolint:forbidigo // User-facing output
			s.Rule.Pattern, s.Rule.Category, directionLabel(s.Rule.Direction),
			s.Support, s.GroupSize, s.NewMatches)
	}
}

func directionLabel(direction *bool) string {
	switch {
	case direction == nil:
		return "any"
	case *direction:
		return "debit"
	default:
		return "credit"
	}
}
