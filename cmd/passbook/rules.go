package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/passbook-dev/passbook/internal/cli"
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/matcher"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the categorization rule file",
		Long:  `List the rules in evaluation order and check the rule file for problems.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesCheckCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		RunE: func(_ *cobra.Command, _ []string) error {
			settings, err := config.LoadSettings()
			if err != nil {
				return err
			}

			engine, err := initEngine(settings)
			if err != nil {
				return err
			}

			rules := engine.Rules()
			if len(rules) == 0 {
				fmt.Println(cli.InfoStyle.Render("No rules defined yet. Add some to " + settings.RulesPath)) //nolint:forbidigo // User-facing output
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() {
				if flushErr := w.Flush(); flushErr != nil {
					slog.Warn("failed to flush rule table", "error", flushErr)
				}
			}()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", //nolint:forbidigo // User-facing output
				cli.BoldStyle.Render("Priority"),
				cli.BoldStyle.Render("Pattern"),
				cli.BoldStyle.Render("Category"),
				cli.BoldStyle.Render("Account"),
				cli.BoldStyle.Render("Direction"),
				cli.BoldStyle.Render("Source"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", //nolint:forbidigo // User-facing output
				strings.Repeat("-", 8),
				strings.Repeat("-", 24),
				strings.Repeat("-", 16),
				strings.Repeat("-", 12),
				strings.Repeat("-", 9),
				strings.Repeat("-", 7))

			for _, rule := range rules {
				pattern := rule.Pattern
				if rule.IsRegex {
					pattern = "/" + pattern + "/"
				}
				account := rule.Account
				if account == "" {
					account = "any"
				}
				source := string(rule.Source)
				if source == "" {
					source = "manual"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", //nolint:forbidigo // User-facing output
					rule.Priority, pattern, rule.Category, account, directionLabel(rule.Direction), source)
			}

			return nil
		},
	}
}

func rulesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the rule file for problems",
		Long: `Check the rule file the way the matcher consumes it.

Errors (empty patterns, unparseable regexes, categories missing from the
category file) would fail every command that loads the rules; warnings
(duplicate definitions) are tolerated at runtime with the first definition
winning.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			settings, err := config.LoadSettings()
			if err != nil {
				return err
			}

			rules, err := matcher.LoadRules(settings.RulesPath)
			if err != nil {
				return err
			}
			categories, err := matcher.LoadCategories(settings.CategoriesPath)
			if err != nil {
				return err
			}

			result := matcher.Lint(rules, categories)
			if result.Clean() {
				slog.Info(cli.FormatSuccess(fmt.Sprintf("%d rule(s) checked, no problems found", len(rules))))
				return nil
			}

			for _, warning := range result.Warnings {
				fmt.Println(cli.FormatWarning(warning.Error())) //nolint:forbidigo // User-facing output
			}
			for _, lintErr := range result.Errors {
				fmt.Println(cli.FormatError(lintErr.Error())) //nolint:forbidigo // User-facing output
			}

			if len(result.Errors) > 0 {
				return fmt.Errorf("rule file has %d error(s)", len(result.Errors))
			}
			slog.Info(cli.FormatInfo(fmt.Sprintf("%d warning(s); the first definition wins at runtime", len(result.Warnings))))
			return nil
		},
	}
}
