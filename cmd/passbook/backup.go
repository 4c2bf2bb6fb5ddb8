package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/passbook-dev/passbook/internal/cli"
	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/passbook-dev/passbook/internal/storage"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot and restore the transaction logs",
		Long: `Keep a local SQLite archive of the transaction logs.

'backup create' snapshots both logs into the archive, replacing each log's
previous snapshot. 'backup restore' rewrites one log from its snapshot,
which is destructive and asks for confirmation.`,
	}

	cmd.AddCommand(backupCreateCmd())
	cmd.AddCommand(backupRestoreCmd())

	return cmd
}

func backupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Snapshot both transaction logs into the archive",
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

			p, err := initPipeline(ctx, settings, engine, nil)
			if err != nil {
				return err
			}

			store, err := initBackupStore(ctx, settings)
			if err != nil {
				return err
			}
			defer closeBackupStore(store)

			slog.Info(cli.FormatTitle("Archiving the transaction logs"), "path", settings.BackupPath)

			for _, logType := range model.LogTypes {
				ledger, err := p.Ledger(ctx, logType)
				if err != nil {
					return err
				}
				if err := store.Backup(ctx, logType, ledger); err != nil {
					return fmt.Errorf("archiving %s log: %w", logType, err)
				}
				slog.Info(cli.FormatSuccess(fmt.Sprintf("Archived %d %s record(s)", len(ledger), logType)))
			}

			return nil
		},
	}
}

func backupRestoreCmd() *cobra.Command {
	var (
		logName string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Rewrite one transaction log from its archived snapshot",
		Long: `Rewrite one transaction log from the archive, replacing every data row
with the archived records in their archived order.

This is destructive: whatever the log currently holds is gone afterwards.
The command asks for confirmation unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			logType, err := model.ParseLogType(logName)
			if err != nil {
				return err
			}

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

			store, err := initBackupStore(ctx, settings)
			if err != nil {
				return err
			}
			defer closeBackupStore(store)

			archived, err := store.Fetch(ctx, logType)
			if err != nil {
				return fmt.Errorf("reading archive: %w", err)
			}
			if len(archived) == 0 {
				slog.Warn(cli.FormatWarning(fmt.Sprintf("The archive holds no %s snapshot; nothing restored", logType)))
				return nil
			}

			// Confirm action
			if !force {
				fmt.Printf("Restoring replaces the %s log with %d archived record(s). Continue? (y/N): ", logType, len(archived)) //nolint:forbidigo // User prompt
				var response string
				if _, scanErr := fmt.Scanln(&response); scanErr != nil {
					response = "n"
				}
				if strings.ToLower(response) != "y" {
					fmt.Println("Restore canceled; the log was not touched.") //nolint:forbidigo // User-facing output
					return nil
				}
			}

			if err := p.OverwriteLog(ctx, logType, archived); err != nil {
				return common.NewUserError(fmt.Sprintf("restore failed; verify the %s log before trusting it", logType), err)
			}

			slog.Info(cli.FormatSuccess(fmt.Sprintf("Restored %d record(s) into the %s log", len(archived), logType)))
			return nil
		},
	}

	cmd.Flags().StringVar(&logName, "log", "", "Log to restore (bank or cc)")
	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	_ = cmd.MarkFlagRequired("log")

	return cmd
}

func closeBackupStore(store *storage.SQLiteStore) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close backup store", "error", err)
	}
}
