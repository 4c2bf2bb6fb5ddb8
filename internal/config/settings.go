package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/passbook-dev/passbook/internal/model"
	"github.com/spf13/viper"
)

// Data source kinds selectable through source.type.
const (
	SourceTypeSheets = "sheets"
	SourceTypeLocal  = "local"
)

// Settings is the application configuration resolved from viper. Load it
// once per command after viper has read the config file.
type Settings struct {
	BankAccounts []string
	CCAccounts   []string

	ConfigsDir     string
	RulesPath      string
	CategoriesPath string

	LearnerMinFraction    float64
	LearnerMaxSuggestions int

	SourceType    string
	SourceTimeout time.Duration

	LocalStatementsDir string
	LocalLedgerDir     string

	BackupPath string
}

// SetDefaults registers every default the application relies on. The root
// command calls this before reading the config file.
func SetDefaults() {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("learner.min_fraction", 0.3)
	viper.SetDefault("learner.max_suggestions", 10)
	viper.SetDefault("source.type", SourceTypeSheets)
	viper.SetDefault("source.timeout", "30s")
	viper.SetDefault("backup.path", filepath.Join(DefaultDataDir(), "backup.db"))
}

// LoadSettings resolves and validates the application configuration.
func LoadSettings() (*Settings, error) {
	s := &Settings{
		BankAccounts:          viper.GetStringSlice("accounts.bank"),
		CCAccounts:            viper.GetStringSlice("accounts.cc"),
		ConfigsDir:            ExpandPath(viper.GetString("configs.dir")),
		RulesPath:             ExpandPath(viper.GetString("rules.path")),
		CategoriesPath:        ExpandPath(viper.GetString("categories.path")),
		LearnerMinFraction:    viper.GetFloat64("learner.min_fraction"),
		LearnerMaxSuggestions: viper.GetInt("learner.max_suggestions"),
		SourceType:            viper.GetString("source.type"),
		SourceTimeout:         viper.GetDuration("source.timeout"),
		LocalStatementsDir:    ExpandPath(viper.GetString("source.local.statements_dir")),
		LocalLedgerDir:        ExpandPath(viper.GetString("source.local.ledger_dir")),
		BackupPath:            ExpandPath(viper.GetString("backup.path")),
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	if s.ConfigsDir == "" {
		return fmt.Errorf("configs.dir is required")
	}
	if s.RulesPath == "" {
		return fmt.Errorf("rules.path is required")
	}
	switch s.SourceType {
	case SourceTypeSheets, SourceTypeLocal:
	default:
		return fmt.Errorf("source.type must be %q or %q, got %q", SourceTypeSheets, SourceTypeLocal, s.SourceType)
	}
	if s.SourceType == SourceTypeLocal {
		if s.LocalStatementsDir == "" || s.LocalLedgerDir == "" {
			return fmt.Errorf("source.local.statements_dir and source.local.ledger_dir are required for the local source")
		}
	}
	if s.SourceTimeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}
	if s.LearnerMinFraction <= 0 || s.LearnerMinFraction > 1 {
		return fmt.Errorf("learner.min_fraction must be in (0, 1]")
	}
	if s.LearnerMaxSuggestions <= 0 {
		return fmt.Errorf("learner.max_suggestions must be positive")
	}
	if s.BackupPath == "" {
		return fmt.Errorf("backup.path is required")
	}
	return nil
}

// AccountsFor returns the configured account names for a log type.
func (s *Settings) AccountsFor(logType model.LogType) []string {
	if logType == model.LogTypeCC {
		return s.CCAccounts
	}
	return s.BankAccounts
}

// AllAccounts returns bank accounts followed by card accounts.
func (s *Settings) AllAccounts() []string {
	all := make([]string, 0, len(s.BankAccounts)+len(s.CCAccounts))
	all = append(all, s.BankAccounts...)
	all = append(all, s.CCAccounts...)
	return all
}
