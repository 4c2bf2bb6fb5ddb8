// Package config provides configuration utilities for the application.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/model"
)

// Canonical record fields a statement column may map to.
const (
	ColumnDate        = "date"
	ColumnDescription = "description"
	ColumnDebit       = "debit"
	ColumnCredit      = "credit"
	ColumnAmount      = "amount"
	ColumnCategory    = "category"
	ColumnRemarks     = "remarks"
	ColumnAccount     = "account"
)

// SpecialHandlingTilde marks statements whose rows arrive as a single
// ~-joined cell and must be split before header detection.
const SpecialHandlingTilde = "tilde"

var canonicalColumns = map[string]bool{
	ColumnDate:        true,
	ColumnDescription: true,
	ColumnDebit:       true,
	ColumnCredit:      true,
	ColumnAmount:      true,
	ColumnCategory:    true,
	ColumnRemarks:     true,
	ColumnAccount:     true,
}

// StatementConfig describes how one institution's statement export decodes
// into canonical records. ColumnMap keys are source header cells (matched
// case-insensitively after trimming); values are canonical field names.
// DateFormats are tried in order and may use strftime tokens or Go layouts.
type StatementConfig struct {
	HeaderPatterns   [][]string        `json:"header_patterns"`
	ColumnMap        map[string]string `json:"column_map"`
	DateFormats      []string          `json:"date_formats"`
	AmountSignColumn string            `json:"amount_sign_column,omitempty"`
	DebitValue       string            `json:"debit_value,omitempty"`
	SpecialHandling  string            `json:"special_handling,omitempty"`

	layouts []string
}

// DateLayouts returns the config's date formats translated to Go layouts,
// in the order they should be tried.
func (c *StatementConfig) DateLayouts() []string {
	return c.layouts
}

// Validate checks the config and translates its date formats. A config must
// bind a date and a description column plus some monetary column: debit
// and/or credit, or a single amount column.
func (c *StatementConfig) Validate() error {
	if len(c.HeaderPatterns) == 0 {
		return fmt.Errorf("%w: no header patterns", common.ErrConfigInvalid)
	}
	for i, pattern := range c.HeaderPatterns {
		if len(pattern) == 0 {
			return fmt.Errorf("%w: header pattern %d is empty", common.ErrConfigInvalid, i)
		}
	}
	if len(c.DateFormats) == 0 {
		return fmt.Errorf("%w: no date formats", common.ErrConfigInvalid)
	}

	bound := make(map[string]bool, len(c.ColumnMap))
	for source, field := range c.ColumnMap {
		if !canonicalColumns[field] {
			return fmt.Errorf("%w: column %q maps to unknown field %q", common.ErrConfigInvalid, source, field)
		}
		bound[field] = true
	}
	if !bound[ColumnDate] {
		return fmt.Errorf("%w: no column mapped to date", common.ErrConfigInvalid)
	}
	if !bound[ColumnDescription] {
		return fmt.Errorf("%w: no column mapped to description", common.ErrConfigInvalid)
	}
	if !bound[ColumnDebit] && !bound[ColumnCredit] && !bound[ColumnAmount] {
		return fmt.Errorf("%w: no column mapped to debit, credit or amount", common.ErrConfigInvalid)
	}
	if c.AmountSignColumn != "" && c.DebitValue == "" {
		return fmt.Errorf("%w: amount_sign_column needs debit_value", common.ErrConfigInvalid)
	}

	switch c.SpecialHandling {
	case "", SpecialHandlingTilde:
	default:
		return fmt.Errorf("%w: unknown special_handling %q", common.ErrConfigInvalid, c.SpecialHandling)
	}

	c.layouts = make([]string, len(c.DateFormats))
	for i, format := range c.DateFormats {
		layout, err := TranslateDateFormat(format)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrConfigInvalid, err)
		}
		c.layouts[i] = layout
	}
	return nil
}

// Registry holds every institution's statement config, keyed by
// "<logtype>-<institution>" (the config file's name without .json).
type Registry struct {
	configs map[string]*StatementConfig
}

// LoadRegistry reads and validates every *.json config in dir. Any invalid
// config fails the load; a half-usable registry is worse than none.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading config dir %s: %w", dir, err)
	}

	registry := &Registry{configs: make(map[string]*StatementConfig)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", entry.Name(), err)
		}
		cfg := &StatementConfig{}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrConfigInvalid, entry.Name(), err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config %s: %w", entry.Name(), err)
		}
		key := strings.ToLower(strings.TrimSuffix(entry.Name(), ".json"))
		registry.configs[key] = cfg
	}
	return registry, nil
}

// Lookup returns the config for a statement's log type and institution.
func (r *Registry) Lookup(logType model.LogType, institution string) (*StatementConfig, error) {
	key := fmt.Sprintf("%s-%s", logType, strings.ToLower(institution))
	cfg, ok := r.configs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrConfigNotFound, key)
	}
	return cfg, nil
}

// Len reports how many configs are loaded.
func (r *Registry) Len() int {
	return len(r.configs)
}

// InstitutionForAccount extracts the institution from an account name of the
// form "<type>-<institution>-<holder>". Shorter names fall back to the whole
// name.
func InstitutionForAccount(account string) string {
	parts := strings.Split(account, "-")
	if len(parts) >= 2 {
		return parts[1]
	}
	return account
}
