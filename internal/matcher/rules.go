package matcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/model"
)

// LoadRules reads the rule file. A missing file is an empty rule set so a
// fresh setup can run before any rules exist.
func LoadRules(path string) ([]model.Rule, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("rule file not found, starting with no rules", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}

	var rules []model.Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}
	return rules, nil
}

// LoadCategories reads the optional category definition file. Missing file
// means no definitions, which disables category checking.
func LoadCategories(path string) ([]model.Category, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading category file: %w", err)
	}

	var categories []model.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("category file %s: %w", path, err)
	}
	return categories, nil
}

// LintResult separates conditions that block the engine from ones it
// tolerates with a warning.
type LintResult struct {
	Errors   []error
	Warnings []error
}

// Clean reports whether the lint found nothing at all.
func (r LintResult) Clean() bool {
	return len(r.Errors) == 0 && len(r.Warnings) == 0
}

// Lint checks a raw rule set and category definitions the way NewEngine
// would consume them: hard errors fail engine construction, warnings are
// duplicate definitions where the first one wins silently at runtime.
func Lint(rules []model.Rule, categories []model.Category) LintResult {
	var result LintResult

	defined := make(map[string]bool, len(categories))
	for _, category := range categories {
		name := strings.ToLower(category.Name)
		if category.Name == "" {
			result.Errors = append(result.Errors, errors.New("category definition with empty name"))
			continue
		}
		if defined[name] {
			result.Warnings = append(result.Warnings,
				fmt.Errorf("%w: %q (first definition wins)", common.ErrDuplicateCategory, category.Name))
			continue
		}
		defined[name] = true
	}

	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		switch {
		case rule.Pattern == "":
			result.Errors = append(result.Errors, fmt.Errorf("rule %d: pattern is required", i))
			continue
		case rule.Category == "":
			result.Errors = append(result.Errors, fmt.Errorf("rule %d (%q): category is required", i, rule.Pattern))
			continue
		}

		if rule.IsRegex {
			if _, err := regexp.Compile("(?i)" + rule.Pattern); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("rule %q: invalid regex: %w", rule.Pattern, err))
				continue
			}
		}

		key := scopeKey(&rule)
		if seen[key] {
			result.Warnings = append(result.Warnings,
				fmt.Errorf("%w: %q for category %q (first definition wins)", common.ErrDuplicateRule, rule.Pattern, rule.Category))
			continue
		}
		seen[key] = true

		if len(defined) > 0 && !defined[strings.ToLower(rule.Category)] {
			result.Errors = append(result.Errors,
				fmt.Errorf("rule %q: category %q is not defined", rule.Pattern, rule.Category))
		}
	}
	return result
}
