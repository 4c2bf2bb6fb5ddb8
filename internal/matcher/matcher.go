// Package matcher applies user-maintained rules to transaction descriptions.
package matcher

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/passbook-dev/passbook/internal/model"
)

// Engine evaluates rules against records. Rules are held sorted by ascending
// priority with definition order breaking ties, and regex patterns are
// compiled once at construction.
type Engine struct {
	rules    []model.Rule
	compiled map[int]*regexp.Regexp
}

// Stats summarizes one categorization pass.
type Stats struct {
	Matched   int
	Unmatched int
}

// NewEngine validates, deduplicates, sorts and compiles a rule set. The
// input slice's order is the definition order. Duplicate definitions (same
// pattern, account and direction scope) keep the first and log a warning;
// empty patterns and unparseable regexes fail construction.
func NewEngine(rules []model.Rule) (*Engine, error) {
	e := &Engine{compiled: make(map[int]*regexp.Regexp)}

	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		if rule.Pattern == "" {
			return nil, fmt.Errorf("rule %d: pattern is required", i)
		}
		if rule.Category == "" {
			return nil, fmt.Errorf("rule %d (%q): category is required", i, rule.Pattern)
		}
		key := scopeKey(&rule)
		if seen[key] {
			slog.Warn("duplicate rule definition, keeping the first",
				"pattern", rule.Pattern,
				"category", rule.Category)
			continue
		}
		seen[key] = true
		e.rules = append(e.rules, rule)
	}

	slices.SortStableFunc(e.rules, func(a, b model.Rule) int {
		return a.Priority - b.Priority
	})

	for i := range e.rules {
		if !e.rules[i].IsRegex {
			continue
		}
		re, err := regexp.Compile("(?i)" + e.rules[i].Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid regex: %w", e.rules[i].Pattern, err)
		}
		e.compiled[i] = re
	}
	return e, nil
}

// Match returns the category of the first rule admitting the record. Rules
// are tried in ascending priority, definition order breaking ties; patterns
// match case-insensitively, as substrings or compiled regexes. No match
// returns ok=false and the caller renders Uncategorized.
func (e *Engine) Match(txn *model.Transaction) (string, bool) {
	desc := strings.ToLower(txn.Description)
	for i := range e.rules {
		rule := &e.rules[i]
		if !rule.AppliesTo(txn) {
			continue
		}
		if re, ok := e.compiled[i]; ok {
			if re.MatchString(txn.Description) {
				return rule.Category, true
			}
			continue
		}
		if strings.Contains(desc, strings.ToLower(rule.Pattern)) {
			return rule.Category, true
		}
	}
	return "", false
}

// Categorize runs Match over a batch, overwriting each record's category.
// Unmatched records become Uncategorized.
func (e *Engine) Categorize(txns []model.Transaction) Stats {
	var stats Stats
	for i := range txns {
		if category, ok := e.Match(&txns[i]); ok {
			txns[i].Category = category
			stats.Matched++
			continue
		}
		txns[i].Category = model.CategoryUncategorized
		stats.Unmatched++
	}
	return stats
}

// Rules returns the engine's rules in evaluation order.
func (e *Engine) Rules() []model.Rule {
	return e.rules
}

// Covers reports whether any rule admitting the scope sketched by proto
// would match the given text. The learner uses it to drop candidate
// patterns an existing rule already handles.
func (e *Engine) Covers(proto *model.Transaction, text string) bool {
	probe := *proto
	probe.Description = text
	_, ok := e.Match(&probe)
	return ok
}

func scopeKey(r *model.Rule) string {
	dir := "any"
	if r.Direction != nil {
		if *r.Direction {
			dir = "debit"
		} else {
			dir = "credit"
		}
	}
	return strings.ToLower(r.Pattern) + "\x00" + strings.ToLower(r.Account) + "\x00" + dir
}
