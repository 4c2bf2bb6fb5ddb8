package model

import "strings"

// RuleSource records how a rule came to exist.
type RuleSource string

// Rule source constants.
const (
	RuleSourceManual  RuleSource = "manual"
	RuleSourceLearned RuleSource = "learned"
)

// Rule maps transaction descriptions to a category.
//
// Pattern is matched case-insensitively as a substring of the description,
// or as a regular expression when IsRegex is set. Account, when non-empty,
// restricts the rule to accounts containing it. Direction, when non-nil,
// restricts the rule to debits (true) or credits (false). Lower Priority
// evaluates first; equal priorities keep rule-file order.
type Rule struct {
	Pattern   string     `json:"pattern"`
	Category  string     `json:"category"`
	Priority  int        `json:"priority"`
	Source    RuleSource `json:"source,omitempty"`
	IsRegex   bool       `json:"use_regex,omitempty"`
	Account   string     `json:"account,omitempty"`
	Direction *bool      `json:"debit,omitempty"`
}

// AppliesTo reports whether the rule's account and direction gates admit the
// record. The pattern itself is evaluated by the matcher, which holds the
// compiled form.
func (r *Rule) AppliesTo(t *Transaction) bool {
	if r.Account != "" && !containsFold(t.Account, r.Account) {
		return false
	}
	if r.Direction != nil && *r.Direction != t.IsDebit() {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
