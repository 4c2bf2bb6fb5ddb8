// Package learner mines categorized ledger history for new rule candidates.
package learner

import (
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/passbook-dev/passbook/internal/matcher"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/shopspring/decimal"
)

var decimalOne = decimal.NewFromInt(1)

// Options tune candidate mining.
type Options struct {
	// MinFraction is the share of a group's descriptions a pattern must
	// appear in to become a candidate. At least two descriptions are always
	// required.
	MinFraction float64
	// MaxSuggestions caps proposals per (category, direction) group.
	MaxSuggestions int
}

// DefaultOptions reflect what works on a few years of personal statements.
func DefaultOptions() Options {
	return Options{MinFraction: 0.3, MaxSuggestions: 10}
}

// Suggestion is one proposed rule with the evidence behind it. Proposals are
// advisory: nothing is ever written to the rule file.
type Suggestion struct {
	Rule       model.Rule
	GroupSize  int // categorized records in the (category, direction) group
	Support    int // group descriptions containing the pattern
	NewMatches int // uncategorized records the pattern would newly match
}

var (
	tokenPattern = regexp.MustCompile(`\b[a-z0-9]{3,}\b`)
	digitsOnly   = regexp.MustCompile(`^[0-9]+$`)
)

// Learn proposes rules from the ledger. Categorized records are grouped by
// (category, direction) and mined for recurring word tokens and adjacent
// bigrams; candidates an existing rule already covers are dropped, and the
// rest rank by how many currently-uncategorized records they would newly
// match, longer patterns breaking ties.
func Learn(txns []model.Transaction, engine *matcher.Engine, opts Options) []Suggestion {
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = DefaultOptions().MaxSuggestions
	}

	var uncategorized []model.Transaction
	groups := make(map[string]*group)
	for i := range txns {
		txn := &txns[i]
		if txn.Category == "" || txn.Category == model.CategoryUncategorized {
			uncategorized = append(uncategorized, txns[i])
			continue
		}
		key := txn.Category + "\x00" + directionName(txn.IsDebit())
		g, ok := groups[key]
		if !ok {
			g = &group{category: txn.Category, debit: txn.IsDebit()}
			groups[key] = g
		}
		g.descriptions = append(g.descriptions, txn.Description)
	}

	learnedPriority := nextLearnedPriority(engine.Rules())

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var suggestions []Suggestion
	for _, key := range keys {
		suggestions = append(suggestions, mineGroup(groups[key], uncategorized, engine, opts, learnedPriority)...)
	}
	return suggestions
}

type group struct {
	category     string
	debit        bool
	descriptions []string
}

func mineGroup(g *group, uncategorized []model.Transaction, engine *matcher.Engine, opts Options, priority int) []Suggestion {
	size := len(g.descriptions)
	threshold := int(math.Ceil(opts.MinFraction * float64(size)))
	if threshold < 2 {
		threshold = 2
	}

	candidateSet := make(map[string]struct{})
	for _, description := range g.descriptions {
		for candidate := range candidatesOf(description) {
			candidateSet[candidate] = struct{}{}
		}
	}

	// Support is counted with the rule's own substring semantics, so a
	// bigram whose tokens are dash-joined in the statement never qualifies.
	lowered := make([]string, len(g.descriptions))
	for i, description := range g.descriptions {
		lowered[i] = strings.ToLower(description)
	}
	support := make(map[string]int, len(candidateSet))
	for candidate := range candidateSet {
		for _, description := range lowered {
			if strings.Contains(description, candidate) {
				support[candidate]++
			}
		}
	}

	direction := g.debit
	proto := model.Transaction{}
	if direction {
		proto.Debit = decimalOne
	} else {
		proto.Credit = decimalOne
	}

	candidates := make([]string, 0, len(support))
	for candidate, count := range support {
		if count < threshold {
			continue
		}
		if engine.Covers(&proto, candidate) {
			continue
		}
		candidates = append(candidates, candidate)
	}
	sort.Strings(candidates)

	suggestions := make([]Suggestion, 0, len(candidates))
	for _, candidate := range candidates {
		rule := model.Rule{
			Pattern:   candidate,
			Category:  g.category,
			Priority:  priority,
			Source:    model.RuleSourceLearned,
			Direction: &direction,
		}
		suggestions = append(suggestions, Suggestion{
			Rule:       rule,
			GroupSize:  size,
			Support:    support[candidate],
			NewMatches: countNewMatches(&rule, uncategorized),
		})
	}

	slices.SortStableFunc(suggestions, func(a, b Suggestion) int {
		if a.NewMatches != b.NewMatches {
			return b.NewMatches - a.NewMatches
		}
		return len(b.Rule.Pattern) - len(a.Rule.Pattern)
	})

	if len(suggestions) > opts.MaxSuggestions {
		suggestions = suggestions[:opts.MaxSuggestions]
	}
	return suggestions
}

// candidatesOf returns the distinct word tokens and adjacent bigrams of one
// description. Pure digit runs are reference numbers, not merchants, and
// never form candidates.
func candidatesOf(description string) map[string]struct{} {
	tokens := tokenPattern.FindAllString(strings.ToLower(description), -1)
	out := make(map[string]struct{}, len(tokens)*2)
	for i, token := range tokens {
		if digitsOnly.MatchString(token) {
			continue
		}
		out[token] = struct{}{}
		if i+1 < len(tokens) && !digitsOnly.MatchString(tokens[i+1]) {
			out[token+" "+tokens[i+1]] = struct{}{}
		}
	}
	return out
}

func countNewMatches(rule *model.Rule, uncategorized []model.Transaction) int {
	count := 0
	pattern := strings.ToLower(rule.Pattern)
	for i := range uncategorized {
		txn := &uncategorized[i]
		if !rule.AppliesTo(txn) {
			continue
		}
		if strings.Contains(strings.ToLower(txn.Description), pattern) {
			count++
		}
	}
	return count
}

// nextLearnedPriority places proposals after every manual rule so adopting
// one never preempts hand-written matches.
func nextLearnedPriority(rules []model.Rule) int {
	if len(rules) == 0 {
		return 100
	}
	next := rules[0].Priority + 10
	for _, rule := range rules[1:] {
		if rule.Priority+10 > next {
			next = rule.Priority + 10
		}
	}
	return next
}

func directionName(debit bool) string {
	if debit {
		return "debit"
	}
	return "credit"
}
