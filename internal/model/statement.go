package model

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// StatementFile identifies one raw statement held by a data source.
type StatementFile struct {
	ID   string
	Name string
}

var periodSuffix = regexp.MustCompile(`-(\d{4})(?:-(\d{2}))?$`)

// AccountForFile returns the configured account name embedded in a statement
// file name. When several account names match, the longest wins so that
// "bank-hdfc-karti" beats "bank-hdfc".
func AccountForFile(name string, accounts []string) (string, bool) {
	lower := strings.ToLower(name)
	best := ""
	for _, acct := range accounts {
		if strings.Contains(lower, strings.ToLower(acct)) && len(acct) > len(best) {
			best = acct
		}
	}
	return best, best != ""
}

// PeriodEnd extracts the statement period end encoded in the file name: bank
// statements end in "-YYYY" (period end December 31 of that year), card
// statements in "-YYYY-MM" (period end last day of that month).
func (f StatementFile) PeriodEnd(logType LogType) (time.Time, bool) {
	base := strings.TrimSuffix(f.Name, path.Ext(f.Name))
	m := periodSuffix.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	switch logType {
	case LogTypeBank:
		if m[2] != "" {
			return time.Time{}, false
		}
		return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), true
	case LogTypeCC:
		if m[2] == "" {
			return time.Time{}, false
		}
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return time.Time{}, false
		}
		firstOfNext := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		return firstOfNext.AddDate(0, 0, -1), true
	}
	return time.Time{}, false
}
