// Package pipeline orchestrates statement ingestion end to end: fetch,
// parse, deduplicate, categorize, append. Execution is strictly sequential;
// one file is in flight at a time and a failing file never blocks the rest.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/dedup"
	"github.com/passbook-dev/passbook/internal/matcher"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/passbook-dev/passbook/internal/ofx"
	"github.com/passbook-dev/passbook/internal/parser"
	"github.com/passbook-dev/passbook/internal/service"
)

// Options configure a run.
type Options struct {
	BankAccounts []string
	CCAccounts   []string
	// Timeout bounds each collaborator call; a failed call gets exactly one
	// retry before the pipeline gives up on it.
	Timeout time.Duration
	Retry   service.RetryOptions
	// Progress, when set, renders long ledger-wide passes.
	Progress service.ProgressReporter
}

// Pipeline moves statements into transaction logs.
type Pipeline struct {
	source   service.DataSource
	registry *config.Registry
	engine   *matcher.Engine
	opts     Options
	state    State
}

// New wires a pipeline. Zero options get working defaults: 30s per
// collaborator call, one retry after a short delay.
func New(source service.DataSource, registry *config.Registry, engine *matcher.Engine, opts Options) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = service.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: 2 * time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		}
	}
	return &Pipeline{
		source:   source,
		registry: registry,
		engine:   engine,
		opts:     opts,
		state:    StateIdle,
	}
}

// State reports the pipeline's current phase.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) setState(s State) {
	if p.state == s {
		return
	}
	slog.Debug("pipeline state", "from", string(p.state), "to", string(s))
	p.state = s
}

// Run ingests every unprocessed statement into its transaction log, bank
// first, then cards. Per-file failures are recorded and skipped; an append
// failure aborts the run since the ledger may be mid-write.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := NewSummary()
	defer summary.Finish()

	for _, logType := range model.LogTypes {
		if err := p.runLog(ctx, logType, summary); err != nil {
			p.setState(StateFailed)
			return summary, err
		}
	}
	p.setState(StateIdle)
	return summary, nil
}

func (p *Pipeline) runLog(ctx context.Context, logType model.LogType, summary *Summary) error {
	accounts := p.accountsFor(logType)
	log := summary.Log(logType)
	if len(accounts) == 0 {
		slog.Info("no accounts configured for log, skipping", "log", logType)
		return nil
	}

	p.setState(StateFetching)
	ledger, err := p.Ledger(ctx, logType)
	if err != nil {
		return err
	}

	seen := dedup.New(ledger)
	latest := latestDateByAccount(ledger)
	slog.Debug("ledger loaded", "log", logType, "records", len(ledger), "fingerprints", seen.Size())

	files, err := p.listFiles(ctx)
	if err != nil {
		return err
	}

	for _, file := range files {
		account, ok := model.AccountForFile(file.Name, accounts)
		if !ok {
			// Another log's statement, or not a statement at all.
			continue
		}
		log.FilesListed++

		// A file without a parsable period suffix cannot be proven already
		// processed, so it is ingested; dedup catches any re-appends.
		periodEnd, hasPeriod := file.PeriodEnd(logType)
		if !hasPeriod {
			slog.Warn("cannot derive statement period from file name, processing anyway", "file", file.Name)
		}
		if last, ok := latest[account]; hasPeriod && ok && !periodEnd.After(last) {
			slog.Debug("statement already processed",
				"file", file.Name,
				"period_end", periodEnd.Format(model.LedgerDateLayout),
				"ledger_latest", last.Format(model.LedgerDateLayout))
			log.FilesSkipped = append(log.FilesSkipped, SkippedFile{Name: file.Name, Reason: "already processed"})
			continue
		}

		result := p.processFile(ctx, logType, file, account, seen)
		log.RecordsParsed += result.parsed
		log.Duplicates += result.duplicates
		log.Appended += result.appended
		log.Matched += result.matched
		log.Unmatched += result.unmatched

		switch {
		case result.fatal != nil:
			log.FilesFailed = append(log.FilesFailed, FailedFile{Name: file.Name, Err: result.fatal})
			return result.fatal
		case result.err != nil:
			log.FilesFailed = append(log.FilesFailed, FailedFile{Name: file.Name, Err: result.err})
			slog.Warn("statement failed, continuing with remaining files", "file", file.Name, "error", result.err)
		default:
			log.FilesProcessed++
		}
	}
	return nil
}

type outcome struct {
	err        error
	fatal      error
	parsed     int
	duplicates int
	appended   int
	matched    int
	unmatched  int
}

func (p *Pipeline) processFile(ctx context.Context, logType model.LogType, file model.StatementFile, account string, seen *dedup.Deduplicator) outcome {
	slog.Info("processing statement", "file", file.Name, "account", account)

	p.setState(StateFetching)
	var txns []model.Transaction
	if isOFX(file.Name) {
		var data []byte
		if err := p.withRetry(ctx, func(cctx context.Context) error {
			var ferr error
			data, ferr = p.source.GetStatementBytes(cctx, file)
			return ferr
		}); err != nil {
			return outcome{err: fmt.Errorf("%w: fetching %s: %v", common.ErrExternalIO, file.Name, err)}
		}

		p.setState(StateParsing)
		parsed, err := ofx.Parse(bytes.NewReader(data), account)
		if err != nil {
			return outcome{err: fmt.Errorf("parsing %s: %w", file.Name, err)}
		}
		txns = parsed
	} else {
		var rows [][]string
		if err := p.withRetry(ctx, func(cctx context.Context) error {
			var ferr error
			rows, ferr = p.source.GetStatementData(cctx, file)
			return ferr
		}); err != nil {
			return outcome{err: fmt.Errorf("%w: fetching %s: %v", common.ErrExternalIO, file.Name, err)}
		}

		p.setState(StateParsing)
		cfg, err := p.registry.Lookup(logType, config.InstitutionForAccount(account))
		if err != nil {
			// No config means every statement from this institution would
			// fail the same way; not worth limping on.
			return outcome{fatal: err}
		}
		parsed, err := parser.Parse(rows, cfg, account)
		if err != nil {
			return outcome{err: fmt.Errorf("parsing %s: %w", file.Name, err)}
		}
		txns = parsed
	}

	result := outcome{parsed: len(txns)}

	p.setState(StateDeduplicating)
	novel, dropped := seen.Filter(txns)
	result.duplicates = dropped

	p.setState(StateCategorizing)
	stats := p.engine.Categorize(novel)
	result.matched, result.unmatched = stats.Matched, stats.Unmatched

	if len(novel) == 0 {
		slog.Info("no new records in statement", "file", file.Name, "duplicates", dropped)
		return result
	}

	// Append happens only after the whole file parsed and deduplicated,
	// in one collaborator call, so a file lands entirely or not at all.
	p.setState(StateAppending)
	model.SortTransactions(novel)
	rows := make([][]string, len(novel))
	for i := range novel {
		rows[i] = novel[i].ToLedgerRow()
	}
	if err := p.withRetry(ctx, func(cctx context.Context) error {
		return p.source.AppendTransactionsToLog(cctx, logType, rows)
	}); err != nil {
		result.fatal = fmt.Errorf("%w: appending %d records from %s: %v", common.ErrExternalIO, len(rows), file.Name, err)
		return result
	}
	result.appended = len(rows)

	slog.Info("statement ingested",
		"file", file.Name,
		"appended", result.appended,
		"duplicates", result.duplicates,
		"uncategorized", result.unmatched)
	return result
}

// Recategorize re-runs the matcher over every ledger record and rewrites
// each log in place, record order preserved. Only the category column
// changes. With dryRun set nothing is written.
func (p *Pipeline) Recategorize(ctx context.Context, dryRun bool) (*RecategorizeSummary, error) {
	summary := &RecategorizeSummary{}
	for _, logType := range model.LogTypes {
		p.setState(StateFetching)
		ledger, err := p.Ledger(ctx, logType)
		if err != nil {
			p.setState(StateFailed)
			return summary, err
		}

		p.setState(StateCategorizing)
		log := RecategorizeLogSummary{LogType: logType, Records: len(ledger)}
		p.progressStart(len(ledger), fmt.Sprintf("Recategorizing %s log", logType))
		for i := range ledger {
			category, ok := p.engine.Match(&ledger[i])
			if !ok {
				category = model.CategoryUncategorized
				log.Unmatched++
			} else {
				log.Matched++
			}
			if ledger[i].Category != category {
				log.Changed++
				ledger[i].Category = category
			}
			p.progressIncrement()
		}
		p.progressFinish()

		if !dryRun && log.Changed > 0 {
			p.setState(StateAppending)
			if err := p.OverwriteLog(ctx, logType, ledger); err != nil {
				p.setState(StateFailed)
				return summary, err
			}
		}
		summary.Logs = append(summary.Logs, log)
	}
	p.setState(StateIdle)
	return summary, nil
}

// Ledger fetches and decodes one transaction log.
func (p *Pipeline) Ledger(ctx context.Context, logType model.LogType) ([]model.Transaction, error) {
	var rows [][]string
	if err := p.withRetry(ctx, func(cctx context.Context) error {
		var ferr error
		rows, ferr = p.source.GetTransactionLogData(cctx, logType)
		return ferr
	}); err != nil {
		return nil, fmt.Errorf("%w: reading %s log: %v", common.ErrExternalIO, logType, err)
	}

	txns, err := parser.ParseLedger(rows)
	if err != nil {
		return nil, fmt.Errorf("decoding %s log: %w", logType, err)
	}
	return txns, nil
}

// OverwriteLog destructively replaces a log's data rows with the given
// records, preserving their order. The header row stays.
func (p *Pipeline) OverwriteLog(ctx context.Context, logType model.LogType, txns []model.Transaction) error {
	rows := make([][]string, len(txns))
	for i := range txns {
		rows[i] = txns[i].ToLedgerRow()
	}

	if err := p.withRetry(ctx, func(cctx context.Context) error {
		return p.source.ClearTransactionLog(cctx, logType)
	}); err != nil {
		return fmt.Errorf("%w: clearing %s log: %v", common.ErrExternalIO, logType, err)
	}
	if err := p.withRetry(ctx, func(cctx context.Context) error {
		return p.source.WriteTransactionsToLog(cctx, logType, rows)
	}); err != nil {
		return fmt.Errorf("%w: writing %s log: %v", common.ErrExternalIO, logType, err)
	}
	return nil
}

func (p *Pipeline) listFiles(ctx context.Context) ([]model.StatementFile, error) {
	var files []model.StatementFile
	if err := p.withRetry(ctx, func(cctx context.Context) error {
		var ferr error
		files, ferr = p.source.ListStatementFiles(cctx)
		return ferr
	}); err != nil {
		return nil, fmt.Errorf("%w: listing statement files: %v", common.ErrExternalIO, err)
	}
	return files, nil
}

// withRetry wraps one collaborator call with the per-call timeout and the
// configured retry policy. Each attempt gets a fresh deadline.
func (p *Pipeline) withRetry(ctx context.Context, op func(context.Context) error) error {
	return common.WithRetry(ctx, func() error {
		cctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
		return op(cctx)
	}, p.opts.Retry)
}

func (p *Pipeline) accountsFor(logType model.LogType) []string {
	if logType == model.LogTypeBank {
		return p.opts.BankAccounts
	}
	return p.opts.CCAccounts
}

func (p *Pipeline) progressStart(total int, description string) {
	if p.opts.Progress != nil {
		p.opts.Progress.Start(total, description)
	}
}

func (p *Pipeline) progressIncrement() {
	if p.opts.Progress != nil {
		p.opts.Progress.Increment()
	}
}

func (p *Pipeline) progressFinish() {
	if p.opts.Progress != nil {
		p.opts.Progress.Finish()
	}
}

func latestDateByAccount(txns []model.Transaction) map[string]time.Time {
	latest := make(map[string]time.Time)
	for i := range txns {
		if t, ok := latest[txns[i].Account]; !ok || txns[i].Date.After(t) {
			latest[txns[i].Account] = txns[i].Date
		}
	}
	return latest
}

func isOFX(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".ofx", ".qfx":
		return true
	}
	return false
}
