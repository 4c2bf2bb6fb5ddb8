// Package dedup filters already-ingested records out of statement batches.
package dedup

import (
	"log/slog"

	"github.com/passbook-dev/passbook/internal/model"
)

// Deduplicator tracks every fingerprint the ledger already holds, plus the
// ones admitted during the current run, so the same record cannot land twice
// even when two statement files overlap.
type Deduplicator struct {
	seen map[string]struct{}
}

// New builds a Deduplicator over the ledger's existing records.
func New(existing []model.Transaction) *Deduplicator {
	d := &Deduplicator{seen: make(map[string]struct{}, len(existing))}
	for i := range existing {
		if fp := existing[i].Fingerprint; fp != "" {
			d.seen[fp] = struct{}{}
		}
	}
	return d
}

// Filter returns the batch's novel records in their original order and
// remembers them for the rest of the run.
//
// Identity is the fingerprint alone, so two genuinely distinct purchases
// sharing account, date, description and amount collapse into one. Statement
// exports carry no transaction ids, so the ambiguity cannot be resolved
// here; the dropped count keeps it visible in the run summary.
func (d *Deduplicator) Filter(batch []model.Transaction) (novel []model.Transaction, dropped int) {
	for i := range batch {
		fp := batch[i].Fingerprint
		if fp == "" {
			batch[i].ComputeFingerprint()
			fp = batch[i].Fingerprint
		}
		if _, ok := d.seen[fp]; ok {
			dropped++
			slog.Debug("dropping duplicate record",
				"date", batch[i].Date.Format(model.LedgerDateLayout),
				"description", batch[i].Description,
				"account", batch[i].Account)
			continue
		}
		d.seen[fp] = struct{}{}
		novel = append(novel, batch[i])
	}
	return novel, dropped
}

// Size reports how many distinct fingerprints are tracked.
func (d *Deduplicator) Size() int {
	return len(d.seen)
}
