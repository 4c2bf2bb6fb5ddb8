// Package ofx decodes OFX/QFX statement downloads into canonical records.
package ofx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/shopspring/decimal"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// errZeroAmount marks entries dropped for moving no money.
var errZeroAmount = errors.New("zero amount")

// preprocess fixes formatting defects common in real bank downloads: stray
// leading whitespace before the OFX header, mixed-case SEVERITY values, and
// SGML opening tags missing their closing bracket.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	content = openTagPattern.ReplaceAllString(content, "$1>")
	return content
}

// Parse decodes one OFX/QFX download into canonical records for the given
// account. Both bank and credit-card statement responses are handled; a
// malformed statement inside an otherwise valid file logs a warning and is
// skipped. OFX needs no header detection or date-format guessing, so the only
// per-file failure mode is an undecodable document.
func Parse(r io.Reader, account string) ([]model.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading OFX data: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("decoding OFX document: %w", err)
	}

	var txns []model.Transaction
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, ofxTxn := range stmt.BankTranList.Transactions {
			txn, err := convert(ofxTxn, account)
			if errors.Is(err, errZeroAmount) {
				slog.Debug("skipping zero-amount OFX transaction", "fitid", string(ofxTxn.FiTID))
				continue
			}
			if err != nil {
				slog.Warn("skipping undecodable OFX transaction",
					"fitid", string(ofxTxn.FiTID),
					"error", err)
				continue
			}
			txns = append(txns, txn)
		}
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, ofxTxn := range stmt.BankTranList.Transactions {
			txn, err := convert(ofxTxn, account)
			if errors.Is(err, errZeroAmount) {
				slog.Debug("skipping zero-amount OFX transaction", "fitid", string(ofxTxn.FiTID))
				continue
			}
			if err != nil {
				slog.Warn("skipping undecodable OFX transaction",
					"fitid", string(ofxTxn.FiTID),
					"error", err)
				continue
			}
			txns = append(txns, txn)
		}
	}

	slog.Debug("decoded OFX document", "records", len(txns), "account", account)
	return txns, nil
}

// convert maps one OFX transaction onto the canonical record. OFX signs
// amounts from the account holder's view, negative meaning money out, which
// is exactly the debit/credit split.
func convert(ofxTxn ofxgo.Transaction, account string) (model.Transaction, error) {
	amount, err := decimal.NewFromString(ofxTxn.TrnAmt.FloatString(2))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("amount %q: %w", ofxTxn.TrnAmt.String(), err)
	}
	if amount.IsZero() {
		// Zero-amount entries move no money and have no ledger rendering.
		return model.Transaction{}, errZeroAmount
	}

	posted := ofxTxn.DtPosted.Time
	txn := model.Transaction{
		// Ledger dates are calendar days; the posting timestamp's time of day
		// and zone would leak into fingerprints otherwise.
		Date:        time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, time.UTC),
		Description: description(ofxTxn),
		Remarks:     remarks(ofxTxn),
		Account:     account,
	}
	switch {
	case amount.IsNegative():
		txn.Debit = amount.Neg()
	case amount.IsPositive():
		txn.Credit = amount
	}

	txn.ComputeFingerprint()
	return txn, nil
}

// description picks the most useful text for rule matching: the payee name
// when the bank supplies one, otherwise NAME, falling back to MEMO when NAME
// is a generic placeholder.
func description(ofxTxn ofxgo.Transaction) string {
	if ofxTxn.Payee != nil && ofxTxn.Payee.Name != "" {
		return strings.TrimSpace(string(ofxTxn.Payee.Name))
	}
	name := strings.TrimSpace(string(ofxTxn.Name))
	if ofxTxn.Memo != "" && isGenericDescription(name) {
		return strings.TrimSpace(string(ofxTxn.Memo))
	}
	return name
}

// remarks preserves the memo when it is not already serving as the
// description, plus the check number for check transactions.
func remarks(ofxTxn ofxgo.Transaction) string {
	var parts []string
	memo := strings.TrimSpace(string(ofxTxn.Memo))
	if memo != "" && !isGenericDescription(strings.TrimSpace(string(ofxTxn.Name))) {
		parts = append(parts, memo)
	}
	if ofxTxn.CheckNum != "" {
		parts = append(parts, "check "+string(ofxTxn.CheckNum))
	}
	return strings.Join(parts, "; ")
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
