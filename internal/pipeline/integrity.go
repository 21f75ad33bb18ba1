package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CheckIntegrity audits the normalized transactions against exactly two
// rules: invalid amount (absent or <= 0) and invalid direction (not
// debit/credit after trimming). Every decoded issue is re-verified locally,
// so a transaction that satisfies both rules never appears in the result no
// matter what the reply claims. Issue order follows the reply, not the input;
// a transaction failing both rules yields two entries.
func (a *Analyzer) CheckIntegrity(ctx context.Context, txs []NormalizedTransaction) ([]IntegrityIssue, error) {
	txJSON, err := json.Marshal(txs)
	if err != nil {
		return nil, fmt.Errorf("check integrity: marshal transactions: %w", err)
	}

	reply, err := a.gen.Generate(ctx, auditPrompt(string(txJSON)))
	if err != nil {
		return nil, fmt.Errorf("check integrity: %w", err)
	}

	return decodeIssueLines(reply), nil
}

// decodeIssueLines decodes the audit grammar:
//
//	REASON || TRANSACTION_JSON
//
// Lines with an unknown reason, unparseable JSON, or a reason the embedded
// transaction does not actually violate are dropped.
func decodeIssueLines(reply string) []IntegrityIssue {
	var issues []IntegrityIssue
	for _, line := range nonBlankLines(reply) {
		parts := strings.SplitN(line, fieldSeparator, 2)
		if len(parts) != 2 {
			continue
		}
		reason := IssueReason(strings.TrimSpace(parts[0]))
		if reason != ReasonInvalidAmount && reason != ReasonInvalidDirection {
			continue
		}

		var tx NormalizedTransaction
		if err := json.Unmarshal([]byte(strings.TrimSpace(parts[1])), &tx); err != nil {
			continue
		}
		if !violates(tx, reason) {
			continue
		}
		issues = append(issues, IntegrityIssue{Reason: reason, Transaction: tx})
	}
	return issues
}

// violates reports whether the transaction actually breaks the given rule.
func violates(tx NormalizedTransaction, reason IssueReason) bool {
	switch reason {
	case ReasonInvalidAmount:
		return tx.Amount == nil || *tx.Amount <= 0
	case ReasonInvalidDirection:
		// The embedded JSON comes from the reply, so the direction can be
		// arbitrary text rather than nil-or-valid like our own decoder output.
		return tx.Direction == nil || parseDirection(string(*tx.Direction)) == nil
	}
	return false
}
