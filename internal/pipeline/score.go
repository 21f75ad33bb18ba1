package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	// neutralScore is the fallback when the score reply has no integer at all.
	neutralScore = 50

	// debtToIncomeCap caps the score at 50 when the overall debt-to-income
	// ratio (0-1 scale) exceeds it. Applied both in the instruction text and
	// deterministically after decoding.
	debtToIncomeCap = 0.20

	// maxScoreTransactions caps how many recent transactions the score
	// instruction carries.
	maxScoreTransactions = 50
)

// ScoreApplicant derives a loan-worthiness score in [0,100] from the signals,
// a capped sample of the most recent transactions, and the requested amount.
// Any decoded candidate is clamped into range; a reply with no integer falls
// back to the neutral default.
func (a *Analyzer) ScoreApplicant(ctx context.Context, txs []NormalizedTransaction, signals FinancialSignals, requestedAmount float64) (int, error) {
	reply, err := a.gen.Generate(ctx, scorePrompt(signals, transactionCSV(txs), requestedAmount))
	if err != nil {
		return 0, fmt.Errorf("score applicant: %w", err)
	}

	score, ok := firstInteger(reply)
	if !ok {
		a.log.Warn().Str("reply", truncate(reply, 120)).Msg("Score reply had no integer, using neutral default")
		score = neutralScore
	}
	score = clampScore(score)
	if signals.DebtToIncome > debtToIncomeCap && score > 50 {
		score = 50
	}
	return score, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// transactionCSV serializes up to the 50 most recent transactions as a
// compact comma-separated snippet. Commas inside descriptions become spaces
// so every row stays four columns; absent numerics render as 0.00 here since
// this text is advisory context for the model, not a decoded grammar.
func transactionCSV(txs []NormalizedTransaction) string {
	start := 0
	if len(txs) > maxScoreTransactions {
		start = len(txs) - maxScoreTransactions
	}

	var b strings.Builder
	for i, tx := range txs[start:] {
		if i > 0 {
			b.WriteByte('\n')
		}
		desc := strings.ReplaceAll(tx.Description, ",", " ")
		var amount, balance float64
		if tx.Amount != nil {
			amount = *tx.Amount
		}
		if tx.Balance != nil {
			balance = *tx.Balance
		}
		direction := ""
		if tx.Direction != nil {
			direction = string(*tx.Direction)
		}
		fmt.Fprintf(&b, "%s,%.2f,%s,%.2f", desc, amount, direction, balance)
	}
	return b.String()
}

// scoreTier buckets a score into the narrative tiers.
func scoreTier(score int) string {
	switch {
	case score > 66:
		return "strong"
	case score >= 33:
		return "moderate"
	default:
		return "weak"
	}
}

// SummarizeStatement produces the narrative paragraph for the applicant,
// tiered by score. An empty reply falls back to a deterministic paragraph
// computed locally from basic transaction statistics; this is the only fully
// local path in the pipeline and exists so the report never ships without a
// summary.
func (a *Analyzer) SummarizeStatement(ctx context.Context, txs []NormalizedTransaction, signals FinancialSignals, score int) (string, error) {
	txJSON, err := json.Marshal(txs)
	if err != nil {
		return "", fmt.Errorf("summarize statement: marshal transactions: %w", err)
	}

	reply, err := a.gen.Generate(ctx, summaryPrompt(string(txJSON), signals, score))
	if err != nil {
		return "", fmt.Errorf("summarize statement: %w", err)
	}

	summary := strings.TrimSpace(reply)
	if summary == "" {
		a.log.Warn().Msg("Empty summary reply, using local fallback paragraph")
		summary = fallbackSummary(txs)
	}
	return summary, nil
}

// fallbackSummary builds the local safety-net paragraph from deposit and
// withdrawal counts and averages. Deterministic for a given transaction list.
func fallbackSummary(txs []NormalizedTransaction) string {
	var depositSum, withdrawalSum float64
	var deposits, withdrawals int
	for _, tx := range txs {
		if tx.Amount == nil || tx.Direction == nil {
			continue
		}
		switch *tx.Direction {
		case DirectionCredit:
			depositSum += *tx.Amount
			deposits++
		case DirectionDebit:
			withdrawalSum += *tx.Amount
			withdrawals++
		}
	}

	if deposits == 0 && withdrawals == 0 {
		return "Based on the available transactions, the applicant's loan-worthiness could not be determined. " +
			"Please check that the data is complete and try again."
	}

	avgDeposit := 0.0
	if deposits > 0 {
		avgDeposit = depositSum / float64(deposits)
	}
	avgWithdrawal := 0.0
	if withdrawals > 0 {
		avgWithdrawal = withdrawalSum / float64(withdrawals)
	}

	return fmt.Sprintf(
		"An automated narrative could not be generated for this statement, so this summary is based on basic statistics only. "+
			"The statement contains %d transactions: %d deposits averaging %.2f USD and %d withdrawals averaging %.2f USD. "+
			"Please review the extracted transactions and financial signals directly before making a lending decision.",
		deposits+withdrawals, deposits, avgDeposit, withdrawals, avgWithdrawal,
	)
}

var categoryLineRe = regexp.MustCompile(`(?i)^(Living|Debt|Leisure|Savings)\s*:\s*([-+]?[\d,]+(?:\.\d+)?)`)

// CategorySpending splits total debit volume into the four fixed buckets as
// percentages. Buckets missing from the reply default to 0.0; the shares are
// expected to sum to roughly 100 but that is not enforced.
func (a *Analyzer) CategorySpending(ctx context.Context, txs []NormalizedTransaction) (CategoryBreakdown, error) {
	txJSON, err := json.Marshal(txs)
	if err != nil {
		return CategoryBreakdown{}, fmt.Errorf("category spending: marshal transactions: %w", err)
	}

	reply, err := a.gen.Generate(ctx, categoriesPrompt(string(txJSON)))
	if err != nil {
		return CategoryBreakdown{}, fmt.Errorf("category spending: %w", err)
	}

	return decodeCategories(reply), nil
}

func decodeCategories(reply string) CategoryBreakdown {
	var breakdown CategoryBreakdown
	for _, line := range nonBlankLines(reply) {
		m := categoryLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v := parseFloatLoose(m[2])
		switch strings.ToLower(m[1]) {
		case "living":
			breakdown.Living = v
		case "debt":
			breakdown.Debt = v
		case "leisure":
			breakdown.Leisure = v
		case "savings":
			breakdown.Savings = v
		}
	}
	return breakdown
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
