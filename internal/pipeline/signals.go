package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// monthNames maps month numbers 1-12 to the English names used as period
// labels on the wire.
var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English name for a month number 1-12, or "" for
// anything out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// selectRecentMonths picks the reporting periods: the distinct month tags of
// the input, at most three, scanning positionally from the end of the list
// backwards. Recency is positional, not numeric, because a statement can span
// a year boundary (December is older than January there). The result is
// ordered oldest to newest. Transactions without a month tag are skipped.
func selectRecentMonths(txs []NormalizedTransaction) []int {
	const maxPeriods = 3

	seen := make(map[int]bool)
	var picked []int
	for i := len(txs) - 1; i >= 0 && len(picked) < maxPeriods; i-- {
		if txs[i].Month == nil {
			continue
		}
		m := *txs[i].Month
		if seen[m] {
			continue
		}
		seen[m] = true
		picked = append(picked, m)
	}

	// picked is newest-first; report oldest-first.
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked
}

var (
	signalLineRe = regexp.MustCompile(`(?i)^(total_deposits|total_withdrawals|net_cash_flow|debt_to_income):\s*([-+]?[\d,]+(?:\.\d+)?)`)

	monthFlowRe = regexp.MustCompile(`(?i)^([A-Za-z]+):\s*\{\s*deposits:\s*([-+]?[\d,]+(?:\.\d+)?),\s*withdrawals:\s*([-+]?[\d,]+(?:\.\d+)?),\s*end_balance:\s*([-+]?[\d,]+(?:\.\d+)?),\s*debt_to_income:\s*([-+]?[\d,]+(?:\.\d+)?)\s*\}$`)
)

// AnalyzeSignals computes aggregate and per-period financial metrics. The
// reporting periods are chosen locally (see selectRecentMonths) and named in
// the instruction, so the decoder only accepts flows for those periods and
// reports them in that order. Two invariants are enforced after decoding
// regardless of the reply: net_cash_flow equals deposits minus withdrawals,
// and debt_to_income is 0 whenever total deposits are 0.
func (a *Analyzer) AnalyzeSignals(ctx context.Context, txs []NormalizedTransaction) (FinancialSignals, error) {
	var periodNames []string
	for _, m := range selectRecentMonths(txs) {
		periodNames = append(periodNames, MonthName(m))
	}

	txJSON, err := json.Marshal(txs)
	if err != nil {
		return FinancialSignals{}, fmt.Errorf("analyze signals: marshal transactions: %w", err)
	}

	reply, err := a.gen.Generate(ctx, signalsPrompt(string(txJSON), periodNames))
	if err != nil {
		return FinancialSignals{}, fmt.Errorf("analyze signals: %w", err)
	}

	return finalizeSignals(decodeSignals(reply, periodNames)), nil
}

// decodeSignals parses the key-value reply against a default-zero baseline.
// Unmatched lines are ignored, so missing keys resolve to 0.0 rather than
// "unknown" (a deliberate asymmetry with the transaction decoders). Monthly
// flow blocks are accepted only for the requested periods and emitted in the
// requested order; malformed blocks are skipped whole.
func decodeSignals(reply string, periodNames []string) FinancialSignals {
	var sig FinancialSignals
	flows := make(map[string]MonthlyFlow)

	for _, line := range nonBlankLines(reply) {
		if m := signalLineRe.FindStringSubmatch(line); m != nil {
			v := parseFloatLoose(m[2])
			switch strings.ToLower(m[1]) {
			case "total_deposits":
				sig.TotalDeposits = v
			case "total_withdrawals":
				sig.TotalWithdrawals = v
			case "net_cash_flow":
				sig.NetCashFlow = v
			case "debt_to_income":
				sig.DebtToIncome = v
			}
			continue
		}

		if strings.HasPrefix(strings.ToLower(line), "monthly_flows") {
			continue
		}

		if m := monthFlowRe.FindStringSubmatch(line); m != nil {
			flows[strings.ToLower(m[1])] = MonthlyFlow{
				Month:        m[1],
				Deposits:     parseFloatLoose(m[2]),
				Withdrawals:  parseFloatLoose(m[3]),
				EndBalance:   parseFloatLoose(m[4]),
				DebtToIncome: parseFloatLoose(m[5]),
			}
		}
	}

	for _, name := range periodNames {
		if flow, ok := flows[strings.ToLower(name)]; ok {
			flow.Month = name
			sig.MonthlyFlows = append(sig.MonthlyFlows, flow)
		}
	}
	return sig
}

// finalizeSignals applies the invariants the system guarantees itself.
func finalizeSignals(sig FinancialSignals) FinancialSignals {
	sig.NetCashFlow = sig.TotalDeposits - sig.TotalWithdrawals
	if sig.TotalDeposits == 0 {
		sig.DebtToIncome = 0
	}
	return sig
}
