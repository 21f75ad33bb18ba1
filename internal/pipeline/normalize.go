package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// EncodeTransactionLines serializes transactions into the canonical 6-field
// grammar, the same one the extraction stage emits. Absent values are written
// as NULL so a round trip through decodeTransactionLines reproduces the input.
func EncodeTransactionLines(txs []Transaction) string {
	var b strings.Builder
	for i, tx := range txs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(tx.Description)
		b.WriteString(" || ")
		b.WriteString(tx.Currency)
		b.WriteString(" || ")
		b.WriteString(encodeFloat(tx.Amount))
		b.WriteString(" || ")
		b.WriteString(encodeDirection(tx.Direction))
		b.WriteString(" || ")
		b.WriteString(encodeFloat(tx.Balance))
		b.WriteString(" || ")
		b.WriteString(encodeMonth(tx.Month))
	}
	return b.String()
}

func encodeFloat(f *float64) string {
	if f == nil {
		return nullToken
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}

func encodeDirection(d *Direction) string {
	if d == nil {
		return nullToken
	}
	return string(*d)
}

func encodeMonth(m *int) string {
	if m == nil {
		return nullToken
	}
	return strconv.Itoa(*m)
}

// NormalizeCurrencies converts every amount and balance into USD, leaving
// description, direction and month untouched. The reply is an
// order-preserving subsequence of the input: lines failing the field-count
// check drop, so len(out) <= len(in).
func (a *Analyzer) NormalizeCurrencies(ctx context.Context, txs []Transaction) ([]NormalizedTransaction, error) {
	reply, err := a.gen.Generate(ctx, conversionPrompt(EncodeTransactionLines(txs)))
	if err != nil {
		return nil, fmt.Errorf("normalize currencies: %w", err)
	}

	norm := decodeNormalizedLines(reply)
	if len(norm) < len(txs) {
		a.log.Warn().
			Int("in", len(txs)).
			Int("out", len(norm)).
			Msg("Conversion reply dropped transactions")
	}
	return norm, nil
}

// decodeNormalizedLines decodes the conversion grammar:
//
//	DESCRIPTION || AMOUNT_USD || DIRECTION || BALANCE_USD || MONTH
func decodeNormalizedLines(reply string) []NormalizedTransaction {
	var norm []NormalizedTransaction
	for _, line := range nonBlankLines(reply) {
		parts, ok := splitRecord(line, 5)
		if !ok {
			continue
		}

		norm = append(norm, NormalizedTransaction{
			Description: parts[0],
			Amount:      parseAmount(parts[1]),
			Direction:   parseDirection(parts[2]),
			Balance:     parseBalance(parts[3]),
			Month:       parseMonth(parts[4]),
		})
	}
	return norm
}
