package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// ExtractTransactions turns raw statement text into an ordered list of
// transactions using the given line format. Lines that do not split into the
// exact field count are dropped silently, so the result can be shorter than
// the reply.
func (a *Analyzer) ExtractTransactions(ctx context.Context, statementText string, format ExtractionFormat) ([]Transaction, error) {
	reply, err := a.gen.Generate(ctx, extractionPrompt(statementText, format))
	if err != nil {
		return nil, fmt.Errorf("extract transactions: %w", err)
	}

	txs := decodeTransactionLines(reply, format)
	a.log.Debug().
		Int("lines", len(nonBlankLines(reply))).
		Int("transactions", len(txs)).
		Msg("Extraction reply decoded")
	return txs, nil
}

// decodeTransactionLines decodes the extraction grammar:
//
//	DESCRIPTION || CURRENCY || AMOUNT || DIRECTION || BALANCE [|| MONTH]
func decodeTransactionLines(reply string, format ExtractionFormat) []Transaction {
	var txs []Transaction
	for _, line := range nonBlankLines(reply) {
		parts, ok := splitRecord(line, format.fieldCount())
		if !ok {
			continue
		}

		tx := Transaction{
			Description: parts[0],
			Currency:    strings.ToUpper(parts[1]),
			Amount:      parseAmount(parts[2]),
			Direction:   parseDirection(parts[3]),
			Balance:     parseBalance(parts[4]),
		}
		if format == FormatWithMonth {
			tx.Month = parseMonth(parts[5])
		}
		txs = append(txs, tx)
	}
	return txs
}
