package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// fieldSeparator delimits fields in the line-oriented stage grammars.
const fieldSeparator = "||"

// nullToken marks an absent value on the wire (e.g. a missing running
// balance). Matched case-insensitively.
const nullToken = "NULL"

// nonBlankLines splits a reply into trimmed lines, discarding blank ones.
func nonBlankLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// splitRecord splits a line on the field separator and trims each field.
// The second return is false unless the split yields exactly want fields;
// callers drop such lines whole, there is no partial-record recovery.
func splitRecord(line string, want int) ([]string, bool) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) != want {
		return nil, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

// parseAmount parses a decimal, tolerating thousands separators. Returns nil
// when the field does not parse; the caller's policy decides what nil means.
func parseAmount(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseBalance is parseAmount plus the NULL token for statements that report
// no running balance. NULL maps to nil, never to 0.
func parseBalance(s string) *float64 {
	if strings.EqualFold(strings.TrimSpace(s), nullToken) {
		return nil
	}
	return parseAmount(s)
}

// parseDirection accepts exactly "debit" or "credit" after trimming,
// case-insensitively. Anything else is nil.
func parseDirection(s string) *Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(DirectionDebit):
		d := DirectionDebit
		return &d
	case string(DirectionCredit):
		d := DirectionCredit
		return &d
	}
	return nil
}

// parseMonth accepts an integer 1-12; anything else is nil.
func parseMonth(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 12 {
		return nil
	}
	return &n
}

var integerRe = regexp.MustCompile(`-?\d+`)

// firstInteger returns the first integer literal found in the reply, which is
// how the score stage reads a bare-number answer out of whatever prose the
// model wrapped around it.
func firstInteger(s string) (int, bool) {
	m := integerRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseFloatLoose parses a regex-captured numeric token, stripping thousands
// separators. Captures are pre-validated by the pattern, so failures resolve
// to 0 per the key-value stage policy.
func parseFloatLoose(s string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}
