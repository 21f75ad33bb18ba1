package pipeline

import (
	"github.com/rs/zerolog"
)

// Analyzer implements the six analysis stages. Each stage sends one
// instruction to the Generator and decodes the reply defensively: malformed
// lines drop, unparseable fields go absent, and missing key-value entries
// resolve to zero. Parse failures never surface as errors; only a failed
// Generate call does.
type Analyzer struct {
	gen Generator
	log zerolog.Logger
}

// NewAnalyzer creates an Analyzer backed by the given text generator.
func NewAnalyzer(gen Generator, log zerolog.Logger) *Analyzer {
	return &Analyzer{gen: gen, log: log}
}
