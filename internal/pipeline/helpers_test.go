package pipeline

import (
	"context"

	"github.com/rs/zerolog"
)

// fakeGenerator replays canned replies in order and records every
// instruction it was sent.
type fakeGenerator struct {
	replies []string
	err     error
	prompts []string
	next    int
}

func (f *fakeGenerator) Generate(ctx context.Context, instruction string) (string, error) {
	f.prompts = append(f.prompts, instruction)
	if f.err != nil {
		return "", f.err
	}
	if f.next >= len(f.replies) {
		return "", nil
	}
	reply := f.replies[f.next]
	f.next++
	return reply, nil
}

func newTestAnalyzer(replies ...string) (*Analyzer, *fakeGenerator) {
	gen := &fakeGenerator{replies: replies}
	return NewAnalyzer(gen, zerolog.Nop()), gen
}

func zerologNop() zerolog.Logger { return zerolog.Nop() }

func fptr(f float64) *float64 { return &f }

func dptr(d Direction) *Direction { return &d }

func iptr(i int) *int { return &i }
