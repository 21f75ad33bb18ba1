package pipeline

import "context"

// Generator is the narrow contract with the external text-generation service:
// one instruction in, one reply out. The reply may be empty; each stage
// decides what an empty or malformed reply means. Implementations live in
// internal/llm; tests inject canned replies.
type Generator interface {
	Generate(ctx context.Context, instruction string) (string, error)
}

// TextExtractor turns an in-memory document (a PDF upload, in practice) into
// an ordered sequence of per-page text strings.
type TextExtractor interface {
	ExtractPages(data []byte) ([]string, error)
}
