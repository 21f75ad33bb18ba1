// Package llm implements the pipeline's Generator contract on top of the
// Gemini API. The rest of the system only ever sees
// Generate(instruction) -> reply.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini sends instructions to a Gemini model. Credentials come from the
// environment (GEMINI_API_KEY or application-default credentials), the same
// way the genai client resolves them everywhere else.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed generator for the given model name.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Generate performs one blocking request/response exchange. The reply text is
// returned as-is, including when it is empty: the stage decoders own the
// policy for empty or malformed replies, not the transport.
func (g *Gemini) Generate(ctx context.Context, instruction string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: instruction}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	return resp.Text(), nil
}
