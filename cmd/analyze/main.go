// Command analyze runs the full statement analysis against a local PDF and
// prints the report as JSON. Useful for trying prompts and decoders without
// the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/finlens/loansight/internal/config"
	"github.com/finlens/loansight/internal/extractor"
	"github.com/finlens/loansight/internal/llm"
	"github.com/finlens/loansight/internal/logger"
	"github.com/finlens/loansight/internal/pipeline"
)

func main() {
	cfg := config.Load()

	var (
		file    = flag.String("file", "", "Path to the statement PDF")
		amount  = flag.Float64("amount", 0, "Requested loan amount")
		model   = flag.String("model", cfg.GeminiModel, "Gemini model name")
		noMonth = flag.Bool("no-month", false, "Use the 5-field extraction format (no month column)")
	)
	flag.Parse()

	log := logger.New()

	if *file == "" || *amount <= 0 {
		log.Fatal().Msg("Usage: analyze -file statement.pdf -amount 5000")
	}

	documentBytes, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read statement")
	}

	ctx := context.Background()

	gen, err := llm.NewGemini(ctx, *model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	format := pipeline.FormatWithMonth
	if *noMonth {
		format = pipeline.FormatNoMonth
	}

	runner := pipeline.NewAnalysisRunner(
		extractor.NewPDF(),
		pipeline.NewAnalyzer(gen, log),
		format,
		func(step int) { log.Info().Int("step", step).Msg("Progress") },
		log,
	)

	state := &pipeline.State{
		DocumentBytes:   documentBytes,
		RequestedAmount: *amount,
	}
	if err := runner.Run(ctx, state); err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	report := pipeline.BuildReport("local", state)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
}
