package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Progress step indices reported while a session runs. A failed run reports
// StepFailed and stays there.
const (
	StepQueued       = 0
	StepReadDocument = 1
	StepExtract      = 2
	StepNormalize    = 3
	StepIntegrity    = 4
	StepSignals      = 5
	StepInsight      = 6
	StepReportReady  = 7
	StepFailed       = -1
)

// StatusSuccess and StatusFailed are the terminal status flags on a report.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Step is a single stage in the analysis pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State is the shared state threaded through the steps of one run. Steps
// only ever append to it; nothing is recomputed.
type State struct {
	DocumentBytes   []byte
	RequestedAmount float64

	PageTexts     []string
	StatementText string
	Transactions  []Transaction
	Normalized    []NormalizedTransaction
	Issues        []IntegrityIssue
	Signals       FinancialSignals
	Score         int
	Summary       string
	Categories    CategoryBreakdown
}

// ProgressFunc receives the step index about to run (and finally
// StepReportReady). Called from the single goroutine driving the run.
type ProgressFunc func(step int)

// ReadDocumentStep extracts per-page text from the uploaded document and
// joins the pages with a paragraph break.
type ReadDocumentStep struct {
	Extractor TextExtractor
}

func (s *ReadDocumentStep) Execute(ctx context.Context, state *State) error {
	pages, err := s.Extractor.ExtractPages(state.DocumentBytes)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	state.PageTexts = pages
	state.StatementText = strings.Join(pages, "\n\n")
	return nil
}

// ExtractStep runs transaction extraction over the statement text.
type ExtractStep struct {
	Analyzer *Analyzer
	Format   ExtractionFormat
}

func (s *ExtractStep) Execute(ctx context.Context, state *State) error {
	txs, err := s.Analyzer.ExtractTransactions(ctx, state.StatementText, s.Format)
	if err != nil {
		return err
	}
	state.Transactions = txs
	return nil
}

// NormalizeStep converts the extracted transactions to the reference currency.
type NormalizeStep struct {
	Analyzer *Analyzer
}

func (s *NormalizeStep) Execute(ctx context.Context, state *State) error {
	norm, err := s.Analyzer.NormalizeCurrencies(ctx, state.Transactions)
	if err != nil {
		return err
	}
	state.Normalized = norm
	return nil
}

// IntegrityStep audits the normalized transactions for anomalies.
type IntegrityStep struct {
	Analyzer *Analyzer
}

func (s *IntegrityStep) Execute(ctx context.Context, state *State) error {
	issues, err := s.Analyzer.CheckIntegrity(ctx, state.Normalized)
	if err != nil {
		return err
	}
	state.Issues = issues
	return nil
}

// SignalsStep computes aggregate and per-period financial metrics.
type SignalsStep struct {
	Analyzer *Analyzer
}

func (s *SignalsStep) Execute(ctx context.Context, state *State) error {
	signals, err := s.Analyzer.AnalyzeSignals(ctx, state.Normalized)
	if err != nil {
		return err
	}
	state.Signals = signals
	return nil
}

// InsightStep produces the loan score, the narrative summary and the category
// breakdown. One pipeline step, three sequential model calls.
type InsightStep struct {
	Analyzer *Analyzer
}

func (s *InsightStep) Execute(ctx context.Context, state *State) error {
	score, err := s.Analyzer.ScoreApplicant(ctx, state.Normalized, state.Signals, state.RequestedAmount)
	if err != nil {
		return err
	}
	state.Score = score

	summary, err := s.Analyzer.SummarizeStatement(ctx, state.Normalized, state.Signals, score)
	if err != nil {
		return err
	}
	state.Summary = summary

	categories, err := s.Analyzer.CategorySpending(ctx, state.Normalized)
	if err != nil {
		return err
	}
	state.Categories = categories
	return nil
}

// Runner executes a sequence of steps strictly in order, reporting progress
// before each step and StepReportReady after the last. A step error aborts
// the run; no partial results are salvaged.
type Runner struct {
	steps    []Step
	progress ProgressFunc
	log      zerolog.Logger
}

// NewRunner creates a runner over the given steps. progress may be nil.
func NewRunner(progress ProgressFunc, log zerolog.Logger, steps ...Step) *Runner {
	return &Runner{steps: steps, progress: progress, log: log}
}

// NewAnalysisRunner wires the standard six-step statement analysis pipeline.
func NewAnalysisRunner(extractor TextExtractor, analyzer *Analyzer, format ExtractionFormat, progress ProgressFunc, log zerolog.Logger) *Runner {
	return NewRunner(progress, log,
		&ReadDocumentStep{Extractor: extractor},
		&ExtractStep{Analyzer: analyzer, Format: format},
		&NormalizeStep{Analyzer: analyzer},
		&IntegrityStep{Analyzer: analyzer},
		&SignalsStep{Analyzer: analyzer},
		&InsightStep{Analyzer: analyzer},
	)
}

// Run executes all steps sequentially against the state.
func (r *Runner) Run(ctx context.Context, state *State) error {
	for i, step := range r.steps {
		r.report(i + 1)
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
	}
	r.report(StepReportReady)
	return nil
}

func (r *Runner) report(step int) {
	r.log.Debug().Int("step", step).Msg("Pipeline progress")
	if r.progress != nil {
		r.progress(step)
	}
}

// BuildReport assembles the response payload from a completed state.
func BuildReport(sessionID string, state *State) *Report {
	return &Report{
		SessionID:       sessionID,
		RequestedAmount: state.RequestedAmount,
		PageTexts:       state.PageTexts,
		Transactions:    state.Transactions,
		Normalized:      state.Normalized,
		Issues:          state.Issues,
		Signals:         state.Signals,
		Score:           state.Score,
		Summary:         state.Summary,
		Categories:      state.Categories,
		Status:          StatusSuccess,
	}
}
