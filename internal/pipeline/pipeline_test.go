package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type fakeExtractor struct {
	pages []string
	err   error
}

func (f *fakeExtractor) ExtractPages(data []byte) ([]string, error) {
	return f.pages, f.err
}

func TestRunner_FullAnalysis(t *testing.T) {
	// One canned reply per model call, in pipeline order: extraction,
	// normalization, integrity, signals, score, summary, categories.
	gen := &fakeGenerator{replies: []string{
		strings.Join([]string{
			"SALARY PAYMENT || EUR || 2000.00 || credit || 2500.00 || 3",
			"RENT || EUR || 900.00 || debit || 1600.00 || 3",
			"GHOST ENTRY || EUR || -1.00 || debit || NULL || 3",
		}, "\n"),
		strings.Join([]string{
			"SALARY PAYMENT || 2200.00 || credit || 2750.00 || 3",
			"RENT || 990.00 || debit || 1760.00 || 3",
			"GHOST ENTRY || -1.10 || debit || NULL || 3",
		}, "\n"),
		`Invalid amount || {"description":"GHOST ENTRY","amount":-1.10,"direction":"debit","balance":null,"month":3}`,
		strings.Join([]string{
			"total_deposits: 2200.00",
			"total_withdrawals: 991.10",
			"net_cash_flow: 1208.90",
			"debt_to_income: 0.45",
			"monthly_flows:",
			"March: { deposits: 2200.00, withdrawals: 991.10, end_balance: 1760.00, debt_to_income: 0.45 }",
		}, "\n"),
		"78",
		"The applicant maintains a healthy surplus each month.",
		"Living: 60\nDebt: 10\nLeisure: 10\nSavings: 20",
	}}
	analyzer := NewAnalyzer(gen, zerologNop())

	var progress []int
	runner := NewAnalysisRunner(
		&fakeExtractor{pages: []string{"page one text", "page two text"}},
		analyzer,
		FormatWithMonth,
		func(step int) { progress = append(progress, step) },
		zerologNop(),
	)

	state := &State{DocumentBytes: []byte("%PDF-1.4 stub"), RequestedAmount: 15000}
	if err := runner.Run(context.Background(), state); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if want := []int{1, 2, 3, 4, 5, 6, 7}; !reflect.DeepEqual(progress, want) {
		t.Errorf("progress sequence = %v, want %v", progress, want)
	}
	if state.StatementText != "page one text\n\npage two text" {
		t.Errorf("statement text = %q", state.StatementText)
	}
	if len(state.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(state.Transactions))
	}
	if len(state.Normalized) != 3 {
		t.Fatalf("got %d normalized transactions, want 3", len(state.Normalized))
	}
	if len(state.Issues) != 1 || state.Issues[0].Reason != ReasonInvalidAmount {
		t.Errorf("issues = %+v, want one invalid-amount issue", state.Issues)
	}
	// Recomputed locally from deposits and withdrawals.
	if state.Signals.NetCashFlow != 2200.00-991.10 {
		t.Errorf("NetCashFlow = %v", state.Signals.NetCashFlow)
	}
	// debt_to_income above the cap pulls the score 78 down to 50.
	if state.Score != 50 {
		t.Errorf("score = %d, want 50", state.Score)
	}
	if state.Summary != "The applicant maintains a healthy surplus each month." {
		t.Errorf("summary = %q", state.Summary)
	}
	if state.Categories != (CategoryBreakdown{Living: 60, Debt: 10, Leisure: 10, Savings: 20}) {
		t.Errorf("categories = %+v", state.Categories)
	}
	if len(gen.prompts) != 7 {
		t.Errorf("got %d model calls, want 7", len(gen.prompts))
	}
}

func TestRunner_StepFailureAborts(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	analyzer := NewAnalyzer(gen, zerologNop())

	var progress []int
	runner := NewAnalysisRunner(
		&fakeExtractor{pages: []string{"some text"}},
		analyzer,
		FormatWithMonth,
		func(step int) { progress = append(progress, step) },
		zerologNop(),
	)

	err := runner.Run(context.Background(), &State{DocumentBytes: []byte("doc")})
	if err == nil {
		t.Fatal("Run should fail when a model call fails")
	}
	if !strings.Contains(err.Error(), "pipeline step 2") {
		t.Errorf("error = %v, want step index in message", err)
	}
	// Steps after the failing one never report.
	if want := []int{1, 2}; !reflect.DeepEqual(progress, want) {
		t.Errorf("progress sequence = %v, want %v", progress, want)
	}
}

func TestRunner_ExtractorFailure(t *testing.T) {
	runner := NewAnalysisRunner(
		&fakeExtractor{err: errors.New("not a valid document")},
		NewAnalyzer(&fakeGenerator{}, zerologNop()),
		FormatWithMonth,
		nil,
		zerologNop(),
	)

	err := runner.Run(context.Background(), &State{DocumentBytes: []byte("junk")})
	if err == nil {
		t.Fatal("Run should fail when the document cannot be read")
	}
	if !strings.Contains(err.Error(), "pipeline step 1") {
		t.Errorf("error = %v", err)
	}
}

func TestBuildReport(t *testing.T) {
	state := &State{
		RequestedAmount: 5000,
		PageTexts:       []string{"p1"},
		Score:           61,
		Summary:         "steady",
	}
	report := BuildReport("abc-123", state)

	if report.SessionID != "abc-123" {
		t.Errorf("session id = %q", report.SessionID)
	}
	if report.Status != StatusSuccess {
		t.Errorf("status = %q, want %q", report.Status, StatusSuccess)
	}
	if report.Score != 61 || report.RequestedAmount != 5000 {
		t.Errorf("report = %+v", report)
	}
}
