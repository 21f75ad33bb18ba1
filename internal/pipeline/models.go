package pipeline

// Direction is the side of a transaction on the account.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Transaction is one statement row as decoded from the extraction reply.
// Fields that fail to parse stay nil; "unknown" is distinct from zero.
type Transaction struct {
	Description string     `json:"description"`
	Currency    string     `json:"currency"`
	Amount      *float64   `json:"amount"`
	Direction   *Direction `json:"direction"`
	Balance     *float64   `json:"balance"`
	Month       *int       `json:"month,omitempty"`
}

// NormalizedTransaction is a Transaction with amount and balance converted to
// the reference currency (USD). The currency field is gone because it is
// implied.
type NormalizedTransaction struct {
	Description string     `json:"description"`
	Amount      *float64   `json:"amount"`
	Direction   *Direction `json:"direction"`
	Balance     *float64   `json:"balance"`
	Month       *int       `json:"month,omitempty"`
}

// IssueReason identifies which integrity rule a transaction violated. The
// values double as the wire tokens in the audit reply.
type IssueReason string

const (
	ReasonInvalidAmount    IssueReason = "Invalid amount"
	ReasonInvalidDirection IssueReason = "Invalid direction"
)

// IntegrityIssue is one detected anomaly. A transaction violating both rules
// produces two separate entries.
type IntegrityIssue struct {
	Reason      IssueReason           `json:"reason"`
	Transaction NormalizedTransaction `json:"transaction"`
}

// MonthlyFlow holds per-period metrics for one calendar month.
type MonthlyFlow struct {
	Month        string  `json:"month"`
	Deposits     float64 `json:"deposits"`
	Withdrawals  float64 `json:"withdrawals"`
	EndBalance   float64 `json:"end_balance"`
	DebtToIncome float64 `json:"debt_to_income"`
}

// FinancialSignals aggregates account-level metrics plus flows for the one to
// three most recent distinct months, ordered oldest to newest.
// NetCashFlow is always TotalDeposits - TotalWithdrawals; the stage enforces
// this locally regardless of what the model reported.
type FinancialSignals struct {
	TotalDeposits    float64       `json:"total_deposits"`
	TotalWithdrawals float64       `json:"total_withdrawals"`
	NetCashFlow      float64       `json:"net_cash_flow"`
	DebtToIncome     float64       `json:"debt_to_income"`
	MonthlyFlows     []MonthlyFlow `json:"monthly_flows"`
}

// CategoryBreakdown splits total debit volume into four fixed buckets,
// each a percentage. Buckets missing from the reply stay 0.0.
type CategoryBreakdown struct {
	Living  float64 `json:"Living"`
	Debt    float64 `json:"Debt"`
	Leisure float64 `json:"Leisure"`
	Savings float64 `json:"Savings"`
}

// Report is the full payload returned for a completed analysis session.
type Report struct {
	SessionID       string                  `json:"session_id"`
	RequestedAmount float64                 `json:"loan_amount_requested"`
	PageTexts       []string                `json:"parsed_text"`
	Transactions    []Transaction           `json:"transactions"`
	Normalized      []NormalizedTransaction `json:"normalized_data"`
	Issues          []IntegrityIssue        `json:"data_issues"`
	Signals         FinancialSignals        `json:"analysis_summary"`
	Score           int                     `json:"loan_score"`
	Summary         string                  `json:"summary_paragraph"`
	Categories      CategoryBreakdown       `json:"category_breakdown"`
	Status          string                  `json:"status"`
}
