package pipeline

import (
	"fmt"
	"strings"
)

// ExtractionFormat selects which extraction line grammar is in force.
// FormatWithMonth is the canonical 6-field contract; FormatNoMonth is the
// 5-field variant for statements where month granularity is unavailable.
type ExtractionFormat int

const (
	FormatWithMonth ExtractionFormat = iota
	FormatNoMonth
)

// fieldCount is the exact number of fields a well-formed extraction line has.
func (f ExtractionFormat) fieldCount() int {
	if f == FormatNoMonth {
		return 5
	}
	return 6
}

func extractionPrompt(statementText string, format ExtractionFormat) string {
	var b strings.Builder

	b.WriteString("You are a bank-statement extraction expert. Below is the full text of a multi-page bank statement\n")
	b.WriteString("(which may be from an Indian, UK, US, or Australian bank).\n")
	b.WriteString("Extract each transaction row and output exactly one line per transaction in this format:\n\n")
	if format == FormatNoMonth {
		b.WriteString("<DESCRIPTION> || <CURRENCY> || <AMOUNT> || <DIRECTION> || <BALANCE>\n\n")
	} else {
		b.WriteString("<DESCRIPTION> || <CURRENCY> || <AMOUNT> || <DIRECTION> || <BALANCE> || <MONTH>\n\n")
	}
	b.WriteString("Where:\n")
	b.WriteString("- <DESCRIPTION> is a concise text (e.g. \"IMPS Transfer - Oma Ram\", \"PANERA BREAD\", \"DIRECT DEBIT SGIO\").\n")
	b.WriteString("- <CURRENCY> is the three-letter ISO code (e.g. \"INR\", \"USD\", \"GBP\", \"AUD\"), based on symbols or context in the statement.\n")
	b.WriteString("- <AMOUNT> is a positive number (no currency symbols).\n")
	b.WriteString("- <DIRECTION> is either \"debit\" or \"credit\".\n")
	b.WriteString("- <BALANCE> is the running balance after that transaction, or the word NULL if no balance is shown.\n")
	if format == FormatWithMonth {
		b.WriteString("- <MONTH> is the month number (1-12) of the transaction date.\n")
	}
	b.WriteString("\nIgnore any headers, footers, summary lines, page numbers, \"Money In/Money Out\" totals, etc.\n")
	b.WriteString("Preserve the original order. Do not output anything except these lines.\n")
	b.WriteString("\nHere is the raw text:\n\n")
	b.WriteString(statementText)

	return b.String()
}

func conversionPrompt(serializedLines string) string {
	var b strings.Builder

	b.WriteString("You are a currency-conversion assistant. Each line below represents one bank transaction in this format:\n\n")
	b.WriteString("  DESCRIPTION || CURRENCY || AMOUNT || DIRECTION || BALANCE || MONTH\n\n")
	b.WriteString("- DESCRIPTION is a short text describing the transaction.\n")
	b.WriteString("- CURRENCY is a three-letter code (e.g. INR, USD, GBP, AUD).\n")
	b.WriteString("- AMOUNT is a positive number in that currency.\n")
	b.WriteString("- DIRECTION is either \"debit\" or \"credit\".\n")
	b.WriteString("- BALANCE is the running balance after that transaction, or the word NULL if no balance was shown.\n")
	b.WriteString("- MONTH is the month number (1-12) of the transaction, or NULL if unknown.\n\n")
	b.WriteString("For each line, convert AMOUNT and BALANCE into USD using current exchange rates. Output each transaction on its own line, in exactly this format:\n\n")
	b.WriteString("  DESCRIPTION || AMOUNT_USD || DIRECTION || BALANCE_USD || MONTH\n\n")
	b.WriteString("- DESCRIPTION, DIRECTION, and MONTH must remain unchanged.\n")
	b.WriteString("- AMOUNT_USD is the converted amount in USD (two decimals).\n")
	b.WriteString("- BALANCE_USD is the converted balance in USD (two decimals), or NULL if the original BALANCE was NULL.\n\n")
	b.WriteString("Do not output any extra text or commentary, only these lines.\n")
	b.WriteString("\nHere are the transactions to convert:\n")
	b.WriteString(serializedLines)

	return b.String()
}

func auditPrompt(txJSON string) string {
	var b strings.Builder

	b.WriteString("You are a data-integrity auditor for normalized bank transactions. Only flag these two cases:\n\n")
	b.WriteString("  - \"Invalid amount\": when the transaction's amount field is missing, null, or <= 0\n")
	b.WriteString("  - \"Invalid direction\": when the direction field (after trimming whitespace) is not exactly \"debit\" or \"credit\" (case-insensitive)\n\n")
	b.WriteString("Transactions with a positive numeric amount AND a valid direction must NEVER be flagged.\n")
	b.WriteString("A transaction may be flagged for both reasons, on two separate lines.\n\n")
	b.WriteString("For each anomaly, output one line ONLY in this format:\n\n")
	b.WriteString("<REASON> || <TRANSACTION_JSON>\n\n")
	b.WriteString("Where <REASON> is exactly \"Invalid amount\" or \"Invalid direction\", and <TRANSACTION_JSON> is the full JSON object of that transaction.\n")
	b.WriteString("Do not output anything else. If there are no anomalies, return an empty response.\n")
	b.WriteString("\nHere is the input JSON:\n")
	b.WriteString(txJSON)

	return b.String()
}

func signalsPrompt(txJSON string, periodNames []string) string {
	var b strings.Builder

	b.WriteString("You are a financial-signals generator. Given this JSON array of normalized bank transactions\n")
	b.WriteString("(fields: description, amount, direction, balance, month), compute:\n\n")
	b.WriteString("1. total_deposits: sum of all amount where direction == \"credit\"\n")
	b.WriteString("2. total_withdrawals: sum of all amount where direction == \"debit\"\n")
	b.WriteString("3. net_cash_flow: total_deposits - total_withdrawals\n")
	b.WriteString("4. debt_to_income: (sum of all debt-related payments across the entire period) / total_deposits, or 0 if total_deposits is 0\n\n")
	b.WriteString("Then generate monthly flows for exactly these months, in this order: ")
	b.WriteString(strings.Join(periodNames, ", "))
	b.WriteString(".\n")
	b.WriteString("For each of those months compute:\n")
	b.WriteString("  - deposits: sum of credits in that month\n")
	b.WriteString("  - withdrawals: sum of debits in that month\n")
	b.WriteString("  - end_balance: the balance after the last transaction in that month\n")
	b.WriteString("  - debt_to_income: (that month's debt payments) / (that month's deposits), or 0 if that month has no deposits\n\n")
	b.WriteString("Output exactly (no JSON, no code fences) four top-level lines, then a monthly_flows: block with one entry per selected month:\n\n")
	b.WriteString("total_deposits: <float>\n")
	b.WriteString("total_withdrawals: <float>\n")
	b.WriteString("net_cash_flow: <float>\n")
	b.WriteString("debt_to_income: <float between 0 and 1>\n\n")
	b.WriteString("monthly_flows:\n")
	b.WriteString("  MonthName: { deposits: <float>, withdrawals: <float>, end_balance: <float>, debt_to_income: <float> }\n")
	b.WriteString("\nHere is the input:\n")
	b.WriteString(txJSON)

	return b.String()
}

func categoriesPrompt(txJSON string) string {
	var b strings.Builder

	b.WriteString("You are a spending categorization assistant. Given this JSON array of normalized bank transactions\n")
	b.WriteString("(fields: description, amount, direction, balance), first calculate the total debit spending\n")
	b.WriteString("(sum of all amount where direction == \"debit\"). Then assign each debit transaction to one of four categories:\n")
	b.WriteString("  - Living: household bills, utilities, groceries, rent\n")
	b.WriteString("  - Debt: loan payments, mortgage, credit-card repayments\n")
	b.WriteString("  - Leisure: entertainment, dining out, travel, shopping\n")
	b.WriteString("  - Savings: transfers into savings or investment accounts\n\n")
	b.WriteString("Compute the percentage of the total debit spending represented by each category,\n")
	b.WriteString("rounded to two decimal places, so that the four categories sum to 100.\n\n")
	b.WriteString("Output exactly four lines, in this format (no % symbols, just numbers):\n\n")
	b.WriteString("Living: <float>\n")
	b.WriteString("Debt: <float>\n")
	b.WriteString("Leisure: <float>\n")
	b.WriteString("Savings: <float>\n\n")
	b.WriteString("Do not output any extra text or commentary, only these four lines. Here is the input JSON:\n")
	b.WriteString(txJSON)

	return b.String()
}

func scorePrompt(signals FinancialSignals, csvBlob string, requestedAmount float64) string {
	var b strings.Builder

	b.WriteString("You are a loan underwriter AI. Below is the applicant's financial profile, broken into three sections:\n\n")
	b.WriteString("--- SECTION 1: High-Level Summary Metrics ---\n")
	fmt.Fprintf(&b, "total_deposits: %.2f\n", signals.TotalDeposits)
	fmt.Fprintf(&b, "total_withdrawals: %.2f\n", signals.TotalWithdrawals)
	fmt.Fprintf(&b, "net_cash_flow: %.2f\n", signals.NetCashFlow)
	fmt.Fprintf(&b, "debt_to_income: %.4f\n", signals.DebtToIncome)
	b.WriteString("\nIf net_cash_flow is significantly low, you cannot score this applicant more than 50,\n")
	fmt.Fprintf(&b, "and if debt_to_income is above %.2f, you cannot score this applicant more than 50.\n\n", debtToIncomeCap)
	b.WriteString("--- SECTION 2: Recent Transactions (CSV, up to 50 rows) ---\n")
	b.WriteString("Columns: description,amount,direction,balance\n")
	b.WriteString(csvBlob)
	b.WriteString("\n\n--- SECTION 3: Requested Loan Amount ---\n")
	fmt.Fprintf(&b, "requested_amount: %.2f\n\n", requestedAmount)
	b.WriteString("Based on all of the above (summary metrics + transaction patterns + requested loan), assign a loan-worthiness score between 0 and 100, where:\n")
	b.WriteString("  0   = extremely high risk (unlikely to repay)\n")
	b.WriteString("  100 = extremely low risk (very safe borrower)\n\n")
	b.WriteString("Take into account:\n")
	b.WriteString("  - How consistent and large the deposits are relative to withdrawals.\n")
	b.WriteString("  - The applicant's net_cash_flow and debt_to_income ratio.\n")
	b.WriteString("  - Any large one-off withdrawals or frequent overdraft-style patterns.\n")
	b.WriteString("  - The size of the requested loan compared to their monthly net cash flow.\n")
	b.WriteString("  - Overall likelihood of repayment.\n\n")
	b.WriteString("Return exactly one integer (no commentary, no JSON, no code fences).\n")

	return b.String()
}

func summaryPrompt(txJSON string, signals FinancialSignals, score int) string {
	var b strings.Builder

	b.WriteString("You are a bank-statement analyst. Below is the applicant's profile:\n\n")
	fmt.Fprintf(&b, "Loan score: %d\n", score)
	fmt.Fprintf(&b, "total_deposits: %.2f\n", signals.TotalDeposits)
	fmt.Fprintf(&b, "total_withdrawals: %.2f\n", signals.TotalWithdrawals)
	fmt.Fprintf(&b, "net_cash_flow: %.2f\n", signals.NetCashFlow)
	fmt.Fprintf(&b, "debt_to_income: %.4f\n\n", signals.DebtToIncome)
	fmt.Fprintf(&b, "The applicant is classified as \"%s\" (strong if score > 66, moderate if 33-66, weak if < 33).\n\n", scoreTier(score))
	b.WriteString("Write ONE paragraph as follows:\n")
	b.WriteString("1. For strong: 4-5 sentences explaining why they are strong (cite deposit consistency, positive cash flow, low DTI). Stop after 5 sentences.\n")
	b.WriteString("2. For moderate: 5-6 sentences describing both strengths and mild concerns, plus one or two quick improvement suggestions.\n")
	b.WriteString("3. For weak: 8-9 sentences. First 4-5 diagnose issues (low balances, irregular deposits, high DTI). Then 3-4 sentences each beginning with verbs like \"To improve, the applicant should ...\", \"They could consider ...\", \"It would help to ...\" that offer concrete, actionable advice.\n\n")
	b.WriteString("Do not output JSON or bullet lists, just one flowing paragraph. Here are the transactions:\n\n")
	b.WriteString(txJSON)

	return b.String()
}
