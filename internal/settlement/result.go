package settlement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Result is everything derived from one bill snapshot
type Result struct {
	*Shares
	Transactions []Transaction `json:"transactions"`
	Summary      Summary       `json:"summary"`
}

// Compute derives shares, the settlement plan and the summary for a bill
func Compute(b Bill) (*Result, error) {
	shares, err := ComputeShares(b.People, b.LineItems, b.TaxAmount, b.Payments)
	if err != nil {
		return nil, err
	}
	return &Result{
		Shares:       shares,
		Transactions: ComputeSettlement(shares.Balances()),
		Summary:      Summarize(b.People, b.LineItems, b.TaxAmount, b.Payments),
	}, nil
}

// FormatMoney renders an amount with two decimal places after the symbol
func FormatMoney(symbol string, amount float64) string {
	return symbol + decimal.NewFromFloat(Coerce(amount)).StringFixed(2)
}

// FormatPlan renders the settlement plan as numbered lines suitable for
// pasting into a chat, e.g. "1. Bob owes ₹10.00 to Alice".
func FormatPlan(transactions []Transaction, symbol string) string {
	lines := make([]string, 0, len(transactions))
	for i, t := range transactions {
		lines = append(lines, fmt.Sprintf("%d. %s owes %s to %s", i+1, t.From, FormatMoney(symbol, t.Amount), t.To))
	}
	return strings.Join(lines, "\n")
}
