// Package settlement computes what each participant of a shared bill owes and
// the transfers that settle the bill.
//
// The engine is a set of pure functions over a Bill snapshot. Numeric fields
// entered by users may be blank or malformed; they are coerced to zero rather
// than rejected, so any structurally valid bill yields a result.
package settlement

// LineItem is one line of the bill and the people who shared it
type LineItem struct {
	Name         string   `json:"name"`
	Quantity     Amount   `json:"quantity"`
	UnitPrice    Amount   `json:"unit_price"`
	Participants []string `json:"participants"`
}

// Payment records how much one participant paid towards the bill
type Payment struct {
	Person     string `json:"person"`
	AmountPaid Amount `json:"amount_paid"`
}

// Bill is a full snapshot of one bill session
type Bill struct {
	People    []string   `json:"people"`
	LineItems []LineItem `json:"line_items"`
	TaxAmount Amount     `json:"tax_amount"`
	Payments  []Payment  `json:"payments"`
}

// PersonShare is the derived position of one participant.
// A positive Balance means the person still owes money; a negative Balance
// means they overpaid.
type PersonShare struct {
	SubtotalShare float64 `json:"subtotal_share"`
	TaxShare      float64 `json:"tax_share"`
	TotalOwed     float64 `json:"total_owed"`
	Paid          float64 `json:"paid"`
	Balance       float64 `json:"balance"`
}

// ItemShare is one item's contribution to a person's subtotal
type ItemShare struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Share     float64 `json:"share"`
}

// Breakdown lists the items and tax behind a person's share
type Breakdown struct {
	Items []ItemShare `json:"items"`
	Tax   float64     `json:"tax"`
}

// Balance is a named balance fed to the settlement matcher
type Balance struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Transaction is one transfer of the settlement plan
type Transaction struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}
