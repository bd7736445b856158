package settlement

import "math"

// Summary holds bill-wide totals and the readiness gate for the settlement plan
type Summary struct {
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	TotalBill float64 `json:"total_bill"`
	TotalPaid float64 `json:"total_paid"`
	// Difference is TotalPaid - TotalBill: negative when short, positive when overpaid
	Difference float64 `json:"difference"`
	// PaymentsReconcile is true when recorded payments cover the bill within Epsilon
	PaymentsReconcile bool `json:"payments_reconcile"`
	// Ready gates showing the settlement plan as final
	Ready bool `json:"ready"`
}

// Summarize totals the bill and the recorded payments.
//
// The bill total counts every item, including items nobody was assigned to,
// so an unassigned item shows up as a mismatch between paid and owed.
func Summarize(people []string, items []LineItem, tax Amount, payments []Payment) Summary {
	var subtotal float64
	for _, item := range items {
		subtotal = Coerce(subtotal + costOf(item))
	}

	t := tax.Float()
	if t < 0 {
		t = 0
	}

	known := make(map[string]float64, len(people))
	for _, name := range people {
		known[name] = 0
	}
	paid := paidByPerson(payments, known)
	var totalPaid float64
	for _, name := range people {
		totalPaid = Coerce(totalPaid + paid[name])
	}

	total := Coerce(subtotal + t)
	reconcile := math.Abs(totalPaid-total) < Epsilon

	return Summary{
		Subtotal:          subtotal,
		Tax:               t,
		TotalBill:         total,
		TotalPaid:         totalPaid,
		Difference:        Coerce(totalPaid - total),
		PaymentsReconcile: reconcile,
		Ready:             reconcile && totalPaid > 0,
	}
}
