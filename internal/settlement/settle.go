package settlement

// ComputeSettlement matches debtors with creditors and returns the transfers
// that bring every balance within Epsilon of zero.
//
// Debtors and creditors keep the order of the balances slice. The walk is
// greedy: the current debtor pays the current creditor as much as both allow,
// and whichever side is exhausted advances. The plan has at most
// debtors+creditors-1 transfers.
func ComputeSettlement(balances []Balance) []Transaction {
	var debtors, creditors []Balance
	for _, b := range balances {
		amount := Coerce(b.Amount)
		switch {
		case amount > Epsilon:
			debtors = append(debtors, Balance{Name: b.Name, Amount: amount})
		case amount < -Epsilon:
			// Creditors are tracked as positive amounts owed to them
			creditors = append(creditors, Balance{Name: b.Name, Amount: -amount})
		}
	}

	transactions := make([]Transaction, 0)
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := min(debtor.Amount, creditor.Amount)
		if amount > Epsilon {
			transactions = append(transactions, Transaction{
				From:   debtor.Name,
				To:     creditor.Name,
				Amount: amount,
			})
		}

		debtor.Amount -= amount
		creditor.Amount -= amount

		if debtor.Amount < Epsilon {
			i++
		}
		if creditor.Amount < Epsilon {
			j++
		}
	}

	return transactions
}
