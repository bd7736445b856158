package settlement

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned when the bill snapshot is structurally unusable
var ErrInvalidInput = errors.New("invalid input")

const unnamedItem = "Unnamed Item"

// Shares holds the per-person results of ComputeShares
type Shares struct {
	// People preserves the input order; maps carry no order
	People     []string               `json:"people"`
	Shares     map[string]PersonShare `json:"shares"`
	Breakdowns map[string]Breakdown   `json:"breakdowns"`
}

// Balances returns each person's balance in the order of the people list
func (s *Shares) Balances() []Balance {
	balances := make([]Balance, 0, len(s.People))
	for _, name := range s.People {
		balances = append(balances, Balance{Name: name, Amount: s.Shares[name].Balance})
	}
	return balances
}

// validatePeople checks the people list is non-empty with distinct, non-blank names
func validatePeople(people []string) error {
	if len(people) == 0 {
		return fmt.Errorf("%w: people list is empty", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(people))
	for i, name := range people {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: person %d has a blank name", ErrInvalidInput, i+1)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate person %q", ErrInvalidInput, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// ComputeShares splits each line item evenly among its participants and the
// tax evenly among everyone, then nets what each person owes against what
// they paid.
//
// Items without any known participant are dropped from every share. Unknown
// participant names are ignored, and only the first payment per person counts.
func ComputeShares(people []string, items []LineItem, tax Amount, payments []Payment) (*Shares, error) {
	if err := validatePeople(people); err != nil {
		return nil, err
	}

	result := &Shares{
		People:     append([]string(nil), people...),
		Shares:     make(map[string]PersonShare, len(people)),
		Breakdowns: make(map[string]Breakdown, len(people)),
	}
	subtotals := make(map[string]float64, len(people))
	for _, name := range people {
		subtotals[name] = 0
		result.Breakdowns[name] = Breakdown{Items: []ItemShare{}}
	}

	for _, item := range items {
		participants := knownParticipants(item.Participants, subtotals)
		if len(participants) == 0 {
			continue
		}

		quantity := quantityOf(item.Quantity)
		price := item.UnitPrice.Float()
		perPerson := Coerce(costOf(item) / float64(len(participants)))

		name := item.Name
		if strings.TrimSpace(name) == "" {
			name = unnamedItem
		}
		for _, p := range participants {
			subtotals[p] = Coerce(subtotals[p] + perPerson)
			b := result.Breakdowns[p]
			b.Items = append(b.Items, ItemShare{
				Name:      name,
				Quantity:  quantity,
				UnitPrice: price,
				Share:     perPerson,
			})
			result.Breakdowns[p] = b
		}
	}

	taxShare := 0.0
	if t := tax.Float(); t > 0 {
		taxShare = Coerce(t / float64(len(people)))
	}

	paid := paidByPerson(payments, subtotals)
	for _, name := range people {
		owed := Coerce(subtotals[name] + taxShare)
		result.Shares[name] = PersonShare{
			SubtotalShare: subtotals[name],
			TaxShare:      taxShare,
			TotalOwed:     owed,
			Paid:          paid[name],
			Balance:       Coerce(owed - paid[name]),
		}
		b := result.Breakdowns[name]
		b.Tax = taxShare
		result.Breakdowns[name] = b
	}

	return result, nil
}

// knownParticipants filters an item's participant list down to distinct names
// present in the bill, keeping their order.
func knownParticipants(names []string, known map[string]float64) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := known[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// paidByPerson returns the first recorded payment of every known person.
// People without a record are absent from the map and read as zero.
func paidByPerson(payments []Payment, known map[string]float64) map[string]float64 {
	paid := make(map[string]float64, len(payments))
	recorded := make(map[string]struct{}, len(payments))
	for _, p := range payments {
		if _, ok := known[p.Person]; !ok {
			continue
		}
		if _, ok := recorded[p.Person]; ok {
			continue
		}
		recorded[p.Person] = struct{}{}
		paid[p.Person] = p.AmountPaid.Float()
	}
	return paid
}
