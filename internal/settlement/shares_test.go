package settlement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComputeShares", func() {
	var (
		people   []string
		items    []LineItem
		tax      Amount
		payments []Payment
		shares   *Shares
		err      error
	)

	BeforeEach(func() {
		people = []string{"Alice", "Bob"}
		items = []LineItem{
			{Name: "Pizza", Quantity: 1, UnitPrice: 20, Participants: []string{"Alice", "Bob"}},
		}
		tax = 2
		payments = []Payment{
			{Person: "Alice", AmountPaid: 21},
			{Person: "Bob", AmountPaid: 1},
		}
	})

	JustBeforeEach(func() {
		shares, err = ComputeShares(people, items, tax, payments)
	})

	When("two people share a pizza and one paid most of it", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("splits the item evenly", func() {
			Expect(shares.Shares["Alice"].SubtotalShare).To(BeNumerically("~", 10, 1e-9))
			Expect(shares.Shares["Bob"].SubtotalShare).To(BeNumerically("~", 10, 1e-9))
		})

		It("splits the tax evenly", func() {
			Expect(shares.Shares["Alice"].TaxShare).To(BeNumerically("~", 1, 1e-9))
			Expect(shares.Shares["Bob"].TaxShare).To(BeNumerically("~", 1, 1e-9))
		})

		It("computes total owed", func() {
			Expect(shares.Shares["Alice"].TotalOwed).To(BeNumerically("~", 11, 1e-9))
			Expect(shares.Shares["Bob"].TotalOwed).To(BeNumerically("~", 11, 1e-9))
		})

		It("nets payments into balances", func() {
			Expect(shares.Shares["Alice"].Balance).To(BeNumerically("~", -10, 1e-9))
			Expect(shares.Shares["Bob"].Balance).To(BeNumerically("~", 10, 1e-9))
		})

		It("records the breakdown of each person", func() {
			Expect(shares.Breakdowns["Bob"].Items).To(ConsistOf(ItemShare{
				Name:      "Pizza",
				Quantity:  1,
				UnitPrice: 20,
				Share:     10,
			}))
			Expect(shares.Breakdowns["Bob"].Tax).To(BeNumerically("~", 1, 1e-9))
		})

		It("returns balances in people order", func() {
			Expect(shares.Balances()).To(Equal([]Balance{
				{Name: "Alice", Amount: -10},
				{Name: "Bob", Amount: 10},
			}))
		})
	})

	When("an item has no participants", func() {
		BeforeEach(func() {
			items = append(items, LineItem{Name: "Wine", Quantity: 2, UnitPrice: 40})
		})

		It("drops its cost from every share", func() {
			Expect(shares.Shares["Alice"].SubtotalShare).To(BeNumerically("~", 10, 1e-9))
			Expect(shares.Shares["Bob"].SubtotalShare).To(BeNumerically("~", 10, 1e-9))
		})

		It("leaves it out of the breakdowns", func() {
			Expect(shares.Breakdowns["Alice"].Items).To(HaveLen(1))
		})
	})

	When("an item is shared by three of four people", func() {
		BeforeEach(func() {
			people = []string{"A", "B", "C", "D"}
			items = []LineItem{
				{Name: "Nachos", Quantity: 3, UnitPrice: 3, Participants: []string{"A", "B", "C"}},
			}
			tax = 4
			payments = nil
		})

		It("gives each participant a third of the cost", func() {
			for _, p := range []string{"A", "B", "C"} {
				Expect(shares.Shares[p].SubtotalShare).To(BeNumerically("~", 3, 1e-9))
			}
			Expect(shares.Shares["D"].SubtotalShare).To(Equal(0.0))
		})

		It("still splits the tax over everyone", func() {
			Expect(shares.Shares["D"].TaxShare).To(BeNumerically("~", 1, 1e-9))
			Expect(shares.Shares["D"].Balance).To(BeNumerically("~", 1, 1e-9))
		})
	})

	When("numeric fields are blank or malformed", func() {
		BeforeEach(func() {
			items = []LineItem{
				{Name: "Soup", Quantity: NaN(), UnitPrice: 6, Participants: []string{"Alice"}},
				{Name: "Bread", Quantity: 2, UnitPrice: NaN(), Participants: []string{"Bob"}},
				{Name: "Tea", Quantity: 0, UnitPrice: 3, Participants: []string{"Bob"}},
			}
			tax = NaN()
			payments = []Payment{{Person: "Alice", AmountPaid: NaN()}}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("defaults a missing or zero quantity to one", func() {
			Expect(shares.Shares["Alice"].SubtotalShare).To(BeNumerically("~", 6, 1e-9))
			Expect(shares.Shares["Bob"].SubtotalShare).To(BeNumerically("~", 3, 1e-9))
		})

		It("treats unparsable tax as zero", func() {
			Expect(shares.Shares["Alice"].TaxShare).To(Equal(0.0))
		})

		It("treats an unparsable payment as zero", func() {
			Expect(shares.Shares["Alice"].Paid).To(Equal(0.0))
			Expect(shares.Shares["Alice"].Balance).To(BeNumerically("~", 6, 1e-9))
		})
	})

	When("tax is negative", func() {
		BeforeEach(func() {
			tax = -5
		})

		It("skips the tax split", func() {
			Expect(shares.Shares["Alice"].TaxShare).To(Equal(0.0))
			Expect(shares.Breakdowns["Alice"].Tax).To(Equal(0.0))
		})
	})

	When("an item names unknown or repeated participants", func() {
		BeforeEach(func() {
			items = []LineItem{
				{Name: "Fries", Quantity: 1, UnitPrice: 8, Participants: []string{"Alice", "Zed", "Alice", "Bob"}},
			}
		})

		It("splits only among distinct known participants", func() {
			Expect(shares.Shares["Alice"].SubtotalShare).To(BeNumerically("~", 4, 1e-9))
			Expect(shares.Shares["Bob"].SubtotalShare).To(BeNumerically("~", 4, 1e-9))
		})
	})

	When("an item has no name", func() {
		BeforeEach(func() {
			items = []LineItem{{Quantity: 1, UnitPrice: 2, Participants: []string{"Alice"}}}
		})

		It("is labelled as unnamed", func() {
			Expect(shares.Breakdowns["Alice"].Items[0].Name).To(Equal("Unnamed Item"))
		})
	})

	When("someone has no payment record", func() {
		BeforeEach(func() {
			payments = []Payment{{Person: "Alice", AmountPaid: 22}}
		})

		It("reads their payment as zero", func() {
			Expect(shares.Shares["Bob"].Paid).To(Equal(0.0))
			Expect(shares.Shares["Bob"].Balance).To(BeNumerically("~", 11, 1e-9))
		})
	})

	When("a person has two payment records", func() {
		BeforeEach(func() {
			payments = []Payment{
				{Person: "Alice", AmountPaid: 5},
				{Person: "Alice", AmountPaid: 50},
			}
		})

		It("uses the first one", func() {
			Expect(shares.Shares["Alice"].Paid).To(Equal(5.0))
		})
	})

	When("a payment names someone outside the bill", func() {
		BeforeEach(func() {
			payments = []Payment{{Person: "Mallory", AmountPaid: 100}}
		})

		It("ignores it", func() {
			Expect(shares.Shares).NotTo(HaveKey("Mallory"))
			Expect(shares.Shares["Alice"].Paid).To(Equal(0.0))
		})
	})

	When("people is empty", func() {
		BeforeEach(func() {
			people = nil
		})

		It("returns ErrInvalidInput", func() {
			Expect(err).To(MatchError(ErrInvalidInput))
			Expect(shares).To(BeNil())
		})
	})

	When("a name is blank", func() {
		BeforeEach(func() {
			people = []string{"Alice", "  "}
		})

		It("returns ErrInvalidInput", func() {
			Expect(err).To(MatchError(ErrInvalidInput))
		})
	})

	When("a name is repeated", func() {
		BeforeEach(func() {
			people = []string{"Alice", "Bob", "Alice"}
		})

		It("returns ErrInvalidInput", func() {
			Expect(err).To(MatchError(ErrInvalidInput))
			Expect(err.Error()).To(ContainSubstring(`"Alice"`))
		})
	})

	Describe("conservation", func() {
		BeforeEach(func() {
			people = []string{"A", "B", "C"}
			items = []LineItem{
				{Name: "Curry", Quantity: 2, UnitPrice: 13.3, Participants: []string{"A", "B", "C"}},
				{Name: "Naan", Quantity: 3, UnitPrice: 2.15, Participants: []string{"B"}},
				{Name: "Lassi", Quantity: 1, UnitPrice: 4.99, Participants: []string{"A", "C"}},
			}
			tax = 3.17
			payments = []Payment{{Person: "A", AmountPaid: 20}, {Person: "C", AmountPaid: 15.5}}
		})

		It("nets balances against the bill total and payments", func() {
			var sum float64
			for _, b := range shares.Balances() {
				sum += b.Amount
			}
			summary := Summarize(people, items, tax, payments)
			Expect(sum).To(BeNumerically("~", summary.TotalBill-summary.TotalPaid, Epsilon))
		})

		It("is idempotent", func() {
			again, err := ComputeShares(people, items, tax, payments)
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(shares))
		})
	})
})
