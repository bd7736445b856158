package settlement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Summarize", func() {
	var (
		people   []string
		items    []LineItem
		tax      Amount
		payments []Payment
		summary  Summary
	)

	BeforeEach(func() {
		people = []string{"Alice", "Bob"}
		items = []LineItem{
			{Name: "Pizza", Quantity: 1, UnitPrice: 20, Participants: []string{"Alice", "Bob"}},
		}
		tax = 2
		payments = []Payment{{Person: "Alice", AmountPaid: 21}, {Person: "Bob", AmountPaid: 1}}
	})

	JustBeforeEach(func() {
		summary = Summarize(people, items, tax, payments)
	})

	When("payments cover the bill", func() {
		It("reconciles", func() {
			Expect(summary.TotalBill).To(BeNumerically("~", 22, 1e-9))
			Expect(summary.TotalPaid).To(BeNumerically("~", 22, 1e-9))
			Expect(summary.PaymentsReconcile).To(BeTrue())
			Expect(summary.Ready).To(BeTrue())
		})
	})

	When("payments are off by less than a cent", func() {
		BeforeEach(func() {
			payments = []Payment{{Person: "Alice", AmountPaid: 21.995}, {Person: "Bob", AmountPaid: 0}}
		})

		It("still reconciles", func() {
			Expect(summary.PaymentsReconcile).To(BeTrue())
		})
	})

	When("an item is assigned to nobody", func() {
		BeforeEach(func() {
			items = append(items, LineItem{Name: "Wine", Quantity: 1, UnitPrice: 30})
		})

		It("still counts it in the bill total", func() {
			Expect(summary.Subtotal).To(BeNumerically("~", 50, 1e-9))
			Expect(summary.TotalBill).To(BeNumerically("~", 52, 1e-9))
		})

		It("reports the payments as short", func() {
			Expect(summary.PaymentsReconcile).To(BeFalse())
			Expect(summary.Ready).To(BeFalse())
			Expect(summary.Difference).To(BeNumerically("~", -30, 1e-9))
		})

		It("owes nobody the unassigned cost", func() {
			shares, err := ComputeShares(people, items, tax, payments)
			Expect(err).NotTo(HaveOccurred())
			var owed float64
			for _, s := range shares.Shares {
				owed += s.TotalOwed
			}
			Expect(owed).To(BeNumerically("~", 22, 1e-9))
		})
	})

	When("nobody has paid and the bill is empty", func() {
		BeforeEach(func() {
			items = nil
			tax = 0
			payments = nil
		})

		It("reconciles but is not ready", func() {
			Expect(summary.PaymentsReconcile).To(BeTrue())
			Expect(summary.Ready).To(BeFalse())
		})
	})

	When("someone overpaid", func() {
		BeforeEach(func() {
			payments = []Payment{{Person: "Alice", AmountPaid: 30}}
		})

		It("reports a positive difference", func() {
			Expect(summary.Difference).To(BeNumerically("~", 8, 1e-9))
			Expect(summary.PaymentsReconcile).To(BeFalse())
		})
	})

	When("fields are malformed", func() {
		BeforeEach(func() {
			items = []LineItem{{Name: "Mystery", Quantity: NaN(), UnitPrice: NaN()}}
			tax = NaN()
			payments = []Payment{{Person: "Bob", AmountPaid: NaN()}}
		})

		It("coerces them to zero", func() {
			Expect(summary.TotalBill).To(Equal(0.0))
			Expect(summary.TotalPaid).To(Equal(0.0))
		})
	})
})
