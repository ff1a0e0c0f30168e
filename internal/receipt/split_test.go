package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComputeSplit", func() {
	var (
		r     *Receipt
		split *Split
	)

	BeforeEach(func() {
		r = New()
	})

	JustBeforeEach(func() {
		split = ComputeSplit(r)
	})

	When("two guests claim separate items", func() {
		BeforeEach(func() {
			r.AddItem("item-1", "Pizza", 20.00)
			r.AddItem("item-2", "Soda", 4.00)
			r.Items[0].ClaimedBy = []string{"alice"}
			r.Items[1].ClaimedBy = []string{"bob"}
			r.Tax = 2.00
			r.Tip = 3.00
		})

		It("sums the total items value", func() {
			Expect(split.TotalItemsValue).To(Equal(24.00))
		})

		It("computes the total bill including tax and tip", func() {
			Expect(split.TotalBill).To(Equal(29.00))
		})

		It("computes each guest's subtotal", func() {
			Expect(split.PerPerson["alice"].Subtotal).To(Equal(20.00))
			Expect(split.PerPerson["bob"].Subtotal).To(Equal(4.00))
		})

		It("computes each guest's proportion of the items value", func() {
			Expect(split.PerPerson["alice"].Proportion).To(BeNumerically("~", 20.0/24.0, 1e-9))
			Expect(split.PerPerson["bob"].Proportion).To(BeNumerically("~", 4.0/24.0, 1e-9))
		})

		It("shares tax and tip proportionally", func() {
			alice := split.PerPerson["alice"]
			Expect(alice.TaxShare).To(BeNumerically("~", 2.0*20.0/24.0, 1e-9))
			Expect(alice.TipShare).To(BeNumerically("~", 3.0*20.0/24.0, 1e-9))
			Expect(alice.Total).To(BeNumerically("~", 24.1666666, 1e-6))

			bob := split.PerPerson["bob"]
			Expect(bob.TaxShare).To(BeNumerically("~", 2.0*4.0/24.0, 1e-9))
			Expect(bob.TipShare).To(BeNumerically("~", 0.50, 1e-9))
			Expect(bob.Total).To(BeNumerically("~", 4.8333333, 1e-6))
		})

		It("lists claimants in first-claim order", func() {
			Expect(split.Order).To(Equal([]string{"alice", "bob"}))
		})

		It("per-person totals sum to the total bill", func() {
			sum := 0.0
			for _, share := range split.PerPerson {
				sum += share.Total
			}
			Expect(sum).To(BeNumerically("~", split.TotalBill, 1e-9))
		})

		It("leaves nothing unclaimed", func() {
			Expect(split.Unclaimed).To(BeEmpty())
		})
	})

	When("an item is claimed by several guests", func() {
		BeforeEach(func() {
			r.AddItem("item-1", "Nachos", 12.00)
			r.Items[0].ClaimedBy = []string{"alice", "bob"}
		})

		It("charges the full price to each claimant", func() {
			Expect(split.PerPerson["alice"].Subtotal).To(Equal(12.00))
			Expect(split.PerPerson["bob"].Subtotal).To(Equal(12.00))
		})

		It("counts the item once toward the items value", func() {
			Expect(split.TotalItemsValue).To(Equal(12.00))
		})
	})

	When("an item is unclaimed", func() {
		BeforeEach(func() {
			r.AddItem("item-1", "Pizza", 20.00)
			r.AddItem("item-2", "Soda", 4.00)
			r.Items[0].ClaimedBy = []string{"alice"}
			r.Tax = 2.40
		})

		It("lists the item as unclaimed", func() {
			Expect(split.Unclaimed).To(HaveLen(1))
			Expect(split.Unclaimed[0].ID).To(Equal("item-2"))
		})

		It("counts the unclaimed item toward the items value", func() {
			Expect(split.TotalItemsValue).To(Equal(24.00))
		})

		It("shares tax against the full items value, not the claimed value", func() {
			Expect(split.PerPerson["alice"].TaxShare).To(BeNumerically("~", 2.40*20.0/24.0, 1e-9))
		})
	})

	When("the receipt has no items", func() {
		BeforeEach(func() {
			r.Tax = 2.00
			r.Tip = 3.00
		})

		It("produces an empty split", func() {
			Expect(split.PerPerson).To(BeEmpty())
			Expect(split.Unclaimed).To(BeEmpty())
			Expect(split.TotalItemsValue).To(BeZero())
		})

		It("still includes tax and tip in the total bill", func() {
			Expect(split.TotalBill).To(Equal(5.00))
		})
	})
})
