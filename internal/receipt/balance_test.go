package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComputeBalances", func() {
	var (
		r        *Receipt
		split    *Split
		balances *Balances
	)

	BeforeEach(func() {
		r = New()
		r.AddItem("item-1", "Pizza", 20.00)
		r.AddItem("item-2", "Soda", 4.00)
		r.Items[0].ClaimedBy = []string{"alice"}
		r.Items[1].ClaimedBy = []string{"bob"}
		r.Tax = 2.00
		r.Tip = 3.00
	})

	JustBeforeEach(func() {
		split = ComputeSplit(r)
		balances = ComputeBalances(r, split)
	})

	When("nobody has paid", func() {
		It("marks everyone unpaid", func() {
			Expect(balances.PerPerson["alice"].Status).To(Equal(StatusUnpaid))
			Expect(balances.PerPerson["bob"].Status).To(Equal(StatusUnpaid))
		})

		It("owes the full totals", func() {
			Expect(balances.TotalOwed).To(BeNumerically("~", 29.00, 1e-9))
			Expect(balances.TotalPaid).To(BeZero())
			Expect(balances.RemainingBalance).To(BeNumerically("~", 29.00, 1e-9))
		})

		It("lists everyone as owing, in claim order", func() {
			Expect(balances.Owing).To(HaveLen(2))
			Expect(balances.Owing[0].Person).To(Equal("alice"))
			Expect(balances.Owing[1].Person).To(Equal("bob"))
		})
	})

	When("a guest pays their exact total", func() {
		BeforeEach(func() {
			total := ComputeSplit(r).PerPerson["alice"].Total
			r.RecordPayment("alice", total)
		})

		It("marks them paid", func() {
			Expect(balances.PerPerson["alice"].Status).To(Equal(StatusPaid))
		})

		It("drops them from the owing list", func() {
			Expect(balances.Owing).To(HaveLen(1))
			Expect(balances.Owing[0].Person).To(Equal("bob"))
		})
	})

	When("a guest pays within a cent of their total", func() {
		BeforeEach(func() {
			total := ComputeSplit(r).PerPerson["alice"].Total
			r.RecordPayment("alice", total-0.009)
		})

		It("still counts as paid", func() {
			Expect(balances.PerPerson["alice"].Status).To(Equal(StatusPaid))
		})
	})

	When("a guest pays part of their total", func() {
		BeforeEach(func() {
			total := ComputeSplit(r).PerPerson["alice"].Total
			r.RecordPayment("alice", total-5.00)
		})

		It("marks them partial", func() {
			Expect(balances.PerPerson["alice"].Status).To(Equal(StatusPartial))
		})

		It("tracks the outstanding balance", func() {
			Expect(balances.PerPerson["alice"].Balance).To(BeNumerically("~", 5.00, 1e-9))
		})

		It("keeps them on the owing list", func() {
			Expect(balances.Owing[0].Person).To(Equal("alice"))
			Expect(balances.Owing[0].Balance).To(BeNumerically("~", 5.00, 1e-9))
		})
	})

	When("a guest overpays", func() {
		BeforeEach(func() {
			r.RecordPayment("bob", 100.00)
		})

		It("marks them paid with a negative balance", func() {
			Expect(balances.PerPerson["bob"].Status).To(Equal(StatusPaid))
			Expect(balances.PerPerson["bob"].Balance).To(BeNumerically("<", 0))
		})

		It("counts the overpayment toward the total paid", func() {
			Expect(balances.TotalPaid).To(Equal(100.00))
		})
	})

	When("a guest raises their recorded payment", func() {
		It("never decreases the total paid or regresses a paid status", func() {
			r.RecordPayment("alice", 10.00)
			s := ComputeSplit(r)
			before := ComputeBalances(r, s)

			aliceTotal := s.PerPerson["alice"].Total
			r.RecordPayment("alice", aliceTotal)
			after := ComputeBalances(r, s)

			Expect(after.TotalPaid).To(BeNumerically(">=", before.TotalPaid))
			Expect(after.PerPerson["alice"].Status).To(Equal(StatusPaid))

			r.RecordPayment("alice", aliceTotal+1.00)
			again := ComputeBalances(r, s)

			Expect(again.TotalPaid).To(BeNumerically(">=", after.TotalPaid))
			Expect(again.PerPerson["alice"].Status).NotTo(Equal(StatusUnpaid))
		})
	})

	When("someone pays who never claimed anything", func() {
		BeforeEach(func() {
			r.RecordPayment("carol", 10.00)
		})

		It("ignores the payment in the totals", func() {
			Expect(balances.PerPerson).NotTo(HaveKey("carol"))
			Expect(balances.TotalPaid).To(BeZero())
		})
	})
})
