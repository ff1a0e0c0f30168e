package receipt

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Receipt", func() {
	var r *Receipt

	BeforeEach(func() {
		r = New()
	})

	Describe("AddItem", func() {
		It("appends the item with an empty claim list", func() {
			item, err := r.AddItem("item-1", "Pizza", 20.00)
			Expect(err).NotTo(HaveOccurred())
			Expect(item.ClaimedBy).To(Equal([]string{}))
			Expect(r.Items).To(HaveLen(1))
		})

		It("rejects an empty name", func() {
			_, err := r.AddItem("item-1", "", 20.00)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a zero price", func() {
			_, err := r.AddItem("item-1", "Pizza", 0)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a negative price", func() {
			_, err := r.AddItem("item-1", "Pizza", -1)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DeleteItem", func() {
		BeforeEach(func() {
			r.AddItem("item-1", "Pizza", 20.00)
			r.AddItem("item-2", "Soda", 4.00)
		})

		It("removes the item", func() {
			r.DeleteItem("item-1")
			Expect(r.Items).To(HaveLen(1))
			Expect(r.Items[0].ID).To(Equal("item-2"))
		})

		It("is a no-op for an unknown ID", func() {
			r.DeleteItem("nope")
			Expect(r.Items).To(HaveLen(2))
		})
	})

	Describe("SetDetails", func() {
		It("allows a zero tax and tip", func() {
			Expect(r.SetDetails("Dinner", 0, 0)).NotTo(HaveOccurred())
		})

		It("rejects a negative tip", func() {
			Expect(r.SetDetails("Dinner", 0, -1)).To(HaveOccurred())
		})
	})

	Describe("ToggleClaim", func() {
		BeforeEach(func() {
			r.AddItem("item-1", "Pizza", 20.00)
		})

		It("adds then removes the claimant", func() {
			Expect(r.ToggleClaim("item-1", "alice")).NotTo(HaveOccurred())
			Expect(r.Items[0].ClaimedByPerson("alice")).To(BeTrue())

			Expect(r.ToggleClaim("item-1", "alice")).NotTo(HaveOccurred())
			Expect(r.Items[0].ClaimedByPerson("alice")).To(BeFalse())
		})

		It("never produces duplicate claimants", func() {
			for i := 0; i < 5; i++ {
				Expect(r.ToggleClaim("item-1", "alice")).NotTo(HaveOccurred())
			}
			Expect(len(r.Items[0].ClaimedBy)).To(BeNumerically("<=", 1))
		})

		It("keeps other claimants intact", func() {
			Expect(r.ToggleClaim("item-1", "alice")).NotTo(HaveOccurred())
			Expect(r.ToggleClaim("item-1", "bob")).NotTo(HaveOccurred())
			Expect(r.ToggleClaim("item-1", "alice")).NotTo(HaveOccurred())
			Expect(r.Items[0].ClaimedBy).To(Equal([]string{"bob"}))
		})

		It("rejects an empty claimant name", func() {
			Expect(r.ToggleClaim("item-1", "")).To(HaveOccurred())
		})

		It("returns a not found error for an unknown item", func() {
			err := r.ToggleClaim("nope", "alice")
			var nfe *NotFoundError
			Expect(errorsAs(err, &nfe)).To(BeTrue())
		})
	})

	Describe("Confirm", func() {
		var at time.Time

		BeforeEach(func() {
			at = time.Date(2025, 6, 15, 19, 30, 0, 0, time.UTC)
			r.AddItem("item-1", "Pizza", 20.00)
			r.Tax = 2.00
			r.Tip = 3.00
		})

		It("snapshots the claimant's items and total", func() {
			Expect(r.ToggleClaim("item-1", "alice")).NotTo(HaveOccurred())
			Expect(r.Confirm("alice", at)).NotTo(HaveOccurred())

			conf := r.ConfirmedGuests["alice"]
			Expect(conf.ConfirmedAt).To(Equal(at))
			Expect(conf.Items).To(Equal([]string{"Pizza"}))
			Expect(conf.Total).To(BeNumerically("~", 25.00, 1e-9))
		})

		It("rejects confirming with nothing claimed", func() {
			Expect(r.Confirm("alice", at)).To(HaveOccurred())
		})

		It("is cleared when the claimant's selection changes", func() {
			Expect(r.ToggleClaim("item-1", "alice")).NotTo(HaveOccurred())
			Expect(r.Confirm("alice", at)).NotTo(HaveOccurred())

			Expect(r.ToggleClaim("item-1", "alice")).NotTo(HaveOccurred())
			Expect(r.ConfirmedGuests).NotTo(HaveKey("alice"))
		})
	})

	Describe("RecordPayment", func() {
		It("stores the amount", func() {
			Expect(r.RecordPayment("alice", 12.50)).NotTo(HaveOccurred())
			Expect(r.Payments).To(HaveKeyWithValue("alice", 12.50))
		})

		It("replaces a previous amount rather than adding to it", func() {
			Expect(r.RecordPayment("alice", 12.50)).NotTo(HaveOccurred())
			Expect(r.RecordPayment("alice", 20.00)).NotTo(HaveOccurred())
			Expect(r.Payments).To(HaveKeyWithValue("alice", 20.00))
		})

		It("clamps a negative amount to zero", func() {
			Expect(r.RecordPayment("alice", -5)).NotTo(HaveOccurred())
			Expect(r.Payments).To(HaveKeyWithValue("alice", 0.0))
		})

		It("rejects an empty claimant name", func() {
			Expect(r.RecordPayment("", 5)).To(HaveOccurred())
		})
	})
})
