package receipt

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExportJSON", func() {
	var r *Receipt

	BeforeEach(func() {
		r = New()
		r.ID = "rec-1"
		r.Name = "Friday Dinner"
		r.AddItem("item-1", "Pizza", 20.00)
		r.CreatedAt = time.Date(2025, 6, 15, 19, 30, 0, 0, time.UTC)
	})

	It("round-trips through import", func() {
		data, _, err := ExportJSON(r)
		Expect(err).NotTo(HaveOccurred())

		imported, err := ImportJSON(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(imported.Name).To(Equal("Friday Dinner"))
		Expect(imported.Items).To(HaveLen(1))
		Expect(imported.Items[0].Price).To(Equal(20.00))
	})

	It("names the file after the receipt and creation date", func() {
		_, filename, err := ExportJSON(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(filename).To(Equal("Friday_Dinner_2025-06-15.json"))
	})

	It("strips special characters from the filename", func() {
		r.Name = "Bob's Pizza & Pasta!"
		_, filename, err := ExportJSON(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(filename).To(Equal("Bobs_Pizza_Pasta_2025-06-15.json"))
	})

	It("falls back to a generic filename for an empty name", func() {
		r.Name = ""
		_, filename, err := ExportJSON(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(filename).To(HavePrefix("receipt_"))
	})
})

var _ = Describe("ImportJSON", func() {
	It("rejects invalid JSON", func() {
		_, err := ImportJSON([]byte("not json"))
		var derr *DecodeError
		Expect(errorsAs(err, &derr)).To(BeTrue())
	})

	It("rejects a document without a name", func() {
		_, err := ImportJSON([]byte(`{"items":[]}`))
		var derr *DecodeError
		Expect(errorsAs(err, &derr)).To(BeTrue())
	})

	It("rejects a document without items", func() {
		_, err := ImportJSON([]byte(`{"name":"Dinner"}`))
		var derr *DecodeError
		Expect(errorsAs(err, &derr)).To(BeTrue())
	})

	It("accepts an empty name and empty items", func() {
		r, err := ImportJSON([]byte(`{"name":"","items":[]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Items).To(BeEmpty())
	})

	It("fills in empty claim lists on imported items", func() {
		r, err := ImportJSON([]byte(`{"name":"Dinner","items":[{"id":"i1","name":"Pizza","price":20}]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Items[0].ClaimedBy).To(Equal([]string{}))
	})

	It("preserves payments and confirmations", func() {
		doc := `{"name":"Dinner","items":[{"id":"i1","name":"Pizza","price":20,"claimedBy":["alice"]}],"payments":{"alice":10}}`
		r, err := ImportJSON([]byte(doc))
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Payments).To(HaveKeyWithValue("alice", 10.0))
	})
})
