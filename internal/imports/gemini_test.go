package imports

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("decodeItemsPayload", func() {
	It("should decode a bare array", func() {
		items := decodeItemsPayload([]byte(`[{"name":"Wrap Dress","price":58.00}]`))
		Expect(items).To(HaveLen(1))
		Expect(items[0].name()).To(Equal("Wrap Dress"))
	})

	It("should decode an items wrapper", func() {
		items := decodeItemsPayload([]byte(`{"items":[{"name":"Wrap Dress"}]}`))
		Expect(items).To(HaveLen(1))
	})

	It("should decode a products wrapper", func() {
		items := decodeItemsPayload([]byte(`{"products":[{"name":"Wrap Dress"}]}`))
		Expect(items).To(HaveLen(1))
	})

	It("should decode a recommendations wrapper", func() {
		items := decodeItemsPayload([]byte(`{"recommendations":[{"name":"Wrap Dress"}]}`))
		Expect(items).To(HaveLen(1))
	})

	It("should decode an object keyed by numeric string indices", func() {
		items := decodeItemsPayload([]byte(`{"0":{"name":"Wrap Dress"},"1":{"name":"Ankle Boot"}}`))
		Expect(items).To(HaveLen(2))
	})

	It("should decode a single bare object", func() {
		items := decodeItemsPayload([]byte(`{"name":"Wrap Dress"}`))
		Expect(items).To(HaveLen(1))
	})

	It("should accept product and title as name aliases", func() {
		Expect(decodeItemsPayload([]byte(`{"product":"Wrap Dress"}`))[0].name()).To(Equal("Wrap Dress"))
		Expect(decodeItemsPayload([]byte(`{"title":"Wrap Dress"}`))[0].name()).To(Equal("Wrap Dress"))
	})

	It("should tolerate prices returned as strings", func() {
		items := decodeItemsPayload([]byte(`[{"name":"Wrap Dress","price":"58.00"}]`))
		Expect(items[0].Price).To(Equal(flexFloat(58.00)))
	})

	It("should yield zero items for unrecognized shapes", func() {
		Expect(decodeItemsPayload([]byte(`"just a string"`))).To(BeEmpty())
		Expect(decodeItemsPayload([]byte(`{"unrelated":true}`))).To(BeEmpty())
		Expect(decodeItemsPayload([]byte(`not json at all`))).To(BeEmpty())
	})
})

var _ = Describe("convertAIItems", func() {
	It("should drop records with no usable name", func() {
		items := convertAIItems([]aiItem{{Price: 12}, {Name: "Wrap Dress"}})
		Expect(items).To(HaveLen(1))
		Expect(items[0].Name).To(Equal("Wrap Dress"))
	})

	It("should tag records as AI-sourced", func() {
		items := convertAIItems([]aiItem{{Name: "Wrap Dress"}})
		Expect(items[0].ImportMeta.Source).To(Equal(SourceAI))
		Expect(items[0].ImportMeta.Confidence).To(Equal(0.9))
	})

	It("should prefer the model's category when it is a known value", func() {
		items := convertAIItems([]aiItem{{Name: "Something", Category: "shoe"}})
		Expect(items[0].Category).To(Equal(CategoryShoe))
	})

	It("should re-infer an unknown category from the name", func() {
		items := convertAIItems([]aiItem{{Name: "ankle boot", Category: "footwear??"}})
		Expect(items[0].Category).To(Equal(CategoryShoe))
	})

	It("should normalize the reported image URL", func() {
		items := convertAIItems([]aiItem{{Name: "Wrap Dress", Image: "http://example.com/a b.jpg"}})
		Expect(items[0].Image).To(Equal("https://example.com/a%20b.jpg"))
	})

	It("should record the size in the notes", func() {
		items := convertAIItems([]aiItem{{Name: "Wrap Dress", Size: "M"}})
		Expect(items[0].Notes).To(Equal("Size: M"))
	})
})
