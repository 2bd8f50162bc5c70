package invoice

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeGSTIN", func() {
	DescribeTable("extracting the identifier",
		func(input Value, expected string) {
			Expect(NormalizeGSTIN(input)).To(Equal(Text(expected)))
		},
		Entry("surrounding text and lowercase", Text("GST: 27aaaaa0000a1z5 extra"), "27AAAAA0000A1Z5"),
		Entry("already valid", Text("29ABCDE1234F1Z5"), "29ABCDE1234F1Z5"),
		Entry("too short", Text("bad"), ""),
		Entry("empty", Text(""), ""),
		Entry("longer run keeps the first 15", Text("27AAAAA0000A1Z5XYZ"), "27AAAAA0000A1Z5"),
		Entry("punctuation breaks the run", Text("27AAAAA-0000A1Z5"), ""),
	)
})

var _ = Describe("Normalize", func() {
	var (
		items []LineItem
		rows  []Row
	)

	JustBeforeEach(func() {
		rows = Normalize(items)
	})

	When("items use oracle field names", func() {
		BeforeEach(func() {
			items = []LineItem{
				{"qty": Number(2), "igst_payable": Number(18), "item": Text("Widget")},
			}
		})

		It("should rename them to canonical columns", func() {
			Expect(rows[0][ColQty]).To(Equal(Number(2)))
			Expect(rows[0][ColIGSTPayable]).To(Equal(Number(18)))
			Expect(rows[0][ColItem]).To(Equal(Text("Widget")))
		})

		It("should include every canonical column", func() {
			Expect(rows[0]).To(HaveLen(len(Columns)))
			for _, col := range Columns {
				Expect(rows[0]).To(HaveKey(col))
			}
		})

		It("should fill missing columns with empty text", func() {
			Expect(rows[0][ColMRP]).To(Equal(Text("")))
		})
	})

	When("items carry unrecognized fields", func() {
		BeforeEach(func() {
			items = []LineItem{
				{"item": Text("Widget"), "hsn_code": Text("8471"), "Item": Text("dup")},
			}
		})

		It("should drop them", func() {
			Expect(rows[0]).To(HaveLen(len(Columns)))
			Expect(rows[0][ColItem]).To(Equal(Text("Widget")))
		})
	})

	When("items omit fields inconsistently", func() {
		BeforeEach(func() {
			items = []LineItem{
				{"item": Text("A"), "rate": Number(5)},
				{"item": Text("B"), "mrp": Number(9)},
			}
		})

		It("should give every row the same column set", func() {
			Expect(rows).To(HaveLen(2))
			Expect(rows[0]).To(HaveLen(len(Columns)))
			Expect(rows[1]).To(HaveLen(len(Columns)))
			Expect(rows[0][ColMRP]).To(Equal(Text("")))
			Expect(rows[1][ColRate]).To(Equal(Text("")))
		})
	})

	When("identifier cells are malformed independently", func() {
		BeforeEach(func() {
			items = []LineItem{
				{"gstin": Text("gstin 27aaaaa0000a1z5"), "party_gstin": Text("n/a")},
			}
		})

		It("should normalize each cell on its own", func() {
			Expect(rows[0][ColGSTIN]).To(Equal(Text("27AAAAA0000A1Z5")))
			Expect(rows[0][ColPartyGSTIN]).To(Equal(Text("")))
		})
	})

	When("no items are given", func() {
		BeforeEach(func() {
			items = nil
		})

		It("should return no rows", func() {
			Expect(rows).To(BeEmpty())
		})
	})
})

var _ = Describe("FillFromHeader", func() {
	var (
		rows   []Row
		header Header
	)

	BeforeEach(func() {
		rows = Normalize([]LineItem{
			{"item": Text("A"), "party_name": Text("Listed Party")},
			{"item": Text("B")},
		})
		header = Header{
			OriginatorName:     Text("Acme"),
			OriginatorLocation: Text("Pune"),
			PartyName:          Text("Header Party"),
			PartyGSTIN:         Text("29ABCDE1234F1Z5"),
			GrandTotal:         Number(500),
		}
	})

	JustBeforeEach(func() {
		FillFromHeader(rows, header)
	})

	It("should fill empty cells from the header", func() {
		Expect(rows[0][ColParticulars]).To(Equal(Text("Acme")))
		Expect(rows[1][ColLocation]).To(Equal(Text("Pune")))
		Expect(rows[1][ColPartyName]).To(Equal(Text("Header Party")))
		Expect(rows[1][ColPartyGSTIN]).To(Equal(Text("29ABCDE1234F1Z5")))
		Expect(rows[1][ColGrandTotal]).To(Equal(Number(500)))
	})

	It("should never overwrite extracted values", func() {
		Expect(rows[0][ColPartyName]).To(Equal(Text("Listed Party")))
	})

	It("should leave columns without a header value empty", func() {
		Expect(rows[0][ColGSTIN]).To(Equal(Text("")))
	})

	It("should not touch columns outside the fillable set", func() {
		Expect(rows[0][ColDate]).To(Equal(Text("")))
		Expect(rows[0][ColInvoiceNo]).To(Equal(Text("")))
	})

	When("the header GSTINs are not in the 15-character form", func() {
		BeforeEach(func() {
			header = Header{
				OriginatorGSTIN: Text("gst: 29abcde1234f1z5 x"),
				PartyGSTIN:      Text("n/a"),
			}
		})

		It("should fill the normalized value", func() {
			Expect(rows[1][ColGSTIN]).To(Equal(Text("29ABCDE1234F1Z5")))
		})

		It("should fill nothing when no identifier can be recovered", func() {
			Expect(rows[1][ColPartyGSTIN]).To(Equal(Text("")))
		})
	})

	When("the header grand total is zero", func() {
		BeforeEach(func() {
			header = Header{GrandTotal: Number(0)}
		})

		It("should not fill it", func() {
			Expect(rows[0][ColGrandTotal]).To(Equal(Text("")))
		})
	})

	When("the header is empty", func() {
		BeforeEach(func() {
			header = Header{}
		})

		It("should change nothing", func() {
			Expect(rows[1]).To(Equal(Normalize([]LineItem{{"item": Text("B")}})[0]))
		})
	})
})

var _ = Describe("TrimSpace", func() {
	It("should trim every text cell and keep numbers", func() {
		rows := Normalize([]LineItem{
			{"item": Text("  Widget \n"), "date": Text(" 2024-01-01"), "qty": Number(3)},
		})
		TrimSpace(rows)
		Expect(rows[0][ColItem]).To(Equal(Text("Widget")))
		Expect(rows[0][ColDate]).To(Equal(Text("2024-01-01")))
		Expect(rows[0][ColQty]).To(Equal(Number(3)))
	})
})
