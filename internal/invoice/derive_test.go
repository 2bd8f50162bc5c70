package invoice

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseAmount", func() {
	DescribeTable("lenient parsing",
		func(input Value, expected string) {
			Expect(ParseAmount(input).String()).To(Equal(expected))
		},
		Entry("number", Number(12.5), "12.5"),
		Entry("numeric text", Text("99.90"), "99.9"),
		Entry("padded text", Text("  42 "), "42"),
		Entry("empty text", Text(""), "0"),
		Entry("garbage", Text("abc"), "0"),
		Entry("thousands separator", Text("1,200"), "0"),
		Entry("NaN", Number(math.NaN()), "0"),
	)
})

var _ = Describe("DeriveGrandTotals", func() {
	var rows []Row

	JustBeforeEach(func() {
		DeriveGrandTotals(rows)
	})

	When("the grand total is empty", func() {
		BeforeEach(func() {
			rows = Normalize([]LineItem{
				{"amount": Number(100), "igst_payable": Number(18)},
			})
		})

		It("should add amount and IGST", func() {
			Expect(rows[0][ColGrandTotal]).To(Equal(Number(118)))
		})
	})

	When("the operands are not numeric", func() {
		BeforeEach(func() {
			rows = Normalize([]LineItem{
				{"amount": Text("abc"), "igst_payable": Text("")},
			})
		})

		It("should treat them as zero", func() {
			Expect(rows[0][ColGrandTotal]).To(Equal(Number(0)))
		})
	})

	When("the operands are numeric text", func() {
		BeforeEach(func() {
			rows = Normalize([]LineItem{
				{"amount": Text("10.10"), "igst_payable": Text("0.2")},
			})
		})

		It("should add them exactly", func() {
			Expect(rows[0][ColGrandTotal]).To(Equal(Number(10.3)))
		})
	})

	When("the grand total already holds a value", func() {
		BeforeEach(func() {
			rows = Normalize([]LineItem{
				{"amount": Number(100), "igst_payable": Number(18), "grand_total": Number(50)},
				{"amount": Number(100), "grand_total": Text("see attached")},
			})
		})

		It("should keep numeric totals", func() {
			Expect(rows[0][ColGrandTotal]).To(Equal(Number(50)))
		})

		It("should keep non-numeric totals", func() {
			Expect(rows[1][ColGrandTotal]).To(Equal(Text("see attached")))
		})
	})

	When("run twice", func() {
		BeforeEach(func() {
			rows = Normalize([]LineItem{
				{"amount": Number(100), "igst_payable": Number(18)},
				{"amount": Text("x")},
			})
		})

		It("should not change the totals the second time", func() {
			first := []Value{rows[0][ColGrandTotal], rows[1][ColGrandTotal]}
			DeriveGrandTotals(rows)
			Expect([]Value{rows[0][ColGrandTotal], rows[1][ColGrandTotal]}).To(Equal(first))
		})
	})
})
