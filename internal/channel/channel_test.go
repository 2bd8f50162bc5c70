package channel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseChannel", func() {
	DescribeTable("known channels",
		func(name string, expected Channel) {
			ch, err := ParseChannel(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(ch).To(Equal(expected))
		},
		Entry("camera", "camera", Camera),
		Entry("upload", "upload", Upload),
		Entry("mixed case and spaces", " Upload ", Upload),
	)

	It("should reject anything else", func() {
		_, err := ParseChannel("fax")
		Expect(err).To(MatchError(ErrUnknownChannel))
	})

	It("should reject an empty name", func() {
		_, err := ParseChannel("")
		Expect(err).To(MatchError(ErrUnknownChannel))
	})
})

var _ = Describe("ExportFilename", func() {
	It("should name the workbook after the channel", func() {
		Expect(ExportFilename(Camera)).To(Equal("invoice_camera.xlsx"))
		Expect(ExportFilename(Upload)).To(Equal("invoice_upload.xlsx"))
	})
})
