package channel

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/likh/internal/export"
	"github.com/zombor/likh/internal/invoice"
)

var _ = Describe("Integration", func() {
	var (
		tempDir  string
		db       *BoltDB
		store    *LocalStorage
		scanner  *mockScanner
		service  *Service
		server   *Server
		ghServer *ghttp.Server
	)

	send := func(req *http.Request) *http.Response {
		ghServer.AppendHandlers(server.ServeHTTP)
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(resp.Body.Close)
		return resp
	}

	uploadTo := func(ch Channel, filename string, content []byte) *http.Response {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(content)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		req, err := http.NewRequest(http.MethodPost, ghServer.URL()+"/api/channels/"+string(ch)+"/invoice", body)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return send(req)
	}

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()

		var err error
		db, err = NewBoltDB(filepath.Join(tempDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())

		store, err = NewLocalStorage(filepath.Join(tempDir, "invoices"))
		Expect(err).NotTo(HaveOccurred())

		scanner = newMockScanner()
		scanner.items = []invoice.LineItem{
			{
				"date":         invoice.Text("15/01/2024"),
				"invoice_no":   invoice.Text("INV-001"),
				"item":         invoice.Text(" Steel rods "),
				"qty":          invoice.Number(10),
				"amount":       invoice.Text("1,000"),
				"igst_payable": invoice.Number(180),
				"party_gstin":  invoice.Text("gstin: 29abcde1234f1z5"),
				"batch":        invoice.Text("B-7"),
			},
			{
				"item":        invoice.Text("Nuts"),
				"qty":         invoice.Number(100),
				"amount":      invoice.Number(50),
				"grand_total": invoice.Number(59),
			},
		}
		scanner.header = invoice.Header{
			OriginatorName:     invoice.Text("Acme Traders"),
			OriginatorLocation: invoice.Text("Pune"),
			OriginatorGSTIN:    invoice.Text("27ABCDE1234F1Z5"),
			PartyName:          invoice.Text("Buyer Co"),
			GrandTotal:         invoice.Number(1239),
		}

		service = NewService(db, scanner, store)
		server = NewServer(service, BasicAuth{})
		ghServer = ghttp.NewServer()
	})

	AfterEach(func() {
		if ghServer != nil {
			ghServer.Close()
		}
		if db != nil {
			db.Close()
		}
	})

	It("should extract, edit and export an uploaded invoice", func() {
		resp := uploadTo(Upload, "bill.png", pngBytes())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		var sub Submission
		Expect(json.NewDecoder(resp.Body).Decode(&sub)).To(Succeed())
		Expect(sub.Table.Len()).To(Equal(2))

		get := func(row int, col invoice.Column) invoice.Value {
			v, err := sub.Table.Get(row, col)
			Expect(err).NotTo(HaveOccurred())
			return v
		}

		By("normalizing the first row")
		Expect(get(0, invoice.ColItem)).To(Equal(invoice.Text("Steel rods")))
		Expect(get(0, invoice.ColPartyGSTIN)).To(Equal(invoice.Text("29ABCDE1234F1Z5")))
		Expect(get(0, invoice.ColParticulars)).To(Equal(invoice.Text("Acme Traders")))
		Expect(get(0, invoice.ColLocation)).To(Equal(invoice.Text("Pune")))
		Expect(get(0, invoice.ColGSTIN)).To(Equal(invoice.Text("27ABCDE1234F1Z5")))
		Expect(get(0, invoice.ColPartyName)).To(Equal(invoice.Text("Buyer Co")))

		By("filling the header grand total before deriving")
		Expect(get(0, invoice.ColGrandTotal)).To(Equal(invoice.Number(1239)))
		Expect(get(1, invoice.ColGrandTotal)).To(Equal(invoice.Number(59)))

		By("persisting the table in bbolt")
		stored, err := db.GetSubmission(Upload)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.ID).To(Equal(sub.ID))

		By("keeping the source document")
		source, err := store.Get(stored.SourcePath)
		Expect(err).NotTo(HaveOccurred())
		Expect(source).To(Equal(pngBytes()))

		By("editing a cell")
		req, err := http.NewRequest(http.MethodPatch, ghServer.URL()+"/api/channels/upload/invoice/rows/1", strings.NewReader(`{"column": "Qty", "value": 120}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(send(req).StatusCode).To(Equal(http.StatusOK))

		By("exporting the edited table")
		req, err = http.NewRequest(http.MethodGet, ghServer.URL()+"/api/channels/upload/invoice/export", nil)
		Expect(err).NotTo(HaveOccurred())
		exportResp := send(req)
		Expect(exportResp.StatusCode).To(Equal(http.StatusOK))

		data, err := io.ReadAll(exportResp.Body)
		Expect(err).NotTo(HaveOccurred())
		f, err := excelize.OpenReader(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		qty, err := f.GetCellValue(export.Sheet, "J3")
		Expect(err).NotTo(HaveOccurred())
		Expect(qty).To(Equal("120"))
	})

	It("should keep channels apart", func() {
		Expect(uploadTo(Camera, "photo.png", pngBytes()).StatusCode).To(Equal(http.StatusCreated))

		scanner.items = nil
		Expect(uploadTo(Upload, "blank.png", pngBytes()).StatusCode).To(Equal(http.StatusUnprocessableEntity))

		_, err := db.GetSubmission(Upload)
		Expect(err).To(MatchError(ErrNotFound))

		camera, err := db.GetSubmission(Camera)
		Expect(err).NotTo(HaveOccurred())
		Expect(camera.Table.Len()).To(Equal(2))
	})

	It("should replace a channel's table and its document", func() {
		Expect(uploadTo(Camera, "first.png", pngBytes()).StatusCode).To(Equal(http.StatusCreated))
		first, err := db.GetSubmission(Camera)
		Expect(err).NotTo(HaveOccurred())

		Expect(uploadTo(Camera, "second.png", pngBytes()).StatusCode).To(Equal(http.StatusCreated))
		second, err := db.GetSubmission(Camera)
		Expect(err).NotTo(HaveOccurred())

		Expect(second.ID).NotTo(Equal(first.ID))
		Expect(filepath.Join(tempDir, "invoices", first.SourcePath)).NotTo(BeAnExistingFile())
		Expect(filepath.Join(tempDir, "invoices", second.SourcePath)).To(BeAnExistingFile())
	})
})
