package scanning

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server  *ghttp.Server
		oracle  *Ollama
		request ollamaChatRequest
		status  int
		reply   any
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		status = http.StatusOK
		request = ollamaChatRequest{}

		var err error
		oracle, err = NewOllama(server.URL()+"/", "qwen2.5vl", 5*time.Second)
		Expect(err).NotTo(HaveOccurred())
	})

	JustBeforeEach(func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
			ghttp.VerifyContentType("application/json"),
			func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &request)).To(Succeed())
			},
			ghttp.RespondWithJSONEncodedPtr(&status, &reply),
		))
	})

	AfterEach(func() {
		server.Close()
	})

	When("the model replies with fenced JSON", func() {
		BeforeEach(func() {
			reply = ollamaChatResponse{
				Message: ollamaMessage{Role: "assistant", Content: "```json\n{\"invoice_no\": \"INV-7\"}\n```"},
				Done:    true,
			}
		})

		It("should return the object", func() {
			raw, err := oracle.Call(context.Background(), ExtractHeaders, Document{Text: "INVOICE"})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal(`{"invoice_no": "INV-7"}`))
		})

		It("should constrain the format to the function schema", func() {
			_, _ = oracle.Call(context.Background(), ExtractHeaders, Document{Text: "INVOICE"})
			Expect(request.Model).To(Equal("qwen2.5vl"))
			Expect(request.Stream).To(BeFalse())
			Expect(request.Format).To(HaveKeyWithValue("type", "object"))
		})

		It("should attach images to the user message", func() {
			_, _ = oracle.Call(context.Background(), ExtractHeaders, Document{Image: []byte("img"), MIMEType: "image/jpeg"})
			Expect(request.Messages).To(HaveLen(2))
			Expect(request.Messages[1].Images).To(Equal([]string{"aW1n"}))
		})
	})

	When("the model replies with nothing", func() {
		BeforeEach(func() {
			reply = ollamaChatResponse{Message: ollamaMessage{Role: "assistant"}, Done: true}
		})

		It("should return ErrNoResponse", func() {
			_, err := oracle.Call(context.Background(), ExtractHeaders, Document{Text: "INVOICE"})
			Expect(err).To(MatchError(ErrNoResponse))
		})
	})

	When("the API fails", func() {
		BeforeEach(func() {
			status = http.StatusInternalServerError
			reply = map[string]string{"error": "model not found"}
		})

		It("should return an error with the status", func() {
			_, err := oracle.Call(context.Background(), ExtractHeaders, Document{Text: "INVOICE"})
			Expect(err).To(MatchError(ContainSubstring("status 500")))
		})
	})
})
