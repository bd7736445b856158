package scanning

import (
	"context"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server    *ghttp.Server
		extractor *Ollama
		imageData []byte
		text      string
		err       error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		extractor, err = NewOllama(server.URL()+"/", "llava")
		Expect(err).NotTo(HaveOccurred())
		imageData = encodeJPEG(solidImage(16, 16))
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = extractor.ExtractBill(context.Background(), imageData, "image/jpeg")
	})

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					var req ollamaChatRequest
					Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
					Expect(req.Model).To(Equal("llava"))
					Expect(req.Stream).To(BeFalse())
					Expect(req.Messages).To(HaveLen(2))
					Expect(req.Messages[1].Images).To(HaveLen(1))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: "  {\"Tea\": [1, 2], \"tax_amount\": 0}\n"},
					Done:    true,
				}),
			))
		})

		It("returns the trimmed reply", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(`{"Tea": [1, 2], "tax_amount": 0}`))
		})
	})

	When("the API returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("returns the status and body", func() {
			Expect(err).To(MatchError(ContainSubstring("status 500")))
			Expect(err).To(MatchError(ContainSubstring("model not loaded")))
		})
	})

	When("the reply is empty", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{Done: true}))
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(ContainSubstring("empty response")))
		})
	})

	When("the image cannot be decoded", func() {
		BeforeEach(func() {
			imageData = []byte("nope")
		})

		It("fails before calling the API", func() {
			Expect(err).To(HaveOccurred())
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})
})
