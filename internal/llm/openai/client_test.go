package openai

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Client", func() {
	var (
		server *ghttp.Server
		client *Client
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		client = NewClient(Config{APIKey: "sk-test", BaseURL: server.URL() + "/v1", Model: "gpt-4o-mini"}, logger)
	})

	AfterEach(func() {
		server.Close()
	})

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/v1/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer sk-test"),
				ghttp.VerifyContentType("application/json"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"choices": []map[string]any{
						{"message": map[string]any{"content": "  {\"firmaAd\":\"ABC GIDA\"}\n"}},
					},
				}),
			))
		})

		It("returns the trimmed message content", func() {
			out, err := client.Extract(context.Background(), []string{"ABC GIDA LTD. ŞTİ.", "TOPLAM 275,00"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(`{"firmaAd":"ABC GIDA"}`))
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})
	})

	When("the API fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusTooManyRequests, `{"error":"rate limited"}`))
		})

		It("returns an error with the status", func() {
			_, err := client.Extract(context.Background(), []string{"x"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("429"))
		})
	})

	When("there are no choices", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"choices": []any{}}))
		})

		It("returns an error", func() {
			_, err := client.Extract(context.Background(), []string{"x"})
			Expect(err).To(MatchError(ContainSubstring("no choices")))
		})
	})
})
