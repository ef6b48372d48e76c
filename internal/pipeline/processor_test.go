package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/extract"
	"github.com/joseph-ayodele/receipts-extractor/internal/parse"
)

var scenarioA = strings.Join([]string{
	"ABC GIDA TİC. LTD. ŞTİ.",
	"Istanbul Kadıköy Mah. No:5",
	"VKN: 1234567890",
	"01.06.2024",
	"TOPLAM 275,00",
	"KDV %10 25,00",
}, "\n")

const llmJSON = "```json\n" + `{"firmaAd":"ABC GIDA","fisNo":"0015","tutar":"2.129,00","kdv":"193,55","kdvOran":"%10","islemTarihi":"15.06.2024","islemTuru":"YEMEK","odemeTuru":"Kredi Kartı"}` + "\n```"

var _ = Describe("Processor", func() {
	var (
		logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
		parser  *parse.Parser
		offline extract.TextRecognizer
		cloud   extract.LineDetector
		model   extract.StructuredExtractor

		cloudCalls atomic.Int32
		llmCalls   atomic.Int32
		gotLang    string
		gotLines   []string
	)

	offlineText := func(text string, err error) extract.TextRecognizer {
		return extract.RecognizerFunc(func(_ context.Context, _ []byte, lang string) (string, error) {
			gotLang = lang
			return text, err
		})
	}
	cloudLines := func(lines []string, err error) extract.LineDetector {
		return extract.LinesFunc(func(context.Context, []byte) ([]string, error) {
			cloudCalls.Add(1)
			return lines, err
		})
	}
	llmRaw := func(raw string, err error) extract.StructuredExtractor {
		return extract.ExtractorFunc(func(_ context.Context, lines []string) (string, error) {
			llmCalls.Add(1)
			gotLines = lines
			return raw, err
		})
	}
	newProcessor := func(cfg Config) *Processor {
		return NewProcessor(cfg, offline, cloud, model, parser, logger)
	}

	BeforeEach(func() {
		parser = parse.New(parse.WithClock(func() time.Time {
			return time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
		}), parse.WithLogger(logger))
		offline, cloud, model = nil, nil, nil
		cloudCalls.Store(0)
		llmCalls.Store(0)
		gotLang, gotLines = "", nil
	})

	When("the local record is consistent", func() {
		BeforeEach(func() {
			offline = offlineText(scenarioA, nil)
			cloud = cloudLines([]string{"unused"}, nil)
			model = llmRaw(llmJSON, nil)
		})

		It("accepts it without escalating", func() {
			res, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Escalated).To(BeFalse())
			Expect(res.Path).To(Equal([]Stage{StageOfflineOCR, StageLocalExtract, StageCheck, StageAccept}))
			Expect(*res.Receipt.BusinessName).To(Equal("ABC GIDA"))
			Expect(*res.Receipt.TransactionDate).To(Equal("01.06.2024"))
			Expect(*res.Receipt.TotalAmount).To(BeNumerically("~", 275.00, 1e-9))
			Expect(*res.Receipt.VatAmount).To(BeNumerically("~", 25.00, 1e-9))
			Expect(cloudCalls.Load()).To(BeZero())
			Expect(llmCalls.Load()).To(BeZero())
		})

		It("passes the default language hint", func() {
			_, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(err).NotTo(HaveOccurred())
			Expect(gotLang).To(Equal(constants.DefaultLanguage))
		})

		It("honours an explicit language hint", func() {
			_, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img"), Language: "tur"})
			Expect(err).NotTo(HaveOccurred())
			Expect(gotLang).To(Equal("tur"))
		})
	})

	When("the local record is anomalous", func() {
		BeforeEach(func() {
			offline = offlineText("MARKET\nTOPLAM 0,00\nKDV 5,00", nil)
			cloud = cloudLines([]string{"ABC GIDA", "TOPLAM 2.129,00"}, nil)
		})

		It("replaces the record with the LLM result", func() {
			model = llmRaw(llmJSON, nil)
			res, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Escalated).To(BeTrue())
			Expect(res.RawResponse).To(Equal(llmJSON))
			Expect(res.Path).To(Equal([]Stage{
				StageOfflineOCR, StageLocalExtract, StageCheck, StageCloudOCR, StageLLMExtract, StageAccept,
			}))
			Expect(gotLines).To(Equal([]string{"ABC GIDA", "TOPLAM 2.129,00"}))

			r := res.Receipt
			Expect(*r.BusinessName).To(Equal("ABC GIDA"))
			Expect(*r.ReceiptNumber).To(Equal("0015"))
			Expect(*r.TotalAmount).To(BeNumerically("~", 2129.00, 1e-9))
			Expect(*r.VatAmount).To(BeNumerically("~", 193.55, 1e-9))
			Expect(r.TransactionType.Category).To(Equal(constants.Food))
			Expect(*r.PaymentType).To(Equal(constants.PaymentCard))
			Expect(r.Products).To(BeEmpty())
		})

		It("does not merge local fields into the replacement", func() {
			model = llmRaw(`{"tutar":"10,00","kdv":"1,00"}`, nil)
			offline = offlineText("FİŞ NO: 77\nTOPLAM 0,00", nil)
			res, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Receipt.ReceiptNumber).To(BeNil())
			Expect(res.Receipt.BusinessName).To(BeNil())
		})

		It("fails at llm_extract on a malformed response and keeps the raw text", func() {
			model = llmRaw("Üzgünüm, fişi okuyamadım.", nil)
			res, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(common.ErrMalformedResponse))
			Expect(common.StageOf(err)).To(Equal(string(StageLLMExtract)))
			Expect(common.RawResponseOf(err)).To(Equal("Üzgünüm, fişi okuyamadım."))
		})

		It("fails at cloud_ocr when the cloud collaborator fails", func() {
			cloud = cloudLines(nil, errors.New("quota exceeded"))
			model = llmRaw(llmJSON, nil)
			_, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(err).To(HaveOccurred())
			Expect(common.StageOf(err)).To(Equal(string(StageCloudOCR)))
			Expect(llmCalls.Load()).To(BeZero())
		})

		It("fails at llm_extract when the model call fails", func() {
			model = llmRaw("", errors.New("503"))
			_, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(common.StageOf(err)).To(Equal(string(StageLLMExtract)))
		})

		It("bounds cloud calls with a timeout", func() {
			cloud = extract.LinesFunc(func(ctx context.Context, _ []byte) ([]string, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})
			model = llmRaw(llmJSON, nil)
			_, err := newProcessor(Config{CloudTimeout: 20 * time.Millisecond}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(common.StageOf(err)).To(Equal(string(StageCloudOCR)))
		})

		It("returns the best-effort local record when escalation is unavailable", func() {
			cloud = nil
			res, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Escalated).To(BeFalse())
			Expect(res.Receipt.TotalAmount).To(BeNil())
			Expect(*res.Receipt.VatAmount).To(BeNumerically("~", 5.00, 1e-9))
			Expect(res.Path).To(Equal([]Stage{StageOfflineOCR, StageLocalExtract, StageCheck, StageAccept}))
		})
	})

	When("offline OCR fails", func() {
		BeforeEach(func() {
			offline = offlineText("", errors.New("tesseract not installed"))
		})

		It("reports ocr unavailable without escalation", func() {
			_, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(err).To(MatchError(common.ErrOCRUnavailable))
			Expect(common.StageOf(err)).To(Equal(string(StageOfflineOCR)))
		})

		It("escalates when cloud and llm are configured", func() {
			cloud = cloudLines([]string{"ABC GIDA"}, nil)
			model = llmRaw(llmJSON, nil)
			res, err := newProcessor(Config{}).Process(context.Background(), Input{Image: []byte("img")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Escalated).To(BeTrue())
		})
	})

	It("limits concurrent external calls across receipts", func() {
		var inFlight, peak atomic.Int32
		offline = extract.RecognizerFunc(func(context.Context, []byte, string) (string, error) {
			return "", nil
		})
		cloud = extract.LinesFunc(func(context.Context, []byte) ([]string, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return []string{"x"}, nil
		})
		model = extract.ExtractorFunc(func(context.Context, []string) (string, error) {
			return llmJSON, nil
		})
		p := newProcessor(Config{MaxExternalCalls: 1})

		var wg sync.WaitGroup
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := p.Process(context.Background(), Input{Image: []byte("img")})
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()
		Expect(peak.Load()).To(Equal(int32(1)))
	})
})
