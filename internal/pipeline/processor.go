package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
	"github.com/joseph-ayodele/receipts-extractor/internal/extract"
	"github.com/joseph-ayodele/receipts-extractor/internal/llm"
	"github.com/joseph-ayodele/receipts-extractor/internal/parse"
)

// Stage names the states a receipt passes through.
type Stage string

const (
	StageOfflineOCR   Stage = "offline_ocr"
	StageLocalExtract Stage = "local_extract"
	StageCheck        Stage = "check"
	StageCloudOCR     Stage = "cloud_ocr"
	StageLLMExtract   Stage = "llm_extract"
	StageAccept       Stage = "accept"
)

type Config struct {
	Language         string
	MaxExternalCalls int64
	CloudTimeout     time.Duration
	LLMTimeout       time.Duration
}

type Input struct {
	Image    []byte
	Language string
}

type Result struct {
	Receipt     entity.Receipt `json:"receipt"`
	Path        []Stage        `json:"path"`
	Escalated   bool           `json:"escalated"`
	RawResponse string         `json:"raw_response,omitempty"`
}

// Processor runs one receipt through offline OCR, local extraction and the
// anomaly check, escalating to cloud OCR plus LLM extraction when the local
// record looks broken. It holds no per-receipt state and is safe for
// concurrent use.
type Processor struct {
	cfg     Config
	offline extract.TextRecognizer
	cloud   extract.LineDetector
	llm     extract.StructuredExtractor
	parser  *parse.Parser
	sem     *semaphore.Weighted
	logger  *slog.Logger
}

func NewProcessor(cfg Config, offline extract.TextRecognizer, cloud extract.LineDetector,
	llm extract.StructuredExtractor, parser *parse.Parser, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = parse.New(parse.WithLogger(logger))
	}
	if cfg.Language == "" {
		cfg.Language = constants.DefaultLanguage
	}
	if cfg.MaxExternalCalls <= 0 {
		cfg.MaxExternalCalls = 2
	}
	if cfg.CloudTimeout <= 0 {
		cfg.CloudTimeout = 30 * time.Second
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 45 * time.Second
	}
	return &Processor{
		cfg:     cfg,
		offline: offline,
		cloud:   cloud,
		llm:     llm,
		parser:  parser,
		sem:     semaphore.NewWeighted(cfg.MaxExternalCalls),
		logger:  logger,
	}
}

// CanEscalate reports whether both escalation collaborators are configured.
func (p *Processor) CanEscalate() bool {
	return p.cloud != nil && p.llm != nil
}

// Process extracts a receipt from an image. Errors are *common.StageError
// naming the failing stage; a partial local record is never an error.
func (p *Processor) Process(ctx context.Context, in Input) (*Result, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()
	lang := in.Language
	if lang == "" {
		lang = p.cfg.Language
	}
	res := &Result{}

	res.Path = append(res.Path, StageOfflineOCR)
	text, err := p.recognize(ctx, in.Image, lang)
	if err != nil {
		p.logger.Warn("pipeline.offline_ocr.failed", "req_id", rid, "error", err)
		if !p.CanEscalate() {
			return nil, &common.StageError{
				Stage: string(StageOfflineOCR),
				Err:   fmt.Errorf("%w: %w", common.ErrOCRUnavailable, err),
			}
		}
		text = ""
	}

	res.Path = append(res.Path, StageLocalExtract)
	rec := p.parser.ParseText(text)

	res.Path = append(res.Path, StageCheck)
	if IsAnomalous(rec) {
		if p.CanEscalate() {
			p.logger.Info("pipeline.escalate", "req_id", rid,
				"has_total", rec.TotalAmount != nil, "has_vat", rec.VatAmount != nil)
			replacement, raw, err := p.escalate(ctx, in.Image, res)
			if err != nil {
				p.logger.Error("pipeline.escalate.failed", "req_id", rid,
					"stage", common.StageOf(err), "error", err)
				return nil, err
			}
			rec = replacement
			res.Escalated = true
			res.RawResponse = raw
		} else {
			p.logger.Info("pipeline.escalate.skipped", "req_id", rid, "reason", "no cloud or llm collaborator")
		}
	}

	res.Path = append(res.Path, StageAccept)
	res.Receipt = Enrich(rec)
	p.logger.Info("pipeline.accept",
		"req_id", rid,
		"escalated", res.Escalated,
		"products", len(res.Receipt.Products),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) recognize(ctx context.Context, image []byte, lang string) (string, error) {
	if p.offline == nil {
		return "", errors.New("no offline OCR engine configured")
	}
	return p.offline.Recognize(ctx, image, lang)
}

// escalate re-reads the image with cloud OCR and asks the LLM for a full
// replacement record.
func (p *Processor) escalate(ctx context.Context, image []byte, res *Result) (entity.Receipt, string, error) {
	res.Path = append(res.Path, StageCloudOCR)
	var lines []string
	err := p.external(ctx, p.cfg.CloudTimeout, func(ctx context.Context) error {
		var err error
		lines, err = p.cloud.Lines(ctx, image)
		return err
	})
	if err != nil {
		return entity.Receipt{}, "", &common.StageError{Stage: string(StageCloudOCR), Err: err}
	}

	res.Path = append(res.Path, StageLLMExtract)
	var raw string
	err = p.external(ctx, p.cfg.LLMTimeout, func(ctx context.Context) error {
		var err error
		raw, err = p.llm.Extract(ctx, lines)
		return err
	})
	if err != nil {
		return entity.Receipt{}, raw, &common.StageError{Stage: string(StageLLMExtract), Raw: raw, Err: err}
	}

	fields, err := llm.ParseResponse(raw, p.logger)
	if err != nil {
		return entity.Receipt{}, raw, &common.StageError{Stage: string(StageLLMExtract), Raw: raw, Err: err}
	}
	return fields.ToReceipt(), raw, nil
}

// external runs fn under the shared bound on in-flight external calls and
// the given timeout.
func (p *Processor) external(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
