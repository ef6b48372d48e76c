// Package app wires the extraction pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/extract"
	"github.com/joseph-ayodele/receipts-extractor/internal/llm/gemini"
	"github.com/joseph-ayodele/receipts-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/receipts-extractor/internal/ocr"
	"github.com/joseph-ayodele/receipts-extractor/internal/ocr/tessapi"
	"github.com/joseph-ayodele/receipts-extractor/internal/parse"
	"github.com/joseph-ayodele/receipts-extractor/internal/pipeline"
	"github.com/joseph-ayodele/receipts-extractor/internal/vision"
)

// NewLogger returns a JSON slog logger at the named level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// OCRBackend selects the offline OCR backend named by cfg.Engine.
func OCRBackend(cfg common.OCRConfig, logger *slog.Logger) (ocr.Backend, error) {
	switch cfg.Engine {
	case "exec", "":
		return &ocr.TesseractCLI{
			Path:        cfg.TesseractPath,
			TessdataDir: cfg.TessdataDir,
			Runner:      ocr.ExecRunner{Logger: logger},
		}, nil
	case "gosseract":
		return &tessapi.Backend{TessdataPrefix: cfg.TessdataDir}, nil
	default:
		return nil, common.NewValidationError(fmt.Sprintf("unknown OCR engine %q", cfg.Engine))
	}
}

// Pipeline holds the processor and the clients it owns.
type Pipeline struct {
	Processor *pipeline.Processor
	Parser    *parse.Parser
	closers   []func() error
}

func (p *Pipeline) Close() {
	for _, c := range p.closers {
		_ = c()
	}
}

// BuildPipeline wires offline OCR, and cloud OCR plus LLM extraction when
// both are configured. Without them anomalous receipts are accepted as
// parsed.
func BuildPipeline(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backend, err := OCRBackend(cfg.OCR, logger)
	if err != nil {
		return nil, err
	}
	engine := ocr.NewEngine(ocr.Config{Language: cfg.OCR.Language, Preprocess: cfg.OCR.Preprocess}, backend, logger)
	offline := extract.NewOCRAdapter(engine, logger)

	out := &Pipeline{
		Parser: parse.New(parse.WithFuzzyThreshold(cfg.Pipeline.FuzzyThreshold), parse.WithLogger(logger)),
	}

	var cloud extract.LineDetector
	var structured extract.StructuredExtractor
	if cfg.EscalationEnabled() {
		vc, err := vision.NewClient(ctx, cfg.Vision.APIKey, logger)
		if err != nil {
			return nil, fmt.Errorf("vision client: %w", err)
		}
		cloud = vc

		switch cfg.LLM.Provider {
		case "openai":
			structured = openai.NewClient(openai.Config{
				APIKey:      cfg.LLM.OpenAIKey,
				BaseURL:     cfg.LLM.OpenAIURL,
				Model:       cfg.LLM.OpenAIModel,
				Temperature: cfg.LLM.Temperature,
				Timeout:     cfg.LLM.Timeout,
			}, logger)
		case "gemini":
			gc, err := gemini.NewClient(ctx, gemini.Config{
				APIKey:      cfg.LLM.GeminiKey,
				Model:       cfg.LLM.GeminiModel,
				Temperature: cfg.LLM.Temperature,
			}, logger)
			if err != nil {
				return nil, fmt.Errorf("gemini client: %w", err)
			}
			structured = gc
			out.closers = append(out.closers, gc.Close)
		}
		logger.Info("pipeline.escalation.enabled", "llm", cfg.LLM.Provider)
	} else {
		logger.Warn("pipeline.escalation.disabled", "reason", "VISION_API_KEY or LLM key missing")
	}

	out.Processor = pipeline.NewProcessor(pipeline.Config{
		Language:         cfg.OCR.Language,
		MaxExternalCalls: int64(cfg.Pipeline.MaxExternalCalls),
		CloudTimeout:     cfg.Vision.Timeout,
		LLMTimeout:       cfg.LLM.Timeout,
	}, offline, cloud, structured, out.Parser, logger)
	return out, nil
}
