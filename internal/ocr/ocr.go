package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

// Backend turns a preprocessed PNG into raw text.
type Backend interface {
	Text(ctx context.Context, png []byte, lang string) (string, error)
}

type Config struct {
	Language   string // default "tur+eng"
	Preprocess bool
	MinWidth   int // images narrower than this are upscaled before OCR, default 1200
}

// Engine is the offline OCR collaborator: it accepts JPEG/PNG/HEIC images and
// text-layer PDFs and returns normalized text.
type Engine struct {
	cfg     Config
	backend Backend
	logger  *slog.Logger
}

func NewEngine(cfg Config, backend Backend, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = constants.DefaultLanguage
	}
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = 1200
	}
	return &Engine{cfg: cfg, backend: backend, logger: logger}
}

// ErrNoTextLayer is returned for PDFs without embedded text.
var ErrNoTextLayer = errors.New("pdf has no text layer")

// Recognize returns the normalized text of data. lang overrides the
// configured language hint when non-empty.
func (e *Engine) Recognize(ctx context.Context, data []byte, lang string) (string, error) {
	start := time.Now()
	if lang == "" {
		lang = e.cfg.Language
	}

	format := Sniff(data)
	switch format {
	case constants.FormatPDF:
		text, pages, err := PDFText(data)
		if err != nil {
			return "", err
		}
		if len(Lines(text)) == 0 {
			return "", fmt.Errorf("%w: %w", common.ErrUnsupportedFormat, ErrNoTextLayer)
		}
		e.logger.Debug("ocr.pdf.text", "pages", pages, "duration_ms", time.Since(start).Milliseconds())
		return Normalize(text), nil
	case "":
		return "", fmt.Errorf("%w: unrecognized image data", common.ErrUnsupportedFormat)
	}

	img, err := DecodeImage(data, format)
	if err != nil {
		return "", err
	}
	if e.cfg.Preprocess {
		img = Preprocess(img, e.cfg.MinWidth)
	}
	png, err := EncodePNG(img)
	if err != nil {
		return "", err
	}

	raw, err := e.backend.Text(ctx, png, lang)
	if err != nil {
		return "", fmt.Errorf("ocr backend: %w", err)
	}
	text := Normalize(raw)
	e.logger.Debug("ocr.image.ok",
		"format", format,
		"lang", lang,
		"chars", len(text),
		"confidence", HeuristicConfidence(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
