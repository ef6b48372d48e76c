package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/ocr"
)

// OCRAdapter exposes an ocr.Engine as a TextRecognizer and logs each call
// with its request id.
type OCRAdapter struct {
	e      *ocr.Engine
	logger *slog.Logger
}

func NewOCRAdapter(e *ocr.Engine, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{e: e, logger: logger}
}

func (a *OCRAdapter) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	start := time.Now()
	text, err := a.e.Recognize(ctx, image, lang)
	attrs := []any{
		"req_id", common.RequestIDFromContext(ctx),
		"bytes", len(image),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		a.logger.Warn("ocr.recognize.failed", append(attrs, "error", err)...)
		return "", err
	}
	a.logger.Info("ocr.recognize.ok", append(attrs, "chars", len(text), "confidence", ocr.HeuristicConfidence(text))...)
	return text, nil
}
