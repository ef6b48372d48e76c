// Package vision is the cloud OCR collaborator backed by Google Cloud Vision
// text detection.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/ocr"
)

const featureTextDetection = "TEXT_DETECTION"

type Client struct {
	svc    *visionapi.Service
	logger *slog.Logger
}

// NewClient builds a Vision client authenticated with an API key. Extra
// options (endpoint, HTTP client) are appended after the key.
func NewClient(ctx context.Context, apiKey string, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}
	svc, err := visionapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}
	return &Client{svc: svc, logger: logger}, nil
}

// Lines implements extract.LineDetector. HEIC input is converted to PNG
// first; PDFs are rejected.
func (c *Client) Lines(ctx context.Context, image []byte) ([]string, error) {
	start := time.Now()
	rid := common.RequestIDFromContext(ctx)

	payload, err := c.prepare(image)
	if err != nil {
		return nil, err
	}

	req := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{{
			Image:        &visionapi.Image{Content: base64.StdEncoding.EncodeToString(payload)},
			Features:     []*visionapi.Feature{{Type: featureTextDetection}},
			ImageContext: &visionapi.ImageContext{LanguageHints: []string{"tr", "en"}},
		}},
	}
	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		c.logger.Error("vision.annotate.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, nil
	}
	res := resp.Responses[0]
	if res.Error != nil && res.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate: %s (code %d)", res.Error.Message, res.Error.Code)
	}

	lines := ReconstructLines(res.TextAnnotations)
	if len(lines) == 0 && len(res.TextAnnotations) > 0 {
		lines = ocr.Lines(res.TextAnnotations[0].Description)
	}
	c.logger.Info("vision.annotate.ok",
		"req_id", rid,
		"annotations", len(res.TextAnnotations),
		"lines", len(lines),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return lines, nil
}

func (c *Client) prepare(image []byte) ([]byte, error) {
	switch ocr.Sniff(image) {
	case constants.FormatImage:
		return image, nil
	case constants.FormatHEIC:
		img, err := ocr.DecodeImage(image, constants.FormatHEIC)
		if err != nil {
			return nil, err
		}
		return ocr.EncodePNG(img)
	case constants.FormatPDF:
		return nil, fmt.Errorf("%w: cloud OCR accepts images only", common.ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: unrecognized image data", common.ErrUnsupportedFormat)
	}
}

// FullText joins reconstructed lines; handy for logs and the runocr CLI.
func FullText(lines []string) string {
	return strings.Join(lines, "\n")
}
