package extract

import "context"

// TextRecognizer is the offline OCR collaborator: image bytes -> raw text.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte, lang string) (string, error)
}

// LineDetector is the cloud OCR collaborator: image bytes -> text lines in
// reading order.
type LineDetector interface {
	Lines(ctx context.Context, image []byte) ([]string, error)
}

// StructuredExtractor is the LLM collaborator: OCR lines -> a raw JSON
// response describing the receipt.
type StructuredExtractor interface {
	Extract(ctx context.Context, lines []string) (string, error)
}

// RecognizerFunc adapts a plain function to TextRecognizer.
type RecognizerFunc func(ctx context.Context, image []byte, lang string) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	return f(ctx, image, lang)
}

// LinesFunc adapts a plain function to LineDetector.
type LinesFunc func(ctx context.Context, image []byte) ([]string, error)

func (f LinesFunc) Lines(ctx context.Context, image []byte) ([]string, error) {
	return f(ctx, image)
}

// ExtractorFunc adapts a plain function to StructuredExtractor.
type ExtractorFunc func(ctx context.Context, lines []string) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, lines []string) (string, error) {
	return f(ctx, lines)
}
