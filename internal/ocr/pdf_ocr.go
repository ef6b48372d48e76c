package ocr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// PDFText reads the embedded text layer of a PDF. Scanned PDFs yield "".
func PDFText(data []byte) (text string, pages int, err error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", 0, fmt.Errorf("pdf text: %w", err)
	}
	return string(b), r.NumPage(), nil
}
