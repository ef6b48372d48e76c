// Package tessapi binds the tesseract C API through gosseract. It needs cgo
// and libtesseract at build time; the exec backend in package ocr does not.
package tessapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Backend implements ocr.Backend with an in-process tesseract client.
// A fresh client is created per call since gosseract clients are not
// safe for concurrent use.
type Backend struct {
	TessdataPrefix string
	PageSegMode    gosseract.PageSegMode
}

func (b *Backend) Text(ctx context.Context, png []byte, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if b.TessdataPrefix != "" {
		client.SetTessdataPrefix(b.TessdataPrefix)
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return "", fmt.Errorf("tesseract language %q: %w", lang, err)
	}
	if b.PageSegMode != 0 {
		if err := client.SetPageSegMode(b.PageSegMode); err != nil {
			return "", fmt.Errorf("tesseract psm: %w", err)
		}
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
