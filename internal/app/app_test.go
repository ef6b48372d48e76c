package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/ocr"
	"github.com/joseph-ayodele/receipts-extractor/internal/ocr/tessapi"
)

func TestOCRBackend(t *testing.T) {
	b, err := OCRBackend(common.OCRConfig{Engine: "exec", TesseractPath: "/usr/bin/tesseract"}, nil)
	require.NoError(t, err)
	cli, ok := b.(*ocr.TesseractCLI)
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/tesseract", cli.Path)

	b, err = OCRBackend(common.OCRConfig{Engine: "gosseract", TessdataDir: "/tessdata"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tessdata", b.(*tessapi.Backend).TessdataPrefix)

	_, err = OCRBackend(common.OCRConfig{Engine: "paddle"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestBuildPipeline_WithoutEscalation(t *testing.T) {
	cfg := &common.Config{
		OCR:      common.OCRConfig{Engine: "exec", Language: "tur+eng"},
		LLM:      common.LLMConfig{Provider: "openai"},
		Pipeline: common.PipelineConfig{MaxExternalCalls: 2, FuzzyThreshold: 0.2},
	}
	p, err := BuildPipeline(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer p.Close()
	assert.False(t, p.Processor.CanEscalate())
	assert.NotNil(t, p.Parser)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	NewLogger(&buf, "nonsense").Info("info.default")
	assert.Contains(t, buf.String(), "info.default")
}
