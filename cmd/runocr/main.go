package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/receipts-extractor/internal/app"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/ingest"
	"github.com/joseph-ayodele/receipts-extractor/internal/ocr"
	"github.com/joseph-ayodele/receipts-extractor/internal/pipeline"
)

func main() {
	fs := ff.NewFlagSet("runocr")
	var (
		file     = fs.StringLong("file", "", "receipt image or PDF (required)")
		lang     = fs.StringLong("lang", "", "tesseract language hint (default OCR_LANG)")
		escalate = fs.BoolLong("escalate", "allow cloud OCR + LLM escalation when configured")
		textOnly = fs.BoolLong("text-only", "print the offline OCR text and exit")
		timeout  = fs.DurationLong("timeout", 2*time.Minute, "overall timeout")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("RECEIPTS")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if *file == "" {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if *lang != "" {
		cfg.OCR.Language = *lang
	}
	if !*escalate {
		cfg.Vision.APIKey = ""
	}
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	f, err := ingest.ReadFile(*file)
	if err != nil {
		logger.Error("read file", "path", *file, "error", err)
		os.Exit(1)
	}

	start := time.Now()
	if *textOnly {
		backend, err := app.OCRBackend(cfg.OCR, logger)
		if err != nil {
			logger.Error("ocr backend", "error", err)
			os.Exit(1)
		}
		engine := ocr.NewEngine(ocr.Config{Language: cfg.OCR.Language, Preprocess: cfg.OCR.Preprocess}, backend, logger)
		text, err := engine.Recognize(ctx, f.Data, "")
		if err != nil {
			logger.Error("text extraction failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
			os.Exit(1)
		}
		fmt.Println(text)
		return
	}

	pipe, err := app.BuildPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer pipe.Close()

	res, err := pipe.Processor.Process(ctx, pipeline.Input{Image: f.Data})
	if err != nil {
		logger.Error("extraction failed",
			"stage", common.StageOf(err),
			"raw", common.RawResponseOf(err),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
}
