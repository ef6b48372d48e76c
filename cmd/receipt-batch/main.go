package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/receipts-extractor/internal/app"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
	"github.com/joseph-ayodele/receipts-extractor/internal/export"
	"github.com/joseph-ayodele/receipts-extractor/internal/ingest"
	"github.com/joseph-ayodele/receipts-extractor/internal/pipeline"
	"github.com/joseph-ayodele/receipts-extractor/internal/repository"
	"github.com/joseph-ayodele/receipts-extractor/internal/rules"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type outcome struct {
	path    string
	receipt entity.Receipt
	valid   bool
	reason  string
}

func main() {
	fs := ff.NewFlagSet("receipt-batch")
	var (
		dir        = fs.StringLong("dir", "", "directory to process receipts from (required)")
		out        = fs.StringLong("out", "", "output XLSX file path (defaults to <dir>/../fisler.xlsx)")
		workers    = fs.IntLong("workers", 4, "receipts processed concurrently")
		lang       = fs.StringLong("lang", "", "tesseract language hint (default OCR_LANG)")
		rulesStr   = fs.StringLong("rules", "", "acceptance rules, e.g. MIN_AMOUNT_LIMIT=0;MAX_AMOUNT_LIMIT=1000")
		dbPath     = fs.StringLong("db", "", "optional SQLite file to store every extracted receipt in")
		skipHidden = fs.BoolLong("skip-hidden", "skip hidden files and directories")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("RECEIPTS")); err != nil {
		printError("%s\n", ffhelp.Flags(fs))
		printError("error: %v\n", err)
		os.Exit(1)
	}
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "fisler.xlsx")
	}
	userRules, err := rules.Parse(*rulesStr)
	if err != nil {
		printError("Error: invalid --rules: %v\n", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	if *lang != "" {
		cfg.OCR.Language = *lang
	}
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe, err := app.BuildPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer pipe.Close()

	var store repository.ReceiptStore
	if *dbPath != "" {
		db, err := repository.OpenSQLite(*dbPath, logger)
		if err != nil {
			logger.Error("failed to open sqlite", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		s, err := repository.NewSQLStore(ctx, db, repository.DialectSQLite, logger)
		if err != nil {
			logger.Error("failed to migrate sqlite", "error", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	paths, stats, err := ingest.ScanDirectory(ctx, *dir, *skipHidden)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("batch.scan.ok", "dir", *dir, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)

	start := time.Now()
	results := make([]*outcome, len(paths))
	var mu sync.Mutex
	var failures []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			o, err := processOne(gctx, pipe.Processor, userRules, store, path, cfg.OCR.Language)
			if err != nil {
				logger.Error("batch.file.failed", "path", path, "stage", common.StageOf(err), "error", err)
				mu.Lock()
				failures = append(failures, path)
				mu.Unlock()
				return nil
			}
			results[i] = o
			return nil
		})
	}
	_ = g.Wait()

	accepted := make([]entity.Receipt, 0, len(results))
	rejected := 0
	for _, o := range results {
		if o == nil {
			continue
		}
		if !o.valid {
			rejected++
			logger.Info("batch.file.rejected", "path", o.path, "reason", o.reason)
			continue
		}
		accepted = append(accepted, o.receipt)
	}

	xlsx, err := export.NewService(logger).ExportXLSX(ctx, accepted)
	if err != nil {
		logger.Error("failed to export receipts", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch.done",
		"files", len(paths),
		"accepted", len(accepted),
		"rejected", rejected,
		"failures", len(failures),
		"elapsed_ms", time.Since(start).Milliseconds(),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files found: %d\n", len(paths))
	fmt.Printf("- Accepted: %d\n", len(accepted))
	fmt.Printf("- Rejected by rules: %d\n", rejected)
	fmt.Printf("- Failures: %d\n", len(failures))
	fmt.Printf("- Output: %s\n", *out)
	if len(failures) > 0 {
		os.Exit(3)
	}
}

func processOne(ctx context.Context, proc *pipeline.Processor, r rules.Rules, store repository.ReceiptStore, path, lang string) (*outcome, error) {
	f, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := proc.Process(ctx, pipeline.Input{Image: f.Data, Language: lang})
	if err != nil {
		return nil, err
	}
	valid, reason := r.Validate(res.Receipt)
	if store != nil {
		if err := store.Save(ctx, f.HashHex, res.Receipt, valid, reason); err != nil {
			return nil, err
		}
	}
	return &outcome{path: path, receipt: res.Receipt, valid: valid, reason: reason}, nil
}
