package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

// MaxFileSize bounds a single receipt file.
const MaxFileSize = 20 << 20

// ReadFile loads a receipt file and hashes its content.
func ReadFile(path string) (File, error) {
	ext := filepath.Ext(path)
	format, ok := constants.FormatForExt(ext)
	if !ok {
		return File{}, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return File{}, fmt.Errorf("read: %w", err)
	}
	if len(data) > MaxFileSize {
		return File{}, common.NewValidationError(fmt.Sprintf("%s is larger than %d bytes", filepath.Base(path), MaxFileSize))
	}
	if len(data) == 0 {
		return File{}, common.NewValidationError(filepath.Base(path) + " is empty")
	}

	sum := sha256.Sum256(data)
	return File{
		Path:    path,
		Name:    filepath.Base(path),
		Format:  format,
		Data:    data,
		HashHex: hex.EncodeToString(sum[:]),
	}, nil
}

// ScanDirectory walks root and returns the receipt files under it in
// lexical order. Unreadable entries are counted as failed and skipped.
func ScanDirectory(ctx context.Context, root string, skipHidden bool) ([]string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.NewValidationError("root path is required")
	}

	var paths []string
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, stats, err
		}
		return nil, stats, fmt.Errorf("walk: %w", err)
	}
	sort.Strings(paths)
	return paths, stats, nil
}
