package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/receipts-extractor/constants"
)

// AllowedExt checks if a file extension is an accepted receipt format.
func AllowedExt(ext string) bool {
	_, ok := constants.FormatForExt(ext)
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && strings.HasPrefix(base, ".")
}
