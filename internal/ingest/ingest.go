package ingest

import (
	"context"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

// File is a receipt file read from disk.
type File struct {
	Path    string
	Name    string
	Format  constants.FileFormat
	Data    []byte
	HashHex string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// Submitter accepts a receipt image for asynchronous extraction.
type Submitter interface {
	Submit(ctx context.Context, fileName string, image []byte, lang string) (*entity.Job, error)
}
