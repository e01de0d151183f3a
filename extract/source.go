// Package extract turns ingestion origins (uploaded files, Wikipedia
// topics) into plain text ready for chunking.
package extract

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupportedFileType is returned for uploads that are neither
	// PDF nor plain text.
	ErrUnsupportedFileType = errors.New("unsupported file type, use PDF or TXT")

	// ErrEmptyContent is returned when no text could be extracted.
	ErrEmptyContent = errors.New("no text could be extracted")
)

// Meta carries source-level metadata alongside the extracted text.
type Meta struct {
	Filename  string
	PageCount int
}

// Source is an ingestion origin. Extract may perform network or file
// IO and honors ctx cancellation.
type Source interface {
	Extract(ctx context.Context) (string, Meta, error)
}

// NewDocumentID derives a stable-ish document id from the filename, a
// content prefix and the ingestion time.
func NewDocumentID(filename, text string, now time.Time) string {
	prefix := text
	if len(prefix) > 1000 {
		prefix = prefix[:1000]
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%s", filename, prefix, now.Format(time.RFC3339Nano))))
	return hex.EncodeToString(sum[:])
}
