// Package vault reads markdown documents out of note vaults: directories
// of .md files with optional YAML front matter. Scanned documents carry a
// modification fingerprint so ingestion can skip unchanged files without
// reading content twice.
package vault

import (
	"context"
	"fmt"
	"time"
)

// Document is one markdown file prepared for ingestion.
type Document struct {
	// Title comes from front matter, falling back to the file name stem.
	Title string
	// Path is slash-separated and relative to the vault root.
	Path string
	// Vault names the vault the document came from.
	Vault string
	// Text is the extracted plain text, NFC-normalized.
	Text string
	// Fingerprint identifies this revision of the file.
	Fingerprint string
	// Extra holds front matter fields without a dedicated column.
	Extra map[string]string
}

// Source yields documents for ingestion.
type Source interface {
	// Documents returns every document in the source, in stable order.
	Documents(ctx context.Context) ([]Document, error)
	// Name identifies the source for logs and metadata records.
	Name() string
}

// Fingerprint identifies a file revision by path and modification time,
// not content. Touching a file re-embeds it even when the text is
// unchanged; editing it in place with a preserved mtime goes unnoticed.
func Fingerprint(path string, modTime time.Time) string {
	return fmt.Sprintf("%s:%d", path, modTime.UnixNano())
}
