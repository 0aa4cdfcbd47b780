package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize skips files unlikely to be notes.
const DefaultMaxFileSize = 4 << 20

// ScannerOptions configures a Scanner.
type ScannerOptions struct {
	// MaxFileSize skips larger files. Zero means DefaultMaxFileSize.
	MaxFileSize int64
}

// DefaultScannerOptions are the recommended scanner options.
var DefaultScannerOptions = ScannerOptions{
	MaxFileSize: DefaultMaxFileSize,
}

// Scanner walks a vault directory and yields its markdown files as
// documents. Hidden directories such as .obsidian are skipped.
type Scanner struct {
	name        string
	root        string
	maxFileSize int64
}

var _ Source = (*Scanner)(nil)

// NewScanner returns a Scanner named name over the directory root. The
// root must exist.
func NewScanner(name, root string, optFns ...func(o *ScannerOptions)) (*Scanner, error) {
	opts := DefaultScannerOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	if name == "" {
		return nil, fmt.Errorf("vault: vault name is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("vault: %s: %w", name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: %s: %s is not a directory", name, root)
	}

	return &Scanner{name: name, root: root, maxFileSize: opts.MaxFileSize}, nil
}

// Name implements Source.
func (s *Scanner) Name() string {
	return s.name
}

// Documents implements Source. Files come back in lexical path order.
func (s *Scanner) Documents(ctx context.Context) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("vault: %s: stat %s: %w", s.name, path, err)
		}
		if info.Size() > s.maxFileSize {
			return nil
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("vault: %s: read %s: %w", s.name, path, err)
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return fmt.Errorf("vault: %s: relativize %s: %w", s.name, path, err)
		}
		rel = filepath.ToSlash(rel)

		doc := parseDocument(src)
		doc.Path = rel
		doc.Vault = s.name
		doc.Fingerprint = Fingerprint(rel, info.ModTime())
		if doc.Title == "" {
			base := d.Name()
			doc.Title = strings.TrimSuffix(base, filepath.Ext(base))
		}

		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
