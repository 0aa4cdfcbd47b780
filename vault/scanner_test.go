package vault

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScannerDocuments(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "welcome.md", `---
title: Welcome Note
tags: [intro, home]
---
# Hello

Some **bold** text with [link](https://example.com).
`)
	writeFile(t, root, "sub/nested.md", "Nested content here.\n")
	writeFile(t, root, ".obsidian/app.md", "hidden config\n")
	writeFile(t, root, "notes.txt", "not markdown\n")
	writeFile(t, root, "big.md", strings.Repeat("x", 300))

	scanner, err := NewScanner("personal", root, func(o *ScannerOptions) {
		o.MaxFileSize = 256
	})
	require.NoError(t, err)
	assert.Equal(t, "personal", scanner.Name())

	docs, err := scanner.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2, "hidden, oversized and non-markdown files are skipped")

	nested := docs[0]
	assert.Equal(t, "sub/nested.md", nested.Path)
	assert.Equal(t, "personal", nested.Vault)
	assert.Equal(t, "nested", nested.Title, "title falls back to the file name stem")
	assert.Equal(t, "Nested content here.", nested.Text)
	assert.Nil(t, nested.Extra)

	welcome := docs[1]
	assert.Equal(t, "welcome.md", welcome.Path)
	assert.Equal(t, "Welcome Note", welcome.Title)
	assert.Equal(t, "Hello\nSome bold text with link.", welcome.Text)
	assert.Equal(t, map[string]string{"tags": "[intro home]"}, welcome.Extra)

	info, err := os.Stat(filepath.Join(root, "welcome.md"))
	require.NoError(t, err)
	assert.Equal(t, Fingerprint("welcome.md", info.ModTime()), welcome.Fingerprint)
}

func TestScannerFingerprintTracksModTime(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := writeFile(t, root, "note.md", "content\n")

	scanner, err := NewScanner("v", root)
	require.NoError(t, err)

	before, err := scanner.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	after, err := scanner.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)

	assert.NotEqual(t, before[0].Fingerprint, after[0].Fingerprint, "touching a file changes its fingerprint")
	assert.Equal(t, before[0].Text, after[0].Text)
}

func TestScannerCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "note.md", "content\n")

	scanner, err := NewScanner("v", root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = scanner.Documents(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewScannerValidation(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := NewScanner("v", filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("root is a file", func(t *testing.T) {
		root := t.TempDir()
		path := writeFile(t, root, "file.md", "x")
		_, err := NewScanner("v", path)
		assert.Error(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := NewScanner("", t.TempDir())
		assert.Error(t, err)
	})
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("a.md", time.Unix(1, 500))
	assert.Equal(t, "a.md:1000000500", fp)

	assert.NotEqual(t, fp, Fingerprint("b.md", time.Unix(1, 500)))
	assert.NotEqual(t, fp, Fingerprint("a.md", time.Unix(1, 501)))
}
