package blobstore

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// syncConcurrency bounds the number of parallel blob transfers.
const syncConcurrency = 4

// Push uploads every regular file under dir to the store, mirroring the
// directory layout. Hidden files and directories (the lock file, editor
// droppings) are skipped. Returns the number of files uploaded.
//
// Push reads files as they are on disk; close or persist the store
// backing dir first so the uploaded state is consistent.
func Push(ctx context.Context, store BlobStore, dir string) (int, error) {
	files, err := localFiles(dir)
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)

	for _, name := range files {
		g.Go(func() error {
			return pushFile(ctx, store, dir, name)
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	return len(files), nil
}

// Pull downloads every blob from the store into dir, replacing existing
// files. Each file is written via a temporary file and rename, so a
// failed transfer never leaves a truncated file behind. Returns the
// number of files downloaded.
func Pull(ctx context.Context, store BlobStore, dir string) (int, error) {
	names, err := store.List(ctx, "")
	if err != nil {
		return 0, err
	}

	kept := names[:0]
	for _, name := range names {
		if strings.HasPrefix(path.Base(name), ".") {
			continue
		}
		kept = append(kept, name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)

	for _, name := range kept {
		g.Go(func() error {
			return pullBlob(ctx, store, dir, name)
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	return len(kept), nil
}

func pushFile(ctx context.Context, store BlobStore, dir, name string) error {
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	return store.Put(ctx, name, f, info.Size())
}

func pullBlob(ctx context.Context, store BlobStore, dir, name string) error {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return err
	}
	defer func() { _ = blob.Close() }()

	target := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".pull-*")
	if err != nil {
		return err
	}

	_, err = io.Copy(tmp, io.NewSectionReader(blob, 0, blob.Size()))
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), target)
}

// localFiles returns the slash-separated relative paths of all regular
// files under dir, skipping hidden files and directories.
func localFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}

		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
