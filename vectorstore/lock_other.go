//go:build !unix

package vectorstore

import (
	"fmt"
	"os"
)

// fileLock approximates flock on platforms without it by creating the
// lock file exclusively. Stale files from crashed processes must be
// removed by hand.
type fileLock struct {
	path string
}

func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("vectorstore: create lock file: %w", err)
	}
	f.Close()
	return &fileLock{path: path}, nil
}

func (l *fileLock) release() error {
	if l == nil || l.path == "" {
		return nil
	}
	path := l.path
	l.path = ""
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vectorstore: release lock: %w", err)
	}
	return nil
}
