package fstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Atomic File Replacement
// --------------------------------------------------------------------------

// writeFileAtomic durably replaces the contents of path with data, or
// leaves path unchanged. The data is written to a temporary sibling file,
// synced to stable storage, closed and renamed onto path, so path never
// contains a partial write.
//
// If the rename fails because the destination is held in a way that
// prevents atomic replacement (exist/permission class errors on some
// platforms), the destination is removed and the rename retried once.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	// Temp name includes process identity, timestamp and a random component
	// so concurrent processes never collide on it.
	tmpPath := filepath.Join(dir, fmt.Sprintf(
		".%s.%d.%d.%s.tmp",
		filepath.Base(path), os.Getpid(), time.Now().UnixNano(), uuid.NewString()[:8],
	))

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	cleanup := true
	defer func() {
		if cleanup {
			removeTempFile(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Force the data to stable storage before the rename makes it visible
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) || errors.Is(err, fs.ErrPermission) {
			// Destination held - remove it and retry the rename once
			_ = os.Remove(path)
			err = os.Rename(tmpPath, path)
		}
		if err != nil {
			return fmt.Errorf("failed to replace store file: %w", err)
		}
	}

	cleanup = false
	return nil
}

// removeTempFile deletes a leftover temp file. Failure to clean up is
// logged but never escalated.
func removeTempFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warnf("failed to remove temp file %s: %v", path, err)
	}
}
