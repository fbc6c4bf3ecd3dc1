package movies

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
)

// StorageKey is the path of a version relative to the storage root.
func StorageKey(movieID, versionID uuid.UUID, ext string) string {
	return "assets/" + movieID.String() + "/" + versionID.String() + ext
}

// moveFile renames src to dst, creating dst's parent directories. Moves
// across filesystems fall back to copy and remove.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("rename %s: %w", filepath.Base(src), err)
	}

	return copyThenRemove(src, dst, os.Remove)
}

// copyThenRemove copies src to dst and removes src with remove. dst does not
// survive a failure of either step.
func copyThenRemove(src, dst string, remove func(string) error) error {
	if err := copyFile(src, dst); err != nil {
		os.Remove(dst)
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	if err := remove(src); err != nil {
		os.Remove(dst)
		return fmt.Errorf("remove %s: %w", filepath.Base(src), err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// removeQuietly deletes path and ignores a missing file.
func removeQuietly(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
