package pkg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// TransferMode selects copy or move semantics.
type TransferMode int

const (
	ModeCopy TransferMode = iota
	ModeMove
)

func (m TransferMode) String() string {
	if m == ModeMove {
		return "move"
	}
	return "copy"
}

// ParseTransferMode accepts "copy" or "move".
func ParseTransferMode(s string) (TransferMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "copy":
		return ModeCopy, nil
	case "move":
		return ModeMove, nil
	default:
		return ModeCopy, fmt.Errorf("unknown transfer mode %q", s)
	}
}

// ErrSourceVanished is returned when a source disappears between the scan
// and its transfer.
var ErrSourceVanished = errors.New("source file vanished")

// TransferFile copies or moves srcPath to destPath, creating the destination
// directory. An existing destination is never overwritten.
func TransferFile(srcPath, destPath string, mode TransferMode) error {
	if _, err := os.Stat(srcPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceVanished, srcPath)
		}
		return fmt.Errorf("failed to stat source file %s: %w", srcPath, err)
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory %s: %w", destDir, err)
	}

	if mode == ModeMove {
		return moveFile(srcPath, destPath)
	}
	return CopyFile(srcPath, destPath)
}

// CopyFile copies a file from srcPath to destPath, preserving the source's
// permission bits and modification time. It fails if destPath exists.
func CopyFile(srcPath, destPath string) error {
	sourceFile, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcPath, err)
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", srcPath, err)
	}

	destinationFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", destPath, err)
	}

	if _, err := io.Copy(destinationFile, sourceFile); err != nil {
		destinationFile.Close()
		os.Remove(destPath)
		return fmt.Errorf("failed to copy content from %s to %s: %w", srcPath, destPath, err)
	}
	if err := destinationFile.Sync(); err != nil {
		destinationFile.Close()
		os.Remove(destPath)
		return fmt.Errorf("failed to sync destination file %s: %w", destPath, err)
	}
	if err := destinationFile.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("failed to close destination file %s: %w", destPath, err)
	}

	if err := os.Chtimes(destPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to preserve timestamps on %s: %w", destPath, err)
	}
	return nil
}

// moveFile renames srcPath, falling back to copy and remove across devices.
func moveFile(srcPath, destPath string) error {
	exists, err := pathExists(destPath)
	if err != nil {
		return fmt.Errorf("failed to check destination %s: %w", destPath, err)
	}
	if exists {
		return fmt.Errorf("destination %s already exists: %w", destPath, os.ErrExist)
	}

	err = os.Rename(srcPath, destPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("failed to move %s to %s: %w", srcPath, destPath, err)
	}

	if err := CopyFile(srcPath, destPath); err != nil {
		return err
	}
	if err := os.Remove(srcPath); err != nil {
		return fmt.Errorf("copied %s to %s but failed to remove source: %w", srcPath, destPath, err)
	}
	return nil
}

// ApplyTimestamps sets the access and modification times of path to t.
func ApplyTimestamps(path string, t time.Time) error {
	if err := os.Chtimes(path, t, t); err != nil {
		return fmt.Errorf("failed to set timestamps on %s: %w", path, err)
	}
	return nil
}
