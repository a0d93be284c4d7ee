package pkg

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
)

// CalculateFileHash calculates the SHA-256 hash of a file's content.
func CalculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s for hashing: %w", filePath, err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", filePath, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// GetImageResolution decodes only the image header to get width and height.
// Any format with a registered decoder is supported, HEIF included.
func GetImageResolution(filePath string) (width int, height int, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image file %s for resolution: %w", filePath, err)
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image config for %s: %w", filePath, err)
	}
	return config.Width, config.Height, nil
}

// DeleteOutcome is the result of removing one file.
type DeleteOutcome struct {
	Path string
	Err  error
}

// DeleteFiles removes each regular file in paths. A failure on one path does
// not stop the others. Directories are refused.
func DeleteFiles(paths []string, logger *slog.Logger) []DeleteOutcome {
	logger = loggerOrDiscard(logger)
	outcomes := make([]DeleteOutcome, 0, len(paths))
	for _, p := range paths {
		err := deleteFile(p)
		if err != nil {
			logger.Warn("failed to delete file", "path", p, "error", err)
		} else {
			logger.Info("deleted file", "path", p)
		}
		outcomes = append(outcomes, DeleteOutcome{Path: p, Err: err})
	}
	return outcomes
}

func deleteFile(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceVanished, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("refusing to delete directory %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}
