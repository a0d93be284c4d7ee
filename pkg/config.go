package pkg

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrInvalidConfig is returned when a configuration value is unusable.
var ErrInvalidConfig = errors.New("invalid configuration")

const defaultConfigLocation = "~/.config/photosort/config.toml"

// ExtensionsConfig lists the recognised file extensions.
type ExtensionsConfig struct {
	Images []string `toml:"images"`
	Videos []string `toml:"videos"`
}

// DatesConfig controls path-based date inference.
type DatesConfig struct {
	PathPatterns      []string `toml:"path_patterns"`
	DirectoryFallback bool     `toml:"directory_fallback"`
	Timezone          string   `toml:"timezone"` // IANA name; empty means local time
}

// OrganizeConfig controls batch organizing.
type OrganizeConfig struct {
	Mode               string `toml:"mode"`
	UnsortedDir        string `toml:"unsorted_dir"`
	ReportName         string `toml:"report_name"`
	PreserveTimestamps bool   `toml:"preserve_timestamps"`
	Workers            int    `toml:"workers"`
}

// SimilarityConfig controls near-duplicate detection.
type SimilarityConfig struct {
	Mode      string `toml:"mode"`
	Threshold int    `toml:"threshold"`
	Workers   int    `toml:"workers"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full photosort configuration.
type Config struct {
	Extensions ExtensionsConfig `toml:"extensions"`
	Dates      DatesConfig      `toml:"dates"`
	Organize   OrganizeConfig   `toml:"organize"`
	Similarity SimilarityConfig `toml:"similarity"`
	Logging    LoggingConfig    `toml:"logging"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	exts := DefaultExtensions()
	return Config{
		Extensions: ExtensionsConfig{
			Images: exts.ImageList(),
			Videos: exts.VideoList(),
		},
		Dates: DatesConfig{
			PathPatterns:      append([]string(nil), DefaultPathPatterns...),
			DirectoryFallback: true,
		},
		Organize: OrganizeConfig{
			Mode:        ModeCopy.String(),
			UnsortedDir: DefaultUnsortedDir,
			ReportName:  DefaultReportName,
			Workers:     4,
		},
		Similarity: SimilarityConfig{
			Mode:      GroupExact.String(),
			Threshold: DefaultSimilarityThreshold,
			Workers:   4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigLocation)
}

// LoadConfig reads path (the default location when empty) over the defaults,
// then normalises and validates the result. A missing file yields defaults.
// The resolved path and whether it existed are returned alongside.
func LoadConfig(path string) (*Config, string, bool, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = defaultConfigLocation
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, "", false, err
	}

	exists := true
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, resolved, err)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func (c *Config) normalize() {
	c.Organize.Mode = strings.ToLower(strings.TrimSpace(c.Organize.Mode))
	c.Organize.UnsortedDir = strings.TrimSpace(c.Organize.UnsortedDir)
	if c.Organize.UnsortedDir == "" {
		c.Organize.UnsortedDir = DefaultUnsortedDir
	}
	c.Organize.ReportName = strings.TrimSpace(c.Organize.ReportName)
	if c.Organize.ReportName == "" {
		c.Organize.ReportName = DefaultReportName
	}
	c.Similarity.Mode = strings.ToLower(strings.TrimSpace(c.Similarity.Mode))
	if c.Similarity.Threshold == 0 {
		c.Similarity.Threshold = DefaultSimilarityThreshold
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Dates.Timezone = strings.TrimSpace(c.Dates.Timezone)
}

// Validate rejects values that cannot drive a run.
func (c *Config) Validate() error {
	if len(c.Extensions.Images) == 0 && len(c.Extensions.Videos) == 0 {
		return fmt.Errorf("%w: extensions.images and extensions.videos are both empty", ErrInvalidConfig)
	}
	if _, err := NewPathDateInferrer(c.Dates.PathPatterns, nil); err != nil {
		return fmt.Errorf("%w: dates.path_patterns: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := ParseTransferMode(c.Organize.Mode); err != nil {
		return fmt.Errorf("%w: organize.mode: %v", ErrInvalidConfig, err)
	}
	if strings.ContainsAny(c.Organize.UnsortedDir, `/\`) || c.Organize.UnsortedDir == "." || c.Organize.UnsortedDir == ".." {
		return fmt.Errorf("%w: organize.unsorted_dir %q must be a single directory name", ErrInvalidConfig, c.Organize.UnsortedDir)
	}
	if strings.ContainsAny(c.Organize.ReportName, `/\`) {
		return fmt.Errorf("%w: organize.report_name %q must be a file name", ErrInvalidConfig, c.Organize.ReportName)
	}
	if c.Organize.Workers < 1 {
		return fmt.Errorf("%w: organize.workers must be at least 1", ErrInvalidConfig)
	}
	if _, err := ParseGroupingMode(c.Similarity.Mode); err != nil {
		return fmt.Errorf("%w: similarity.mode: %v", ErrInvalidConfig, err)
	}
	if c.Similarity.Threshold < MinSimilarityThreshold || c.Similarity.Threshold > MaxSimilarityThreshold {
		return fmt.Errorf("%w: similarity.threshold must be between %d and %d", ErrInvalidConfig, MinSimilarityThreshold, MaxSimilarityThreshold)
	}
	if c.Similarity.Workers < 1 {
		return fmt.Errorf("%w: similarity.workers must be at least 1", ErrInvalidConfig)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// Location returns the configured time zone, time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Dates.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Dates.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: dates.timezone: %v", ErrInvalidConfig, err)
	}
	return loc, nil
}

// MediaExtensions returns the configured extension sets.
func (c *Config) MediaExtensions() Extensions {
	return NewExtensions(c.Extensions.Images, c.Extensions.Videos)
}

// LogOptions returns logger options for w.
func (c *Config) LogOptions(w io.Writer) LogOptions {
	return LogOptions{Level: c.Logging.Level, Format: c.Logging.Format, Writer: w}
}

// NewResolver builds the date cascade described by the configuration.
func (c *Config) NewResolver(logger *slog.Logger) (*DateResolver, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	paths, err := NewPathDateInferrer(c.Dates.PathPatterns, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: dates.path_patterns: %v", ErrInvalidConfig, err)
	}
	return NewDateResolver(ResolverOptions{
		Reader:            ExifDateReader{Location: loc},
		Extensions:        c.MediaExtensions(),
		Paths:             paths,
		DirectoryFallback: c.Dates.DirectoryFallback,
		Logger:            logger,
	}), nil
}

// OrganizerOptions returns options for a run from inputDir to outputDir.
// Callers override individual fields from flags.
func (c *Config) OrganizerOptions(inputDir, outputDir string, logger *slog.Logger) (OrganizerOptions, error) {
	mode, err := ParseTransferMode(c.Organize.Mode)
	if err != nil {
		return OrganizerOptions{}, fmt.Errorf("%w: organize.mode: %v", ErrInvalidConfig, err)
	}
	resolver, err := c.NewResolver(logger)
	if err != nil {
		return OrganizerOptions{}, err
	}
	loc, err := c.Location()
	if err != nil {
		return OrganizerOptions{}, err
	}
	return OrganizerOptions{
		InputDir:           inputDir,
		OutputDir:          outputDir,
		Mode:               mode,
		PreserveTimestamps: c.Organize.PreserveTimestamps,
		Workers:            c.Organize.Workers,
		UnsortedDir:        c.Organize.UnsortedDir,
		ReportName:         c.Organize.ReportName,
		Extensions:         c.MediaExtensions(),
		Resolver:           resolver,
		Location:           loc,
		Logger:             logger,
	}, nil
}

// SimilarityOptions returns options for a similarity scan.
func (c *Config) SimilarityOptions(logger *slog.Logger) (SimilarityOptions, error) {
	mode, err := ParseGroupingMode(c.Similarity.Mode)
	if err != nil {
		return SimilarityOptions{}, fmt.Errorf("%w: similarity.mode: %v", ErrInvalidConfig, err)
	}
	return SimilarityOptions{
		Mode:       mode,
		Threshold:  c.Similarity.Threshold,
		Workers:    c.Similarity.Workers,
		Extensions: c.MediaExtensions(),
		Logger:     logger,
	}, nil
}

// WriteSampleConfig writes a commented sample configuration to path. An
// existing file is left alone.
func WriteSampleConfig(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
