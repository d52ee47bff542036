// Package config provides configuration loading for scrubkit.
//
// Configuration is read from at most one file, named by:
//   - the --config flag, or
//   - the SCRUBKIT_CONFIG environment variable.
//
// There is no discovery. Without either, the defaults apply. Flags bound
// with BindFlags override file values when they are set explicitly.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config path.
const EnvVar = "SCRUBKIT_CONFIG"

// Config is the complete scrubkit configuration.
type Config struct {
	// Palette configures colour extraction.
	Palette PaletteConfig `yaml:"palette"`

	// Scrub configures metadata removal.
	Scrub ScrubConfig `yaml:"scrub"`

	// Files configures input handling.
	Files FilesConfig `yaml:"files"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`
}

// PaletteConfig configures colour extraction.
type PaletteConfig struct {
	// Count is the number of colours requested.
	// Default: 8
	Count int `yaml:"count"`

	// SampleBound caps the longer side of the sampled image.
	// Default: 200
	SampleBound int `yaml:"sample_bound"`

	// AlphaThreshold excludes pixels with a lower alpha byte.
	// Default: 128
	AlphaThreshold int `yaml:"alpha_threshold"`

	// Depth is the number of median-cut splits.
	// Default: 3
	Depth int `yaml:"depth"`

	// AdaptiveDepth derives the depth from Count instead.
	AdaptiveDepth bool `yaml:"adaptive_depth"`
}

// ScrubConfig configures metadata removal.
type ScrubConfig struct {
	// OutputPrefix is prepended to the names of scrubbed files.
	// Default: clean_
	OutputPrefix string `yaml:"output_prefix"`

	// JPEGQuality is used when the canvas fallback re-encodes a JPEG.
	// Default: 92
	JPEGQuality int `yaml:"jpeg_quality"`

	// ForceCanvas skips the lossless binary path.
	ForceCanvas bool `yaml:"force_canvas"`
}

// FilesConfig configures input handling.
type FilesConfig struct {
	// MaxSize is the largest input accepted, in bytes.
	// Default: 100MB
	MaxSize int64 `yaml:"max_size"`

	// DownloadTimeout bounds fetching a URL.
	// Default: 60s
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: warn
	Level string `yaml:"level"`

	// Format is text or json.
	// Default: text
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Palette: PaletteConfig{
			Count:          8,
			SampleBound:    200,
			AlphaThreshold: 128,
			Depth:          3,
		},
		Scrub: ScrubConfig{
			OutputPrefix: "clean_",
			JPEGQuality:  92,
		},
		Files: FilesConfig{
			MaxSize:         100 * 1024 * 1024,
			DownloadTimeout: 60 * time.Second,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads the file at path, or the file named by SCRUBKIT_CONFIG when
// path is empty, over the defaults. With neither set the defaults are
// returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Palette.Count < 1 {
		errs = append(errs, fmt.Errorf("palette.count must be positive, got %d", c.Palette.Count))
	}
	if c.Palette.SampleBound < 1 {
		errs = append(errs, fmt.Errorf("palette.sample_bound must be positive, got %d", c.Palette.SampleBound))
	}
	if c.Palette.AlphaThreshold < 0 || c.Palette.AlphaThreshold > 255 {
		errs = append(errs, fmt.Errorf("palette.alpha_threshold must be in [0, 255], got %d", c.Palette.AlphaThreshold))
	}
	if c.Palette.Depth < 1 || c.Palette.Depth > 16 {
		errs = append(errs, fmt.Errorf("palette.depth must be in [1, 16], got %d", c.Palette.Depth))
	}
	if c.Scrub.JPEGQuality < 1 || c.Scrub.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("scrub.jpeg_quality must be in [1, 100], got %d", c.Scrub.JPEGQuality))
	}
	if c.Files.MaxSize < 1 {
		errs = append(errs, fmt.Errorf("files.max_size must be positive, got %d", c.Files.MaxSize))
	}
	if c.Files.DownloadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("files.download_timeout must be positive, got %s", c.Files.DownloadTimeout))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Flag names registered by the Bind functions
const (
	FlagLogLevel        = "log-level"
	FlagLogFormat       = "log-format"
	FlagMaxSize         = "max-size"
	FlagDownloadTimeout = "download-timeout"
	FlagCount           = "count"
	FlagSampleBound     = "sample-bound"
	FlagAlphaThreshold  = "alpha-threshold"
	FlagDepth           = "depth"
	FlagAdaptiveDepth   = "adaptive-depth"
	FlagPrefix          = "prefix"
	FlagJPEGQuality     = "jpeg-quality"
	FlagForceCanvas     = "force-canvas"
)

// BindFlags registers the logging and input flags.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagLogLevel, d.Log.Level, "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.Log.Format, "log format: text or json")
	fs.Int64(FlagMaxSize, d.Files.MaxSize, "largest input accepted, in bytes")
	fs.Duration(FlagDownloadTimeout, d.Files.DownloadTimeout, "timeout for fetching URLs")
}

// BindPaletteFlags registers the palette extraction flags.
func BindPaletteFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.IntP(FlagCount, "n", d.Palette.Count, "number of colours to extract")
	fs.Int(FlagSampleBound, d.Palette.SampleBound, "longest side of the sampled image")
	fs.Int(FlagAlphaThreshold, d.Palette.AlphaThreshold, "ignore pixels with lower alpha")
	fs.Int(FlagDepth, d.Palette.Depth, "median-cut recursion depth")
	fs.Bool(FlagAdaptiveDepth, d.Palette.AdaptiveDepth, "derive the depth from --count")
}

// BindScrubFlags registers the scrub flags.
func BindScrubFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagPrefix, d.Scrub.OutputPrefix, "prefix for scrubbed file names")
	fs.Int(FlagJPEGQuality, d.Scrub.JPEGQuality, "JPEG quality for canvas re-encoding")
	fs.Bool(FlagForceCanvas, d.Scrub.ForceCanvas, "always re-encode instead of slicing segments")
}

// ApplyFlags copies every explicitly set flag registered by the Bind
// functions over the loaded values.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagLogLevel:
			c.Log.Level = f.Value.String()
		case FlagLogFormat:
			c.Log.Format = f.Value.String()
		case FlagMaxSize:
			c.Files.MaxSize, err = fs.GetInt64(f.Name)
		case FlagDownloadTimeout:
			c.Files.DownloadTimeout, err = fs.GetDuration(f.Name)
		case FlagCount:
			c.Palette.Count, err = fs.GetInt(f.Name)
		case FlagSampleBound:
			c.Palette.SampleBound, err = fs.GetInt(f.Name)
		case FlagAlphaThreshold:
			c.Palette.AlphaThreshold, err = fs.GetInt(f.Name)
		case FlagDepth:
			c.Palette.Depth, err = fs.GetInt(f.Name)
		case FlagAdaptiveDepth:
			c.Palette.AdaptiveDepth, err = fs.GetBool(f.Name)
		case FlagPrefix:
			c.Scrub.OutputPrefix = f.Value.String()
		case FlagJPEGQuality:
			c.Scrub.JPEGQuality, err = fs.GetInt(f.Name)
		case FlagForceCanvas:
			c.Scrub.ForceCanvas, err = fs.GetBool(f.Name)
		}
	})
	return err
}

// NewLogger builds an slog logger writing to w in the configured format.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch l.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", l.Format)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
