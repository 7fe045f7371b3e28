package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	fmtTEXT = "text"
	fmtJSON = "json"
)

type LogConfiguration struct {
	Level      string `yaml:"defaultLevel"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"outputPath"`
	// AddSource includes the log call site into the record.
	AddSource bool `yaml:"showCaller"`
}

// New creates a logger based on the configuration, filling unassigned
// fields with default values.
func New(cfg *LogConfiguration) (*slog.Logger, error) {
	if cfg == nil {
		cfg = &LogConfiguration{}
	}
	cfg.initDefaults()

	out, err := cfg.output()
	if err != nil {
		return nil, fmt.Errorf("creating logger output: %w", err)
	}

	h, err := cfg.handler(out)
	if err != nil {
		return nil, fmt.Errorf("creating logger handler: %w", err)
	}
	return slog.New(h), nil
}

// LoadConfiguration reads the logger configuration from a YAML file.
func LoadConfiguration(fileName string) (*LogConfiguration, error) {
	f, err := os.Open(filepath.Clean(fileName))
	if err != nil {
		return nil, fmt.Errorf("opening logger configuration file: %w", err)
	}
	defer f.Close()

	cfg := &LogConfiguration{}
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decoding logger configuration (%s): %w", fileName, err)
	}
	return cfg, nil
}

func (cfg *LogConfiguration) initDefaults() {
	if cfg.Level == "" {
		cfg.Level = slog.LevelInfo.String()
	}
	if cfg.Format == "" {
		cfg.Format = fmtTEXT
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "stderr"
	}
}

func (cfg *LogConfiguration) logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (cfg *LogConfiguration) output() (io.Writer, error) {
	switch strings.ToLower(cfg.OutputPath) {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "discard":
		return io.Discard, nil
	}
	file, err := os.OpenFile(filepath.Clean(cfg.OutputPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening log file %q: %w", cfg.OutputPath, err)
	}
	return file, nil
}

func (cfg *LogConfiguration) handler(out io.Writer) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level:     cfg.logLevel(),
		AddSource: cfg.AddSource,
	}
	switch strings.ToLower(cfg.Format) {
	case fmtTEXT:
		return slog.NewTextHandler(out, opts), nil
	case fmtJSON:
		return slog.NewJSONHandler(out, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
