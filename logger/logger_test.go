package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	log, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewInvalidFormat(t *testing.T) {
	_, err := New(&LogConfiguration{Format: "xml"})
	require.ErrorContains(t, err, `unknown log format "xml"`)
}

func TestLoadConfiguration(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "logger.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("defaultLevel: DEBUG\nformat: json\noutputPath: discard\n"), 0600))

	cfg, err := LoadConfiguration(fn)
	require.NoError(t, err)
	require.Equal(t, "DEBUG", cfg.Level)
	require.Equal(t, "json", cfg.Format)

	log, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "opening logger configuration file")
}
