package rigmerge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "Running Time", opts.TimeSignal)
	assert.Equal(t, "Session", opts.SessionPrefix)
	assert.Equal(t, 4, opts.CompressionLevel)
	assert.Equal(t, "OriginalFileHigh", opts.Provenance.First)
	assert.Equal(t, "OriginalFileLow", opts.Provenance.Second)
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
time_signal: Elapsed Time
compression_level: 9
provenance:
  first: SourceA
  second: SourceB
`), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, "Elapsed Time", opts.TimeSignal)
	assert.Equal(t, 9, opts.CompressionLevel)
	assert.Equal(t, "SourceA", opts.Provenance.First)
	assert.Equal(t, "SourceB", opts.Provenance.Second)
	// Unset fields keep their defaults.
	assert.Equal(t, "Session", opts.SessionPrefix)
}

func TestLoadOptionsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiem_signal: oops\n"), 0o644))

	_, err := LoadOptions(path)
	require.Error(t, err)
}

func TestLoadOptionsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compression_level: 42\n"), 0o644))

	_, err := LoadOptions(path)
	require.Error(t, err)
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
}
