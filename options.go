package rigmerge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProvenanceKeys are the attribute names under which the merged store
// records its two source file basenames.
type ProvenanceKeys struct {
	First  string `yaml:"first"`
	Second string `yaml:"second"`
}

// Options configures aggregation and merging. Zero-valued fields are filled
// from DefaultOptions by LoadOptions.
type Options struct {
	// TimeSignal is the descriptor name of the global sort column.
	TimeSignal string `yaml:"time_signal"`

	// SessionPrefix selects the top-level groups treated as sessions.
	SessionPrefix string `yaml:"session_prefix"`

	// CompressionLevel is the deflate level for written datasets (1-9).
	CompressionLevel int `yaml:"compression_level"`

	Provenance ProvenanceKeys `yaml:"provenance"`
}

// DefaultOptions returns the rig tooling defaults.
func DefaultOptions() Options {
	return Options{
		TimeSignal:       "Running Time",
		SessionPrefix:    "Session",
		CompressionLevel: 4,
		Provenance: ProvenanceKeys{
			First:  "OriginalFileHigh",
			Second: "OriginalFileLow",
		},
	}
}

// LoadOptions reads a YAML manifest over the defaults. Unknown keys are
// rejected.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	f, err := os.Open(path)
	if err != nil {
		return opts, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		return opts, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if opts.CompressionLevel < 1 || opts.CompressionLevel > 9 {
		return opts, fmt.Errorf("manifest %s: compression_level %d out of range 1-9", path, opts.CompressionLevel)
	}
	return opts, nil
}
