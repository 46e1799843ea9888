package types

import (
	"errors"
	"time"
)

var errQualityRange = errors.New("quality must be between 1 and 100")

// ConvertConfig holds settings for one conversion run.
type ConvertConfig struct {
	// Directory is the directory scanned for source files (non-recursive).
	Directory string `json:"directory" yaml:"directory"`

	// DeleteOriginals removes each source file after its conversion succeeds.
	DeleteOriginals bool `json:"delete_originals" yaml:"delete_originals"`

	// Quality is the JPEG quality passed to the external tool (1-100, default 90).
	Quality int `json:"quality" yaml:"quality"`

	// Timeout bounds each external tool invocation. Zero means unbounded,
	// which matches the tool's historical behavior.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Validate checks the run settings that come from user input.
func (c ConvertConfig) Validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return errQualityRange
	}
	return nil
}

// HistoryConfig holds settings for the run-history ledger.
type HistoryConfig struct {
	// Dir is the directory holding the ledger database
	// (default: <user cache dir>/heic2jpg).
	Dir string `json:"dir" yaml:"dir"`

	// Enabled controls whether runs are recorded.
	Enabled bool `json:"enabled" yaml:"enabled"`
}
