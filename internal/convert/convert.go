// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements the batch conversion run: directory
// enumeration, per-file strategy fallback, and outcome bookkeeping.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/heic2jpg/internal/magick"
	"github.com/pdiddy/heic2jpg/pkg/types"
)

const (
	// sourceExt is the extension of candidate files, matched case-insensitively.
	sourceExt = ".heic"
	// outputExt is the extension of converted output files.
	outputExt = ".jpg"
)

// ErrInvalidDirectory indicates the target directory is missing or not a
// directory. Callers treat this as a fatal precondition.
var ErrInvalidDirectory = errors.New("invalid target directory")

// Target is one candidate file discovered during enumeration.
type Target struct {
	// Path is the full path to the source file.
	Path string
	// Base is the file name without its extension.
	Base string
	// Dir is the parent directory.
	Dir string
}

// OutputPath is where the converted file is written: same directory, same
// base name, output extension. An existing file at this path is silently
// overwritten; none of the invocation shapes guard against it.
func (t Target) OutputPath() string {
	return filepath.Join(t.Dir, t.Base+outputExt)
}

// EnumerateTargets lists the candidate files in dir. The scan is
// non-recursive and matches regular files whose extension equals the
// source extension case-insensitively.
func EnumerateTargets(dir string) ([]Target, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%v)", ErrInvalidDirectory, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidDirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s (%v)", ErrInvalidDirectory, dir, err)
	}

	var targets []Target
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, sourceExt) {
			continue
		}
		targets = append(targets, Target{
			Path: filepath.Join(dir, name),
			Base: strings.TrimSuffix(name, ext),
			Dir:  dir,
		})
	}
	return targets, nil
}

// Outcome is the result of one target's conversion attempt. Every
// enumerated target produces exactly one Outcome.
type Outcome struct {
	Source     string                 `json:"source" yaml:"source"`
	Status     types.ConversionStatus `json:"status" yaml:"status"`
	OutputPath string                 `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	// Strategy names the invocation shape that succeeded.
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// Err carries the last strategy's error text when all strategies failed.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`

	Delete    types.DeleteStatus `json:"delete" yaml:"delete"`
	DeleteErr string             `json:"delete_error,omitempty" yaml:"delete_error,omitempty"`
}

// RunSummary aggregates the outcomes of one run.
type RunSummary struct {
	Directory    string        `json:"directory" yaml:"directory"`
	Found        int           `json:"found" yaml:"found"`
	Converted    int           `json:"converted" yaml:"converted"`
	Failed       int           `json:"failed" yaml:"failed"`
	Deleted      int           `json:"deleted" yaml:"deleted"`
	DeleteFailed int           `json:"delete_failed" yaml:"delete_failed"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Outcomes     []Outcome     `json:"outcomes" yaml:"outcomes"`
}

// HasFailures reports whether any target failed conversion.
func (s RunSummary) HasFailures() bool {
	return s.Failed > 0
}

func (s *RunSummary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case types.ConversionDone:
		s.Converted++
	case types.ConversionFailed:
		s.Failed++
	}
	switch o.Delete {
	case types.DeleteDone:
		s.Deleted++
	case types.DeleteFailed:
		s.DeleteFailed++
	}
}

// ProgressFunc observes one processed target. done counts processed
// targets including this one; total is the number enumerated.
type ProgressFunc func(done, total int, o Outcome)

// Runner executes conversion runs against one detected tool. Runs are
// strictly sequential: one subprocess in flight at a time.
type Runner struct {
	tool       magick.Tool
	strategies []Strategy
	remove     func(string) error
	progress   ProgressFunc
}

// NewRunner creates a Runner using the canonical strategy order. progress
// may be nil.
func NewRunner(tool magick.Tool, progress ProgressFunc) *Runner {
	return &Runner{
		tool:       tool,
		strategies: Strategies,
		remove:     os.Remove,
		progress:   progress,
	}
}

// Run enumerates candidates in cfg.Directory and converts each in order.
// Zero candidates is a normal terminal state: the summary comes back with
// every counter at zero and no error. Per-target failures never abort the
// run; only enumeration errors do.
func (r *Runner) Run(cfg types.ConvertConfig) (RunSummary, error) {
	targets, err := EnumerateTargets(cfg.Directory)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		Directory: cfg.Directory,
		Found:     len(targets),
		StartedAt: time.Now().UTC(),
	}

	for i, target := range targets {
		o := r.convertOne(target, cfg)
		summary.add(o)
		if r.progress != nil {
			r.progress(i+1, len(targets), o)
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	return summary, nil
}

// convertOne tries each strategy in order and stops at the first success.
// The original is removed only after a successful conversion, and a
// removal failure never downgrades the conversion outcome.
func (r *Runner) convertOne(target Target, cfg types.ConvertConfig) Outcome {
	o := Outcome{
		Source: target.Path,
		Status: types.ConversionFailed,
		Delete: types.DeleteNotAttempted,
	}

	outPath := target.OutputPath()
	var lastErr error
	for _, s := range r.strategies {
		if err := r.tool.Convert(s.Args(target.Path, outPath, cfg.Quality)...); err != nil {
			lastErr = err
			continue
		}
		o.Status = types.ConversionDone
		o.Strategy = s.Name
		o.OutputPath = outPath
		break
	}

	if o.Status != types.ConversionDone {
		if lastErr != nil {
			o.Err = lastErr.Error()
		}
		return o
	}

	if cfg.DeleteOriginals {
		if err := r.remove(target.Path); err != nil {
			o.Delete = types.DeleteFailed
			o.DeleteErr = err.Error()
		} else {
			o.Delete = types.DeleteDone
		}
	}

	return o
}
