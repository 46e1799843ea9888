// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package magick locates and drives the ImageMagick command-line tool.
// All pixel work is delegated to the tool; this package only handles
// binary detection, the startup capability probe, and per-invocation
// subprocess plumbing.
package magick

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// binMagick is the ImageMagick 7 entry point.
	binMagick = "magick"
	// binConvert is the legacy ImageMagick 6 binary.
	binConvert = "convert"
)

// ErrToolUnavailable indicates no ImageMagick binary was found or none
// responded to a version query. Callers treat this as a fatal
// precondition and abort before touching any file.
var ErrToolUnavailable = errors.New("imagemagick not available")

// Tool drives one ImageMagick binary: availability checks, format
// listing, and conversion invocations.
type Tool interface {
	// Name returns the binary name ("magick" or "convert").
	Name() string

	// Available reports whether the binary exists on PATH and responds
	// to a version query.
	Available() bool

	// ListFormats returns the tool's format-listing output.
	ListFormats() (string, error)

	// Convert executes one conversion invocation. Success is exit status
	// zero; on failure the returned error carries the tool's output text.
	Convert(args ...string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunOutput(name string, args ...string) (string, error)
}

// osExecutor is the production executor backed by os/exec. Arguments are
// always passed as a discrete argv vector, never through a shell, so file
// names containing quotes or metacharacters cannot break the invocation.
// A zero timeout means the subprocess wait is unbounded.
type osExecutor struct {
	timeout time.Duration
}

func (o *osExecutor) ctx() (context.Context, context.CancelFunc) {
	if o.timeout > 0 {
		return context.WithTimeout(context.Background(), o.timeout)
	}
	return context.Background(), func() {}
}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	ctx, cancel := o.ctx()
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) RunOutput(name string, args ...string) (string, error) {
	ctx, cancel := o.ctx()
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// tool implements Tool for a specific ImageMagick binary. The version 7
// and legacy version 6 binaries accept the same argument shapes; they
// differ only in name.
type tool struct {
	bin  string
	exec executor
}

func (t *tool) Name() string { return t.bin }

func (t *tool) Available() bool {
	if _, err := t.exec.LookPath(t.bin); err != nil {
		return false
	}
	return t.exec.RunSilent(t.bin, "-version") == nil
}

func (t *tool) ListFormats() (string, error) {
	out, err := t.exec.RunOutput(t.bin, "-list", "format")
	if err != nil {
		return "", fmt.Errorf("listing formats with %s: %w", t.bin, err)
	}
	return out, nil
}

func (t *tool) Convert(args ...string) error {
	out, err := t.exec.RunOutput(t.bin, args...)
	if err == nil {
		return nil
	}
	if msg := strings.TrimSpace(out); msg != "" {
		return fmt.Errorf("%s: %s: %w", t.bin, msg, err)
	}
	return fmt.Errorf("%s: %w", t.bin, err)
}

func newMagickTool(exec executor) *tool { return &tool{bin: binMagick, exec: exec} }
func newConvertTool(exec executor) *tool { return &tool{bin: binConvert, exec: exec} }

// DetectTool tries the version 7 magick binary first, then falls back to
// the legacy convert binary. The timeout bounds each subsequent tool
// invocation; zero disables it.
func DetectTool(timeout time.Duration) (Tool, error) {
	return detectTool(&osExecutor{timeout: timeout})
}

func detectTool(exec executor) (Tool, error) {
	magick := newMagickTool(exec)
	if magick.Available() {
		return magick, nil
	}

	legacy := newConvertTool(exec)
	if legacy.Available() {
		return legacy, nil
	}

	return nil, fmt.Errorf(
		"%w: neither %s nor %s found or responding to a version query",
		ErrToolUnavailable, binMagick, binConvert,
	)
}

// ProbeResult reports the outcome of the startup capability probe.
type ProbeResult struct {
	Tool          string
	HEICConfirmed bool
}

// Probe checks, best effort, whether the tool reports HEIC among its
// supported formats. A failed or inconclusive listing is not an error:
// the tool may still convert HEIC files despite an incomplete format
// list, so callers downgrade an unconfirmed probe to a warning.
func Probe(t Tool) ProbeResult {
	out, err := t.ListFormats()
	confirmed := err == nil && strings.Contains(strings.ToUpper(out), "HEIC")
	return ProbeResult{Tool: t.Name(), HEICConfirmed: confirmed}
}
