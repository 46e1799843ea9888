// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders run summaries for the terminal and for
// machine consumption.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/heic2jpg/internal/convert"
	"github.com/pdiddy/heic2jpg/pkg/types"
)

// timeResolution rounds durations in the text rendering.
const timeResolution = time.Millisecond

// Format selects the rendering of a run summary.
type Format string

const (
	// FormatText is the human-facing default.
	FormatText Format = "text"
	// FormatKeyValue emits one key=value pair per line.
	FormatKeyValue Format = "keyvalue"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat validates a format name from the command line.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatKeyValue, FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, keyvalue, json, or yaml)", s)
}

// Render writes the summary to w in the requested format. The summary
// always renders, even when every target failed, so the caller can see
// exactly how many succeeded.
func Render(w io.Writer, summary convert.RunSummary, format Format) error {
	switch format {
	case FormatKeyValue:
		return renderKeyValue(w, summary)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case FormatYAML:
		data, err := yaml.Marshal(summary)
		if err != nil {
			return fmt.Errorf("marshaling summary: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return renderText(w, summary)
	}
}

func renderText(w io.Writer, s convert.RunSummary) error {
	fmt.Fprintf(w, "\nRun summary for %s\n", s.Directory)
	fmt.Fprintf(w, "  Files found:   %d\n", s.Found)
	fmt.Fprintf(w, "  Converted:     %d\n", s.Converted)
	fmt.Fprintf(w, "  Failed:        %d\n", s.Failed)
	fmt.Fprintf(w, "  Deleted:       %d\n", s.Deleted)
	fmt.Fprintf(w, "  Delete failed: %d\n", s.DeleteFailed)
	if s.Duration > 0 {
		fmt.Fprintf(w, "  Duration:      %s\n", s.Duration.Round(timeResolution))
	}

	if s.Failed > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, o := range s.Outcomes {
			if o.Status != types.ConversionFailed {
				continue
			}
			fmt.Fprintf(w, "  %s: %s\n", filepath.Base(o.Source), o.Err)
		}
	}

	if s.DeleteFailed > 0 {
		fmt.Fprintln(w, "\nDelete failures:")
		for _, o := range s.Outcomes {
			if o.Delete != types.DeleteFailed {
				continue
			}
			fmt.Fprintf(w, "  %s: %s\n", filepath.Base(o.Source), o.DeleteErr)
		}
	}

	return nil
}

func renderKeyValue(w io.Writer, s convert.RunSummary) error {
	pairs := []struct {
		key   string
		value int
	}{
		{"found", s.Found},
		{"converted", s.Converted},
		{"failed", s.Failed},
		{"deleted", s.Deleted},
		{"delete_failed", s.DeleteFailed},
	}
	for _, p := range pairs {
		if _, err := fmt.Fprintf(w, "%s=%d\n", p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}
