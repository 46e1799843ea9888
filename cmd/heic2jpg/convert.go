// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/heic2jpg/internal/convert"
	"github.com/pdiddy/heic2jpg/internal/history"
	"github.com/pdiddy/heic2jpg/internal/magick"
	"github.com/pdiddy/heic2jpg/internal/report"
	"github.com/pdiddy/heic2jpg/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [directory] [delete]",
	Short: "Convert every HEIC file in a directory to JPEG",
	Long: `Convert scans a directory (non-recursive) for .heic files and converts
each to a .jpg alongside it, trying three ImageMagick invocation shapes in
order until one exits zero. An existing .jpg with the same base name is
silently overwritten.

The directory defaults to the current working directory. A bare "delete"
positional argument is legacy shorthand for --delete.

Per-file failures are reported and counted but never abort the run; the
exit status is non-zero only when ImageMagick is missing or the directory
is invalid.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Bool("delete", false, "delete each original after its conversion succeeds")
	convertCmd.Flags().Int("quality", 0, "JPEG quality 1-100 (default from config, 90)")
	convertCmd.Flags().String("output", "text", "summary format: text, keyvalue, json, or yaml")
	convertCmd.Flags().Duration("timeout", 0, "per-invocation tool timeout (0 = unbounded)")
	convertCmd.Flags().Bool("no-history", false, "do not record this run in the history ledger")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	dir, legacyDelete, err := resolveConvertArgs(args)
	if err != nil {
		return err
	}

	deleteOriginals, _ := cmd.Flags().GetBool("delete")
	quality, _ := cmd.Flags().GetInt("quality")
	if quality == 0 {
		quality = viper.GetInt("quality")
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	outputName, _ := cmd.Flags().GetString("output")
	format, err := report.ParseFormat(outputName)
	if err != nil {
		return err
	}

	cfg := types.ConvertConfig{
		Directory:       dir,
		DeleteOriginals: deleteOriginals || legacyDelete,
		Quality:         quality,
		Timeout:         timeout,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tool, err := magick.DetectTool(cfg.Timeout)
	if err != nil {
		return err
	}

	if probe := magick.Probe(tool); !probe.HEICConfirmed {
		fmt.Fprintf(os.Stderr, "warning: %s did not confirm HEIC support; attempting conversion anyway\n", probe.Tool)
	}

	progress := convertProgress
	if format != report.FormatText {
		// Keep stdout clean for machine-readable output.
		progress = nil
	}

	summary, err := convert.NewRunner(tool, progress).Run(cfg)
	if err != nil {
		return err
	}

	if err := report.Render(os.Stdout, summary, format); err != nil {
		return err
	}

	recordHistory(cmd, summary, cfg)
	return nil
}

// convertProgress prints one status line per processed file.
func convertProgress(done, total int, o convert.Outcome) {
	name := filepath.Base(o.Source)
	switch {
	case o.Status != types.ConversionDone:
		fmt.Printf("failed:    %s (%s) [%d/%d]\n", name, o.Err, done, total)
	case o.Delete == types.DeleteFailed:
		fmt.Printf("converted: %s -> %s [%d/%d] (delete failed: %s)\n",
			name, filepath.Base(o.OutputPath), done, total, o.DeleteErr)
	default:
		fmt.Printf("converted: %s -> %s [%d/%d]\n", name, filepath.Base(o.OutputPath), done, total)
	}
}

// resolveConvertArgs maps the positional arguments onto a directory and
// the legacy delete token. Both orders of "delete" and the directory are
// accepted; the directory defaults to the working directory.
func resolveConvertArgs(args []string) (dir string, legacyDelete bool, err error) {
	for _, arg := range args {
		if arg == "delete" {
			legacyDelete = true
			continue
		}
		if dir != "" {
			return "", false, fmt.Errorf("unexpected argument %q", arg)
		}
		dir = arg
	}

	if dir == "" {
		dir, err = os.Getwd()
		if err != nil {
			return "", false, fmt.Errorf("resolving working directory: %w", err)
		}
	}
	return dir, legacyDelete, nil
}

// recordHistory appends the run to the local ledger. The ledger is an
// observability aid, so every failure here is a warning, never an error.
func recordHistory(cmd *cobra.Command, summary convert.RunSummary, cfg types.ConvertConfig) {
	if skip, _ := cmd.Flags().GetBool("no-history"); skip || !viper.GetBool("history.enabled") {
		return
	}

	store, err := history.NewStore(types.HistoryConfig{
		Dir:     viper.GetString("history.dir"),
		Enabled: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history ledger unavailable: %v\n", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(context.Background(), summary, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run history: %v\n", err)
	}
}
