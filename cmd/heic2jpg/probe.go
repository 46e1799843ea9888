// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/heic2jpg/internal/magick"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that ImageMagick is installed and supports HEIC",
	Long: `Probe locates the ImageMagick binary (magick, falling back to the legacy
convert) and checks its format listing for HEIC support. A missing binary is
fatal; an inconclusive format listing is only a warning, since the tool may
convert HEIC despite an incomplete listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tool, err := magick.DetectTool(0)
		if err != nil {
			return err
		}

		result := magick.Probe(tool)
		fmt.Printf("tool: %s\n", result.Tool)
		if result.HEICConfirmed {
			fmt.Println("heic: supported")
		} else {
			fmt.Println("heic: not confirmed (conversion may still work)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
