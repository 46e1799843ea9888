package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of heic2jpg",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("heic2jpg %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
