// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the heic2jpg CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the heic2jpg CLI.
var rootCmd = &cobra.Command{
	Use:   "heic2jpg",
	Short: "Batch HEIC to JPEG conversion via ImageMagick",
	Long: `heic2jpg converts every HEIC file in a directory to JPEG by driving the
ImageMagick command-line tool. Pixel work is delegated entirely to the tool;
heic2jpg handles discovery, fallback across invocation shapes, optional
deletion of originals, and reporting.

Conversion requires an ImageMagick installation (the version 7 magick binary
or the legacy version 6 convert binary) with HEIC support.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./heic2jpg.yaml or ~/.config/heic2jpg/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("heic2jpg")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "heic2jpg"))
		}
	}

	viper.SetDefault("quality", 90)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.dir", "")

	viper.SetEnvPrefix("HEIC2JPG")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
