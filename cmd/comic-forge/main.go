// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the comic-forge CLI.
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

// rootCmd is the base command for the comic-forge CLI.
var rootCmd = &cobra.Command{
	Use:   "comic-forge",
	Short: "Batch converter for comic-page sources",
	Long: `comic-forge converts heterogeneous comic-page sources (image files,
image folders, compressed archives such as zip/cbz/rar/cbr/7z, and PDF
documents) into page-ordered CBZ containers or multi-page PDF files, per
source or merged into one.

Optional backends (the external 7z tool, the MuPDF rasterizer, the direct
image-to-PDF embedder) are probed at startup; a missing backend degrades the
matching capability instead of failing the run.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./comic-forge.yaml or ~/.config/comic-forge/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("comic-forge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "comic-forge"))
		}
	}

	viper.SetDefault("quality", 95)
	viper.SetDefault("dpi", 300)
	viper.SetDefault("grayscale", false)
	viper.SetDefault("destination", ".")
	viper.SetDefault("history_dir", defaultHistoryDir())

	viper.SetEnvPrefix("COMIC_FORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// defaultHistoryDir is where the run-history database lives unless the
// config overrides it.
func defaultHistoryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".comic-forge"
	}
	return filepath.Join(home, ".local", "share", "comic-forge")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
