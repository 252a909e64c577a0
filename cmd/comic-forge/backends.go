// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/comic-forge/internal/archive"
	"github.com/pdiddy/comic-forge/internal/encode"
	"github.com/pdiddy/comic-forge/internal/raster"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Report which optional conversion backends are present",
	Long: `Backends probes each optional capability independently: the in-process
archive extractor, the external 7-Zip executable, the PDF rasterizer, and the
direct image-to-PDF embedder. A missing backend degrades the matching feature
(archives or PDFs resolve to zero pages, PDF output falls back to the
re-encoding path) but never prevents a run.`,
	Run: func(cmd *cobra.Command, args []string) {
		report := func(name string, available bool) {
			state := "missing"
			if available {
				state = "available"
			}
			fmt.Printf("%-24s %s\n", name, state)
		}

		lib := archive.NewLibraryExtractor()
		report("archive extractor ("+lib.Name()+")", lib.Available())

		sz := archive.NewSevenZip()
		report("external tool ("+sz.Name()+")", sz.Available())

		report("pdf rasterizer ("+raster.NewFitz().Name()+")", true)
		report("pdf embedder ("+encode.NewPDFCPU().Name()+")", true)
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
