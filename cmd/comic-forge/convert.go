// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/comic-forge/internal/archive"
	"github.com/pdiddy/comic-forge/internal/encode"
	"github.com/pdiddy/comic-forge/internal/history"
	"github.com/pdiddy/comic-forge/internal/pipeline"
	"github.com/pdiddy/comic-forge/internal/raster"
	"github.com/pdiddy/comic-forge/internal/source"
	"github.com/pdiddy/comic-forge/internal/workspace"
	"github.com/pdiddy/comic-forge/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [sources...]",
	Short: "Convert comic sources to CBZ or PDF",
	Long: `Convert resolves each source (folder, archive, PDF, or image file) into an
ordered page list and encodes it into the chosen output format. With --merge,
every source's pages are pooled in submission order into a single artifact.

Sources can also come from a YAML batch manifest via --job.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Bool("merge", false, "merge all sources into one output artifact")
	convertCmd.Flags().String("format", "cbz", "output format: cbz or pdf")
	convertCmd.Flags().String("output", "merged", "base name of the merged artifact (merge mode only)")
	convertCmd.Flags().String("dest", "", "destination directory (default: config 'destination')")
	convertCmd.Flags().Int("quality", 0, "JPEG quality for re-encoded PDF pages, 10-100 (default: config 'quality')")
	convertCmd.Flags().Int("dpi", 0, "rasterization resolution for PDF sources, 72-600 (default: config 'dpi')")
	convertCmd.Flags().Bool("grayscale", false, "convert pages to grayscale (forces the PDF re-encoding path)")
	convertCmd.Flags().String("job", "", "YAML batch manifest to load instead of positional sources")
	convertCmd.Flags().Bool("no-history", false, "do not record this run in the history database")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	job, err := buildJob(cmd, args)
	if err != nil {
		return err
	}

	reg := workspace.NewRegistry()
	runner := &pipeline.Runner{
		Resolver: &source.Resolver{
			Extractors: archive.Detect(),
			Rasterizer: raster.NewFitz(),
			Workspaces: reg,
			DPI:        job.DPI,
		},
		Encoder:  &encode.Encoder{Embedder: encode.NewPDFCPU()},
		Reporter: newBarReporter(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	started := time.Now()
	result, runErr := runner.Run(ctx, job)
	finished := time.Now()

	fmt.Fprintln(os.Stderr)
	for _, a := range result.Artifacts {
		fmt.Println(a.Path)
	}
	fmt.Fprintf(os.Stderr, "Run %s: %d converted, %d empty, %d failed\n",
		result.State, result.Converted, result.Empty, result.Failed)

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		recordRun(job, result, started, finished)
	}
	return runErr
}

// buildJob assembles the immutable job snapshot from the manifest or the
// positional sources, with flag and config defaults.
func buildJob(cmd *cobra.Command, args []string) (types.Job, error) {
	defaults := types.Job{
		Quality: viper.GetInt("quality"),
		DPI:     viper.GetInt("dpi"),
		DestDir: viper.GetString("destination"),
	}
	if q, _ := cmd.Flags().GetInt("quality"); q != 0 {
		defaults.Quality = q
	}
	if d, _ := cmd.Flags().GetInt("dpi"); d != 0 {
		defaults.DPI = d
	}
	if dest, _ := cmd.Flags().GetString("dest"); dest != "" {
		defaults.DestDir = dest
	}

	if jobPath, _ := cmd.Flags().GetString("job"); jobPath != "" {
		if len(args) > 0 {
			return types.Job{}, fmt.Errorf("--job and positional sources are mutually exclusive")
		}
		jf, err := pipeline.ReadJobFile(jobPath)
		if err != nil {
			return types.Job{}, err
		}
		return jf.ToJob(defaults)
	}

	if len(args) == 0 {
		return types.Job{}, fmt.Errorf("no sources given")
	}

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := types.ParseFormat(formatStr)
	if err != nil {
		return types.Job{}, err
	}

	job := defaults
	job.OutputFormat = format
	job.Merge, _ = cmd.Flags().GetBool("merge")
	job.Grayscale = viper.GetBool("grayscale")
	if cmd.Flags().Changed("grayscale") {
		job.Grayscale, _ = cmd.Flags().GetBool("grayscale")
	}
	job.OutputName, _ = cmd.Flags().GetString("output")
	for _, p := range args {
		job.Sources = append(job.Sources, source.New(p))
	}
	return job, nil
}

// barReporter renders pipeline events on a terminal progress bar.
type barReporter struct {
	bar *progressbar.ProgressBar
}

func newBarReporter() *barReporter {
	return &barReporter{
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
		),
	}
}

func (b *barReporter) Status(msg string) { b.bar.Describe(msg) }
func (b *barReporter) Progress(pct int)  { _ = b.bar.Set(pct) }

// recordRun appends the run to the history ledger; history failures only
// warn, they never fail the conversion.
func recordRun(job types.Job, result pipeline.RunResult, started, finished time.Time) {
	store, err := history.Open(viper.GetString("history_dir"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", err)
		return
	}
	defer store.Close()

	rec := history.Record{
		StartedAt:  started,
		FinishedAt: finished,
		State:      string(result.State),
		Format:     job.OutputFormat,
		Merged:     job.Merge,
		Sources:    len(job.Sources),
		Converted:  result.Converted,
		Failed:     result.Failed,
	}
	for _, a := range result.Artifacts {
		rec.Artifacts = append(rec.Artifacts, a.Path)
	}
	if _, err := store.Record(rec); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording history: %v\n", err)
	}
}
