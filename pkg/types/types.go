// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the comic-forge pipeline.
package types

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind classifies an input path. Resolution dispatches on the kind, so
// classification happens once, when the source is added to a batch.
type SourceKind string

const (
	KindFolder  SourceKind = "folder"
	KindArchive SourceKind = "archive"
	KindPDF     SourceKind = "pdf"
	KindImage   SourceKind = "image"
	KindOther   SourceKind = "other"
)

// Source identifies one input path in a conversion batch. It is immutable
// for the duration of a run except for ContentOverride, which, when set,
// is used verbatim as the page list instead of resolving the path.
type Source struct {
	// Path is the filesystem location of the source.
	Path string `json:"path" yaml:"path"`

	// Kind is the classified source kind.
	Kind SourceKind `json:"kind" yaml:"kind"`

	// Label is the display name, normally the path's base name.
	Label string `json:"label" yaml:"label"`

	// AddedAt records when the source was added to the batch.
	AddedAt time.Time `json:"added_at" yaml:"added_at"`

	// ContentOverride, when non-nil, bypasses resolution entirely.
	ContentOverride []string `json:"content_override,omitempty" yaml:"content_override,omitempty"`
}

// Format selects the output container for a conversion run.
type Format string

const (
	FormatCBZ Format = "CBZ"
	FormatPDF Format = "PDF"
)

// Extension returns the lower-cased file extension for the format.
func (f Format) Extension() string {
	return "." + strings.ToLower(string(f))
}

// ParseFormat converts a user-supplied format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CBZ":
		return FormatCBZ, nil
	case "PDF":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want cbz or pdf)", s)
	}
}

// Quality and DPI bounds accepted by Job.Validate.
const (
	MinQuality = 10
	MaxQuality = 100
	MinDPI     = 72
	MaxDPI     = 600
)

// Job describes one conversion run. It is built once before the run starts
// and is immutable for the run's duration.
type Job struct {
	// Sources lists the inputs in submission order. In merge mode this
	// order is the final page order across sources.
	Sources []Source `json:"sources" yaml:"sources"`

	// Merge combines every source's pages into a single output artifact.
	Merge bool `json:"merge" yaml:"merge"`

	// OutputFormat selects CBZ or PDF output.
	OutputFormat Format `json:"output_format" yaml:"output_format"`

	// OutputName is the base name of the merged artifact. Only consulted
	// when Merge is true.
	OutputName string `json:"output_name,omitempty" yaml:"output_name,omitempty"`

	// DestDir is the directory output artifacts are written to.
	DestDir string `json:"destination_dir" yaml:"destination_dir"`

	// Quality is the JPEG quality for re-encoded PDF pages, 10-100.
	Quality int `json:"quality" yaml:"quality"`

	// DPI is the rasterization resolution for PDF sources, 72-600.
	DPI int `json:"dpi" yaml:"dpi"`

	// Grayscale converts pages to grayscale on the PDF robust path.
	// Grayscale output always disables the direct-embedding fast path.
	Grayscale bool `json:"grayscale" yaml:"grayscale"`
}

// Validate checks the job fields that cannot be defaulted away.
func (j Job) Validate() error {
	if len(j.Sources) == 0 {
		return fmt.Errorf("job has no sources")
	}
	if j.OutputFormat != FormatCBZ && j.OutputFormat != FormatPDF {
		return fmt.Errorf("invalid output format %q", j.OutputFormat)
	}
	if j.DestDir == "" {
		return fmt.Errorf("destination directory is empty")
	}
	if j.Quality < MinQuality || j.Quality > MaxQuality {
		return fmt.Errorf("quality %d out of range [%d,%d]", j.Quality, MinQuality, MaxQuality)
	}
	if j.DPI < MinDPI || j.DPI > MaxDPI {
		return fmt.Errorf("dpi %d out of range [%d,%d]", j.DPI, MinDPI, MaxDPI)
	}
	if j.Merge && strings.TrimSpace(j.OutputName) == "" {
		return fmt.Errorf("merge mode requires an output name")
	}
	return nil
}

// Artifact is one produced output file.
type Artifact struct {
	// Path is the absolute or destination-relative location of the file.
	Path string `json:"path" yaml:"path"`
}
