// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/comic-forge/internal/source"
	"github.com/pdiddy/comic-forge/pkg/types"
)

// JobFile is the on-disk representation of a conversion batch. Sources are
// stored as plain paths and re-classified on load, so a manifest written on
// one machine stays usable after files move kinds (say, a folder zipped up).
type JobFile struct {
	Sources    []string `yaml:"sources"`
	Merge      bool     `yaml:"merge,omitempty"`
	Format     string   `yaml:"format"`
	OutputName string   `yaml:"output_name,omitempty"`
	DestDir    string   `yaml:"destination_dir,omitempty"`
	Quality    int      `yaml:"quality,omitempty"`
	DPI        int      `yaml:"dpi,omitempty"`
	Grayscale  bool     `yaml:"grayscale,omitempty"`
}

// ReadJobFile loads a batch manifest from a YAML file.
func ReadJobFile(path string) (*JobFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job file: %w", err)
	}
	var jf JobFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return nil, fmt.Errorf("parsing job file: %w", err)
	}
	return &jf, nil
}

// WriteJobFile saves a job back to a YAML manifest.
func WriteJobFile(path string, job types.Job) error {
	jf := JobFile{
		Merge:      job.Merge,
		Format:     string(job.OutputFormat),
		OutputName: job.OutputName,
		DestDir:    job.DestDir,
		Quality:    job.Quality,
		DPI:        job.DPI,
		Grayscale:  job.Grayscale,
	}
	for _, s := range job.Sources {
		jf.Sources = append(jf.Sources, s.Path)
	}
	data, err := yaml.Marshal(&jf)
	if err != nil {
		return fmt.Errorf("marshaling job file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ToJob converts a manifest into a runnable job, classifying each source
// path and filling unset numeric fields from defaults.
func (jf *JobFile) ToJob(defaults types.Job) (types.Job, error) {
	format, err := types.ParseFormat(jf.Format)
	if err != nil {
		return types.Job{}, err
	}
	job := types.Job{
		Merge:        jf.Merge,
		OutputFormat: format,
		OutputName:   jf.OutputName,
		DestDir:      jf.DestDir,
		Quality:      jf.Quality,
		DPI:          jf.DPI,
		Grayscale:    jf.Grayscale,
	}
	if job.DestDir == "" {
		job.DestDir = defaults.DestDir
	}
	if job.Quality == 0 {
		job.Quality = defaults.Quality
	}
	if job.DPI == 0 {
		job.DPI = defaults.DPI
	}
	if job.Merge && job.OutputName == "" {
		job.OutputName = "merged"
	}
	for _, p := range jf.Sources {
		job.Sources = append(job.Sources, source.New(p))
	}
	return job, nil
}
