// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/comic-forge/internal/archive"
	"github.com/pdiddy/comic-forge/internal/encode"
	"github.com/pdiddy/comic-forge/internal/source"
	"github.com/pdiddy/comic-forge/internal/workspace"
	"github.com/pdiddy/comic-forge/pkg/types"
)

// recordingReporter captures statuses and progress values; onStatus, when
// set, runs for every status line (used to trigger mid-run cancellation).
type recordingReporter struct {
	mu       sync.Mutex
	statuses []string
	progress []int
	onStatus func(msg string)
}

func (r *recordingReporter) Status(msg string) {
	r.mu.Lock()
	r.statuses = append(r.statuses, msg)
	r.mu.Unlock()
	if r.onStatus != nil {
		r.onStatus(msg)
	}
}

func (r *recordingReporter) Progress(pct int) {
	r.mu.Lock()
	r.progress = append(r.progress, pct)
	r.mu.Unlock()
}

func (r *recordingReporter) joined() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.statuses, "\n")
}

// makePages writes n fake page images named p<i>.jpg into a new folder.
func makePages(t *testing.T, parent, name string, n int) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for i := 1; i <= n; i++ {
		path := filepath.Join(dir, "p"+string(rune('0'+i))+".jpg")
		require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	}
	return dir
}

func newRunner(reg *workspace.Registry, rep Reporter) *Runner {
	return &Runner{
		Resolver: &source.Resolver{
			Extractors: archive.Chain{archive.NewLibraryExtractor()},
			Workspaces: reg,
			DPI:        150,
		},
		Encoder:  &encode.Encoder{},
		Reporter: rep,
	}
}

func cbzEntryCount(t *testing.T, path string) int {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	return len(zr.File)
}

func baseJob(dest string, sources ...types.Source) types.Job {
	return types.Job{
		Sources:      sources,
		OutputFormat: types.FormatCBZ,
		DestDir:      dest,
		Quality:      95,
		DPI:          150,
	}
}

func TestRunSeparateSources(t *testing.T) {
	root := t.TempDir()
	a := makePages(t, root, "alpha", 3)
	b := makePages(t, root, "beta", 2)
	dest := filepath.Join(root, "out")

	rep := &recordingReporter{}
	runner := newRunner(workspace.NewRegistry(), rep)
	result, err := runner.Run(context.Background(), baseJob(dest, source.New(a), source.New(b)))
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, 2, result.Converted)
	require.Len(t, result.Artifacts, 2)
	assert.Equal(t, 3, cbzEntryCount(t, result.Artifacts[0].Path))
	assert.Equal(t, 2, cbzEntryCount(t, result.Artifacts[1].Path))
	assert.Equal(t, filepath.Join(dest, "alpha.cbz"), result.Artifacts[0].Path)
	assert.Equal(t, filepath.Join(dest, "beta.cbz"), result.Artifacts[1].Path)
	assert.Contains(t, rep.joined(), "source 1/2: alpha")
	assert.Equal(t, 100, rep.progress[len(rep.progress)-1])
}

func TestRunMergeSources(t *testing.T) {
	root := t.TempDir()
	a := makePages(t, root, "alpha", 3)
	b := makePages(t, root, "beta", 2)
	dest := filepath.Join(root, "out")

	job := baseJob(dest, source.New(a), source.New(b))
	job.Merge = true
	job.OutputName = "omnibus"

	runner := newRunner(workspace.NewRegistry(), NopReporter())
	result, err := runner.Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, result.State)
	require.Len(t, result.Artifacts, 1)
	merged := result.Artifacts[0].Path
	assert.Equal(t, filepath.Join(dest, "omnibus.cbz"), merged)
	assert.Equal(t, 5, cbzEntryCount(t, merged))

	// A's pages precede B's: entry 0..2 keep alpha's extensions/content.
	zr, err := zip.OpenReader(merged)
	require.NoError(t, err)
	defer zr.Close()
	assert.Equal(t, "p_00000.jpg", zr.File[0].Name)
	assert.Equal(t, "p_00004.jpg", zr.File[4].Name)
}

func TestRunCancelAfterFirstSource(t *testing.T) {
	root := t.TempDir()
	a := makePages(t, root, "alpha", 2)
	b := makePages(t, root, "beta", 2)
	c := makePages(t, root, "gamma", 2)
	dest := filepath.Join(root, "out")

	ctx, cancel := context.WithCancel(context.Background())
	rep := &recordingReporter{onStatus: func(msg string) {
		if strings.HasPrefix(msg, "created:") {
			cancel()
		}
	}}

	runner := newRunner(workspace.NewRegistry(), rep)
	result, err := runner.Run(ctx, baseJob(dest, source.New(a), source.New(b), source.New(c)))
	require.NoError(t, err)

	assert.Equal(t, StateCanceled, result.State)
	require.Len(t, result.Artifacts, 1, "non-merge keeps completed artifacts")
	assert.Equal(t, 1, result.Converted)
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunCancelDiscardsMergePool(t *testing.T) {
	root := t.TempDir()
	a := makePages(t, root, "alpha", 2)
	b := makePages(t, root, "beta", 2)
	dest := filepath.Join(root, "out")

	ctx, cancel := context.WithCancel(context.Background())
	rep := &recordingReporter{onStatus: func(msg string) {
		if strings.HasPrefix(msg, "source 2/") {
			cancel()
		}
	}}

	job := baseJob(dest, source.New(a), source.New(b))
	job.Merge = true
	job.OutputName = "omnibus"

	runner := newRunner(workspace.NewRegistry(), rep)
	result, err := runner.Run(ctx, job)
	require.NoError(t, err)

	assert.Equal(t, StateCanceled, result.State)
	assert.Empty(t, result.Artifacts, "merge mode materializes nothing on cancel")
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunCleansWorkspaces(t *testing.T) {
	root := t.TempDir()
	archivePath := filepath.Join(root, "book.cbz")
	f, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range []string{"p1.jpg", "p2.jpg"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("img"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	reg := workspace.NewRegistry()
	runner := newRunner(reg, NopReporter())
	dest := filepath.Join(root, "out")
	result, err := runner.Run(context.Background(), baseJob(dest, source.New(archivePath)))
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, result.State)
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, 2, cbzEntryCount(t, result.Artifacts[0].Path))
	assert.Equal(t, 0, reg.Count(), "workspaces removed before run completion")
	assert.Equal(t, filepath.Join(dest, "book.cbz"), result.Artifacts[0].Path)
}

func TestRunEmptySource(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(empty, "notes.txt"), []byte("x"), 0o644))
	dest := filepath.Join(root, "out")

	rep := &recordingReporter{}
	runner := newRunner(workspace.NewRegistry(), rep)
	result, err := runner.Run(context.Background(), baseJob(dest, source.New(empty)))
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, result.State)
	assert.Empty(t, result.Artifacts)
	assert.Equal(t, 1, result.Empty)
	assert.Contains(t, rep.joined(), "no pages in empty")
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries, "no artifact file for empty source")
}

func TestRunMergeAllEmpty(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	job := baseJob(filepath.Join(root, "out"), source.New(empty))
	job.Merge = true
	job.OutputName = "omnibus"

	runner := newRunner(workspace.NewRegistry(), NopReporter())
	result, err := runner.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, result.State)
	assert.Empty(t, result.Artifacts)
}

func TestRunInvalidJob(t *testing.T) {
	runner := newRunner(workspace.NewRegistry(), NopReporter())
	job := types.Job{OutputFormat: types.FormatCBZ, DestDir: t.TempDir(), Quality: 95, DPI: 150}
	result, err := runner.Run(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, StateFailed, result.State)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		label string
		index int
		want  string
	}{
		{"Chapter 12.cbz", 0, "Chapter"},
		{"my_book.pdf", 1, "my_book"},
		{"2023.zip", 4, "source5"},
		{"Vol 2 - Part 3", 0, "Vol  - Part"},
		{"", 2, "source3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, baseName(tt.label, tt.index), "label %q", tt.label)
	}
}
