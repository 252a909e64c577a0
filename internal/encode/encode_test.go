// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package encode

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/comic-forge/pkg/types"
)

// writePNG writes a small solid-color PNG page.
func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestEncodeEmptyPages(t *testing.T) {
	e := &Encoder{}
	dest := filepath.Join(t.TempDir(), "out.cbz")
	path, err := e.Encode(context.Background(), nil, types.FormatCBZ, dest, 95, false, os.Stderr)
	require.NoError(t, err)
	assert.Empty(t, path)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no file may be created for empty input")
}

func TestEncodeCBZRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "p1.jpg")
	p2 := filepath.Join(dir, "p2.PNG")
	require.NoError(t, os.WriteFile(p1, []byte("jpeg-bytes"), 0o644))
	require.NoError(t, os.WriteFile(p2, []byte("png-bytes"), 0o644))

	e := &Encoder{}
	dest := filepath.Join(dir, "out.cbz")
	path, err := e.Encode(context.Background(), []string{p1, p2}, types.FormatCBZ, dest, 95, false, os.Stderr)
	require.NoError(t, err)
	require.Equal(t, dest, path)

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 2)
	assert.Equal(t, "p_00000.jpg", zr.File[0].Name)
	assert.Equal(t, "p_00001.png", zr.File[1].Name)
	for _, zf := range zr.File {
		assert.Equal(t, zip.Store, zf.Method, "entries must be stored uncompressed")
	}
}

func TestEncodeCBZSkipsUnreadablePage(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "p1.jpg")
	require.NoError(t, os.WriteFile(p1, []byte("x"), 0o644))
	missing := filepath.Join(dir, "gone.jpg")

	e := &Encoder{}
	dest := filepath.Join(dir, "out.cbz")
	path, err := e.Encode(context.Background(), []string{missing, p1}, types.FormatCBZ, dest, 95, false, os.Stderr)
	require.NoError(t, err)
	require.Equal(t, dest, path)

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "p_00001.jpg", zr.File[0].Name)
}

func TestEncodeCBZCanceled(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "p1.jpg")
	require.NoError(t, os.WriteFile(p1, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Encoder{}
	dest := filepath.Join(dir, "out.cbz")
	path, err := e.Encode(ctx, []string{p1}, types.FormatCBZ, dest, 95, false, os.Stderr)
	assert.Empty(t, path)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "partial file must be removed")
}

func TestEncodePDFRobust(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "p1.png")
	p2 := filepath.Join(dir, "p2.png")
	writePNG(t, p1, color.RGBA{R: 200, A: 255})
	writePNG(t, p2, color.RGBA{B: 200, A: 255})

	e := &Encoder{} // no embedder: robust path only
	dest := filepath.Join(dir, "out.pdf")
	var status bytes.Buffer
	path, err := e.Encode(context.Background(), []string{p1, p2}, types.FormatPDF, dest, 80, false, &status)
	require.NoError(t, err)
	require.Equal(t, dest, path)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output must be a PDF document")
}

func TestEncodePDFGrayscale(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "p1.png")
	writePNG(t, p1, color.RGBA{G: 128, A: 255})

	embedder := &fakeEmbedder{}
	e := &Encoder{Embedder: embedder}
	dest := filepath.Join(dir, "out.pdf")
	path, err := e.Encode(context.Background(), []string{p1}, types.FormatPDF, dest, 80, true, os.Stderr)
	require.NoError(t, err)
	require.Equal(t, dest, path)
	assert.False(t, embedder.called, "grayscale must never use the fast path")
}

func TestEncodePDFDropsUndecodablePage(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "p1.png")
	bad := filepath.Join(dir, "p2.png")
	writePNG(t, good, color.RGBA{R: 10, A: 255})
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))

	e := &Encoder{}
	dest := filepath.Join(dir, "out.pdf")
	var status bytes.Buffer
	path, err := e.Encode(context.Background(), []string{good, bad}, types.FormatPDF, dest, 80, false, &status)
	require.NoError(t, err)
	assert.Equal(t, dest, path)
	assert.Contains(t, status.String(), "skipping page p2.png")
}

func TestEncodePDFFastPath(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "p1.jpg")
	require.NoError(t, os.WriteFile(p1, []byte("x"), 0o644))

	embedder := &fakeEmbedder{}
	e := &Encoder{Embedder: embedder}
	dest := filepath.Join(dir, "out.pdf")
	path, err := e.Encode(context.Background(), []string{p1}, types.FormatPDF, dest, 95, false, os.Stderr)
	require.NoError(t, err)
	assert.Equal(t, dest, path)
	assert.True(t, embedder.called)
	assert.Equal(t, []string{p1}, embedder.files)
}

func TestEncodePDFFastPathFallsBack(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "p1.png")
	writePNG(t, p1, color.RGBA{R: 99, A: 255})

	embedder := &fakeEmbedder{err: errors.New("embed exploded")}
	e := &Encoder{Embedder: embedder}
	dest := filepath.Join(dir, "out.pdf")
	var status bytes.Buffer
	path, err := e.Encode(context.Background(), []string{p1}, types.FormatPDF, dest, 95, false, &status)
	require.NoError(t, err)
	assert.Equal(t, dest, path)
	assert.Contains(t, status.String(), "direct embed failed")
}

type fakeEmbedder struct {
	called bool
	files  []string
	err    error
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) EmbedFiles(files []string, outPath string) error {
	f.called = true
	f.files = files
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("%PDF-fake"), 0o644)
}
