// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package raster renders PDF pages into standalone JPEG files. The
// production backend wraps MuPDF via go-fitz; the capability is optional
// and a run without it resolves PDF sources to zero pages.
package raster

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
)

// Rasterizer renders each page of a PDF into destDir, in document order.
// The returned paths are the final page order; a cancellation mid-document
// returns the pages rendered so far.
type Rasterizer interface {
	// Name returns the backend name for status reporting.
	Name() string

	// Rasterize renders pdfPath at the given DPI into destDir.
	Rasterize(ctx context.Context, pdfPath, destDir string, dpi int) ([]string, error)
}

// pageQuality is the JPEG quality for intermediate page renders. Pages are
// re-encoded again at the job quality on the PDF robust path, so this only
// needs to avoid visible generational loss.
const pageQuality = 95

// PageName returns the zero-padded filename for rendered page i (0-based).
func PageName(i int) string {
	return fmt.Sprintf("p_%05d.jpg", i)
}

// Fitz rasterizes documents with MuPDF through go-fitz.
type Fitz struct{}

// NewFitz returns the MuPDF rasterization backend.
func NewFitz() *Fitz {
	return &Fitz{}
}

// Name returns the backend name.
func (f *Fitz) Name() string { return "mupdf" }

// Rasterize renders every page of pdfPath to p_%05d.jpg files in destDir.
// The context is checked before each page; on cancellation the pages
// rendered so far are returned without error.
func (f *Fitz) Rasterize(ctx context.Context, pdfPath, destDir string, dpi int) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer doc.Close()

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		select {
		case <-ctx.Done():
			return pages, nil
		default:
		}

		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return pages, fmt.Errorf("rendering page %d of %s: %w", i+1, pdfPath, err)
		}

		path := filepath.Join(destDir, PageName(i))
		out, err := os.Create(path)
		if err != nil {
			return pages, fmt.Errorf("creating %s: %w", path, err)
		}
		encErr := jpeg.Encode(out, img, &jpeg.Options{Quality: pageQuality})
		closeErr := out.Close()
		if encErr != nil {
			return pages, fmt.Errorf("encoding page %d: %w", i+1, encErr)
		}
		if closeErr != nil {
			return pages, fmt.Errorf("closing %s: %w", path, closeErr)
		}
		pages = append(pages, path)
	}
	return pages, nil
}
