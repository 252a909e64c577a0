// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package encode turns an ordered page-image list into a single output
// artifact: a stored (uncompressed) CBZ container, or a multi-page PDF via
// either a direct-embedding fast path or a decode-and-re-encode robust path.
package encode

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Page decoders for the PDF robust path.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdiddy/comic-forge/pkg/types"
)

// Encoder produces output artifacts. A nil Embedder disables the PDF fast
// path; the robust path is always available.
type Encoder struct {
	// Embedder is the direct image-to-PDF embedding backend, or nil.
	Embedder Embedder
}

// Encode writes pages into a single artifact at destPath. It returns the
// artifact path, or "" when no artifact was produced: empty page list,
// cancellation, or a total encode failure (reported through err). Per-page
// failures are skipped with a status line on w.
func (e *Encoder) Encode(ctx context.Context, pages []string, format types.Format, destPath string, quality int, grayscale bool, w io.Writer) (string, error) {
	if len(pages) == 0 {
		return "", nil
	}
	switch format {
	case types.FormatCBZ:
		return e.encodeCBZ(ctx, pages, destPath)
	case types.FormatPDF:
		return e.encodePDF(ctx, pages, destPath, quality, grayscale, w)
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

// EntryName returns the deterministic page entry name for index i (0-based),
// keeping the page's original extension.
func EntryName(i int, pagePath string) string {
	return fmt.Sprintf("p_%05d%s", i, strings.ToLower(filepath.Ext(pagePath)))
}

// encodeCBZ writes a zip container with stored entries in page order. A
// cancellation mid-write removes the partial file and returns ctx.Err().
func (e *Encoder) encodeCBZ(ctx context.Context, pages []string, destPath string) (string, error) {
	f, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", destPath, err)
	}
	zw := zip.NewWriter(f)

	abort := func(err error) (string, error) {
		zw.Close()
		f.Close()
		os.Remove(destPath)
		return "", err
	}

	now := time.Now()
	for i, p := range pages {
		select {
		case <-ctx.Done():
			return abort(ctx.Err())
		default:
		}

		src, err := os.Open(p)
		if err != nil {
			continue // unreadable page is dropped, not fatal
		}
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     EntryName(i, p),
			Method:   zip.Store,
			Modified: now,
		})
		if err != nil {
			src.Close()
			return abort(fmt.Errorf("creating entry %d: %w", i, err))
		}
		_, copyErr := io.Copy(entry, src)
		src.Close()
		if copyErr != nil {
			return abort(fmt.Errorf("writing entry %d: %w", i, copyErr))
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("finalizing %s: %w", destPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("closing %s: %w", destPath, err)
	}
	return destPath, nil
}

// encodePDF picks between the fast and robust paths. Grayscale always
// forces the robust path since direct embedding cannot recolor pixel data.
func (e *Encoder) encodePDF(ctx context.Context, pages []string, destPath string, quality int, grayscale bool, w io.Writer) (string, error) {
	if !grayscale && e.Embedder != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		err := e.Embedder.EmbedFiles(pages, destPath)
		if err == nil {
			return destPath, nil
		}
		fmt.Fprintf(w, "direct embed failed (%v), re-encoding\n", err)
		os.Remove(destPath)
	}
	return e.encodePDFRobust(ctx, pages, destPath, quality, grayscale, w)
}

// encodePDFRobust decodes each page, applies the requested color mode,
// re-encodes it as JPEG at the job quality, and assembles the document.
// Only one decoded page is held at a time; pages are kept compressed once
// encoded, bounding memory on large batches.
func (e *Encoder) encodePDFRobust(ctx context.Context, pages []string, destPath string, quality int, grayscale bool, w io.Writer) (string, error) {
	var encoded []io.Reader
	for _, p := range pages {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		img, err := decodePage(p)
		if err != nil {
			fmt.Fprintf(w, "skipping page %s: %v\n", filepath.Base(p), err)
			continue
		}
		if grayscale {
			img = toGray(img)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			fmt.Fprintf(w, "skipping page %s: %v\n", filepath.Base(p), err)
			continue
		}
		encoded = append(encoded, bytes.NewReader(buf.Bytes()))
	}
	if len(encoded) == 0 {
		return "", fmt.Errorf("no decodable pages")
	}

	f, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", destPath, err)
	}
	if err := importImages(f, encoded); err != nil {
		f.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("assembling %s: %w", destPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("closing %s: %w", destPath, err)
	}
	return destPath, nil
}

// decodePage opens and decodes one page image using the registered formats.
func decodePage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	return img, nil
}

// toGray converts an image to 8-bit grayscale.
func toGray(img image.Image) image.Image {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}
