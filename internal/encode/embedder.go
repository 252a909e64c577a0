// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package encode

import (
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Embedder places source images into a PDF container without re-encoding
// their pixel data. It cannot apply color-mode changes, so grayscale output
// never uses it.
type Embedder interface {
	// Name returns the backend name for status reporting.
	Name() string

	// EmbedFiles writes the images at imageFiles into a PDF at outPath,
	// one page per image, in list order.
	EmbedFiles(imageFiles []string, outPath string) error
}

// PDFCPU embeds images with the pdfcpu import API. JPEG pages are carried
// over byte-for-byte as DCT streams.
type PDFCPU struct{}

// NewPDFCPU returns the pdfcpu embedding backend.
func NewPDFCPU() *PDFCPU {
	return &PDFCPU{}
}

// Name returns the backend name.
func (p *PDFCPU) Name() string { return "pdfcpu" }

// EmbedFiles imports the image files into a new PDF at outPath.
func (p *PDFCPU) EmbedFiles(imageFiles []string, outPath string) error {
	return api.ImportImagesFile(imageFiles, outPath, nil, model.NewDefaultConfiguration())
}

// importImages assembles already-encoded JPEG page streams into a PDF
// written to w. Used by the robust path.
func importImages(w io.Writer, pages []io.Reader) error {
	return api.ImportImages(nil, w, pages, nil, model.NewDefaultConfiguration())
}
