// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
)

// LibraryExtractor unpacks archives in-process. Format detection is left to
// the archives package, which covers zip/cbz, rar/cbr, 7z, and tar variants.
type LibraryExtractor struct{}

// NewLibraryExtractor returns the in-process extraction backend.
func NewLibraryExtractor() *LibraryExtractor {
	return &LibraryExtractor{}
}

// Name returns the backend name.
func (l *LibraryExtractor) Name() string { return "archives" }

// Available always reports true: the backend is compiled in.
func (l *LibraryExtractor) Available() bool { return true }

// Extract identifies the archive format from its header and filename, then
// writes every regular entry under destDir. Entry names are sanitized so an
// archive cannot escape the destination directory.
func (l *LibraryExtractor) Extract(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	format, stream, err := archives.Identify(ctx, filepath.Base(archivePath), f)
	if err != nil {
		return fmt.Errorf("identifying archive format: %w", err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return fmt.Errorf("format %s is not extractable", format.Extension())
	}

	return extractor.Extract(ctx, stream, func(ctx context.Context, info archives.FileInfo) error {
		rel := sanitizeEntryName(info.NameInArchive)
		if rel == "" {
			return nil
		}
		target := filepath.Join(destDir, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil // skip symlinks and specials
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating entry directory: %w", err)
		}

		src, err := info.Open()
		if err != nil {
			return fmt.Errorf("opening entry %s: %w", info.NameInArchive, err)
		}
		defer src.Close()

		dst, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("creating %s: %w", target, err)
		}
		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			return fmt.Errorf("writing %s: %w", target, err)
		}
		return dst.Close()
	})
}

// sanitizeEntryName normalizes an archive entry name into a safe relative
// path, or "" when the entry must be skipped.
func sanitizeEntryName(name string) string {
	name = filepath.ToSlash(name)
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || clean == ".." || filepath.IsAbs(clean) {
		return ""
	}
	if strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return ""
	}
	return clean
}
