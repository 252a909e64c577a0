// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source classifies input paths and resolves them into ordered
// page-image lists. Folder and archive sources are walked with natural
// ordering per directory; PDF sources go through the rasterizer.
package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/comic-forge/internal/natsort"
	"github.com/pdiddy/comic-forge/pkg/types"
)

// imageExts are the recognized raster page extensions, lower-cased.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// containerExts are the recognized compressed-archive extensions.
var containerExts = map[string]bool{
	".zip": true,
	".cbz": true,
	".rar": true,
	".cbr": true,
	".7z":  true,
	".cb7": true,
}

// IsImage reports whether path has a recognized page-image extension.
func IsImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// IsContainer reports whether path has a recognized archive extension.
func IsContainer(path string) bool {
	return containerExts[strings.ToLower(filepath.Ext(path))]
}

// Classify determines the source kind for a path. Directories are folders;
// files are classified by extension.
func Classify(path string) types.SourceKind {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return types.KindFolder
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return types.KindPDF
	case containerExts[ext]:
		return types.KindArchive
	case imageExts[ext]:
		return types.KindImage
	default:
		return types.KindOther
	}
}

// New builds a Source descriptor for a path, classifying it and recording
// the submission time.
func New(path string) types.Source {
	return types.Source{
		Path:    path,
		Kind:    Classify(path),
		Label:   filepath.Base(path),
		AddedAt: time.Now(),
	}
}

// CollectImages walks root depth-first and returns every recognized page
// image. Entries at each directory level are visited in natural order, so
// "p2.jpg" precedes "p10.jpg" and chapter directories interleave the same
// way. Unreadable directories contribute nothing.
func CollectImages(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		return natsort.Less(entries[i].Name(), entries[j].Name())
	})

	var pages []string
	for _, e := range entries {
		full := filepath.Join(root, e.Name())
		if e.IsDir() {
			pages = append(pages, CollectImages(full)...)
			continue
		}
		if IsImage(e.Name()) {
			pages = append(pages, full)
		}
	}
	return pages
}
