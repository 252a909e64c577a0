// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/comic-forge/internal/archive"
	"github.com/pdiddy/comic-forge/internal/raster"
	"github.com/pdiddy/comic-forge/internal/workspace"
	"github.com/pdiddy/comic-forge/pkg/types"
)

// Resolver turns a source descriptor into an ordered page-image list.
// Extraction and rasterization failures are lenient: the source simply
// contributes zero pages, and a status line is written to w.
type Resolver struct {
	// Extractors is the archive backend chain. An empty chain means
	// archive sources resolve to zero pages.
	Extractors archive.Chain

	// Rasterizer renders PDF sources. Nil means PDF sources resolve to
	// zero pages.
	Rasterizer raster.Rasterizer

	// Workspaces receives every temporary directory the resolver
	// allocates, registered before extraction begins.
	Workspaces *workspace.Registry

	// DPI is the rasterization resolution for PDF sources.
	DPI int
}

// Resolve returns the ordered page list for one source. A content override
// is returned verbatim with no I/O.
func (r *Resolver) Resolve(ctx context.Context, src types.Source, w io.Writer) []string {
	if src.ContentOverride != nil {
		return src.ContentOverride
	}

	switch src.Kind {
	case types.KindFolder:
		return CollectImages(src.Path)

	case types.KindArchive:
		return r.resolveArchive(ctx, src, w)

	case types.KindPDF:
		return r.resolvePDF(ctx, src, w)

	case types.KindImage:
		return []string{src.Path}

	default:
		return nil
	}
}

func (r *Resolver) resolveArchive(ctx context.Context, src types.Source, w io.Writer) []string {
	ws, err := r.Workspaces.Create("forge-extract-")
	if err != nil {
		fmt.Fprintf(w, "cannot extract %s: %v\n", src.Label, err)
		return nil
	}
	backend, err := r.Extractors.Extract(ctx, src.Path, ws)
	if err != nil {
		fmt.Fprintf(w, "cannot extract %s: %v\n", src.Label, err)
		return nil
	}
	fmt.Fprintf(w, "extracted %s (%s)\n", src.Label, backend)
	return CollectImages(ws)
}

func (r *Resolver) resolvePDF(ctx context.Context, src types.Source, w io.Writer) []string {
	if r.Rasterizer == nil {
		fmt.Fprintf(w, "skipping %s: no PDF rasterization backend\n", src.Label)
		return nil
	}
	ws, err := r.Workspaces.Create("forge-raster-")
	if err != nil {
		fmt.Fprintf(w, "cannot render %s: %v\n", src.Label, err)
		return nil
	}
	// Partial renders still contribute their pages; a render error is a
	// status line, not a run failure.
	pages, err := r.Rasterizer.Rasterize(ctx, src.Path, ws, r.DPI)
	if err != nil {
		fmt.Fprintf(w, "PDF render error for %s: %v\n", src.Label, err)
	}
	return pages
}
