// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive extracts compressed comic containers into a caller-supplied
// directory. Two backends are supported: a library-based extractor and the
// external 7-Zip command-line tool, tried in that order.
package archive

import (
	"context"
	"fmt"
)

// Extractor unpacks one archive into a destination directory. Backends
// differ in mechanism only; both write plain files under destDir.
type Extractor interface {
	// Name returns the backend name for status reporting.
	Name() string

	// Available reports whether the backend can run on this system.
	Available() bool

	// Extract unpacks archivePath into destDir.
	Extract(ctx context.Context, archivePath, destDir string) error
}

// Chain tries each extractor in order until one succeeds.
type Chain []Extractor

// Detect returns the default backend chain: the library extractor first,
// then the external 7-Zip tool. Unavailable backends are excluded, so the
// chain may be empty on a system with neither.
func Detect() Chain {
	var chain Chain
	for _, e := range []Extractor{NewLibraryExtractor(), NewSevenZip()} {
		if e.Available() {
			chain = append(chain, e)
		}
	}
	return chain
}

// Extract runs the chain against one archive. It returns the name of the
// backend that succeeded, or an error when every backend failed or the
// chain is empty.
func (c Chain) Extract(ctx context.Context, archivePath, destDir string) (string, error) {
	if len(c) == 0 {
		return "", fmt.Errorf("no archive extraction backend available")
	}
	var lastErr error
	for _, e := range c {
		if err := e.Extract(ctx, archivePath, destDir); err != nil {
			lastErr = fmt.Errorf("%s: %w", e.Name(), err)
			continue
		}
		return e.Name(), nil
	}
	return "", fmt.Errorf("extracting %s: %w", archivePath, lastErr)
}
