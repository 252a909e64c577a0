// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace tracks the temporary directories a conversion run
// allocates and guarantees they are removed exactly once.
package workspace

import (
	"fmt"
	"os"
	"sync"
)

// Registry owns the temporary workspaces of a single run. A directory is
// registered before any extraction or rasterization writes into it, so a
// failure mid-operation still leaves it eligible for cleanup.
type Registry struct {
	mu   sync.Mutex
	dirs []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create allocates a new temporary directory under the system temp location
// and registers it for cleanup.
func (r *Registry) Create(prefix string) (string, error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return "", fmt.Errorf("creating workspace: %w", err)
	}
	r.mu.Lock()
	r.dirs = append(r.dirs, dir)
	r.mu.Unlock()
	return dir, nil
}

// Count returns the number of workspaces currently registered.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dirs)
}

// RemoveAll deletes every registered workspace and clears the registry.
// Calling it again is a no-op, so cleanup on multiple exit paths is safe.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	dirs := r.dirs
	r.dirs = nil
	r.mu.Unlock()

	for _, d := range dirs {
		os.RemoveAll(d)
	}
}
