// Package backend is the lookup table from a configuration-file backend
// name (SPEC_FULL.md §2's MountConfig.Backend) to a constructor for a
// concrete backend.Module. The core dispatchers never import this
// package; it exists purely to let cmd/nfs2d turn a config file into
// live mount.Table entries without hard-coding the list of available
// filesystems.
package backend

import (
	"fmt"

	coreBackend "github.com/brinefs/nfs2d/internal/core/backend"
	"github.com/brinefs/nfs2d/internal/backend/memfs"
)

// Constructor builds a fresh, uninitialized backend.Module instance. It is
// called once per mountpoint so that two mounts of the same backend name
// never share state.
type Constructor func() coreBackend.Module

var registry = map[string]Constructor{
	"memfs": func() coreBackend.Module { return memfs.New() },
}

// Lookup resolves a backend name to a constructor.
func Lookup(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("backend: unknown backend %q", name)
	}
	return ctor, nil
}
