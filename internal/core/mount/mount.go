// Package mount implements the mount table and backend dispatcher
// (component C4): exported paths, their (un)mount lifecycle, and the
// drive of backend Init/Terminate.
package mount

import (
	"sync"

	"github.com/brinefs/nfs2d/internal/core/backend"
	"github.com/brinefs/nfs2d/internal/core/fsreg"
	"github.com/brinefs/nfs2d/internal/core/handle"
)

// MntStatus is the numeric status the MOUNT protocol's mnt() returns: 0 on
// success, 1 on failure (spec.md §4.4, §7).
type MntStatus uint32

const (
	MntOK   MntStatus = 0
	MntFail MntStatus = 1
)

// Entry is one administratively registered mountpoint. RootFH and FsID are
// populated only while the entry is mounted.
type Entry struct {
	Path    string
	Backend backend.Module
	Opts    map[string]any

	mounted bool
	rootFH  handle.FileHandle
	fsID    uint32
}

// Mounted reports whether this entry currently has a live backend.
func (e *Entry) Mounted() bool { return e.mounted }

// RootFH returns the entry's root handle; valid only when Mounted().
func (e *Entry) RootFH() handle.FileHandle { return e.rootFH }

// FsID returns the entry's filesystem id; valid only when Mounted().
func (e *Entry) FsID() uint32 { return e.fsID }

// ExportEntry is one row of the MOUNT EXPORT reply (spec.md §4.4).
type ExportEntry struct {
	Path   string
	Groups []string // always empty: spec.md models groups as void
}

// Table is the process-wide mount table.
type Table struct {
	mu       sync.Mutex
	entries  []*Entry
	handles  *handle.Registry
	backends *fsreg.Registry
}

// New creates an empty mount table bound to the given handle and backend
// registries, which it drives on mount/unmount.
func New(handles *handle.Registry, backends *fsreg.Registry) *Table {
	return &Table{handles: handles, backends: backends}
}

// AddMountpoint registers a new mount entry in the unmounted state
// (spec.md §4.4, administrative add_mountpoint). Duplicate paths are
// permitted; only the first match is used by a later Mnt.
func (t *Table) AddMountpoint(path string, module backend.Module, opts map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, &Entry{Path: path, Backend: module, Opts: opts})
}

// Null is the MOUNT NULL procedure: a no-op ping.
func (t *Table) Null() {}

func (t *Table) find(path string) *Entry {
	for _, e := range t.entries {
		if e.Path == path {
			return e
		}
	}
	return nil
}

// Mnt handles MOUNT MNT (spec.md §4.4). A path with no registered entry
// reports failure. An already-mounted entry returns its existing root
// handle (idempotent remount). Otherwise the backend is initialized, a new
// fs_id is allocated, and a root handle is minted.
func (t *Table) Mnt(path string) (MntStatus, handle.FileHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := t.find(path)
	if entry == nil {
		return MntFail, handle.FileHandle{}
	}

	if entry.mounted {
		return MntOK, entry.rootFH
	}

	rootID, state, err := entry.Backend.Init(entry.Opts)
	if err != nil {
		return MntFail, handle.FileHandle{}
	}

	fsID := t.backends.Allocate(entry.Backend, state)
	rootFH := t.handles.HandleFor(rootID, fsID)

	entry.mounted = true
	entry.rootFH = rootFH
	entry.fsID = fsID

	return MntOK, rootFH
}

// Umnt handles MOUNT UMNT (spec.md §4.4). Always returns void: if the
// entry is mounted its backend is terminated and the entry reset to the
// unmounted state, otherwise nothing happens.
func (t *Table) Umnt(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := t.find(path)
	if entry == nil || !entry.mounted {
		return
	}
	t.unmount(entry)
}

// UmntAll handles MOUNT UMNTALL: apply Umnt semantics to every mounted
// entry.
func (t *Table) UmntAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, entry := range t.entries {
		if entry.mounted {
			t.unmount(entry)
		}
	}
}

// unmount terminates entry's backend and resets it to the unmounted
// state. Caller must hold t.mu.
func (t *Table) unmount(entry *Entry) {
	state, _ := t.backends.State(entry.fsID)
	_ = entry.Backend.Terminate(state)
	t.backends.Deactivate(entry.fsID)

	entry.mounted = false
	entry.rootFH = handle.FileHandle{}
	entry.fsID = 0
}

// Export handles MOUNT EXPORT: a list of (path, groups=void) for every
// registered entry, mounted or not.
func (t *Table) Export() []ExportEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ExportEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, ExportEntry{Path: e.Path})
	}
	return out
}
