// Package fsreg implements the backend registry (component C3): the
// fs_id -> backend module mapping and the separate fs_id -> backend-local
// state mapping, plus fs_id allocation.
package fsreg

import (
	"sync"
	"time"

	"github.com/brinefs/nfs2d/internal/core/backend"
)

// Registry tracks which backend module serves each fs_id, and the opaque
// local state that module is currently operating with.
//
// The module mapping is retained after Terminate: a stale handle for an
// unmounted filesystem must still decode to a known (now-inactive)
// backend, per spec.md §4.3.
type Registry struct {
	mu            sync.RWMutex
	nextFsID      uint32
	modules       map[uint32]backend.Module
	states        map[uint32]any
	deactivatedAt map[uint32]time.Time
}

// New creates an empty backend registry. fs_id allocation starts at 1.
func New() *Registry {
	return &Registry{
		modules:       make(map[uint32]backend.Module),
		states:        make(map[uint32]any),
		deactivatedAt: make(map[uint32]time.Time),
	}
}

// Allocate reserves a new fs_id for module and records it as active with
// the given local state.
func (r *Registry) Allocate(module backend.Module, state any) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextFsID++
	fsID := r.nextFsID
	r.modules[fsID] = module
	r.states[fsID] = state
	return fsID
}

// Module returns the backend module registered for fsID, or ok=false if
// fsID was never allocated.
func (r *Registry) Module(fsID uint32) (backend.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[fsID]
	return m, ok
}

// State returns the live local state for fsID. ok is false both when fsID
// is unknown and when it is known but currently unmounted (Deactivate has
// removed the state entry while keeping the module mapping) — the caller
// distinguishes those by also checking Module.
func (r *Registry) State(fsID uint32) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[fsID]
	return s, ok
}

// Deactivate drops the local state for fsID after its backend has been
// terminated, while retaining the module mapping, and records the time of
// deactivation for Reap.
func (r *Registry) Deactivate(fsID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, fsID)
	r.deactivatedAt[fsID] = time.Now()
}

// Forget fully removes both the module and state mapping for fsID. This
// is the irreversible half of the bounded-eviction hook in SPEC_FULL.md;
// once called, handles for fsID can no longer be told apart from handles
// that were never minted at all, so callers must also evict the
// corresponding handle.Registry entries at the same time.
func (r *Registry) Forget(fsID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modules, fsID)
	delete(r.states, fsID)
	delete(r.deactivatedAt, fsID)
}

// Reap forgets every filesystem that has been deactivated for longer than
// olderThan and returns the fs_ids it forgot, so the caller can evict the
// matching handle.Registry entries in the same pass. Filesystems that are
// currently mounted (no recorded deactivation time) are never reaped.
func (r *Registry) Reap(olderThan time.Duration) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var forgotten []uint32
	for fsID, at := range r.deactivatedAt {
		if at.Before(cutoff) {
			delete(r.modules, fsID)
			delete(r.states, fsID)
			delete(r.deactivatedAt, fsID)
			forgotten = append(forgotten, fsID)
		}
	}
	return forgotten
}
