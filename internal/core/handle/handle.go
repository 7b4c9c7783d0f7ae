// Package handle implements the file-handle registry (component C1):
// the bidirectional, per-filesystem mapping between opaque 32-byte NFS
// file handles and backend-local identifiers.
package handle

import (
	"encoding/binary"
	"sync"
)

// Size is the wire length of a file handle in bytes: a 4-byte file_id,
// a 4-byte fs_id, and a 24-byte server-instance nonce.
const Size = 32

const suffixSize = Size - 8

// FileHandle is the fixed 32-byte opaque value returned to NFS clients.
type FileHandle [Size]byte

// FileID returns the per-filesystem monotonic counter embedded in fh.
func (fh FileHandle) FileID() uint32 {
	return binary.BigEndian.Uint32(fh[0:4])
}

// FsID returns the filesystem instance identifier embedded in fh.
func (fh FileHandle) FsID() uint32 {
	return binary.BigEndian.Uint32(fh[4:8])
}

// Suffix returns the server-instance nonce embedded in fh.
func (fh FileHandle) Suffix() [suffixSize]byte {
	var s [suffixSize]byte
	copy(s[:], fh[8:Size])
	return s
}

func pack(fileID, fsID uint32, suffix [suffixSize]byte) FileHandle {
	var fh FileHandle
	binary.BigEndian.PutUint32(fh[0:4], fileID)
	binary.BigEndian.PutUint32(fh[4:8], fsID)
	copy(fh[8:Size], suffix[:])
	return fh
}

// ID is an opaque backend-local identifier. The registry only ever treats
// it as an equality/hash key; the concrete type is chosen by the backend
// and must be comparable (usable as a map key).
type ID any

type fsKey struct {
	fsID uint32
	id   ID
}

// Registry is the bidirectional handle<->id mapping, partitioned by fs_id.
//
// Entries are never removed on unmount: a handle minted for a filesystem
// that later unmounts keeps resolving to the same backend ID, so a stale
// lookup can be told apart from a truly unknown handle (see Lookup).
// Zero value is not usable; construct with New.
type Registry struct {
	mu sync.RWMutex

	suffix [suffixSize]byte

	idToHandle map[fsKey]FileHandle
	handleToID map[FileHandle]ID

	counters map[uint32]uint32 // fs_id -> last-minted file_id
}

// New creates a Registry whose minted handles all carry the given
// server-instance nonce. The nonce should be constant for the lifetime of
// one server process and is how stale handles from a prior instance could
// be detected by a caller that persists it across restarts (the core
// itself does not persist anything, per spec.md Non-goals).
func New(suffix [suffixSize]byte) *Registry {
	return &Registry{
		suffix:     suffix,
		idToHandle: make(map[fsKey]FileHandle),
		handleToID: make(map[FileHandle]ID),
		counters:   make(map[uint32]uint32),
	}
}

// Lookup resolves a file handle to the backend ID it was minted for.
// ok is false if the handle was never registered (a stale/unknown handle).
func (r *Registry) Lookup(fh FileHandle) (id ID, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok = r.handleToID[fh]
	return id, ok
}

// HandleFor returns the handle previously minted for (id, fsID), minting a
// new one on first use. Minting increments the per-fsID file_id counter
// (1-based; 0 is reserved) and records both directions permanently.
func (r *Registry) HandleFor(id ID, fsID uint32) FileHandle {
	key := fsKey{fsID: fsID, id: id}

	r.mu.RLock()
	if fh, ok := r.idToHandle[key]; ok {
		r.mu.RUnlock()
		return fh
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock: another caller may have minted it
	// between the RUnlock above and this Lock.
	if fh, ok := r.idToHandle[key]; ok {
		return fh
	}

	r.counters[fsID]++
	fileID := r.counters[fsID]

	fh := pack(fileID, fsID, r.suffix)
	r.idToHandle[key] = fh
	r.handleToID[fh] = id
	return fh
}

// Parse structurally decodes a handle's file_id and fs_id without
// consulting the registry.
func Parse(fh FileHandle) (fileID, fsID uint32) {
	return fh.FileID(), fh.FsID()
}

// Len reports the number of handles currently registered. It exists for
// the bounded-eviction hook described in SPEC_FULL.md; the core itself
// never calls it.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handleToID)
}

// EvictFilesystem drops every registered handle whose fs_id matches fsID.
//
// This must only be called for filesystems that have been fully
// decommissioned (their backend module mapping removed from the backend
// registry, not merely unmounted): removing entries for a live-but-
// unmounted filesystem would break the stale-handle contract, since a
// remount would then silently mint colliding file_ids for old clients
// still holding pre-eviction handles.
func (r *Registry) EvictFilesystem(fsID uint32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for fh, id := range r.handleToID {
		if fh.FsID() != fsID {
			continue
		}
		delete(r.handleToID, fh)
		delete(r.idToHandle, fsKey{fsID: fsID, id: id})
		removed++
	}
	delete(r.counters, fsID)
	return removed
}
