// Package nlmdispatch implements the NLM/KLM byte-range lock dispatcher
// (component C6): a thin decode-and-forward layer over the lock table.
// Unlike the NFS dispatcher, it never consults the handle or backend
// registries — a lock file handle is treated as an opaque key into the
// lock table, exactly as spec.md §4.2/§4.6 describe.
package nlmdispatch

import (
	"github.com/brinefs/nfs2d/internal/core/handle"
	"github.com/brinefs/nfs2d/internal/core/lock"
)

// Request is the common argument shape NLM TEST/LOCK/CANCEL/UNLOCK share:
// a (largely decorative) server name, the lock file handle, an owner id,
// and the byte range. ServerName is accepted for wire compatibility and
// otherwise ignored, per spec.md §4.2.
type Request struct {
	ServerName string
	FH         handle.FileHandle
	Exclusive  bool
	Owner      int64
	Offset     uint64
	Length     uint64
}

// Dispatcher implements the NLM (program 100021) and KLM procedures.
type Dispatcher struct {
	locks *lock.Table
}

// New creates a dispatcher over the given lock table.
func New(locks *lock.Table) *Dispatcher {
	return &Dispatcher{locks: locks}
}

// Test handles NLM_TEST / KLM_LOCK's test-only mode: would the requested
// lock be granted, and if not, who holds the conflicting range.
func (d *Dispatcher) Test(req Request) (lock.Status, *lock.Conflict) {
	return d.locks.Test(req.FH, req.Exclusive, req.Owner, req.Offset, req.Length)
}

// Lock handles NLM_LOCK / KLM_LOCK.
func (d *Dispatcher) Lock(req Request, block bool) lock.Status {
	return d.locks.Lock(req.FH, block, req.Exclusive, req.Owner, req.Offset, req.Length)
}

// Cancel handles NLM_CANCEL: withdraw a pending blocking lock request.
// The lock table never actually queues blocking requests (spec.md §9), so
// this always reports success.
func (d *Dispatcher) Cancel(req Request) lock.Status {
	return d.locks.Cancel(req.FH, req.Owner, req.Offset, req.Length)
}

// Unlock handles NLM_UNLOCK / KLM_UNLOCK.
func (d *Dispatcher) Unlock(req Request) lock.Status {
	return d.locks.Unlock(req.FH, req.Owner, req.Offset, req.Length)
}
