// Package nfsdispatch implements the NFS procedure dispatcher (component
// C5): it resolves file handles through the handle registry and backend
// registry, drives the resolved Module's callbacks, and translates their
// results into NFS replies via the attribute assembler and status mapper.
package nfsdispatch

import (
	"github.com/brinefs/nfs2d/internal/core/attr"
	"github.com/brinefs/nfs2d/internal/core/backend"
	"github.com/brinefs/nfs2d/internal/core/fsreg"
	"github.com/brinefs/nfs2d/internal/core/handle"
)

// Logger is the subset of structured-logging calls the dispatcher needs.
// internal/logger's Default satisfies this structurally.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Dispatcher implements the NFS (program 100003, version 2) procedures.
type Dispatcher struct {
	handles  *handle.Registry
	backends *fsreg.Registry
	log      Logger
	debug    bool
}

// New creates a dispatcher bound to the given handle and backend
// registries.
func New(handles *handle.Registry, backends *fsreg.Registry) *Dispatcher {
	return &Dispatcher{handles: handles, backends: backends, log: nopLogger{}}
}

// SetLogger installs a structured logger for crash-barrier and debug
// trace output.
func (d *Dispatcher) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	d.log = l
}

// SetDebug toggles per-request trace logging (SPEC_FULL.md §4): while
// enabled, every file-handle resolution a request makes logs the handle,
// its fs_id and the resulting status at debug level.
func (d *Dispatcher) SetDebug(enabled bool) { d.debug = enabled }

func (d *Dispatcher) trace(msg string, args ...any) {
	if d.debug {
		d.log.Debug(msg, args...)
	}
}

// resolved is a handle that has been looked up to a live backend, its
// backend-local id, and its backend-local state.
type resolved struct {
	module backend.Module
	id     backend.ID
	state  any
	fsID   uint32
}

// resolve looks up fh through the handle registry and the backend
// registry. A handle that does not decode to a known id, or whose
// filesystem has no live module/state (never mounted, or unmounted since
// the handle was minted), reports NFSERR_STALE per spec.md §4.1/§4.3.
func (d *Dispatcher) resolve(fh handle.FileHandle) (r resolved, st attr.Status) {
	_, fsID := handle.Parse(fh)
	defer func() { d.trace("nfs handle resolved", "handle", fh, "fs_id", fsID, "status", st) }()

	id, ok := d.handles.Lookup(fh)
	if !ok {
		return resolved{}, attr.NFSERR_STALE
	}

	module, ok := d.backends.Module(fsID)
	if !ok {
		return resolved{}, attr.NFSERR_STALE
	}
	state, ok := d.backends.State(fsID)
	if !ok {
		return resolved{}, attr.NFSERR_STALE
	}
	return resolved{module: module, id: id, state: state, fsID: fsID}, attr.NFS_OK
}

// guard runs fn behind a recover barrier: a panicking backend call is
// remapped to an opaque I/O failure rather than taking the server down
// (spec.md §7's crash barrier).
func guard[T any](d *Dispatcher, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("backend panic recovered", "panic", r)
			var zero T
			result = zero
			err = backend.NewError(backend.ReasonIO)
		}
	}()
	return fn()
}

// Null is the NFS NULL procedure: a no-op ping.
func (d *Dispatcher) Null() {}

// Getattr handles the NFS GETATTR procedure.
func (d *Dispatcher) Getattr(fh handle.FileHandle) AttrStat {
	r, st := d.resolve(fh)
	if st != attr.NFS_OK {
		return AttrStat{Status: st}
	}
	fileID, fsID := handle.Parse(fh)
	opts, err := guard(d, func() (backend.AttrSet, error) {
		return r.module.Getattr(r.id, r.state)
	})
	if err != nil {
		return AttrStat{Status: attr.MapErr(err)}
	}
	return AttrStat{Status: attr.NFS_OK, Attr: attr.Assemble(fileID, fsID, opts)}
}

// Setattr handles the NFS SETATTR procedure.
func (d *Dispatcher) Setattr(fh handle.FileHandle, attrs backend.AttrSet) AttrStat {
	r, st := d.resolve(fh)
	if st != attr.NFS_OK {
		return AttrStat{Status: st}
	}
	_, err := guard(d, func() (struct{}, error) {
		return struct{}{}, r.module.Setattr(r.id, attrs, r.state)
	})
	if err != nil {
		return AttrStat{Status: attr.MapErr(err)}
	}
	return d.Getattr(fh)
}

// Lookup handles the NFS LOOKUP procedure.
func (d *Dispatcher) Lookup(dirFH handle.FileHandle, name string) DirOpRes {
	r, st := d.resolve(dirFH)
	if st != attr.NFS_OK {
		return DirOpRes{Status: st}
	}
	childID, err := guard(d, func() (backend.ID, error) {
		return r.module.Lookup(r.id, name, r.state)
	})
	if err != nil {
		return DirOpRes{Status: attr.MapErr(err)}
	}
	return d.replyForChild(r, childID)
}

// replyForChild mints or reuses the child's handle and issues the
// post-op getattr every DirOpRes reply carries (spec.md §4.6).
func (d *Dispatcher) replyForChild(r resolved, childID backend.ID) DirOpRes {
	childFH := d.handles.HandleFor(childID, r.fsID)

	opts, err := guard(d, func() (backend.AttrSet, error) {
		return r.module.Getattr(childID, r.state)
	})
	if err != nil {
		return DirOpRes{Status: attr.MapErr(err)}
	}
	fileID, fsID := handle.Parse(childFH)
	return DirOpRes{Status: attr.NFS_OK, FH: childFH, Attr: attr.Assemble(fileID, fsID, opts)}
}

// Readlink handles the NFS READLINK procedure.
func (d *Dispatcher) Readlink(fh handle.FileHandle) ReadlinkRes {
	r, st := d.resolve(fh)
	if st != attr.NFS_OK {
		return ReadlinkRes{Status: st}
	}
	target, err := guard(d, func() (string, error) {
		return r.module.Readlink(r.id, r.state)
	})
	if err != nil {
		return ReadlinkRes{Status: attr.MapErr(err)}
	}
	return ReadlinkRes{Status: attr.NFS_OK, Target: target}
}

// Read handles the NFS READ procedure.
func (d *Dispatcher) Read(fh handle.FileHandle, offset, count, totalCount uint32) ReadRes {
	r, st := d.resolve(fh)
	if st != attr.NFS_OK {
		return ReadRes{Status: st}
	}
	data, err := guard(d, func() ([]byte, error) {
		return r.module.Read(r.id, offset, count, totalCount, r.state)
	})
	if err != nil {
		return ReadRes{Status: attr.MapErr(err)}
	}
	fileID, fsID := handle.Parse(fh)
	opts, err := guard(d, func() (backend.AttrSet, error) {
		return r.module.Getattr(r.id, r.state)
	})
	if err != nil {
		return ReadRes{Status: attr.MapErr(err)}
	}
	return ReadRes{Status: attr.NFS_OK, Attr: attr.Assemble(fileID, fsID, opts), Data: data}
}

// Write handles the NFS WRITE procedure.
func (d *Dispatcher) Write(fh handle.FileHandle, beginOffset, offset, totalCount uint32, data []byte) AttrStat {
	r, st := d.resolve(fh)
	if st != attr.NFS_OK {
		return AttrStat{Status: st}
	}
	_, err := guard(d, func() (struct{}, error) {
		return struct{}{}, r.module.Write(r.id, beginOffset, offset, totalCount, data, r.state)
	})
	if err != nil {
		return AttrStat{Status: attr.MapErr(err)}
	}
	return d.Getattr(fh)
}

// Create handles the NFS CREATE procedure.
func (d *Dispatcher) Create(dirFH handle.FileHandle, name string, attrs backend.AttrSet) DirOpRes {
	r, st := d.resolve(dirFH)
	if st != attr.NFS_OK {
		return DirOpRes{Status: st}
	}
	childID, err := guard(d, func() (backend.ID, error) {
		return r.module.Create(r.id, name, attrs, r.state)
	})
	if err != nil {
		return DirOpRes{Status: attr.MapErr(err)}
	}
	return d.replyForChild(r, childID)
}

// Remove handles the NFS REMOVE procedure.
func (d *Dispatcher) Remove(dirFH handle.FileHandle, name string) attr.Status {
	r, st := d.resolve(dirFH)
	if st != attr.NFS_OK {
		return st
	}
	_, err := guard(d, func() (struct{}, error) {
		return struct{}{}, r.module.Remove(r.id, name, r.state)
	})
	return attr.MapErr(err)
}

// Rename handles the NFS RENAME procedure. Handles resolving to different
// filesystems are rejected with NFSERR_NODEV (SPEC_FULL.md §1): the core
// has no notion of a cross-backend rename.
func (d *Dispatcher) Rename(fromDirFH handle.FileHandle, fromName string, toDirFH handle.FileHandle, toName string) attr.Status {
	from, st := d.resolve(fromDirFH)
	if st != attr.NFS_OK {
		return st
	}
	to, st := d.resolve(toDirFH)
	if st != attr.NFS_OK {
		return st
	}
	if from.fsID != to.fsID {
		return attr.NFSERR_NODEV
	}
	_, err := guard(d, func() (struct{}, error) {
		return struct{}{}, from.module.Rename(from.id, fromName, to.id, toName, from.state)
	})
	return attr.MapErr(err)
}

// Link handles the NFS LINK procedure. Like Rename, a cross-filesystem
// link is rejected with NFSERR_NODEV.
func (d *Dispatcher) Link(fromFH handle.FileHandle, toDirFH handle.FileHandle, toName string) attr.Status {
	from, st := d.resolve(fromFH)
	if st != attr.NFS_OK {
		return st
	}
	to, st := d.resolve(toDirFH)
	if st != attr.NFS_OK {
		return st
	}
	if from.fsID != to.fsID {
		return attr.NFSERR_NODEV
	}
	_, err := guard(d, func() (struct{}, error) {
		return struct{}{}, from.module.Link(from.id, to.id, toName, from.state)
	})
	return attr.MapErr(err)
}

// Symlink handles the NFS SYMLINK procedure.
func (d *Dispatcher) Symlink(dirFH handle.FileHandle, name, target string, attrs backend.AttrSet) attr.Status {
	r, st := d.resolve(dirFH)
	if st != attr.NFS_OK {
		return st
	}
	_, err := guard(d, func() (struct{}, error) {
		return struct{}{}, r.module.Symlink(r.id, name, target, attrs, r.state)
	})
	return attr.MapErr(err)
}

// Mkdir handles the NFS MKDIR procedure.
func (d *Dispatcher) Mkdir(dirFH handle.FileHandle, name string, attrs backend.AttrSet) DirOpRes {
	r, st := d.resolve(dirFH)
	if st != attr.NFS_OK {
		return DirOpRes{Status: st}
	}
	childID, err := guard(d, func() (backend.ID, error) {
		return r.module.Mkdir(r.id, name, attrs, r.state)
	})
	if err != nil {
		return DirOpRes{Status: attr.MapErr(err)}
	}
	return d.replyForChild(r, childID)
}

// Rmdir handles the NFS RMDIR procedure.
func (d *Dispatcher) Rmdir(dirFH handle.FileHandle, name string) attr.Status {
	r, st := d.resolve(dirFH)
	if st != attr.NFS_OK {
		return st
	}
	_, err := guard(d, func() (struct{}, error) {
		return struct{}{}, r.module.Rmdir(r.id, name, r.state)
	})
	return attr.MapErr(err)
}

// Readdir handles the NFS READDIR procedure. The backend contract has no
// notion of a resumption cookie (spec.md §4.5) and the current
// implementation does not honor the byte count limit either (spec.md §9):
// every call returns the full name listing in one reply with eof
// unconditionally true, looking up each name's file id individually and
// silently skipping names whose Lookup fails between the listing and the
// per-name lookup (spec.md §4.6, readdir's entry-skip behavior).
func (d *Dispatcher) Readdir(fh handle.FileHandle, cookie, count uint32) ReaddirRes {
	r, st := d.resolve(fh)
	if st != attr.NFS_OK {
		return ReaddirRes{Status: st}
	}
	names, err := guard(d, func() ([]string, error) {
		return r.module.Readdir(r.id, count, r.state)
	})
	if err != nil {
		return ReaddirRes{Status: attr.MapErr(err)}
	}

	entries := make([]ReaddirEntry, 0, len(names))
	for i, name := range names {
		childID, lookupErr := guard(d, func() (backend.ID, error) {
			return r.module.Lookup(r.id, name, r.state)
		})
		if lookupErr != nil {
			continue
		}
		childFH := d.handles.HandleFor(childID, r.fsID)
		fileID, _ := handle.Parse(childFH)
		entries = append(entries, ReaddirEntry{FileID: fileID, Name: name, Cookie: uint32(i + 1)})
	}

	return ReaddirRes{Status: attr.NFS_OK, Entries: entries, EOF: true}
}

// Statfs handles the NFS STATFS procedure.
func (d *Dispatcher) Statfs(fh handle.FileHandle) StatfsRes {
	r, st := d.resolve(fh)
	if st != attr.NFS_OK {
		return StatfsRes{Status: st}
	}
	stat, err := guard(d, func() (backend.StatFS, error) {
		return r.module.Statfs(r.id, r.state)
	})
	if err != nil {
		return StatfsRes{Status: attr.MapErr(err)}
	}
	return StatfsRes{Status: attr.NFS_OK, Stat: stat}
}
