package xdr

import (
	"github.com/brinefs/nfs2d/internal/core/handle"
	"github.com/brinefs/nfs2d/internal/core/lock"
	"github.com/brinefs/nfs2d/internal/core/mount"
	"github.com/brinefs/nfs2d/internal/core/nlmdispatch"
)

// MntArgs is the wire args for MOUNT's MNT procedure: a single dirpath.
type MntArgs struct {
	Path string
}

// MntRes is the wire reply for MNT.
type MntRes struct {
	Status uint32
	FH     handle.FileHandle
}

// MntResFrom converts a mount.Mnt result pair to its wire shape.
func MntResFrom(status mount.MntStatus, fh handle.FileHandle) MntRes {
	return MntRes{Status: uint32(status), FH: fh}
}

// UmntArgs is the wire args shared by UMNT.
type UmntArgs struct {
	Path string
}

// ExportEntry is one wire row of the EXPORT reply.
type ExportEntry struct {
	Path   string
	Groups []string
}

// ExportRes is the wire reply for EXPORT.
type ExportRes struct {
	Entries []ExportEntry
}

// ExportResFrom converts a mount.Table.Export result to its wire shape.
func ExportResFrom(entries []mount.ExportEntry) ExportRes {
	out := make([]ExportEntry, len(entries))
	for i, e := range entries {
		out[i] = ExportEntry{Path: e.Path, Groups: e.Groups}
	}
	return ExportRes{Entries: out}
}

// LockArgs is the wire args shared by NLM's TEST/LOCK/CANCEL/UNLOCK
// procedures (RFC 1813 draft nlm4_lockargs, trimmed to what spec.md §5
// models: no cookie, no exclusive-state-recovery fields).
type LockArgs struct {
	ServerName string
	FH         handle.FileHandle
	Exclusive  bool
	Owner      int64
	Offset     uint64
	Length     uint64
	Block      bool
}

// ToRequest converts the wire args to the core nlmdispatch.Request shape.
func (a LockArgs) ToRequest() nlmdispatch.Request {
	return nlmdispatch.Request{
		ServerName: a.ServerName,
		FH:         a.FH,
		Exclusive:  a.Exclusive,
		Owner:      a.Owner,
		Offset:     a.Offset,
		Length:     a.Length,
	}
}

// LockRes is the wire reply for LOCK/CANCEL/UNLOCK: just a status.
type LockRes struct {
	Status uint32
}

// TestRes is the wire reply for TEST: a status and, on a denial, the
// conflicting range.
type TestRes struct {
	Status    uint32
	Exclusive bool
	Owner     int64
	Offset    uint64
	Length    uint64
}

// TestResFrom converts a lock.Table.Test result to its wire shape.
func TestResFrom(status lock.Status, conflict *lock.Conflict) TestRes {
	if conflict == nil {
		return TestRes{Status: uint32(status)}
	}
	return TestRes{
		Status:    uint32(status),
		Exclusive: conflict.Exclusive,
		Owner:     conflict.Owner,
		Offset:    conflict.Offset,
		Length:    conflict.Length,
	}
}
