package nfsdispatch

import (
	"github.com/brinefs/nfs2d/internal/core/attr"
	"github.com/brinefs/nfs2d/internal/core/backend"
	"github.com/brinefs/nfs2d/internal/core/handle"
)

// AttrStat is the reply shape shared by GETATTR, SETATTR and WRITE
// (spec.md §4.6): a status plus, on success, the resulting attributes.
type AttrStat struct {
	Status attr.Status
	Attr   attr.Fattr
}

// DirOpRes is the reply shape shared by LOOKUP, CREATE and MKDIR: a status
// plus, on success, the resulting handle and attributes.
type DirOpRes struct {
	Status attr.Status
	FH     handle.FileHandle
	Attr   attr.Fattr
}

// ReadlinkRes is the READLINK reply.
type ReadlinkRes struct {
	Status attr.Status
	Target string
}

// ReadRes is the READ reply.
type ReadRes struct {
	Status attr.Status
	Attr   attr.Fattr
	Data   []byte
}

// ReaddirEntry is one directory entry in a READDIR reply. Cookie is the
// entry's 1-based position in the backend's name listing; Readdir ignores
// the cookie a client sends back, so it does not resume a listing from it.
type ReaddirEntry struct {
	FileID uint32
	Name   string
	Cookie uint32
}

// ReaddirRes is the READDIR reply.
type ReaddirRes struct {
	Status  attr.Status
	Entries []ReaddirEntry
	EOF     bool
}

// StatfsRes is the STATFS reply.
type StatfsRes struct {
	Status attr.Status
	Stat   backend.StatFS
}
