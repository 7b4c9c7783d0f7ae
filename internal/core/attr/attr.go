// Package attr implements the attribute assembler half of component C7:
// building NFSv2 fattr records from the ordered attribute dictionaries
// backends return, including the symbolic/named mode encodings spec.md
// §3 and §4.7 describe.
package attr

import (
	"github.com/brinefs/nfs2d/internal/core/backend"
)

// Type is the NFSv2 ftype enumeration (spec.md §3).
type Type uint32

const (
	NFNON Type = iota
	NFREG
	NFDIR
	NFBLK
	NFCHR
	NFLNK
	NFSOCK
	NFBAD
	NFFIFO
)

// UNIX S_IFMT-style type bits OR'd into Mode when a "type" option is
// applied (spec.md §4.7).
const (
	bitsDir    = 0o040000
	bitsChr    = 0o020000
	bitsBlk    = 0o060000
	bitsReg    = 0o100000
	bitsLnk    = 0o120000
	bitsSock   = 0o140000
	bitsFifo   = 0o010000
	bitsSetuid = 0o004000
	bitsSetgid = 0o002000
)

func typeBits(t Type) uint32 {
	switch t {
	case NFDIR:
		return bitsDir
	case NFCHR:
		return bitsChr
	case NFBLK:
		return bitsBlk
	case NFREG:
		return bitsReg
	case NFLNK:
		return bitsLnk
	case NFSOCK:
		return bitsSock
	case NFFIFO:
		return bitsFifo
	default:
		return 0
	}
}

// SymbolicMode is the {user, group, other} permission-letter triple form
// of a mode value (spec.md §4.7). Each slice holds any of "r", "w", "x".
type SymbolicMode struct {
	User  []string
	Group []string
	Other []string
}

func lettersBits(letters []string, r, w, x uint32) uint32 {
	var bits uint32
	for _, l := range letters {
		switch l {
		case "r":
			bits |= r
		case "w":
			bits |= w
		case "x":
			bits |= x
		}
	}
	return bits
}

func symbolicBits(s SymbolicMode) uint32 {
	return lettersBits(s.User, 0o400, 0o200, 0o100) |
		lettersBits(s.Group, 0o040, 0o020, 0o010) |
		lettersBits(s.Other, 0o004, 0o002, 0o001)
}

// roleBits resolves one of the named mode roles from spec.md §4.7.
func roleBits(role string) (uint32, bool) {
	switch role {
	case "regular":
		return bitsReg, true
	case "directory":
		return bitsDir, true
	case "device":
		return bitsChr, true
	case "block":
		return bitsBlk, true
	case "symlink":
		return bitsLnk, true
	case "socket":
		return bitsSock, true
	case "setuid":
		return bitsSetuid, true
	case "setgid":
		return bitsSetgid, true
	default:
		return 0, false
	}
}

// resolveMode turns a "mode" AttrOption value — an integer, a
// SymbolicMode, or a named role string — into the bits to OR into Mode.
func resolveMode(v any) uint32 {
	switch val := v.(type) {
	case uint32:
		return val
	case int:
		return uint32(val)
	case int64:
		return uint32(val)
	case SymbolicMode:
		return symbolicBits(val)
	case string:
		bits, _ := roleBits(val)
		return bits
	default:
		return 0
	}
}

func toUint32(v any) uint32 {
	switch val := v.(type) {
	case uint32:
		return val
	case uint64:
		return uint32(val)
	case int:
		return uint32(val)
	case int64:
		return uint32(val)
	default:
		return 0
	}
}

func toTimestamp(v any) backend.Timestamp {
	if ts, ok := v.(backend.Timestamp); ok {
		return ts
	}
	return backend.Timestamp{}
}

// Fattr is the NFSv2 attribute record returned to clients (spec.md §3).
type Fattr struct {
	Type      Type
	Mode      uint32
	Nlink     uint32
	UID       uint32
	GID       uint32
	Size      uint32
	BlockSize uint32
	Rdev      uint32
	Blocks    uint32
	FsID      uint32
	FileID    uint32
	Atime     backend.Timestamp
	Mtime     backend.Timestamp
	Ctime     backend.Timestamp
}

// Assemble builds a Fattr from a backend's attribute dictionary. fileID and
// fsID (extracted from the handle the caller resolved) seed the fsid and
// fileid fields, which opts may override. BlockSize defaults to 1024 and
// Blocks to 1 per spec.md §3; every other field defaults to its zero
// value until an option sets it.
//
// Options are applied in the order given; setting "type" ORs the type's
// mode bits into Mode, and setting "mode" separately ORs its own bits in
// (both OR, so the two options commute regardless of order).
func Assemble(fileID, fsID uint32, opts backend.AttrSet) Fattr {
	f := Fattr{
		BlockSize: 1024,
		Blocks:    1,
		FsID:      fsID,
		FileID:    fileID,
	}

	for _, opt := range opts {
		switch opt.Key {
		case "type":
			t, _ := opt.Value.(Type)
			f.Type = t
			f.Mode |= typeBits(t)
		case "mode":
			f.Mode |= resolveMode(opt.Value)
		case "nlink":
			f.Nlink = toUint32(opt.Value)
		case "uid":
			f.UID = toUint32(opt.Value)
		case "gid":
			f.GID = toUint32(opt.Value)
		case "size":
			f.Size = toUint32(opt.Value)
		case "blocksize":
			f.BlockSize = toUint32(opt.Value)
		case "rdev":
			f.Rdev = toUint32(opt.Value)
		case "blocks":
			f.Blocks = toUint32(opt.Value)
		case "fsid":
			f.FsID = toUint32(opt.Value)
		case "fileid":
			f.FileID = toUint32(opt.Value)
		case "atime":
			f.Atime = toTimestamp(opt.Value)
		case "mtime":
			f.Mtime = toTimestamp(opt.Value)
		case "ctime":
			f.Ctime = toTimestamp(opt.Value)
		}
	}

	return f
}
