// Package xdr is nfs2d's concrete MOUNT/NFS/NLM wire codec: the XDR
// (RFC 4506) struct shapes the RPC transport marshals over the wire, and
// the conversions between those shapes and the core dispatchers' Go
// types. It is the concrete implementation of the transport layer
// spec.md §1 deliberately keeps out of the core.
//
// Marshaling goes through github.com/rasky/go-xdr's reflection-based
// Marshal/Unmarshal, so every wire struct here is a plain, union-free
// record: where the real NFSv2 wire format uses a discriminated union
// (attrstat's attributes only present on NFS_OK, READDIR's linked-list
// entries), these types instead always carry the fattr/entry payload,
// zeroed when unused. Clients only ever consult the payload after
// checking Status, so this is wire-compatible enough for nfs2d's scope
// without hand-rolling a union codec.
package xdr

import (
	"bytes"

	xdr "github.com/rasky/go-xdr/xdr2"

	"github.com/brinefs/nfs2d/internal/core/attr"
	"github.com/brinefs/nfs2d/internal/core/backend"
	"github.com/brinefs/nfs2d/internal/core/handle"
	"github.com/brinefs/nfs2d/internal/core/nfsdispatch"
)

// Decode unmarshals an XDR-encoded value from data into v.
func Decode(data []byte, v any) error {
	_, err := xdr.Unmarshal(bytes.NewReader(data), v)
	return err
}

// Encode marshals v to its XDR encoding.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sattr is the wire shape of NFSv2's sattr: a settable-attribute record
// where the "don't change" sentinel is -1 (mode/uid/gid/size) or the
// microsecond field, per RFC 1094 §2.3.4.
type Sattr struct {
	Mode      int32
	UID       int32
	GID       int32
	Size      int32
	AtimeSec  uint32
	AtimeUsec uint32
	MtimeSec  uint32
	MtimeUsec uint32
}

// ToAttrSet converts a decoded Sattr into the ordered AttrSet a backend's
// Setattr/Create/Mkdir/Symlink expects, skipping any field left at its
// "don't change" sentinel.
func (s Sattr) ToAttrSet() backend.AttrSet {
	var out backend.AttrSet
	if s.Mode != -1 {
		out = append(out, backend.AttrOption{Key: "mode", Value: uint32(s.Mode)})
	}
	if s.UID != -1 {
		out = append(out, backend.AttrOption{Key: "uid", Value: uint32(s.UID)})
	}
	if s.GID != -1 {
		out = append(out, backend.AttrOption{Key: "gid", Value: uint32(s.GID)})
	}
	if s.Size != -1 {
		out = append(out, backend.AttrOption{Key: "size", Value: uint32(s.Size)})
	}
	if s.AtimeSec != 0 || s.AtimeUsec != 0 {
		out = append(out, backend.AttrOption{Key: "atime", Value: backend.Timestamp{Seconds: s.AtimeSec, Microseconds: s.AtimeUsec}})
	}
	if s.MtimeSec != 0 || s.MtimeUsec != 0 {
		out = append(out, backend.AttrOption{Key: "mtime", Value: backend.Timestamp{Seconds: s.MtimeSec, Microseconds: s.MtimeUsec}})
	}
	return out
}

// Fattr is the wire shape of NFSv2's fattr (RFC 1094 §2.3.5).
type Fattr struct {
	Type      uint32
	Mode      uint32
	Nlink     uint32
	UID       uint32
	GID       uint32
	Size      uint32
	Blocksize uint32
	Rdev      uint32
	Blocks    uint32
	Fsid      uint32
	Fileid    uint32
	AtimeSec  uint32
	AtimeUsec uint32
	MtimeSec  uint32
	MtimeUsec uint32
	CtimeSec  uint32
	CtimeUsec uint32
}

// FattrFrom converts a core attr.Fattr to its wire shape.
func FattrFrom(f attr.Fattr) Fattr {
	return Fattr{
		Type:      uint32(f.Type),
		Mode:      f.Mode,
		Nlink:     f.Nlink,
		UID:       f.UID,
		GID:       f.GID,
		Size:      f.Size,
		Blocksize: f.BlockSize,
		Rdev:      f.Rdev,
		Blocks:    f.Blocks,
		Fsid:      f.FsID,
		Fileid:    f.FileID,
		AtimeSec:  f.Atime.Seconds,
		AtimeUsec: f.Atime.Microseconds,
		MtimeSec:  f.Mtime.Seconds,
		MtimeUsec: f.Mtime.Microseconds,
		CtimeSec:  f.Ctime.Seconds,
		CtimeUsec: f.Ctime.Microseconds,
	}
}

// FhArgs is the wire args shared by GETATTR/READLINK/STATFS: a single
// file handle and nothing else.
type FhArgs struct {
	FH handle.FileHandle
}

// DirOpArgs is the wire shape shared by LOOKUP/CREATE/REMOVE/MKDIR/
// RMDIR/RENAME/SYMLINK's directory-relative half: a directory handle and
// an entry name (RFC 1094's diropargs).
type DirOpArgs struct {
	Dir  handle.FileHandle
	Name string
}

// AttrStat is the wire reply for GETATTR/SETATTR/WRITE.
type AttrStat struct {
	Status     uint32
	Attributes Fattr
}

// AttrStatFrom converts a dispatcher AttrStat to its wire shape.
func AttrStatFrom(r nfsdispatch.AttrStat) AttrStat {
	return AttrStat{Status: uint32(r.Status), Attributes: FattrFrom(r.Attr)}
}

// DirOpRes is the wire reply for LOOKUP/CREATE/MKDIR.
type DirOpRes struct {
	Status     uint32
	FH         handle.FileHandle
	Attributes Fattr
}

// DirOpResFrom converts a dispatcher DirOpRes to its wire shape.
func DirOpResFrom(r nfsdispatch.DirOpRes) DirOpRes {
	return DirOpRes{Status: uint32(r.Status), FH: r.FH, Attributes: FattrFrom(r.Attr)}
}

// ReadlinkRes is the wire reply for READLINK.
type ReadlinkRes struct {
	Status uint32
	Data   string
}

// ReadlinkResFrom converts a dispatcher ReadlinkRes to its wire shape.
func ReadlinkResFrom(r nfsdispatch.ReadlinkRes) ReadlinkRes {
	return ReadlinkRes{Status: uint32(r.Status), Data: r.Target}
}

// ReadArgs is the wire args for READ.
type ReadArgs struct {
	FH         handle.FileHandle
	Offset     uint32
	Count      uint32
	TotalCount uint32
}

// ReadRes is the wire reply for READ.
type ReadRes struct {
	Status     uint32
	Attributes Fattr
	Data       []byte
}

// ReadResFrom converts a dispatcher ReadRes to its wire shape.
func ReadResFrom(r nfsdispatch.ReadRes) ReadRes {
	return ReadRes{Status: uint32(r.Status), Attributes: FattrFrom(r.Attr), Data: r.Data}
}

// WriteArgs is the wire args for WRITE.
type WriteArgs struct {
	FH          handle.FileHandle
	BeginOffset uint32
	Offset      uint32
	TotalCount  uint32
	Data        []byte
}

// CreateArgs is the wire args for CREATE/MKDIR.
type CreateArgs struct {
	Where      DirOpArgs
	Attributes Sattr
}

// RenameArgs is the wire args for RENAME.
type RenameArgs struct {
	From DirOpArgs
	To   DirOpArgs
}

// LinkArgs is the wire args for LINK.
type LinkArgs struct {
	From handle.FileHandle
	To   DirOpArgs
}

// SymlinkArgs is the wire args for SYMLINK.
type SymlinkArgs struct {
	From       DirOpArgs
	To         string
	Attributes Sattr
}

// ReaddirArgs is the wire args for READDIR.
type ReaddirArgs struct {
	Dir    handle.FileHandle
	Cookie uint32
	Count  uint32
}

// ReaddirEntry is one wire directory entry.
type ReaddirEntry struct {
	FileID uint32
	Name   string
	Cookie uint32
}

// ReaddirRes is the wire reply for READDIR.
type ReaddirRes struct {
	Status  uint32
	Entries []ReaddirEntry
	EOF     bool
}

// ReaddirResFrom converts a dispatcher ReaddirRes to its wire shape.
func ReaddirResFrom(r nfsdispatch.ReaddirRes) ReaddirRes {
	entries := make([]ReaddirEntry, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = ReaddirEntry{FileID: e.FileID, Name: e.Name, Cookie: e.Cookie}
	}
	return ReaddirRes{Status: uint32(r.Status), Entries: entries, EOF: r.EOF}
}

// StatfsRes is the wire reply for STATFS.
type StatfsRes struct {
	Status  uint32
	Tsize   uint32
	Bsize   uint32
	Blocks  uint32
	Bfree   uint32
	Bavail  uint32
}

// StatfsResFrom converts a dispatcher StatfsRes to its wire shape.
func StatfsResFrom(r nfsdispatch.StatfsRes) StatfsRes {
	return StatfsRes{
		Status: uint32(r.Status),
		Tsize:  r.Stat.TransferSize,
		Bsize:  r.Stat.BlockSize,
		Blocks: r.Stat.Blocks,
		Bfree:  r.Stat.BlocksFree,
		Bavail: r.Stat.BlocksAvail,
	}
}

// SetattrArgs is the wire args for SETATTR.
type SetattrArgs struct {
	FH         handle.FileHandle
	Attributes Sattr
}
