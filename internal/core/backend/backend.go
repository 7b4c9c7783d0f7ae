// Package backend defines the pluggable filesystem callback contract
// (component C3's module side, spec.md §4.5): the 17 operations every NFS
// backend must implement, plus the attribute-dictionary and sattr shapes
// that flow across that contract.
//
// The core never implements a Backend; concrete filesystems (in-memory,
// pass-through, procfs-style views) are external collaborators that
// satisfy this interface. See internal/backend/memfs for a reference
// implementation used by this repository's own tests.
package backend

// ID is the opaque backend-local identifier type, an alias of any declared
// here so backend implementations need not import the handle package just
// to spell the type of the identifiers they hand back.
type ID = any

// AttrOption is one recognized attribute key/value pair returned by
// Getattr or accepted by Setattr/Create/Mkdir's sattr parameter. Keys are
// one of: "type", "mode", "nlink", "uid", "gid", "size", "blocksize",
// "rdev", "blocks", "fsid", "fileid", "atime", "mtime", "ctime".
type AttrOption struct {
	Key   string
	Value any
}

// AttrSet is an ordered set of attribute options, applied in order onto a
// base fattr record by the attribute assembler (component C7).
type AttrSet []AttrOption

// Get returns the value for key and whether it was present.
func (s AttrSet) Get(key string) (any, bool) {
	for _, opt := range s {
		if opt.Key == key {
			return opt.Value, true
		}
	}
	return nil, false
}

// Timestamp is the (seconds, microseconds) pair used for atime/mtime/ctime
// attribute values.
type Timestamp struct {
	Seconds      uint32
	Microseconds uint32
}

// StatFS is the statfs(2)-like reply shape for the STATFS operation.
type StatFS struct {
	TransferSize uint32
	BlockSize    uint32
	Blocks       uint32
	BlocksFree   uint32
	BlocksAvail  uint32
}

// Module is the 17-operation backend callback contract from spec.md §4.5.
// Every method takes the backend-local state as its last argument (init
// and terminate are the exceptions: init produces that state, terminate
// consumes and discards it).
//
// Every method returns a Reason via the returned error (see AsReason):
// ReasonOK on success, or one of the recognized POSIX-like reasons the
// status mapper in internal/core/attr translates to an NFS status code.
type Module interface {
	// Init prepares a new filesystem instance from admin-supplied opts and
	// returns the backend's own root identifier plus whatever local state
	// it wants carried in every subsequent call.
	Init(opts map[string]any) (rootID ID, state any, err error)

	// Terminate tears down a filesystem instance previously created by
	// Init. Its return value is ignored by the dispatcher (spec.md §4.4).
	Terminate(state any) error

	Getattr(id ID, state any) (AttrSet, error)
	Setattr(id ID, attrs AttrSet, state any) error
	Lookup(dirID ID, name string, state any) (childID ID, err error)
	Readlink(id ID, state any) (target string, err error)
	Read(id ID, offset, count, totalCount uint32, state any) (data []byte, err error)
	Write(id ID, beginOffset, offset, totalCount uint32, data []byte, state any) error
	Create(dirID ID, name string, attrs AttrSet, state any) (childID ID, err error)
	Remove(dirID ID, name string, state any) error
	Rename(fromDirID ID, fromName string, toDirID ID, toName string, state any) error
	Link(fromID, toDirID ID, toName string, state any) error
	Symlink(dirID ID, name, target string, attrs AttrSet, state any) error
	Mkdir(dirID ID, name string, attrs AttrSet, state any) (childID ID, err error)
	Rmdir(dirID ID, name string, state any) error
	Readdir(id ID, count uint32, state any) (names []string, err error)
	Statfs(id ID, state any) (StatFS, error)
}
