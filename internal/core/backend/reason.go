package backend

// Reason is a POSIX-like failure code a backend reports for a failed
// operation. The core never interprets these beyond the translation table
// in status.go; it is opaque plumbing between a backend and the NFS status
// mapper (component C7).
type Reason string

// Recognized reasons, per spec.md §4.7's backend-to-NFS-status table.
const (
	ReasonOK                   Reason = "ok"
	ReasonPerm                 Reason = "eperm"
	ReasonNoEnt                Reason = "enoent"
	ReasonNoSuchFile           Reason = "no_such_file"
	ReasonNoSuchPath           Reason = "no_such_path"
	ReasonIO                   Reason = "eio"
	ReasonFailure              Reason = "failure"
	ReasonBadMessage           Reason = "bad_message"
	ReasonNoConnection         Reason = "no_connection"
	ReasonConnectionLost       Reason = "connection_lost"
	ReasonUnknownPrinciple     Reason = "unknown_principle"
	ReasonLockConflict         Reason = "lock_conflict"
	ReasonEOF                  Reason = "eof"
	ReasonTimeout              Reason = "timeout"
	ReasonNXIO                 Reason = "enxio"
	ReasonOpUnsupported        Reason = "op_unsupported"
	ReasonNoMedia              Reason = "no_media"
	ReasonAccess               Reason = "eacces"
	ReasonPermissionDenied     Reason = "permission_denied"
	ReasonWriteProtect         Reason = "write_protect"
	ReasonCannotDelete         Reason = "cannot_delete"
	ReasonExist                Reason = "eexist"
	ReasonFileAlreadyExists    Reason = "file_already_exists"
	ReasonNoDev                Reason = "enodev"
	ReasonNotDir               Reason = "enotdir"
	ReasonNotADirectory        Reason = "not_a_directory"
	ReasonIsDir                Reason = "eisdir"
	ReasonFileIsADirectory     Reason = "file_is_a_directory"
	ReasonFBig                 Reason = "efbig"
	ReasonNoSpc                Reason = "enospc"
	ReasonNoSpaceOnFilesystem  Reason = "no_space_on_filesystem"
	ReasonROFS                 Reason = "erofs"
	ReasonNameTooLong          Reason = "enametoolong"
	ReasonNotEmpty             Reason = "enotempty"
	ReasonDQuot                Reason = "edquot"
	ReasonQuotaExceeded        Reason = "quota_exceeded"
	ReasonStale                Reason = "estale"
	ReasonInvalidHandle        Reason = "invalid_handle"
	ReasonWflush               Reason = "wflush"
)

// Error adapts a Reason for use as a Go error, for backends and tests that
// prefer idiomatic error returns over raw Reason values.
type Error struct {
	Reason Reason
}

func (e *Error) Error() string { return string(e.Reason) }

// NewError wraps a Reason as an error.
func NewError(r Reason) error { return &Error{Reason: r} }

// AsReason extracts the Reason from err, defaulting to ReasonFailure for
// any error that did not originate as a backend.Error (an unrecognized
// failure mode, per the status table's "unrecognized -> NFSERR_IO" row).
func AsReason(err error) Reason {
	if err == nil {
		return ReasonOK
	}
	if be, ok := err.(*Error); ok {
		return be.Reason
	}
	return ReasonFailure
}
