package attr

import "github.com/brinefs/nfs2d/internal/core/backend"

// Status is an NFSv2 stat code (spec.md §4.7).
type Status uint32

// NFS status codes, RFC 1094 §2.3.3.
const (
	NFS_OK            Status = 0
	NFSERR_PERM       Status = 1
	NFSERR_NOENT      Status = 2
	NFSERR_IO         Status = 5
	NFSERR_NXIO       Status = 6
	NFSERR_ACCES      Status = 13
	NFSERR_EXIST      Status = 17
	NFSERR_NODEV      Status = 19
	NFSERR_NOTDIR     Status = 20
	NFSERR_ISDIR      Status = 21
	NFSERR_FBIG       Status = 27
	NFSERR_NOSPC      Status = 28
	NFSERR_ROFS       Status = 30
	NFSERR_NAMETOOLONG Status = 63
	NFSERR_NOTEMPTY   Status = 66
	NFSERR_DQUOT      Status = 69
	NFSERR_STALE      Status = 70
	NFSERR_WFLUSH     Status = 99
)

// reasonStatus is the backend Reason -> NFS status translation table from
// spec.md §4.7. Reasons with no narrower status all collapse onto the
// closest errno-shaped code; anything absent here (including
// ReasonFailure, ReasonBadMessage, ReasonNoConnection,
// ReasonConnectionLost, ReasonUnknownPrinciple, ReasonLockConflict,
// ReasonEOF, ReasonTimeout) falls through MapReason's default of
// NFSERR_IO.
var reasonStatus = map[backend.Reason]Status{
	backend.ReasonOK:                  NFS_OK,
	backend.ReasonPerm:                NFSERR_PERM,
	backend.ReasonNoEnt:               NFSERR_NOENT,
	backend.ReasonNoSuchFile:          NFSERR_NOENT,
	backend.ReasonNoSuchPath:          NFSERR_NOENT,
	backend.ReasonIO:                  NFSERR_IO,
	backend.ReasonNXIO:                NFSERR_NXIO,
	backend.ReasonOpUnsupported:       NFSERR_NXIO,
	backend.ReasonNoMedia:             NFSERR_NXIO,
	backend.ReasonAccess:              NFSERR_ACCES,
	backend.ReasonPermissionDenied:    NFSERR_ACCES,
	backend.ReasonWriteProtect:        NFSERR_ACCES,
	backend.ReasonCannotDelete:        NFSERR_ACCES,
	backend.ReasonExist:               NFSERR_EXIST,
	backend.ReasonFileAlreadyExists:   NFSERR_EXIST,
	backend.ReasonNoDev:               NFSERR_NODEV,
	backend.ReasonNotDir:              NFSERR_NOTDIR,
	backend.ReasonNotADirectory:       NFSERR_NOTDIR,
	backend.ReasonIsDir:               NFSERR_ISDIR,
	backend.ReasonFileIsADirectory:    NFSERR_ISDIR,
	backend.ReasonFBig:                NFSERR_FBIG,
	backend.ReasonNoSpc:               NFSERR_NOSPC,
	backend.ReasonNoSpaceOnFilesystem: NFSERR_NOSPC,
	backend.ReasonROFS:                NFSERR_ROFS,
	backend.ReasonNameTooLong:         NFSERR_NAMETOOLONG,
	backend.ReasonNotEmpty:            NFSERR_NOTEMPTY,
	backend.ReasonDQuot:               NFSERR_DQUOT,
	backend.ReasonQuotaExceeded:       NFSERR_DQUOT,
	backend.ReasonStale:               NFSERR_STALE,
	backend.ReasonInvalidHandle:       NFSERR_STALE,
	backend.ReasonWflush:              NFSERR_WFLUSH,
}

// MapReason translates a backend Reason into the NFS status code a
// dispatcher sends back on the wire. Unrecognized reasons — including
// ReasonFailure, the catch-all AsReason returns for errors that never
// originated as a backend.Error — map to NFSERR_IO, the spec's
// fallback for an opaque failure.
func MapReason(r backend.Reason) Status {
	if s, ok := reasonStatus[r]; ok {
		return s
	}
	return NFSERR_IO
}

// MapErr is a convenience wrapper combining backend.AsReason and
// MapReason for dispatcher call sites that hold a raw error.
func MapErr(err error) Status {
	return MapReason(backend.AsReason(err))
}
