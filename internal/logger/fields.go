package logger

import "log/slog"

// Standard field keys used consistently across the RPC transport, core
// dispatchers, and backends.
const (
	KeyProtocol  = "protocol"
	KeyProcedure = "procedure"
	KeyHandle    = "handle"
	KeyShare     = "share"
	KeyStatus    = "status"

	KeyPath     = "path"
	KeyFilename = "filename"
	KeyOldPath  = "old_path"
	KeyNewPath  = "new_path"

	KeyOffset = "offset"
	KeyCount  = "count"
	KeyEOF    = "eof"

	KeyClientIP = "client_ip"
	KeyUID      = "uid"
	KeyGID      = "gid"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"

	KeyEntries   = "entries"
	KeyFsID      = "fs_id"
	KeyLockOwner = "lock_owner"
)

// Procedure returns a slog.Attr for the RPC procedure name.
func Procedure(name string) slog.Attr { return slog.String(KeyProcedure, name) }

// Handle returns a slog.Attr for a file handle, hex-encoded.
func Handle(h []byte) slog.Attr { return slog.String(KeyHandle, hexString(h)) }

// Path returns a slog.Attr for a file or directory path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// Status returns a slog.Attr for an NFS/NLM status code.
func Status(code uint32) slog.Attr { return slog.Uint64(KeyStatus, uint64(code)) }

// Err returns a slog.Attr for an error, or a no-op Attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// FsID returns a slog.Attr for a filesystem instance id.
func FsID(id uint32) slog.Attr { return slog.Uint64(KeyFsID, uint64(id)) }

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}
