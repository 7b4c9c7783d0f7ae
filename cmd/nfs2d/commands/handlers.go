package commands

import (
	"context"
	"crypto/rand"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/brinefs/nfs2d/internal/core/handle"
	"github.com/brinefs/nfs2d/internal/core/mount"
	"github.com/brinefs/nfs2d/internal/core/nfsdispatch"
	"github.com/brinefs/nfs2d/internal/core/nlmdispatch"
	"github.com/brinefs/nfs2d/internal/metrics"
	"github.com/brinefs/nfs2d/internal/telemetry"
	"github.com/brinefs/nfs2d/internal/wire/rpc"
	"github.com/brinefs/nfs2d/internal/wire/xdr"
)

// randomSuffix mints the per-process handle suffix (spec.md §1: handles
// minted by one server run are never meant to stay valid across the
// next), so a restart can never be mistaken for a live unmount/remount.
func randomSuffix() [handle.Size - 8]byte {
	var s [handle.Size - 8]byte
	_, _ = rand.Read(s[:])
	return s
}

// mountProcedureName maps a MOUNT procedure number to its name, for span
// labeling.
func mountProcedureName(procedure uint32) string {
	names := map[uint32]string{0: "NULL", 1: "MNT", 3: "UMNT", 4: "UMNTALL", 5: "EXPORT"}
	if n, ok := names[procedure]; ok {
		return n
	}
	return "UNKNOWN"
}

// mountHandler dispatches MOUNT protocol procedures.
func mountHandler(mounts *mount.Table) rpc.Handler {
	return func(procedure uint32, body []byte, cred rpc.Cred) ([]byte, bool) {
		name := mountProcedureName(procedure)
		_, span := telemetry.StartSpan(context.Background(), "mount."+name,
			trace.WithAttributes(telemetry.RPCProgram("mount"), telemetry.RPCProcedure(name)))
		defer span.End()

		switch procedure {
		case 0: // NULL
			mounts.Null()
			return nil, true

		case 1: // MNT
			var args xdr.MntArgs
			if err := xdr.Decode(body, &args); err != nil {
				return nil, false
			}
			status, fh := mounts.Mnt(args.Path)
			out, err := xdr.Encode(xdr.MntResFrom(status, fh))
			if err != nil {
				return nil, false
			}
			return out, true

		case 3: // UMNT
			var args xdr.UmntArgs
			if err := xdr.Decode(body, &args); err != nil {
				return nil, false
			}
			mounts.Umnt(args.Path)
			return nil, true

		case 4: // UMNTALL
			mounts.UmntAll()
			return nil, true

		case 5: // EXPORT
			out, err := xdr.Encode(xdr.ExportResFrom(mounts.Export()))
			if err != nil {
				return nil, false
			}
			return out, true

		default:
			return nil, false
		}
	}
}

// nfsHandler dispatches NFS protocol procedures.
func nfsHandler(d *nfsdispatch.Dispatcher, m *metrics.Metrics) rpc.Handler {
	return func(procedure uint32, body []byte, cred rpc.Cred) ([]byte, bool) {
		start := time.Now()
		name := procedureName(procedure)
		_, span := telemetry.StartSpan(context.Background(), "nfs."+name,
			trace.WithAttributes(telemetry.RPCProgram("nfs"), telemetry.RPCProcedure(name),
				telemetry.UID(cred.UID), telemetry.GID(cred.GID)))
		defer span.End()

		result, ok := dispatchNFS(d, procedure, body)
		status := "ok"
		if !ok {
			status = "unavail"
		}
		span.SetAttributes(telemetry.RPCStatus(status))
		if m != nil {
			m.RecordRequest("nfs", name, status, time.Since(start))
		}
		return result, ok
	}
}

func dispatchNFS(d *nfsdispatch.Dispatcher, procedure uint32, body []byte) ([]byte, bool) {
	switch procedure {
	case 0: // NULL
		d.Null()
		return nil, true

	case 1: // GETATTR
		var args xdr.FhArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(xdr.AttrStatFrom(d.Getattr(args.FH)))

	case 2: // SETATTR
		var args xdr.SetattrArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(xdr.AttrStatFrom(d.Setattr(args.FH, args.Attributes.ToAttrSet())))

	case 4: // LOOKUP
		var args xdr.DirOpArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(xdr.DirOpResFrom(d.Lookup(args.Dir, args.Name)))

	case 5: // READLINK
		var args xdr.FhArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(xdr.ReadlinkResFrom(d.Readlink(args.FH)))

	case 6: // READ
		var args xdr.ReadArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(xdr.ReadResFrom(d.Read(args.FH, args.Offset, args.Count, args.TotalCount)))

	case 8: // WRITE
		var args xdr.WriteArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(xdr.AttrStatFrom(d.Write(args.FH, args.BeginOffset, args.Offset, args.TotalCount, args.Data)))

	case 9: // CREATE
		var args xdr.CreateArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(xdr.DirOpResFrom(d.Create(args.Where.Dir, args.Where.Name, args.Attributes.ToAttrSet())))

	case 10: // REMOVE
		var args xdr.DirOpArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(statusOnly(uint32(d.Remove(args.Dir, args.Name))))

	case 11: // RENAME
		var args xdr.RenameArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(statusOnly(uint32(d.Rename(args.From.Dir, args.From.Name, args.To.Dir, args.To.Name))))

	case 12: // LINK
		var args xdr.LinkArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(statusOnly(uint32(d.Link(args.From, args.To.Dir, args.To.Name))))

	case 13: // SYMLINK
		var args xdr.SymlinkArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(statusOnly(uint32(d.Symlink(args.From.Dir, args.From.Name, args.To, args.Attributes.ToAttrSet()))))

	case 14: // MKDIR
		var args xdr.CreateArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(xdr.DirOpResFrom(d.Mkdir(args.Where.Dir, args.Where.Name, args.Attributes.ToAttrSet())))

	case 15: // RMDIR
		var args xdr.DirOpArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(statusOnly(uint32(d.Rmdir(args.Dir, args.Name))))

	case 16: // READDIR
		var args xdr.ReaddirArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(xdr.ReaddirResFrom(d.Readdir(args.Dir, args.Cookie, args.Count)))

	case 17: // STATFS
		var args xdr.FhArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		return encode(xdr.StatfsResFrom(d.Statfs(args.FH)))

	default:
		return nil, false
	}
}

// statusOnly is the wire shape for NFS procedures that reply with nothing
// but a status code (REMOVE, RENAME, LINK, SYMLINK, RMDIR).
type statusOnly uint32

func encode(v any) ([]byte, bool) {
	out, err := xdr.Encode(v)
	if err != nil {
		return nil, false
	}
	return out, true
}

func procedureName(procedure uint32) string {
	names := map[uint32]string{
		0: "NULL", 1: "GETATTR", 2: "SETATTR", 4: "LOOKUP", 5: "READLINK",
		6: "READ", 8: "WRITE", 9: "CREATE", 10: "REMOVE", 11: "RENAME",
		12: "LINK", 13: "SYMLINK", 14: "MKDIR", 15: "RMDIR", 16: "READDIR",
		17: "STATFS",
	}
	if n, ok := names[procedure]; ok {
		return n
	}
	return "UNKNOWN"
}

// nlmHandler dispatches NLM/KLM protocol procedures.
func nlmHandler(d *nlmdispatch.Dispatcher, m *metrics.Metrics) rpc.Handler {
	return func(procedure uint32, body []byte, cred rpc.Cred) ([]byte, bool) {
		start := time.Now()
		name := nlmProcedureName(procedure)
		_, span := telemetry.StartSpan(context.Background(), "nlm."+name,
			trace.WithAttributes(telemetry.RPCProgram("nlm"), telemetry.RPCProcedure(name),
				telemetry.UID(cred.UID), telemetry.GID(cred.GID)))
		defer span.End()

		result, ok := dispatchNLM(d, procedure, body)
		status := "ok"
		if !ok {
			status = "unavail"
		}
		span.SetAttributes(telemetry.RPCStatus(status))
		if m != nil {
			m.RecordRequest("nlm", name, status, time.Since(start))
		}
		return result, ok
	}
}

func dispatchNLM(d *nlmdispatch.Dispatcher, procedure uint32, body []byte) ([]byte, bool) {
	switch procedure {
	case 0: // NULL
		return nil, true

	case 1: // TEST
		var args xdr.LockArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		status, conflict := d.Test(args.ToRequest())
		return encode(xdr.TestResFrom(status, conflict))

	case 2: // LOCK
		var args xdr.LockArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		status := d.Lock(args.ToRequest(), args.Block)
		return encode(xdr.LockRes{Status: uint32(status)})

	case 3: // CANCEL
		var args xdr.LockArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		status := d.Cancel(args.ToRequest())
		return encode(xdr.LockRes{Status: uint32(status)})

	case 4: // UNLOCK
		var args xdr.LockArgs
		if err := xdr.Decode(body, &args); err != nil {
			return nil, false
		}
		status := d.Unlock(args.ToRequest())
		return encode(xdr.LockRes{Status: uint32(status)})

	default:
		return nil, false
	}
}

func nlmProcedureName(procedure uint32) string {
	names := map[uint32]string{0: "NULL", 1: "TEST", 2: "LOCK", 3: "CANCEL", 4: "UNLOCK"}
	if n, ok := names[procedure]; ok {
		return n
	}
	return "UNKNOWN"
}
