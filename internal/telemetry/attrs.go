package telemetry

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for the MOUNT/NFS/NLM request path, following
// OpenTelemetry semantic conventions where one exists and a "fs."/"rpc."
// prefix otherwise.
const (
	AttrRPCProgram = "rpc.program"
	AttrRPCProc    = "rpc.procedure"
	AttrRPCStatus  = "rpc.status"
	AttrUID        = "user.uid"
	AttrGID        = "user.gid"
)

// RPCProgram returns an attribute naming the RPC program (mount, nfs, nlm).
func RPCProgram(name string) attribute.KeyValue {
	return attribute.String(AttrRPCProgram, name)
}

// RPCProcedure returns an attribute naming the decoded procedure.
func RPCProcedure(name string) attribute.KeyValue {
	return attribute.String(AttrRPCProc, name)
}

// RPCStatus returns an attribute recording whether dispatch succeeded.
func RPCStatus(status string) attribute.KeyValue {
	return attribute.String(AttrRPCStatus, status)
}

// UID returns an attribute for the caller's AUTH_SYS uid.
func UID(uid uint32) attribute.KeyValue {
	return attribute.Int64(AttrUID, int64(uid))
}

// GID returns an attribute for the caller's AUTH_SYS gid.
func GID(gid uint32) attribute.KeyValue {
	return attribute.Int64(AttrGID, int64(gid))
}
