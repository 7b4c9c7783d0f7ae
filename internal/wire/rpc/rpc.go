// Package rpc implements the ONC RPC (RFC 1057) message framing nfs2d's
// UDP transport uses to carry MOUNT, NFS and NLM/KLM traffic: call header
// parsing and reply body construction. It has no notion of XDR structs —
// see internal/wire/xdr for that — only the fixed call/reply envelope.
package rpc

import "encoding/binary"

// Message types (RFC 1057 §9).
const (
	MsgCall = 0
	Reply   = 1
)

// Reply states.
const (
	MsgAccepted = 0
	MsgDenied   = 1
)

// accept_stat values.
const (
	Success      = 0
	ProgUnavail  = 1
	ProgMismatch = 2
	ProcUnavail  = 3
	GarbageArgs  = 4
	SystemErr    = 5
)

// Auth flavors nfs2d recognizes on an incoming call (spec.md §6: AUTH_SYS
// passthrough only).
const (
	AuthNull = 0
	AuthUnix = 1
)

// Cred is the caller identity extracted from an AUTH_UNIX credential.
// Zero value is used for AUTH_NULL calls.
type Cred struct {
	UID uint32
	GID uint32
}

// Call is a decoded ONC RPC call header.
type Call struct {
	XID       uint32
	Program   uint32
	Version   uint32
	Procedure uint32
	AuthFlavor uint32
	Cred       Cred
}

// ReadCall decodes the RPC call header from data and returns the
// remaining bytes, which are the XDR-encoded procedure arguments.
func ReadCall(data []byte) (Call, []byte, error) {
	r := &reader{buf: data}

	xid := r.uint32()
	msgType := r.uint32()
	if r.err != nil {
		return Call{}, nil, r.err
	}
	if msgType != MsgCall {
		return Call{}, nil, errNotACall
	}

	rpcvers := r.uint32()
	program := r.uint32()
	version := r.uint32()
	procedure := r.uint32()
	if r.err != nil {
		return Call{}, nil, r.err
	}
	if rpcvers != 2 {
		return Call{}, nil, errBadRPCVersion
	}

	cred, err := r.readAuth()
	if err != nil {
		return Call{}, nil, err
	}
	if _, err := r.readAuth(); err != nil {
		return Call{}, nil, err
	}
	if r.err != nil {
		return Call{}, nil, r.err
	}

	call := Call{
		XID:       xid,
		Program:   program,
		Version:   version,
		Procedure: procedure,
	}
	if cred.flavor == AuthUnix {
		call.AuthFlavor = AuthUnix
		call.Cred = cred.unix
	}
	return call, r.buf[r.off:], nil
}

type authBody struct {
	flavor uint32
	unix   Cred
}

// readAuth consumes one opaque_auth structure (flavor + variable-length
// body) and, for AUTH_UNIX, decodes the uid/gid fields it carries.
func (r *reader) readAuth() (authBody, error) {
	flavor := r.uint32()
	length := r.uint32()
	if r.err != nil {
		return authBody{}, r.err
	}

	body := r.bytes(int(length))
	if r.err != nil {
		return authBody{}, r.err
	}

	a := authBody{flavor: flavor}
	if flavor == AuthUnix && len(body) >= 12 {
		br := &reader{buf: body}
		br.uint32() // stamp
		nameLen := br.uint32()
		br.skip(padded(int(nameLen)))
		a.unix.UID = br.uint32()
		a.unix.GID = br.uint32()
	}
	return a, nil
}

func padded(n int) int {
	if n%4 == 0 {
		return n
	}
	return n + (4 - n%4)
}

// SuccessReply builds a complete RPC success reply (header + body).
func SuccessReply(xid uint32, body []byte) []byte {
	buf := make([]byte, 24+len(body))
	binary.BigEndian.PutUint32(buf[0:4], xid)
	binary.BigEndian.PutUint32(buf[4:8], Reply)
	binary.BigEndian.PutUint32(buf[8:12], MsgAccepted)
	binary.BigEndian.PutUint32(buf[12:16], 0) // verf flavor = AUTH_NULL
	binary.BigEndian.PutUint32(buf[16:20], 0) // verf length = 0
	binary.BigEndian.PutUint32(buf[20:24], Success)
	copy(buf[24:], body)
	return buf
}

// ErrorReply builds an RPC reply reporting acceptStat (PROG_UNAVAIL,
// PROC_UNAVAIL, GARBAGE_ARGS, SYSTEM_ERR).
func ErrorReply(xid, acceptStat uint32) []byte {
	buf := make([]byte, 24)
	binary.BigEndian.PutUint32(buf[0:4], xid)
	binary.BigEndian.PutUint32(buf[4:8], Reply)
	binary.BigEndian.PutUint32(buf[8:12], MsgAccepted)
	binary.BigEndian.PutUint32(buf[12:16], 0)
	binary.BigEndian.PutUint32(buf[16:20], 0)
	binary.BigEndian.PutUint32(buf[20:24], acceptStat)
	return buf
}

// ProgMismatchReply builds an RPC PROG_MISMATCH reply naming the
// [low, high] version range this server supports for the program.
func ProgMismatchReply(xid, low, high uint32) []byte {
	buf := make([]byte, 32)
	binary.BigEndian.PutUint32(buf[0:4], xid)
	binary.BigEndian.PutUint32(buf[4:8], Reply)
	binary.BigEndian.PutUint32(buf[8:12], MsgAccepted)
	binary.BigEndian.PutUint32(buf[12:16], 0)
	binary.BigEndian.PutUint32(buf[16:20], 0)
	binary.BigEndian.PutUint32(buf[20:24], ProgMismatch)
	binary.BigEndian.PutUint32(buf[24:28], low)
	binary.BigEndian.PutUint32(buf[28:32], high)
	return buf
}
