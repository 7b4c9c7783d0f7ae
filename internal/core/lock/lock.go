// Package lock implements the byte-range lock manager (component C2):
// shared/exclusive range-locks indexed by file handle, with owner-aware
// overlap tests for the NLM/KLM protocol.
package lock

import (
	"sync"

	"github.com/brinefs/nfs2d/internal/core/handle"
)

// Status mirrors the klm_stat values returned directly to NLM callers.
// Lock operations never surface NFS-level errors (spec.md §4.2).
type Status int

const (
	Granted Status = iota
	Denied
	DeniedNoLocks
	DeniedGrace
)

// Range is one owned byte-range within a lock record.
type Range struct {
	Owner  int64
	Offset uint64
	Length uint64
}

// end returns the last byte covered by the range, per the overlap formula
// in spec.md §4.2: max(a0,b0) <= min(a0+a_len-1, b0+b_len-1). A zero-length
// range has no covered bytes and can never satisfy that inequality.
func (r Range) end() (uint64, bool) {
	if r.Length == 0 {
		return 0, false
	}
	return r.Offset + r.Length - 1, true
}

func overlaps(a, b Range) bool {
	aEnd, aOK := a.end()
	bEnd, bOK := b.end()
	if !aOK || !bOK {
		return false
	}
	lo := a.Offset
	if b.Offset > lo {
		lo = b.Offset
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	return lo <= hi
}

type record struct {
	exclusive bool
	ranges    []Range // most recently granted range first
}

// Conflict describes the range that blocked a TEST or LOCK call.
type Conflict struct {
	Exclusive bool
	Owner     int64
	Offset    uint64
	Length    uint64
}

// Table is the process-wide lock table, keyed by file handle.
type Table struct {
	mu      sync.Mutex
	records map[handle.FileHandle]*record
}

// New creates an empty lock table.
func New() *Table {
	return &Table{records: make(map[handle.FileHandle]*record)}
}

// Len returns the number of ranges currently held across all handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, rec := range t.records {
		n += len(rec.ranges)
	}
	return n
}

// Test checks whether a lock of the given kind would be granted without
// acquiring it. Only the first range overlapping the query decides: if it
// belongs to another owner it is returned as the conflict, otherwise (or
// with no overlap at all) the conflict is nil and the request is granted
// (spec.md §4.2, TEST).
func (t *Table) Test(fh handle.FileHandle, exclusive bool, owner int64, offset, length uint64) (Status, *Conflict) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[fh]
	if !ok {
		return Granted, nil
	}

	query := Range{Owner: owner, Offset: offset, Length: length}
	for _, r := range rec.ranges {
		if !overlaps(r, query) {
			continue
		}
		if r.Owner == owner {
			return Granted, nil
		}
		return Denied, &Conflict{
			Exclusive: rec.exclusive,
			Owner:     r.Owner,
			Offset:    r.Offset,
			Length:    r.Length,
		}
	}
	return Granted, nil
}

// Lock attempts to acquire a byte-range lock (spec.md §4.2, LOCK). The
// block flag is accepted but never honored: denials are immediate, per the
// spec's documented open question.
func (t *Table) Lock(fh handle.FileHandle, block, exclusive bool, owner int64, offset, length uint64) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[fh]
	if !ok || len(rec.ranges) == 0 {
		t.records[fh] = &record{
			exclusive: exclusive,
			ranges:    []Range{{Owner: owner, Offset: offset, Length: length}},
		}
		return Granted
	}

	query := Range{Owner: owner, Offset: offset, Length: length}

	if rec.exclusive {
		// Only the owner already holding the exclusive record may stack
		// more ranges onto it.
		if rec.ranges[0].Owner != owner {
			return Denied
		}
		rec.ranges = append([]Range{query}, rec.ranges...)
		return Granted
	}

	// Shared record: grant if there is no overlap, or every overlap is
	// with the same owner.
	for _, r := range rec.ranges {
		if overlaps(r, query) && r.Owner != owner {
			return Denied
		}
	}
	rec.ranges = append([]Range{query}, rec.ranges...)
	return Granted
}

// Unlock removes every range owned by owner that overlaps [offset,
// offset+length). Returns DeniedNoLocks if nothing was removed (spec.md
// §4.2, UNLOCK).
func (t *Table) Unlock(fh handle.FileHandle, owner int64, offset, length uint64) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[fh]
	if !ok {
		return DeniedNoLocks
	}

	query := Range{Owner: owner, Offset: offset, Length: length}

	kept := rec.ranges[:0]
	removed := 0
	for _, r := range rec.ranges {
		if r.Owner == owner && overlaps(r, query) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	rec.ranges = kept

	if removed == 0 {
		return DeniedNoLocks
	}
	return Granted
}

// Cancel acknowledges an NLM CANCEL without changing any state: no lock
// request ever actually blocks (spec.md §4.2, CANCEL; §9 open question).
func (t *Table) Cancel(handle.FileHandle, int64, uint64, uint64) Status {
	return Granted
}
