package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brinefs/nfs2d/internal/core/handle"
)

var testFH = handle.FileHandle{1}

func TestLockThenTestFromOtherOwnerConflicts(t *testing.T) {
	tbl := New()
	assert.Equal(t, Granted, tbl.Lock(testFH, false, true, 1, 0, 100))

	status, conflict := tbl.Test(testFH, false, 2, 50, 10)
	assert.Equal(t, Denied, status)
	if assert.NotNil(t, conflict) {
		assert.Equal(t, int64(1), conflict.Owner)
		assert.True(t, conflict.Exclusive)
	}
}

func TestSameOwnerNeverConflictsWithItself(t *testing.T) {
	tbl := New()
	tbl.Lock(testFH, false, true, 1, 0, 100)

	status, conflict := tbl.Test(testFH, true, 1, 50, 10)
	assert.Equal(t, Granted, status)
	assert.Nil(t, conflict)
}

func TestSharedLocksFromDifferentOwnersDoNotConflict(t *testing.T) {
	tbl := New()
	assert.Equal(t, Granted, tbl.Lock(testFH, false, false, 1, 0, 10))
	assert.Equal(t, Granted, tbl.Lock(testFH, false, false, 2, 5, 10))
}

func TestExclusiveRangeIsOwnedByFirstLocker(t *testing.T) {
	tbl := New()
	assert.Equal(t, Granted, tbl.Lock(testFH, false, true, 1, 0, 10))
	// A second owner can never extend an exclusive record, even on a
	// disjoint range.
	assert.Equal(t, Denied, tbl.Lock(testFH, false, true, 2, 100, 10))
	// The original owner can keep stacking ranges onto it.
	assert.Equal(t, Granted, tbl.Lock(testFH, false, true, 1, 100, 10))
}

func TestZeroLengthRangeNeverOverlaps(t *testing.T) {
	tbl := New()
	tbl.Lock(testFH, false, true, 1, 0, 100)
	status, _ := tbl.Test(testFH, true, 2, 50, 0)
	assert.Equal(t, Granted, status)
}

func TestUnlockRemovesOnlyTheOwnersOverlappingRanges(t *testing.T) {
	tbl := New()
	tbl.Lock(testFH, false, false, 1, 0, 10)
	tbl.Lock(testFH, false, false, 2, 20, 10)

	assert.Equal(t, Granted, tbl.Unlock(testFH, 1, 0, 10))
	assert.Equal(t, DeniedNoLocks, tbl.Unlock(testFH, 1, 0, 10))
	assert.Equal(t, 1, tbl.Len())
}

func TestUnlockOnUnknownHandleIsDeniedNoLocks(t *testing.T) {
	tbl := New()
	assert.Equal(t, DeniedNoLocks, tbl.Unlock(testFH, 1, 0, 10))
}

func TestCancelIsAlwaysGranted(t *testing.T) {
	tbl := New()
	assert.Equal(t, Granted, tbl.Cancel(testFH, 1, 0, 10))
}
