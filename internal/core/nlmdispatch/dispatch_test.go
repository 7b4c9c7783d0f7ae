package nlmdispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brinefs/nfs2d/internal/core/handle"
	"github.com/brinefs/nfs2d/internal/core/lock"
)

var testFH = handle.FileHandle{2}

func TestLockThenUnlock(t *testing.T) {
	d := New(lock.New())
	req := Request{FH: testFH, Exclusive: true, Owner: 1, Offset: 0, Length: 10}

	assert.Equal(t, lock.Granted, d.Lock(req, false))
	assert.Equal(t, lock.Granted, d.Unlock(req))
}

func TestTestReportsConflict(t *testing.T) {
	d := New(lock.New())
	d.Lock(Request{FH: testFH, Exclusive: true, Owner: 1, Offset: 0, Length: 10}, false)

	status, conflict := d.Test(Request{FH: testFH, Owner: 2, Offset: 0, Length: 5})
	assert.Equal(t, lock.Denied, status)
	if assert.NotNil(t, conflict) {
		assert.Equal(t, int64(1), conflict.Owner)
	}
}

func TestCancelIsAlwaysGranted(t *testing.T) {
	d := New(lock.New())
	status := d.Cancel(Request{FH: testFH, Owner: 1, Offset: 0, Length: 10})
	assert.Equal(t, lock.Granted, status)
}

func TestUnlockWithoutAPriorLockIsDeniedNoLocks(t *testing.T) {
	d := New(lock.New())
	status := d.Unlock(Request{FH: testFH, Owner: 1, Offset: 0, Length: 10})
	assert.Equal(t, lock.DeniedNoLocks, status)
}
