package nfsdispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinefs/nfs2d/internal/backend/memfs"
	"github.com/brinefs/nfs2d/internal/core/attr"
	"github.com/brinefs/nfs2d/internal/core/backend"
	"github.com/brinefs/nfs2d/internal/core/fsreg"
	"github.com/brinefs/nfs2d/internal/core/handle"
)

// newTestDispatcher mounts a fresh memfs instance directly (bypassing the
// mount table, which is component C4's concern, not C5's) and returns the
// dispatcher plus the root handle.
func newTestDispatcher(t *testing.T) (*Dispatcher, handle.FileHandle) {
	t.Helper()
	var suffix [handle.Size - 8]byte
	handles := handle.New(suffix)
	backends := fsreg.New()

	fs := memfs.New()
	rootID, state, err := fs.Init(nil)
	require.NoError(t, err)

	fsID := backends.Allocate(fs, state)
	rootFH := handles.HandleFor(rootID, fsID)

	return New(handles, backends), rootFH
}

func TestGetattrOnRoot(t *testing.T) {
	d, root := newTestDispatcher(t)
	res := d.Getattr(root)
	require.Equal(t, attr.NFS_OK, res.Status)
	assert.Equal(t, attr.NFDIR, res.Attr.Type)
}

func TestGetattrOnStaleHandleIsStale(t *testing.T) {
	d, _ := newTestDispatcher(t)
	res := d.Getattr(handle.FileHandle{0xff})
	assert.Equal(t, attr.NFSERR_STALE, res.Status)
}

func TestGetattrAfterUnmountIsStale(t *testing.T) {
	var suffix [handle.Size - 8]byte
	handles := handle.New(suffix)
	backends := fsreg.New()
	fs := memfs.New()
	rootID, state, _ := fs.Init(nil)
	fsID := backends.Allocate(fs, state)
	rootFH := handles.HandleFor(rootID, fsID)
	d := New(handles, backends)

	backends.Deactivate(fsID)

	res := d.Getattr(rootFH)
	assert.Equal(t, attr.NFSERR_STALE, res.Status)
}

func TestCreateThenLookupRoundTrips(t *testing.T) {
	d, root := newTestDispatcher(t)

	created := d.Create(root, "a.txt", nil)
	require.Equal(t, attr.NFS_OK, created.Status)

	found := d.Lookup(root, "a.txt")
	require.Equal(t, attr.NFS_OK, found.Status)
	assert.Equal(t, created.FH, found.FH)
}

func TestLookupMissingNameIsNoEnt(t *testing.T) {
	d, root := newTestDispatcher(t)
	res := d.Lookup(root, "missing")
	assert.Equal(t, attr.NFSERR_NOENT, res.Status)
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	d, root := newTestDispatcher(t)
	created := d.Create(root, "f", nil)
	require.Equal(t, attr.NFS_OK, created.Status)

	written := d.Write(created.FH, 0, 0, 5, []byte("hello"))
	require.Equal(t, attr.NFS_OK, written.Status)

	read := d.Read(created.FH, 0, 5, 5)
	require.Equal(t, attr.NFS_OK, read.Status)
	assert.Equal(t, []byte("hello"), read.Data)
}

func TestRenameAcrossFilesystemsIsRejected(t *testing.T) {
	var suffix [handle.Size - 8]byte
	handles := handle.New(suffix)
	backends := fsreg.New()
	d := New(handles, backends)

	fsA := memfs.New()
	rootA, stateA, _ := fsA.Init(nil)
	fsIDA := backends.Allocate(fsA, stateA)
	rootFHA := handles.HandleFor(rootA, fsIDA)

	fsB := memfs.New()
	rootB, stateB, _ := fsB.Init(nil)
	fsIDB := backends.Allocate(fsB, stateB)
	rootFHB := handles.HandleFor(rootB, fsIDB)

	d.Create(rootFHA, "x", nil)

	status := d.Rename(rootFHA, "x", rootFHB, "y")
	assert.Equal(t, attr.NFSERR_NODEV, status)
}

func TestReaddirListsCreatedEntries(t *testing.T) {
	d, root := newTestDispatcher(t)
	d.Create(root, "one", nil)
	d.Create(root, "two", nil)

	res := d.Readdir(root, 0, 4096)
	require.Equal(t, attr.NFS_OK, res.Status)
	assert.True(t, res.EOF)

	var names []string
	for _, e := range res.Entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "one")
	assert.Contains(t, names, "two")
	assert.Contains(t, names, ".")
}

func TestReaddirEmptyDirectoryIsEOF(t *testing.T) {
	d, root := newTestDispatcher(t)
	mkdir := d.Mkdir(root, "empty", nil)
	require.Equal(t, attr.NFS_OK, mkdir.Status)

	res := d.Readdir(mkdir.FH, 0, 4096)
	require.Equal(t, attr.NFS_OK, res.Status)
	assert.True(t, res.EOF)
	// "." and ".." are still listed even for an otherwise-empty directory.
	assert.Len(t, res.Entries, 2)
}

func TestReaddirIgnoresCookieAndCountLimits(t *testing.T) {
	d, root := newTestDispatcher(t)
	d.Create(root, "one", nil)
	d.Create(root, "two", nil)
	d.Create(root, "three", nil)

	// A tiny count and a nonzero cookie must not truncate or skip the
	// listing: readdir always returns everything in one reply.
	res := d.Readdir(root, 7, 8)
	require.Equal(t, attr.NFS_OK, res.Status)
	assert.True(t, res.EOF)

	var names []string
	for _, e := range res.Entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "one")
	assert.Contains(t, names, "two")
	assert.Contains(t, names, "three")
	assert.Contains(t, names, ".")
	assert.Contains(t, names, "..")
}

func TestRemoveThenLookupIsNoEnt(t *testing.T) {
	d, root := newTestDispatcher(t)
	d.Create(root, "gone", nil)
	status := d.Remove(root, "gone")
	assert.Equal(t, attr.NFS_OK, status)

	found := d.Lookup(root, "gone")
	assert.Equal(t, attr.NFSERR_NOENT, found.Status)
}

func TestSymlinkThenReadlink(t *testing.T) {
	d, root := newTestDispatcher(t)
	status := d.Symlink(root, "link", "/target", nil)
	require.Equal(t, attr.NFS_OK, status)

	found := d.Lookup(root, "link")
	require.Equal(t, attr.NFS_OK, found.Status)

	res := d.Readlink(found.FH)
	require.Equal(t, attr.NFS_OK, res.Status)
	assert.Equal(t, "/target", res.Target)
}

func TestStatfs(t *testing.T) {
	d, root := newTestDispatcher(t)
	res := d.Statfs(root)
	require.Equal(t, attr.NFS_OK, res.Status)
	assert.NotZero(t, res.Stat.Blocks)
}

// panicModule always panics, to exercise the crash-barrier guard.
type panicModule struct{ backend.Module }

func (panicModule) Getattr(backend.ID, any) (backend.AttrSet, error) {
	panic("boom")
}

func TestGetattrRecoversFromBackendPanic(t *testing.T) {
	var suffix [handle.Size - 8]byte
	handles := handle.New(suffix)
	backends := fsreg.New()

	fsID := backends.Allocate(panicModule{}, "state")
	rootFH := handles.HandleFor("root", fsID)
	d := New(handles, backends)

	res := d.Getattr(rootFH)
	assert.Equal(t, attr.NFSERR_IO, res.Status)
}
