package memfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinefs/nfs2d/internal/core/attr"
	"github.com/brinefs/nfs2d/internal/core/backend"
)

func newRoot(t *testing.T) (*FS, backend.ID) {
	t.Helper()
	fs := New()
	root, _, err := fs.Init(nil)
	require.NoError(t, err)
	return fs, root
}

func TestInitRootIsADirectory(t *testing.T) {
	fs, root := newRoot(t)
	attrs, err := fs.Getattr(root, nil)
	require.NoError(t, err)

	v, ok := attrs.Get("type")
	require.True(t, ok)
	assert.Equal(t, attr.NFDIR, v)
}

func TestCreateLookupRemove(t *testing.T) {
	fs, root := newRoot(t)

	child, err := fs.Create(root, "file.txt", nil, nil)
	require.NoError(t, err)

	found, err := fs.Lookup(root, "file.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, child, found)

	require.NoError(t, fs.Remove(root, "file.txt", nil))

	_, err = fs.Lookup(root, "file.txt", nil)
	assert.Equal(t, backend.ReasonNoEnt, backend.AsReason(err))
}

func TestCreateDuplicateNameFails(t *testing.T) {
	fs, root := newRoot(t)
	_, err := fs.Create(root, "dup", nil, nil)
	require.NoError(t, err)

	_, err = fs.Create(root, "dup", nil, nil)
	assert.Equal(t, backend.ReasonExist, backend.AsReason(err))
}

func TestWriteReadRoundTrip(t *testing.T) {
	fs, root := newRoot(t)
	child, err := fs.Create(root, "data", nil, nil)
	require.NoError(t, err)

	require.NoError(t, fs.Write(child, 0, 0, 5, []byte("hello"), nil))

	data, err := fs.Read(child, 0, 100, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestWriteExtendsFile(t *testing.T) {
	fs, root := newRoot(t)
	child, _ := fs.Create(root, "data", nil, nil)
	fs.Write(child, 0, 0, 5, []byte("hello"), nil)
	require.NoError(t, fs.Write(child, 0, 10, 5, []byte("world"), nil))

	data, err := fs.Read(child, 0, 100, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\x00\x00\x00\x00\x00world", string(data))
}

func TestMkdirRmdirRequiresEmpty(t *testing.T) {
	fs, root := newRoot(t)
	dir, err := fs.Mkdir(root, "sub", nil, nil)
	require.NoError(t, err)

	_, err = fs.Create(dir, "inner", nil, nil)
	require.NoError(t, err)

	err = fs.Rmdir(root, "sub", nil)
	assert.Equal(t, backend.ReasonNotEmpty, backend.AsReason(err))

	require.NoError(t, fs.Remove(dir, "inner", nil))
	require.NoError(t, fs.Rmdir(root, "sub", nil))
}

func TestRenameWithinSameDirectory(t *testing.T) {
	fs, root := newRoot(t)
	child, _ := fs.Create(root, "old", nil, nil)

	require.NoError(t, fs.Rename(root, "old", root, "new", nil))

	found, err := fs.Lookup(root, "new", nil)
	require.NoError(t, err)
	assert.Equal(t, child, found)

	_, err = fs.Lookup(root, "old", nil)
	assert.Equal(t, backend.ReasonNoEnt, backend.AsReason(err))
}

func TestRenameAcrossDirectories(t *testing.T) {
	fs, root := newRoot(t)
	dir, _ := fs.Mkdir(root, "dst", nil, nil)
	child, _ := fs.Create(root, "f", nil, nil)

	require.NoError(t, fs.Rename(root, "f", dir, "f", nil))

	found, err := fs.Lookup(dir, "f", nil)
	require.NoError(t, err)
	assert.Equal(t, child, found)
}

func TestSymlinkReadlink(t *testing.T) {
	fs, root := newRoot(t)
	require.NoError(t, fs.Symlink(root, "link", "/etc/passwd", nil, nil))

	child, err := fs.Lookup(root, "link", nil)
	require.NoError(t, err)

	target, err := fs.Readlink(child, nil)
	require.NoError(t, err)
	assert.Equal(t, "/etc/passwd", target)
}

func TestReaddirIncludesDotEntries(t *testing.T) {
	fs, root := newRoot(t)
	fs.Create(root, "a", nil, nil)

	names, err := fs.Readdir(root, 4096, nil)
	require.NoError(t, err)
	assert.Contains(t, names, ".")
	assert.Contains(t, names, "..")
	assert.Contains(t, names, "a")
}

func TestLinkCreatesSecondName(t *testing.T) {
	fs, root := newRoot(t)
	child, _ := fs.Create(root, "orig", nil, nil)

	require.NoError(t, fs.Link(child, root, "alias", nil))

	found, err := fs.Lookup(root, "alias", nil)
	require.NoError(t, err)
	assert.Equal(t, child, found)
}

func TestStatfsReportsCapacity(t *testing.T) {
	fs, root := newRoot(t)
	stat, err := fs.Statfs(root, nil)
	require.NoError(t, err)
	assert.NotZero(t, stat.Blocks)
}
