package mount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinefs/nfs2d/internal/core/backend"
	"github.com/brinefs/nfs2d/internal/core/fsreg"
	"github.com/brinefs/nfs2d/internal/core/handle"
)

// fakeModule is a minimal in-memory single-root backend.Module used only
// to exercise the mount table's mount/unmount lifecycle.
type fakeModule struct {
	initCalls int
	termCalls int
}

func (m *fakeModule) Init(map[string]any) (backend.ID, any, error) {
	m.initCalls++
	return "root", "state", nil
}
func (m *fakeModule) Terminate(any) error {
	m.termCalls++
	return nil
}
func (m *fakeModule) Getattr(backend.ID, any) (backend.AttrSet, error) { return nil, nil }
func (m *fakeModule) Setattr(backend.ID, backend.AttrSet, any) error  { return nil }
func (m *fakeModule) Lookup(backend.ID, string, any) (backend.ID, error) {
	return nil, nil
}
func (m *fakeModule) Readlink(backend.ID, any) (string, error) { return "", nil }
func (m *fakeModule) Read(backend.ID, uint32, uint32, uint32, any) ([]byte, error) {
	return nil, nil
}
func (m *fakeModule) Write(backend.ID, uint32, uint32, uint32, []byte, any) error { return nil }
func (m *fakeModule) Create(backend.ID, string, backend.AttrSet, any) (backend.ID, error) {
	return nil, nil
}
func (m *fakeModule) Remove(backend.ID, string, any) error                     { return nil }
func (m *fakeModule) Rename(backend.ID, string, backend.ID, string, any) error { return nil }
func (m *fakeModule) Link(backend.ID, backend.ID, string, any) error           { return nil }
func (m *fakeModule) Symlink(backend.ID, string, string, backend.AttrSet, any) error {
	return nil
}
func (m *fakeModule) Mkdir(backend.ID, string, backend.AttrSet, any) (backend.ID, error) {
	return nil, nil
}
func (m *fakeModule) Rmdir(backend.ID, string, any) error               { return nil }
func (m *fakeModule) Readdir(backend.ID, uint32, any) ([]string, error) { return nil, nil }
func (m *fakeModule) Statfs(backend.ID, any) (backend.StatFS, error)    { return backend.StatFS{}, nil }

func newTestTable() *Table {
	var suffix [handle.Size - 8]byte
	return New(handle.New(suffix), fsreg.New())
}

func TestMntOnUnregisteredPathFails(t *testing.T) {
	tbl := newTestTable()
	status, _ := tbl.Mnt("/nope")
	assert.Equal(t, MntFail, status)
}

func TestMntInitializesBackendOnce(t *testing.T) {
	tbl := newTestTable()
	mod := &fakeModule{}
	tbl.AddMountpoint("/export", mod, nil)

	status1, fh1 := tbl.Mnt("/export")
	require.Equal(t, MntOK, status1)

	status2, fh2 := tbl.Mnt("/export")
	require.Equal(t, MntOK, status2)

	assert.Equal(t, fh1, fh2, "remounting an already-mounted path is idempotent")
	assert.Equal(t, 1, mod.initCalls, "Init must run exactly once across repeated Mnt calls")
}

func TestUmntTerminatesBackend(t *testing.T) {
	tbl := newTestTable()
	mod := &fakeModule{}
	tbl.AddMountpoint("/export", mod, nil)
	tbl.Mnt("/export")

	tbl.Umnt("/export")
	assert.Equal(t, 1, mod.termCalls)

	// A second Umnt on an already-unmounted entry is a no-op.
	tbl.Umnt("/export")
	assert.Equal(t, 1, mod.termCalls)
}

func TestRemountAfterUnmountReinitializes(t *testing.T) {
	tbl := newTestTable()
	mod := &fakeModule{}
	tbl.AddMountpoint("/export", mod, nil)

	tbl.Mnt("/export")
	tbl.Umnt("/export")
	status, _ := tbl.Mnt("/export")

	assert.Equal(t, MntOK, status)
	assert.Equal(t, 2, mod.initCalls)
}

func TestUmntAllUnmountsEveryMountedEntry(t *testing.T) {
	tbl := newTestTable()
	modA, modB := &fakeModule{}, &fakeModule{}
	tbl.AddMountpoint("/a", modA, nil)
	tbl.AddMountpoint("/b", modB, nil)
	tbl.Mnt("/a")
	tbl.Mnt("/b")

	tbl.UmntAll()
	assert.Equal(t, 1, modA.termCalls)
	assert.Equal(t, 1, modB.termCalls)
}

func TestExportListsEveryRegisteredEntry(t *testing.T) {
	tbl := newTestTable()
	tbl.AddMountpoint("/a", &fakeModule{}, nil)
	tbl.AddMountpoint("/b", &fakeModule{}, nil)

	entries := tbl.Export()
	require.Len(t, entries, 2)
	assert.Equal(t, "/a", entries[0].Path)
	assert.Empty(t, entries[0].Groups)
}
