package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brinefs/nfs2d/internal/core/backend"
)

func TestAssembleDefaults(t *testing.T) {
	f := Assemble(5, 2, nil)
	assert.Equal(t, uint32(2), f.FsID)
	assert.Equal(t, uint32(5), f.FileID)
	assert.Equal(t, uint32(1024), f.BlockSize)
	assert.Equal(t, uint32(1), f.Blocks)
	assert.Equal(t, NFNON, f.Type)
}

func TestAssembleTypeAndModeBitsCommute(t *testing.T) {
	withTypeFirst := Assemble(1, 1, backend.AttrSet{
		{Key: "type", Value: NFDIR},
		{Key: "mode", Value: uint32(0o755)},
	})
	withModeFirst := Assemble(1, 1, backend.AttrSet{
		{Key: "mode", Value: uint32(0o755)},
		{Key: "type", Value: NFDIR},
	})

	assert.Equal(t, withTypeFirst.Mode, withModeFirst.Mode)
	assert.Equal(t, NFDIR, withTypeFirst.Type)
	assert.NotZero(t, withTypeFirst.Mode&0o040000, "directory type bits must be set")
	assert.NotZero(t, withTypeFirst.Mode&0o755, "permission bits must be set")
}

func TestAssembleSymbolicMode(t *testing.T) {
	f := Assemble(1, 1, backend.AttrSet{
		{Key: "mode", Value: SymbolicMode{User: []string{"r", "w", "x"}, Group: []string{"r"}, Other: []string{}}},
	})
	assert.Equal(t, uint32(0o740), f.Mode)
}

func TestAssembleNamedRole(t *testing.T) {
	f := Assemble(1, 1, backend.AttrSet{{Key: "mode", Value: "directory"}})
	assert.Equal(t, uint32(0o040000), f.Mode)
}

func TestAssembleOverridesFsIDAndFileID(t *testing.T) {
	f := Assemble(1, 1, backend.AttrSet{
		{Key: "fsid", Value: uint32(9)},
		{Key: "fileid", Value: uint32(8)},
	})
	assert.Equal(t, uint32(9), f.FsID)
	assert.Equal(t, uint32(8), f.FileID)
}

func TestAttrSetGet(t *testing.T) {
	s := backend.AttrSet{{Key: "mode", Value: uint32(1)}}
	v, ok := s.Get("mode")
	assert.True(t, ok)
	assert.Equal(t, uint32(1), v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}
