package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSuffix() [suffixSize]byte {
	var s [suffixSize]byte
	for i := range s {
		s[i] = byte(i)
	}
	return s
}

func TestHandleForIsBijective(t *testing.T) {
	r := New(testSuffix())

	fh1 := r.HandleFor("a", 1)
	fh2 := r.HandleFor("b", 1)
	fh3 := r.HandleFor("a", 2)

	assert.NotEqual(t, fh1, fh2, "different ids under the same fs must mint different handles")
	assert.NotEqual(t, fh1, fh3, "the same id under different filesystems must mint different handles")
}

func TestHandleForIsIdempotent(t *testing.T) {
	r := New(testSuffix())

	fh1 := r.HandleFor("a", 1)
	fh2 := r.HandleFor("a", 1)
	assert.Equal(t, fh1, fh2, "minting a handle for the same (id, fsID) twice must return the same handle")
}

func TestLookupRoundTrips(t *testing.T) {
	r := New(testSuffix())

	fh := r.HandleFor("a", 1)
	id, ok := r.Lookup(fh)
	require.True(t, ok)
	assert.Equal(t, "a", id)
}

func TestLookupUnknownHandleFails(t *testing.T) {
	r := New(testSuffix())
	_, ok := r.Lookup(FileHandle{})
	assert.False(t, ok)
}

func TestParseRecoversFileAndFsID(t *testing.T) {
	r := New(testSuffix())
	fh := r.HandleFor("a", 7)
	fileID, fsID := Parse(fh)
	assert.Equal(t, uint32(7), fsID)
	assert.NotZero(t, fileID)
}

func TestEvictFilesystemRemovesOnlyThatFilesystem(t *testing.T) {
	r := New(testSuffix())
	r.HandleFor("a", 1)
	r.HandleFor("b", 1)
	r.HandleFor("c", 2)

	n := r.EvictFilesystem(1)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, r.Len())
}

func TestConcurrentHandleForIsSafe(t *testing.T) {
	r := New(testSuffix())
	done := make(chan FileHandle, 100)
	for i := 0; i < 100; i++ {
		go func() { done <- r.HandleFor("shared", 1) }()
	}
	first := <-done
	for i := 1; i < 100; i++ {
		assert.Equal(t, first, <-done)
	}
}
