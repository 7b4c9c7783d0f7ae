// Package memfs is nfs2d's reference backend.Module: an in-memory
// filesystem tree used for local testing and as a worked example of the
// 17-operation contract internal/core/backend defines.
package memfs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brinefs/nfs2d/internal/core/attr"
	"github.com/brinefs/nfs2d/internal/core/backend"
)

// node is one file, directory or symlink in the tree. Its id is stable
// for the node's lifetime; the core's handle.Registry mints file handles
// against it.
type node struct {
	mu sync.RWMutex

	id       string
	typ      nodeType
	mode     uint32
	uid, gid uint32
	data     []byte
	target   string // symlink target
	children map[string]string // name -> child id, directories only
	parent   string
	atime, mtime, ctime time.Time
}

type nodeType int

const (
	typeReg nodeType = iota
	typeDir
	typeSymlink
)

// FS is an in-memory backend.Module implementation. The zero value is not
// usable; construct with New.
type FS struct {
	mu    sync.RWMutex
	nodes map[string]*node
	rootID string
}

// New returns an unintialized FS. Call Init to mint the root directory
// before registering it with a backend registry.
func New() *FS {
	return &FS{nodes: make(map[string]*node)}
}

// Init implements backend.Module. Options are currently unused; memfs
// always starts from a fresh empty root directory.
func (f *FS) Init(opts map[string]any) (backend.ID, any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	root := &node{
		id:       uuid.NewString(),
		typ:      typeDir,
		mode:     0o755,
		children: make(map[string]string),
		atime:    now,
		mtime:    now,
		ctime:    now,
	}
	f.nodes[root.id] = root
	f.rootID = root.id
	return root.id, nil, nil
}

// Terminate implements backend.Module. memfs holds no external resources.
func (f *FS) Terminate(state any) error {
	return nil
}

func (f *FS) get(id backend.ID) (*node, error) {
	key, ok := id.(string)
	if !ok {
		return nil, backend.NewError(backend.ReasonIO)
	}
	f.mu.RLock()
	n, ok := f.nodes[key]
	f.mu.RUnlock()
	if !ok {
		return nil, backend.NewError(backend.ReasonNoEnt)
	}
	return n, nil
}

// Getattr implements backend.Module.
func (f *FS) Getattr(id backend.ID, state any) (backend.AttrSet, error) {
	n, err := f.get(id)
	if err != nil {
		return nil, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.attrSet(), nil
}

func (n *node) attrSet() backend.AttrSet {
	ftype := attr.NFREG
	size := uint32(len(n.data))
	nlink := uint32(1)
	switch n.typ {
	case typeDir:
		ftype = attr.NFDIR
		nlink = uint32(2 + len(n.children))
	case typeSymlink:
		ftype = attr.NFLNK
		size = uint32(len(n.target))
	}
	return backend.AttrSet{
		{Key: "type", Value: ftype},
		{Key: "mode", Value: n.mode},
		{Key: "nlink", Value: nlink},
		{Key: "uid", Value: n.uid},
		{Key: "gid", Value: n.gid},
		{Key: "size", Value: size},
		{Key: "atime", Value: backend.Timestamp{Seconds: uint32(n.atime.Unix())}},
		{Key: "mtime", Value: backend.Timestamp{Seconds: uint32(n.mtime.Unix())}},
		{Key: "ctime", Value: backend.Timestamp{Seconds: uint32(n.ctime.Unix())}},
	}
}

// Setattr implements backend.Module.
func (f *FS) Setattr(id backend.ID, attrs backend.AttrSet, state any) error {
	n, err := f.get(id)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if v, ok := attrs.Get("mode"); ok {
		n.mode = toUint32(v)
	}
	if v, ok := attrs.Get("uid"); ok {
		n.uid = toUint32(v)
	}
	if v, ok := attrs.Get("gid"); ok {
		n.gid = toUint32(v)
	}
	if v, ok := attrs.Get("size"); ok {
		size := int(toUint32(v))
		switch {
		case size < len(n.data):
			n.data = n.data[:size]
		case size > len(n.data):
			grown := make([]byte, size)
			copy(grown, n.data)
			n.data = grown
		}
	}
	n.ctime = time.Now()
	return nil
}

func toUint32(v any) uint32 {
	switch t := v.(type) {
	case uint32:
		return t
	case int:
		return uint32(t)
	case int64:
		return uint32(t)
	default:
		return 0
	}
}

// Lookup implements backend.Module.
func (f *FS) Lookup(dirID backend.ID, name string, state any) (backend.ID, error) {
	dir, err := f.get(dirID)
	if err != nil {
		return nil, err
	}
	dir.mu.RLock()
	defer dir.mu.RUnlock()
	if dir.typ != typeDir {
		return nil, backend.NewError(backend.ReasonNotDir)
	}
	if name == "." {
		return dirID, nil
	}
	if name == ".." {
		if dir.parent == "" {
			return dirID, nil
		}
		return dir.parent, nil
	}
	childID, ok := dir.children[name]
	if !ok {
		return nil, backend.NewError(backend.ReasonNoEnt)
	}
	return childID, nil
}

// Readlink implements backend.Module.
func (f *FS) Readlink(id backend.ID, state any) (string, error) {
	n, err := f.get(id)
	if err != nil {
		return "", err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.typ != typeSymlink {
		return "", backend.NewError(backend.ReasonIO)
	}
	return n.target, nil
}

// Read implements backend.Module.
func (f *FS) Read(id backend.ID, offset, count, totalCount uint32, state any) ([]byte, error) {
	n, err := f.get(id)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.typ != typeReg {
		return nil, backend.NewError(backend.ReasonIsDir)
	}
	n.atime = time.Now()
	if int(offset) >= len(n.data) {
		return nil, nil
	}
	end := int(offset) + int(count)
	if end > len(n.data) {
		end = len(n.data)
	}
	out := make([]byte, end-int(offset))
	copy(out, n.data[offset:end])
	return out, nil
}

// Write implements backend.Module.
func (f *FS) Write(id backend.ID, beginOffset, offset, totalCount uint32, data []byte, state any) error {
	n, err := f.get(id)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.typ != typeReg {
		return backend.NewError(backend.ReasonIsDir)
	}
	end := int(offset) + len(data)
	if end > len(n.data) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[offset:end], data)
	n.mtime = time.Now()
	return nil
}

func (f *FS) createChild(dirID backend.ID, name string, typ nodeType, attrs backend.AttrSet) (string, error) {
	dir, err := f.get(dirID)
	if err != nil {
		return "", err
	}
	dir.mu.Lock()
	defer dir.mu.Unlock()
	if dir.typ != typeDir {
		return "", backend.NewError(backend.ReasonNotDir)
	}
	if _, exists := dir.children[name]; exists {
		return "", backend.NewError(backend.ReasonExist)
	}

	now := time.Now()
	n := &node{
		id:     uuid.NewString(),
		typ:    typ,
		mode:   0o644,
		parent: dir.id,
		atime:  now,
		mtime:  now,
		ctime:  now,
	}
	if typ == typeDir {
		n.mode = 0o755
		n.children = make(map[string]string)
	}
	if v, ok := attrs.Get("mode"); ok {
		n.mode = toUint32(v)
	}
	if v, ok := attrs.Get("uid"); ok {
		n.uid = toUint32(v)
	}
	if v, ok := attrs.Get("gid"); ok {
		n.gid = toUint32(v)
	}

	f.mu.Lock()
	f.nodes[n.id] = n
	f.mu.Unlock()
	dir.children[name] = n.id
	dir.mtime = now
	return n.id, nil
}

// Create implements backend.Module.
func (f *FS) Create(dirID backend.ID, name string, attrs backend.AttrSet, state any) (backend.ID, error) {
	return f.createChild(dirID, name, typeReg, attrs)
}

// Mkdir implements backend.Module.
func (f *FS) Mkdir(dirID backend.ID, name string, attrs backend.AttrSet, state any) (backend.ID, error) {
	return f.createChild(dirID, name, typeDir, attrs)
}

// Symlink implements backend.Module.
func (f *FS) Symlink(dirID backend.ID, name, target string, attrs backend.AttrSet, state any) error {
	childID, err := f.createChild(dirID, name, typeSymlink, attrs)
	if err != nil {
		return err
	}
	n, _ := f.get(childID)
	n.mu.Lock()
	n.target = target
	n.mu.Unlock()
	return nil
}

// Remove implements backend.Module.
func (f *FS) Remove(dirID backend.ID, name string, state any) error {
	dir, err := f.get(dirID)
	if err != nil {
		return err
	}
	dir.mu.Lock()
	childID, ok := dir.children[name]
	if !ok {
		dir.mu.Unlock()
		return backend.NewError(backend.ReasonNoEnt)
	}
	child, err := f.get(childID)
	if err != nil {
		dir.mu.Unlock()
		return err
	}
	child.mu.RLock()
	isDir := child.typ == typeDir
	child.mu.RUnlock()
	if isDir {
		dir.mu.Unlock()
		return backend.NewError(backend.ReasonIsDir)
	}
	delete(dir.children, name)
	dir.mtime = time.Now()
	dir.mu.Unlock()

	f.mu.Lock()
	delete(f.nodes, childID.(string))
	f.mu.Unlock()
	return nil
}

// Rmdir implements backend.Module.
func (f *FS) Rmdir(dirID backend.ID, name string, state any) error {
	dir, err := f.get(dirID)
	if err != nil {
		return err
	}
	dir.mu.Lock()
	childID, ok := dir.children[name]
	if !ok {
		dir.mu.Unlock()
		return backend.NewError(backend.ReasonNoEnt)
	}
	child, err := f.get(childID)
	if err != nil {
		dir.mu.Unlock()
		return err
	}
	child.mu.Lock()
	if child.typ != typeDir {
		child.mu.Unlock()
		dir.mu.Unlock()
		return backend.NewError(backend.ReasonNotDir)
	}
	if len(child.children) > 0 {
		child.mu.Unlock()
		dir.mu.Unlock()
		return backend.NewError(backend.ReasonNotEmpty)
	}
	child.mu.Unlock()

	delete(dir.children, name)
	dir.mtime = time.Now()
	dir.mu.Unlock()

	f.mu.Lock()
	delete(f.nodes, childID.(string))
	f.mu.Unlock()
	return nil
}

// Rename implements backend.Module. Cross-directory moves within the same
// tree are supported; the core rejects cross-filesystem renames before
// this is ever called.
func (f *FS) Rename(fromDirID backend.ID, fromName string, toDirID backend.ID, toName string, state any) error {
	fromDir, err := f.get(fromDirID)
	if err != nil {
		return err
	}
	toDir, err := f.get(toDirID)
	if err != nil {
		return err
	}

	if fromDir == toDir {
		fromDir.mu.Lock()
		defer fromDir.mu.Unlock()
		childID, ok := fromDir.children[fromName]
		if !ok {
			return backend.NewError(backend.ReasonNoEnt)
		}
		delete(fromDir.children, fromName)
		fromDir.children[toName] = childID
		fromDir.mtime = time.Now()
		return nil
	}

	fromDir.mu.Lock()
	defer fromDir.mu.Unlock()
	toDir.mu.Lock()
	defer toDir.mu.Unlock()

	childID, ok := fromDir.children[fromName]
	if !ok {
		return backend.NewError(backend.ReasonNoEnt)
	}
	if _, exists := toDir.children[toName]; exists {
		return backend.NewError(backend.ReasonExist)
	}
	delete(fromDir.children, fromName)
	toDir.children[toName] = childID
	now := time.Now()
	fromDir.mtime = now
	toDir.mtime = now

	if child, err := f.get(childID); err == nil {
		child.mu.Lock()
		child.parent = toDir.id
		child.mu.Unlock()
	}
	return nil
}

// Link implements backend.Module. memfs has no separate link-count data
// structure; a hard link is modeled as a second directory entry pointing
// at the same node id.
func (f *FS) Link(fromID, toDirID backend.ID, toName string, state any) error {
	if _, err := f.get(fromID); err != nil {
		return err
	}
	toDir, err := f.get(toDirID)
	if err != nil {
		return err
	}
	toDir.mu.Lock()
	defer toDir.mu.Unlock()
	if _, exists := toDir.children[toName]; exists {
		return backend.NewError(backend.ReasonExist)
	}
	toDir.children[toName] = fromID.(string)
	toDir.mtime = time.Now()
	return nil
}

// Readdir implements backend.Module. count is ignored; memfs always
// returns the full name listing and leaves pagination to the caller.
func (f *FS) Readdir(id backend.ID, count uint32, state any) ([]string, error) {
	dir, err := f.get(id)
	if err != nil {
		return nil, err
	}
	dir.mu.RLock()
	defer dir.mu.RUnlock()
	if dir.typ != typeDir {
		return nil, backend.NewError(backend.ReasonNotDir)
	}
	names := make([]string, 0, len(dir.children)+2)
	names = append(names, ".", "..")
	for name := range dir.children {
		names = append(names, name)
	}
	return names, nil
}

// Statfs implements backend.Module. memfs reports a fixed, generous
// capacity since it has no real storage ceiling.
func (f *FS) Statfs(id backend.ID, state any) (backend.StatFS, error) {
	if _, err := f.get(id); err != nil {
		return backend.StatFS{}, err
	}
	return backend.StatFS{
		TransferSize: 8192,
		BlockSize:    1024,
		Blocks:       1 << 20,
		BlocksFree:   1 << 20,
		BlocksAvail:  1 << 20,
	}, nil
}
