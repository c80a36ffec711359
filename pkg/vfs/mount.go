package vfs

import "sync"

// VfsMount is a single mounted FileSystem instance, grounded on VfsMount in
// _examples/original_source/kernel/src/fs/vfs.rs. The strong reference to
// root keeps that entry (and everything upstream of it via DirectoryEntry.parent
// pinning) permanently live in the directory cache: unmounting is what
// finally releases it.
type VfsMount struct {
	ID         uint64
	root       *DirectoryEntry
	FileSystem FileSystem
}

// Root returns the mount's pinned root entry.
func (m *VfsMount) Root() *DirectoryEntry { return m.root }

// MountTable is the id-indexed set of active mounts.
type MountTable struct {
	mu     sync.RWMutex
	mounts map[uint64]*VfsMount
}

func newMountTable() *MountTable {
	return &MountTable{mounts: make(map[uint64]*VfsMount)}
}

// Insert adds a newly constructed mount.
func (t *MountTable) Insert(m *VfsMount) {
	t.mu.Lock()
	t.mounts[m.ID] = m
	t.mu.Unlock()
}

// Get looks up a mount by id.
func (t *MountTable) Get(id uint64) (*VfsMount, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.mounts[id]
	return m, ok
}

// Remove drops a mount record, returning it so the caller can release its
// root pin and invoke FileSystemType.Unmount.
func (t *MountTable) Remove(id uint64) (*VfsMount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.mounts[id]
	if ok {
		delete(t.mounts, id)
	}
	return m, ok
}

// MountedAt reports whether some mount's root is a direct child named name
// of parent — i.e. whether resolving parent/name should cross into another
// file system instance rather than asking parent's own driver. Returns the
// overlaying root entry with a fresh reference the caller owns, or nil.
func (t *MountTable) MountedAt(parent *DirectoryEntry, name string) *DirectoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.mounts {
		if m.root.Parent().Equal(parent) && m.root.Name == name {
			m.root.IncRef()
			return m.root
		}
	}
	return nil
}

// ChildrenAt returns the root entries of every mount whose root's parent is
// directory, used by ReadDirectory to splice mount points into a listing.
func (t *MountTable) ChildrenAt(directory *DirectoryEntry) []*DirectoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*DirectoryEntry
	for _, m := range t.mounts {
		if m.root.Parent().Equal(directory) {
			out = append(out, m.root)
		}
	}
	return out
}
