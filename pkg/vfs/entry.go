package vfs

import "github.com/wavekernel/vfscore/internal/refcount"

// DirectoryEntry is the cache-owned name binding of a child inside a parent
// directory. It is loosely analogous to gVisor's
// vfs.Dentry (_examples/Talismancer-gvisor-ligolo/pkg/sentry/vfs/dentry.go),
// but unlike that type vfscore's DirectoryEntry *is* the VFS's own
// allocation — gVisor deliberately avoids associating Dentries with
// inodes for filesystems it doesn't control, whereas here the directory
// cache is the sole allocator of entries; drivers never fabricate them.
//
// Entries are reference-counted using internal/refcount rather than Rust's
// Arc/Weak; see the package doc there for why.
//
// The cache table (and the identical pointer reachable through a parent's
// children map) always holds exactly one reference of its own, taken at
// construction and released by DirectoryCache.Prune. Because of that
// baseline, a map hit found under the cache's read lock is always live, so
// the TryIncRef that Lookup/GetRoot use to upgrade it succeeds. "Weak" behaviour
// — an entry becoming collectible once nothing outside the cache still
// wants it — falls out of Evictable reporting true once the external
// holders have all called DecRef, leaving only the table's own reference.
type DirectoryEntry struct {
	refcount.Count

	id   uint64
	Name string
	Node *FsNode

	// parent is a strong reference: as long as e is alive, parent is kept
	// alive too. nil only for the root entry.
	parent *DirectoryEntry

	// children maps name to the same *DirectoryEntry pointer stored under
	// the cache's table key. Mutated only by DirectoryCache, always under
	// its write lock — see cache.go. A nil/zero map means no children have
	// been cached yet.
	children map[string]*DirectoryEntry
}

func newDirectoryEntry(id uint64, name string, node *FsNode, parent *DirectoryEntry) *DirectoryEntry {
	e := &DirectoryEntry{id: id, Name: name, Node: node, parent: parent}
	e.Count.Init() // the cache table's own baseline reference
	if parent != nil {
		// The child's existence pins the parent; released in DecRef.
		parent.IncRef()
	}
	return e
}

// ID returns the entry's identity. Stable for as long as any strong
// reference to the entry is held; a fresh id is assigned if the same
// (parent, name) is re-resolved after eviction.
func (e *DirectoryEntry) ID() uint64 { return e.id }

// Parent returns the strong parent reference, or nil for the root.
func (e *DirectoryEntry) Parent() *DirectoryEntry { return e.parent }

// Equal implements entry identity comparison by id, stable for as long as
// any reference is held.
func (e *DirectoryEntry) Equal(other *DirectoryEntry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.id == other.id
}

// Evictable reports whether only the cache table's own baseline reference
// remains, i.e. no external caller (a walker, an open file, a pinned mount
// root) still holds this entry. DirectoryCache.Prune uses this to decide
// which table slots to reclaim.
func (e *DirectoryEntry) Evictable() bool {
	return e.Count.N() <= 1
}

// DecRef releases the caller's reference. Dropping the table's own final
// reference (via Prune) in turn releases the entry's reference on its
// parent, cascading up the ancestor chain exactly as dropping the last
// Arc<DirectoryEntry> would in the Rust original this was translated from.
func (e *DirectoryEntry) DecRef() {
	e.Count.DecRef(func() {
		if e.parent != nil {
			e.parent.DecRef()
		}
	})
}

// NewTestDirectoryEntry builds a standalone DirectoryEntry wrapping node,
// bypassing the directory cache entirely. Driver packages (ramfs, devfs) use
// it in their own unit tests to call DirectoryOperations methods, which take
// a *DirectoryEntry parameter but only ever read its Node field, without
// needing to stand up a full VirtualFilesystem.
func NewTestDirectoryEntry(name string, node *FsNode, parent *DirectoryEntry) *DirectoryEntry {
	return newDirectoryEntry(0, name, node, parent)
}

// pruneChildren removes children map entries that Prune has already evicted
// from the main table. Precondition: caller holds the owning DirectoryCache's
// write lock.
func (e *DirectoryEntry) pruneChildren(evicted map[*DirectoryEntry]bool) {
	for name, child := range e.children {
		if evicted[child] {
			delete(e.children, name)
		}
	}
}
