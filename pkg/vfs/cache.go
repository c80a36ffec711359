package vfs

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// cacheKey indexes the directory cache table: (parent entry id, name).
// Matches DirectoryCacheKey in
// _examples/original_source/kernel/src/fs/vfs.rs.
type cacheKey struct {
	parent uint64
	name   string
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%d/%s", k.parent, k.name)
}

// DirectoryCache is the weak-valued table from (parent-entry-id, name) to
// DirectoryEntry. It is the only allocator of DirectoryEntry objects in the
// system.
type DirectoryCache struct {
	mu    sync.RWMutex
	table map[cacheKey]*DirectoryEntry

	// lookups collapses concurrent cache misses for the same key onto a
	// single driver lookup + insert, so two goroutines racing to resolve
	// the same uncached segment never both attempt DirectoryCache.insert
	// for the same key: re-inserting an already-present key is a
	// programmer error.
	lookups singleflight.Group

	ids *idGenerators
}

func newDirectoryCache(ids *idGenerators) *DirectoryCache {
	return &DirectoryCache{
		table: make(map[cacheKey]*DirectoryEntry),
		ids:   ids,
	}
}

// GetRoot returns the cached root entry, or nil if none has been mounted
// yet.
func (c *DirectoryCache) GetRoot() *DirectoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookupLocked(rootParentEntryID, "/")
}

// Lookup forms the (parent, name) key and upgrades the weak slot if live.
// It performs no filesystem I/O; a miss returns nil without error.
func (c *DirectoryCache) Lookup(parent *DirectoryEntry, name string) *DirectoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookupLocked(parent.ID(), name)
}

// lookupLocked requires at least a read lock held. A table hit upgrades the
// weak slot via TryIncRef, the Go analogue of Weak::upgrade() in the Rust
// original: the table holds its own baseline reference for as long as the
// key is present in c.table, so under the held lock the upgrade cannot
// observe a dead entry today, but calling TryIncRef here (rather than a
// plain IncRef) keeps the upgrade safe if a future caller ever reaches this
// method without the lock discipline assumed above.
func (c *DirectoryCache) lookupLocked(parentID uint64, name string) *DirectoryEntry {
	e, ok := c.table[cacheKey{parentID, name}]
	if !ok {
		return nil
	}
	if !e.TryIncRef() {
		return nil
	}
	return e
}

// insert allocates a fresh DirectoryEntry bound to (parent, name) -> node,
// and indexes it both in the global table and in parent's children map.
// Precondition: parent is present, or name == "/" for the root; and no
// entry already occupies this key. Violating either is a programmer error
// and panics, matching the Rust original's assert!. The returned entry
// carries only the table's own baseline reference; callers that want to
// pin it beyond the table's lifetime (a mount's root) must IncRef it
// themselves.
func (c *DirectoryCache) insert(parent *DirectoryEntry, node *FsNode, name string) *DirectoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(parent, node, name)
}

// InsertIfAbsent atomically checks-then-inserts under a single write-lock
// critical section, so two concurrent mounts racing on the same key
// observe AlreadyExists rather than tripping insertLocked's programmer-error
// panic. On a miss it returns the freshly inserted entry and true; on a hit
// it returns the existing entry (with a fresh reference the caller must
// release) and false.
func (c *DirectoryCache) InsertIfAbsent(parent *DirectoryEntry, node *FsNode, name string) (*DirectoryEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parentID := rootParentEntryID
	if parent != nil {
		parentID = parent.ID()
	}
	if existing := c.lookupLocked(parentID, name); existing != nil {
		return existing, false
	}
	return c.insertLocked(parent, node, name), true
}

func (c *DirectoryCache) insertLocked(parent *DirectoryEntry, node *FsNode, name string) *DirectoryEntry {
	if parent == nil && name != "/" {
		panic("vfs: only the root entry is allowed to not have a parent")
	}
	parentID := rootParentEntryID
	if parent != nil {
		parentID = parent.ID()
	}
	key := cacheKey{parentID, name}
	if _, ok := c.table[key]; ok {
		panic(fmt.Sprintf("vfs: attempted to re-insert existing cache entry %s", key))
	}

	entry := newDirectoryEntry(c.ids.nextEntryID(), name, node, parent)

	if parent != nil {
		if parent.children == nil {
			parent.children = make(map[string]*DirectoryEntry)
		}
		parent.children[name] = entry
	}
	c.table[key] = entry
	return entry
}

// getCachedOrLookup is the workhorse behind the path walker's per-segment
// resolution: check the cache, and on a miss ask the driver, inserting the
// result into the cache for next time. Concurrent callers racing on the
// same (parent, name) share one driver call via singleflight; the closure
// only resolves whether an entry exists, and every caller — leader and
// followers alike — then acquires its own reference through the ordinary
// locked Lookup path, so no single shared pointer is ever handed out as a
// pre-owned reference to more than one caller.
func (c *DirectoryCache) getCachedOrLookup(fs FileSystem, parent *DirectoryEntry, name string) (*DirectoryEntry, error) {
	if cached := c.Lookup(parent, name); cached != nil {
		return cached, nil
	}

	key := cacheKey{parent.ID(), name}.String()
	_, err, _ := c.lookups.Do(key, func() (any, error) {
		// Re-check under the singleflight key: another goroutine may have
		// inserted this entry while we were waiting to be scheduled.
		if cached := c.Lookup(parent, name); cached != nil {
			cached.DecRef()
			return nil, nil
		}

		node, err := fs.DirectoryOps().Lookup(parent, name)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, nil
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		// Another caller may have inserted between the unlocked Lookup
		// above and acquiring the write lock; leave their entry alone so
		// we never violate the no-duplicate-insert invariant.
		if existing := c.lookupLocked(parent.ID(), name); existing != nil {
			existing.DecRef()
		} else {
			c.insertLocked(parent, node, name)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	// The entry, if any, is now in the table; acquire our own reference.
	return c.Lookup(parent, name), nil
}

// Prune removes table slots (and the matching per-parent children entries)
// that are Evictable: nothing outside the cache holds them any more.
// Intended to be driven by external memory pressure via
// VirtualFilesystem.PruneDirectoryCache.
func (c *DirectoryCache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := make(map[*DirectoryEntry]bool)
	for key, entry := range c.table {
		if entry.Evictable() {
			delete(c.table, key)
			evicted[entry] = true
		}
	}
	for e := range evicted {
		e.DecRef()
		if !e.Dead() {
			// Evictable required N() <= 1 under the same write lock Prune
			// still holds, so dropping that last reference here must have
			// hit zero; a live entry reaching this point means some caller
			// held an undercounted reference.
			panic("vfs: pruned entry still has external references")
		}
	}
	for _, entry := range c.table {
		entry.pruneChildren(evicted)
	}
}
