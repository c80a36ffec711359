// Package refcount implements the reference-counted "strong/weak" pointer
// idiom this module uses in place of Rust's Arc/Weak (the original
// RiptideOS VFS was written in Rust and leaned on Arc<DirectoryEntry> /
// Weak<DirectoryEntry> for its directory cache; see
// _examples/original_source/kernel/src/fs/vfs.rs). Go has no portable
// equivalent of Weak pre-1.24, so vfscore borrows the approach gVisor itself
// uses for Dentry lifetime (_examples/Talismancer-gvisor-ligolo/pkg/sentry/vfs/dentry.go
// and pkg/sentry/fsimpl/kernfs/kernfs.go's DentryRefs): an explicit
// IncRef/DecRef/TryIncRef counter, where a "weak" reference is simply a raw
// pointer that must be upgraded through TryIncRef before use, and upgrading
// a pointer whose count has already reached zero fails exactly as
// Weak::upgrade() would.
package refcount

import "github.com/wavekernel/vfscore/internal/atomicbitops"

// Count is embedded by any type that needs IncRef/DecRef/TryIncRef
// semantics. The zero value holds no references (N() is 0 and Dead() is
// true); Init seeds the one reference an object's creator is about to
// return.
type Count struct {
	n atomicbitops.Int64
}

// Init must be called once, before any other reference is taken, to seed
// the count at one (the reference the constructor is about to hand back).
func (c *Count) Init() {
	c.n.Add(1)
}

// IncRef adds a reference. The caller must already hold a reference (or be
// the object's constructor, immediately after Init).
func (c *Count) IncRef() {
	if c.n.Add(1) <= 1 {
		panic("refcount: IncRef on a dead object")
	}
}

// TryIncRef attempts to add a reference, and reports whether it succeeded.
// It fails if the count has already reached zero, which is the Go
// rendering of a Weak pointer whose referent has been dropped: the pointer
// is still there, but logically dead, and the caller (typically a
// DirectoryCache lookup) should behave as if the slot were empty.
func (c *Count) TryIncRef() bool {
	for {
		v := c.n.Load()
		if v <= 0 {
			return false
		}
		if c.n.CompareAndSwap(v, v+1) {
			return true
		}
	}
}

// DecRef removes a reference and calls onZero exactly once, when the count
// transitions from one to zero. onZero is where callers release whatever
// the reference was keeping alive (e.g. DirectoryEntry releasing its
// parent, decrementing the owning FsNode's link count).
func (c *Count) DecRef(onZero func()) {
	switch v := c.n.Add(-1); {
	case v > 0:
		return
	case v == 0:
		if onZero != nil {
			onZero()
		}
	default:
		panic("refcount: DecRef past zero")
	}
}

// Dead reports whether the count has already reached zero.
func (c *Count) Dead() bool {
	return c.n.Load() <= 0
}

// N returns the current reference count. Exposed so owners that keep one
// reference of their own as a permanent baseline (DirectoryCache's table
// slots; see DirectoryEntry.Evictable) can tell "only my own baseline
// remains" apart from "someone external still holds this".
func (c *Count) N() int64 {
	return c.n.Load()
}
