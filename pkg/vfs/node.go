package vfs

import (
	"sync"
	"time"
)

// NodeKind is the type of on-medium object an FsNode represents.
type NodeKind int

const (
	// KindDirectory nodes hold other nodes by name.
	KindDirectory NodeKind = iota
	// KindFile nodes hold a byte stream.
	KindFile
	// KindCharDevice nodes are backed by a registered character device.
	KindCharDevice
	// KindBlockDevice nodes are backed by a block device (unused by the
	// bundled drivers; reserved for a future block device driver).
	KindBlockDevice
)

func (k NodeKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	case KindCharDevice:
		return "char-device"
	case KindBlockDevice:
		return "block-device"
	default:
		return "unknown"
	}
}

// NodeMetadata is the mutable, driver-agnostic bookkeeping the VFS keeps
// about an FsNode, guarded by its own mutex.
type NodeMetadata struct {
	mu sync.Mutex

	dirty      bool
	linkCount  int64
	size       uint64
	accessedAt time.Time
	createdAt  time.Time
	modifiedAt time.Time
}

// Dirty reports whether the node has pending changes not yet flushed by the
// driver's WriteNode hook.
func (m *NodeMetadata) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// MarkDirty flags the node as having unflushed changes.
func (m *NodeMetadata) MarkDirty() {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

// LinkCount returns the current link count: the number of live File handles
// opened through the VFS. Directory-tree edges are not counted.
func (m *NodeMetadata) LinkCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linkCount
}

func (m *NodeMetadata) incLinkCount() int64 {
	m.mu.Lock()
	m.linkCount++
	n := m.linkCount
	m.mu.Unlock()
	return n
}

func (m *NodeMetadata) decLinkCount() int64 {
	m.mu.Lock()
	m.linkCount--
	n := m.linkCount
	m.mu.Unlock()
	return n
}

// Size returns the node's current size in bytes, as last reported by the
// driver (e.g. after a write).
func (m *NodeMetadata) Size() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// SetSize updates the cached size metadata. Drivers that track their own
// length (like ramfs) call this after successful writes.
func (m *NodeMetadata) SetSize(size uint64) {
	m.mu.Lock()
	m.size = size
	m.mu.Unlock()
}

// Touch stamps the given timestamp fields. Any of access/create/modify may
// be left false to skip updating that field.
func (m *NodeMetadata) Touch(now time.Time, access, create, modify bool) {
	m.mu.Lock()
	if access {
		m.accessedAt = now
	}
	if create {
		m.createdAt = now
	}
	if modify {
		m.modifiedAt = now
	}
	m.mu.Unlock()
}

// Timestamps returns a snapshot of the three tracked timestamps.
func (m *NodeMetadata) Timestamps() (accessed, created, modified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessedAt, m.createdAt, m.modifiedAt
}

// FsNode is the driver-owned representation of an on-medium object.
// Equality is (MountID, ID).
type FsNode struct {
	ID      uint64
	MountID uint64
	Kind    NodeKind

	Metadata NodeMetadata

	// structureLock guards directory-structure mutations (create/remove/
	// mount-into) for directory nodes. Leaf nodes still carry one for
	// uniformity, but only directory operations acquire it.
	structureLock sync.Mutex

	// Private is the driver's opaque per-node payload. The VFS never
	// inspects it; drivers type-assert it back to their own type (see
	// FsNode.Private / the ramfs and devfs drivers for the convention).
	Private any
}

// IsDirectory reports whether this node represents a directory.
func (n *FsNode) IsDirectory() bool { return n.Kind == KindDirectory }

// Equal implements (mount_id, node_id) equality.
func (n *FsNode) Equal(other *FsNode) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.ID == other.ID && n.MountID == other.MountID
}

// Lock acquires the node's structure lock. Callers hold it across the one
// driver call that mutates this directory's child set.
func (n *FsNode) Lock()   { n.structureLock.Lock() }
func (n *FsNode) Unlock() { n.structureLock.Unlock() }

// IncLinkCount increments the node's link count (open() does this before
// calling the driver).
func (n *FsNode) IncLinkCount() int64 { return n.Metadata.incLinkCount() }

// DecLinkCount decrements the node's link count (used by the open()
// rollback guard and by close()).
func (n *FsNode) DecLinkCount() int64 { return n.Metadata.decLinkCount() }

// Evictable reports whether the node's link count has reached zero, making
// it eligible for EvictNode.
func (n *FsNode) Evictable() bool { return n.Metadata.LinkCount() == 0 }
