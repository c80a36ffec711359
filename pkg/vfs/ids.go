package vfs

import "github.com/wavekernel/vfscore/internal/atomicbitops"

// idGenerators holds the three process-wide monotonic counters the kernel
// needs: entry ids, mount ids, and file descriptors. Entry id 0 is
// reserved as the synthetic parent of the root, matching DirectoryEntryId::NULL
// in _examples/original_source/kernel/src/fs/vfs.rs.
type idGenerators struct {
	entryID      atomicbitops.Uint64
	mountID      atomicbitops.Uint64
	descriptorID atomicbitops.Uint64
}

// rootParentEntryID is the reserved parent-id key for the root's cache slot.
const rootParentEntryID uint64 = 0

func (g *idGenerators) nextEntryID() uint64      { return g.entryID.Next() }
func (g *idGenerators) nextMountID() uint64      { return g.mountID.Next() }
func (g *idGenerators) nextDescriptorID() uint64 { return g.descriptorID.Next() }
