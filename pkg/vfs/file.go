package vfs

import (
	"sync"

	"github.com/wavekernel/vfscore/pkg/vfserror"
)

// FileMode is the access mode a file was opened with, matching FileMode in
// _examples/original_source/kernel/src/fs/mod.rs.
type FileMode int

const (
	ModeRead FileMode = iota
	ModeWrite
	ModeAppend
)

// Mutating reports whether this mode can change file contents.
func (m FileMode) Mutating() bool {
	return m == ModeWrite || m == ModeAppend
}

func (m FileMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeAppend:
		return "append"
	default:
		return "unknown"
	}
}

// File is an open instance of an FsNode. Distinct opens of the same node
// each get their own File (and their own cursor), even though they share
// the underlying FsNode and its link count.
type File struct {
	Node *FsNode
	Mode FileMode

	mu       sync.Mutex
	position int64

	// Private is the driver's opaque per-open-file payload, set by
	// FileOperations.Open and inspected only by that same driver.
	Private any
}

func newFile(node *FsNode, mode FileMode) *File {
	return &File{Node: node, Mode: mode}
}

// Position returns the current cursor offset.
func (f *File) Position() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

// SetPosition sets the cursor offset, e.g. after a successful Seek.
func (f *File) SetPosition(pos int64) {
	f.mu.Lock()
	f.position = pos
	f.mu.Unlock()
}

// Advance moves the cursor forward by n bytes and returns the offset it
// started at, used by Read/Write to implement the "current position"
// default when callers don't seek explicitly.
func (f *File) Advance(n int64) int64 {
	f.mu.Lock()
	start := f.position
	f.position += n
	f.mu.Unlock()
	return start
}

// FileDescriptor uniquely identifies an open file within a VirtualFilesystem.
type FileDescriptor uint64

// NullFileDescriptor is never issued by OpenFileTable.Insert.
const NullFileDescriptor FileDescriptor = 0

// OpenFileTable is the process-wide (in this module, VFS-wide) map from
// FileDescriptor to the open File it names.
type OpenFileTable struct {
	mu    sync.Mutex
	files map[FileDescriptor]*File
	ids   *idGenerators
}

func newOpenFileTable(ids *idGenerators) *OpenFileTable {
	return &OpenFileTable{files: make(map[FileDescriptor]*File), ids: ids}
}

// Insert records a newly opened File and returns its descriptor.
func (t *OpenFileTable) Insert(f *File) FileDescriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	fd := FileDescriptor(t.ids.nextDescriptorID())
	t.files[fd] = f
	return fd
}

// Get returns the File for fd, if still open.
func (t *OpenFileTable) Get(fd FileDescriptor) (*File, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.files[fd]
	return f, ok
}

// Remove closes the bookkeeping for fd, returning the File it named so the
// caller can run driver Flush and release the node's link count. Returns
// false if fd was already closed (a double close).
func (t *OpenFileTable) Remove(fd FileDescriptor) (*File, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.files[fd]
	if !ok {
		return nil, false
	}
	delete(t.files, fd)
	return f, true
}

// openNode performs the driver-facing half of opening an already-resolved
// node: bump its link count, invoke FileOperations.Open, and roll the link
// count back if the driver rejects the open. This mirrors defer_handle!
// guards in _examples/original_source/kernel/src/fs/vfs.rs, which undo the
// link-count bump if anything after it fails.
func openNode(fs FileSystem, node *FsNode, mode FileMode) (*File, error) {
	if mode.Mutating() && !fs.Metadata().Flags.Writable() {
		return nil, vfserror.Of(vfserror.InvalidMode)
	}

	node.IncLinkCount()
	rollback := true
	defer func() {
		if rollback {
			node.DecLinkCount()
		}
	}()

	f, err := fs.FileOps().Open(node, mode)
	if err != nil {
		return nil, err
	}
	rollback = false
	return f, nil
}

// closeFile runs the driver's Flush hook and releases the node's link
// count, calling NodeOperations.EvictNode whenever the count reaches zero.
func closeFile(fs FileSystem, f *File) error {
	flushErr := fs.FileOps().Flush(f)
	if f.Node.DecLinkCount() == 0 {
		if err := fs.NodeOps().EvictNode(f.Node); err != nil && flushErr == nil {
			return err
		}
	}
	return flushErr
}
