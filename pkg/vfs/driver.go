package vfs

import (
	"golang.org/x/sys/unix"

	"github.com/wavekernel/vfscore/pkg/vfserror"
)

// FileSystemType is a registered file system driver. A single FileSystemType
// value is shared by every mounted instance of that driver, mirroring
// FileSystemType in _examples/original_source/kernel/src/fs/mod.rs.
type FileSystemType interface {
	// Name identifies this driver in the registry and in mount records.
	Name() string

	// Mount creates a new instance backing a fresh mount point. source names
	// the backing device or resource, in whatever form the driver expects
	// (ramfs ignores it; a disk-backed driver would treat it as a device
	// name). flags carries the mount-time read/write policy.
	Mount(id uint64, source string, flags MountFlags) (FileSystem, error)

	// Unmount releases the driver-side state for a previously mounted
	// instance. Only called after every open file referencing the instance
	// has been closed.
	Unmount(fs FileSystem)
}

// MountFlags is a small bitset of mount-time policy flags.
type MountFlags uint32

const (
	MountRead MountFlags = 1 << iota
	MountWrite
)

// Readable reports whether the mount permits reads.
func (f MountFlags) Readable() bool { return f&MountRead != 0 }

// Writable reports whether the mount permits writes.
func (f MountFlags) Writable() bool { return f&MountWrite != 0 }

// FileSystem is a mounted instance of a FileSystemType, analogous to a
// Linux super_block. It is the capability-bundle root: rather than one fat
// interface, the VFS asks a FileSystem for small, focused operation sets —
// NodeOperations, FileOperations, DirectoryOperations — the same
// decomposition gVisor's own vfs.Dentry commentary describes as
// "operations that are inode operations in Linux are FilesystemImpl methods
// and/or FileDescriptionImpl methods in gVisor's VFS". Most drivers
// implement all three interfaces on a
// single receiver type and return self from each accessor, exactly like the
// Rust original's impl_fs_ops_for_self! macro.
type FileSystem interface {
	Metadata() FileSystemMetadata

	// RootNode returns the backing FsNode for this instance's mount point.
	// The VFS wraps it in a DirectoryEntry exactly once, at mount time.
	RootNode() *FsNode

	NodeOps() NodeOperations
	FileOps() FileOperations
	DirectoryOps() DirectoryOperations
}

// FileSystemMetadata describes a mounted instance.
type FileSystemMetadata struct {
	// Device is the backing device id, or 0 if this instance has none
	// (ramfs, devfs).
	Device uint64
	Flags  MountFlags
	// BlockSize is reported to callers that care about I/O granularity;
	// bundled drivers don't enforce it.
	BlockSize uint32
	// MaxFileSize is the largest file size the instance reports. Neither
	// the VFS nor the bundled drivers enforce it on Write.
	MaxFileSize uint64
}

// NodeOperations handles the driver-side half of node lifecycle that isn't
// specific to files or directories.
type NodeOperations interface {
	// WriteNode flushes a dirty node back to its backing store.
	WriteNode(node *FsNode) error

	// EvictNode releases on-disk/in-memory state for a node whose link
	// count has reached zero.
	EvictNode(node *FsNode) error
}

// FileOperations handles operations on open files. Drivers that don't need
// custom behavior embed DefaultFileOperations to inherit stubs that mirror
// the Rust trait's default method bodies (Open just wraps the node; Seek,
// Read and Write report OperationNotSupported).
type FileOperations interface {
	Open(node *FsNode, mode FileMode) (*File, error)
	Flush(file *File) error
	Seek(file *File, offset int64) (int64, error)
	Read(file *File, offset int64, buf []byte) (int, error)
	Write(file *File, offset int64, buf []byte) (int, error)
}

// DefaultFileOperations gives embedders the Rust trait's default bodies.
type DefaultFileOperations struct{}

func (DefaultFileOperations) Open(node *FsNode, mode FileMode) (*File, error) {
	return newFile(node, mode), nil
}
func (DefaultFileOperations) Flush(file *File) error { return nil }
func (DefaultFileOperations) Seek(file *File, offset int64) (int64, error) {
	return 0, vfserror.Of(vfserror.OperationNotSupported)
}
func (DefaultFileOperations) Read(file *File, offset int64, buf []byte) (int, error) {
	return 0, vfserror.Of(vfserror.OperationNotSupported)
}
func (DefaultFileOperations) Write(file *File, offset int64, buf []byte) (int, error) {
	return 0, vfserror.Of(vfserror.OperationNotSupported)
}

// DirectoryOperations handles operations on directory nodes: structural
// changes and lookups. Lookup and ReadDirectory have no default (every
// driver must be able to answer "what's in this directory"); the mutating
// operations default to OperationNotSupported for read-only drivers like
// devfs.
type DirectoryOperations interface {
	CreateFile(parent *DirectoryEntry, name string) (*FsNode, error)
	CreateDirectory(parent *DirectoryEntry, name string) (*FsNode, error)
	RemoveFile(parent *DirectoryEntry, name string) error
	RemoveDirectory(parent *DirectoryEntry, name string) error

	// Lookup resolves name within parent. A nil *FsNode with a nil error
	// means "not found"; drivers must not return vfserror.EntryNotFound for
	// a plain miss, reserving that for the VFS's own path-walker errors.
	Lookup(parent *DirectoryEntry, name string) (*FsNode, error)

	// ReadDirectory lists parent's immediate children.
	ReadDirectory(parent *DirectoryEntry) ([]DirectoryIterationEntry, error)
}

// DefaultDirectoryOperations gives read-only drivers the mutating stubs.
type DefaultDirectoryOperations struct{}

func (DefaultDirectoryOperations) CreateFile(*DirectoryEntry, string) (*FsNode, error) {
	return nil, vfserror.Of(vfserror.OperationNotSupported)
}
func (DefaultDirectoryOperations) CreateDirectory(*DirectoryEntry, string) (*FsNode, error) {
	return nil, vfserror.Of(vfserror.OperationNotSupported)
}
func (DefaultDirectoryOperations) RemoveFile(*DirectoryEntry, string) error {
	return vfserror.Of(vfserror.OperationNotSupported)
}
func (DefaultDirectoryOperations) RemoveDirectory(*DirectoryEntry, string) error {
	return vfserror.Of(vfserror.OperationNotSupported)
}

// DirectoryIterationEntry is one row of a directory listing, carrying enough
// for callers to populate a getdents-style buffer without re-resolving each
// name through the cache.
type DirectoryIterationEntry struct {
	Name string
	Kind NodeKind
	// NodeID is the driver-assigned FsNode.ID of the child, stable for the
	// lifetime of the backing instance.
	NodeID uint64
	// Type is Kind rendered as a POSIX getdents d_type value, for callers
	// that want to hand listings straight to POSIX-flavored consumers
	// instead of switching on the VFS-native Kind.
	Type uint8
}

// NewDirectoryIterationEntry constructs an entry with Type derived from
// kind, so drivers never have to hand-map NodeKind to a DT_* constant
// themselves.
func NewDirectoryIterationEntry(name string, kind NodeKind, nodeID uint64) DirectoryIterationEntry {
	return DirectoryIterationEntry{Name: name, Kind: kind, NodeID: nodeID, Type: posixType(kind)}
}

func posixType(kind NodeKind) uint8 {
	switch kind {
	case KindDirectory:
		return unix.DT_DIR
	case KindFile:
		return unix.DT_REG
	case KindCharDevice:
		return unix.DT_CHR
	case KindBlockDevice:
		return unix.DT_BLK
	default:
		return unix.DT_UNKNOWN
	}
}
