// Package devfs is the bundled synthetic device directory: a single flat
// directory whose entries are minted on demand from a vfs.DeviceRegistry,
// with reads and writes on a char-device node delegated straight through to
// the backing device's own FileOperations. Grounded on DevFileSystem in
// _examples/original_source/kernel/src/drivers/fs/dev.rs.
package devfs

import (
	"github.com/wavekernel/vfscore/pkg/vfs"
	"github.com/wavekernel/vfscore/pkg/vfserror"
)

const Name = "devfs"

type fileSystemType struct {
	devices *vfs.DeviceRegistry
}

// NewType returns the devfs driver backed by devices. devices is typically
// the same registry a VirtualFilesystem exposes via Devices(), populated by
// bootconfig before devfs is mounted.
func NewType(devices *vfs.DeviceRegistry) vfs.FileSystemType {
	return fileSystemType{devices: devices}
}

func (fileSystemType) Name() string { return Name }

func (t fileSystemType) Mount(id uint64, source string, flags vfs.MountFlags) (vfs.FileSystem, error) {
	if source != "" {
		return nil, vfserror.Of(vfserror.InvalidPath)
	}
	fs := &fileSystem{devices: t.devices}
	fs.root = &vfs.FsNode{
		ID:      0,
		MountID: id,
		Kind:    vfs.KindDirectory,
	}
	fs.metadata = vfs.FileSystemMetadata{
		Flags:       flags,
		BlockSize:   512,
		MaxFileSize: 0,
	}
	return fs, nil
}

func (fileSystemType) Unmount(vfs.FileSystem) {}

// fileSystem is devfs's single mounted instance: one directory, backed
// entirely by the device registry rather than any storage of its own.
// Node ids for char-device entries come from DeviceRegistry.NodeID, so the
// same device always resolves to the same FsNode identity across repeated
// lookups — the original's own FIXME ("should we assign global ids to each
// device...") resolved in favor of the registry being the source of truth.
type fileSystem struct {
	devices  *vfs.DeviceRegistry
	metadata vfs.FileSystemMetadata
	root     *vfs.FsNode
}

func (fs *fileSystem) Metadata() vfs.FileSystemMetadata      { return fs.metadata }
func (fs *fileSystem) RootNode() *vfs.FsNode                  { return fs.root }
func (fs *fileSystem) NodeOps() vfs.NodeOperations            { return fs }
func (fs *fileSystem) FileOps() vfs.FileOperations            { return fs }
func (fs *fileSystem) DirectoryOps() vfs.DirectoryOperations  { return fs }

// WriteNode and EvictNode are no-ops: devfs nodes are minted fresh on every
// lookup and never persist anything.
func (fs *fileSystem) WriteNode(*vfs.FsNode) error { return nil }
func (fs *fileSystem) EvictNode(*vfs.FsNode) error { return nil }

func (fs *fileSystem) Open(node *vfs.FsNode, mode vfs.FileMode) (*vfs.File, error) {
	dev := node.Private.(vfs.CharDevice)
	return dev.Open(node, mode)
}

func (fs *fileSystem) Flush(file *vfs.File) error {
	dev := file.Node.Private.(vfs.CharDevice)
	return dev.Flush(file)
}

func (fs *fileSystem) Seek(file *vfs.File, offset int64) (int64, error) {
	dev := file.Node.Private.(vfs.CharDevice)
	return dev.Seek(file, offset)
}

// Read and Write dispatch to the char device bound to file's node. A
// directory or block-device node reaching here would be a VFS bug: the
// open-file table only ever holds nodes a driver actually handed to Open.
func (fs *fileSystem) Read(file *vfs.File, offset int64, buf []byte) (int, error) {
	dev := file.Node.Private.(vfs.CharDevice)
	return dev.Read(file, offset, buf)
}

func (fs *fileSystem) Write(file *vfs.File, offset int64, buf []byte) (int, error) {
	dev := file.Node.Private.(vfs.CharDevice)
	return dev.Write(file, offset, buf)
}

// CreateFile, CreateDirectory, RemoveFile and RemoveDirectory are all
// unsupported: devfs is a read-only view over the device registry, not a
// place to create arbitrary files.
func (fs *fileSystem) CreateFile(*vfs.DirectoryEntry, string) (*vfs.FsNode, error) {
	return nil, vfserror.Of(vfserror.OperationNotSupported)
}
func (fs *fileSystem) CreateDirectory(*vfs.DirectoryEntry, string) (*vfs.FsNode, error) {
	return nil, vfserror.Of(vfserror.OperationNotSupported)
}
func (fs *fileSystem) RemoveFile(*vfs.DirectoryEntry, string) error {
	return vfserror.Of(vfserror.OperationNotSupported)
}
func (fs *fileSystem) RemoveDirectory(*vfs.DirectoryEntry, string) error {
	return vfserror.Of(vfserror.OperationNotSupported)
}

// Lookup mints a fresh CharDevice-backed FsNode for name, or (nil, nil) if
// no such device is registered. devfs supports only a single flat
// directory, exactly like the original.
func (fs *fileSystem) Lookup(parent *vfs.DirectoryEntry, name string) (*vfs.FsNode, error) {
	dev, ok := fs.devices.Find(name)
	if !ok {
		return nil, nil
	}
	id, _ := fs.devices.NodeID(name)
	return &vfs.FsNode{
		ID:      id,
		MountID: fs.root.MountID,
		Kind:    vfs.KindCharDevice,
		Private: dev,
	}, nil
}

// ReadDirectory lists every device currently registered.
func (fs *fileSystem) ReadDirectory(parent *vfs.DirectoryEntry) ([]vfs.DirectoryIterationEntry, error) {
	names := fs.devices.List()
	out := make([]vfs.DirectoryIterationEntry, 0, len(names))
	for _, name := range names {
		id, _ := fs.devices.NodeID(name)
		out = append(out, vfs.NewDirectoryIterationEntry(name, vfs.KindCharDevice, id))
	}
	return out, nil
}
