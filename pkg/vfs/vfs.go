// Package vfs is the virtual file system core: a path parser, FS-type and
// device registries, a mount table, a weak-valued directory cache, a path
// walker, an open-file table, and the driver contract bundled filesystems
// implement. It is grounded on the VirtualFileSystem singleton in
// _examples/original_source/kernel/src/fs/vfs.rs, rendered in the
// capability-interface style of gVisor's own vfs.Dentry.
package vfs

import (
	"github.com/sirupsen/logrus"

	"github.com/wavekernel/vfscore/pkg/vfserror"
)

// VirtualFilesystem is the top-level object every syscall-like entry point
// (Mount, Open, Close, Read, Write, ReadDirectory, CreateDirectory, Stat,
// PruneDirectoryCache) hangs off of. One instance exists per kernel.
type VirtualFilesystem struct {
	ids *idGenerators

	fsTypes *FileSystemRegistry
	devices *DeviceRegistry
	mounts  *MountTable
	cache   *DirectoryCache
	files   *OpenFileTable

	log *logrus.Entry
}

// New constructs an empty VirtualFilesystem with no root mounted yet.
func New(log *logrus.Logger) *VirtualFilesystem {
	if log == nil {
		log = logrus.New()
	}
	ids := &idGenerators{}
	return &VirtualFilesystem{
		ids:     ids,
		fsTypes: newFileSystemRegistry(),
		devices: newDeviceRegistry(),
		mounts:  newMountTable(),
		cache:   newDirectoryCache(ids),
		files:   newOpenFileTable(ids),
		log:     log.WithField("component", "vfscore.kernel"),
	}
}

// FileSystems returns the registry Mount resolves driver names against.
func (v *VirtualFilesystem) FileSystems() *FileSystemRegistry { return v.fsTypes }

// Devices returns the registry devfs enumerates.
func (v *VirtualFilesystem) Devices() *DeviceRegistry { return v.devices }

func (v *VirtualFilesystem) fileSystemFor(node *FsNode) (FileSystem, error) {
	m, ok := v.mounts.Get(node.MountID)
	if !ok {
		// Matches the Rust original's .expect("FsNodes which exist should
		// have a valid mount in the mount table"): a dangling mount id on a
		// live node is a VFS bug, not a caller error.
		panic("vfs: node references an unknown mount")
	}
	return m.FileSystem, nil
}

// Mount attaches a new FileSystem instance at target. source is passed to
// the driver uninterpreted (a device name, or ignored by synthetic
// filesystems). typeName selects the driver from the FS-type registry;
// automatic detection by magic bytes is not implemented.
func (v *VirtualFilesystem) Mount(source, target, typeName string, flags MountFlags) (uint64, error) {
	ty, err := v.fsTypes.Find(typeName)
	if err != nil {
		return 0, err
	}

	logf := v.log.WithFields(logrus.Fields{"op": "mount", "type": typeName, "target": target})

	if target == "/" {
		return v.mountRoot(ty, source, flags, logf)
	}

	if existing, _ := v.resolvePath(target); existing != nil {
		existing.DecRef()
		// Mounting over an existing directory isn't supported: there's no
		// safe way to splice in a new root without racing a concurrent
		// resolver that's already partway down the old one.
		return 0, vfserror.Of(vfserror.OperationNotSupported)
	}

	parent, name, err := v.resolveParentDirectory(target)
	if err != nil {
		return 0, err
	}
	defer parent.DecRef()

	parent.Node.Lock()
	defer parent.Node.Unlock()

	if mounted := v.mounts.MountedAt(parent, name); mounted != nil {
		mounted.DecRef()
		return 0, vfserror.Of(vfserror.AlreadyExists)
	}

	id := v.ids.nextMountID()
	fs, err := ty.Mount(id, source, flags)
	if err != nil {
		return 0, err
	}

	entry, inserted := v.cache.InsertIfAbsent(parent, fs.RootNode(), name)
	if !inserted {
		entry.DecRef()
		ty.Unmount(fs)
		return 0, vfserror.Of(vfserror.AlreadyExists)
	}
	entry.IncRef() // the mount's own pin, on top of the table's baseline

	v.mounts.Insert(&VfsMount{ID: id, root: entry, FileSystem: fs})
	logf.WithField("mount_id", id).Info("mounted filesystem")
	return id, nil
}

func (v *VirtualFilesystem) mountRoot(ty FileSystemType, source string, flags MountFlags, logf *logrus.Entry) (uint64, error) {
	id := v.ids.nextMountID()
	fs, err := ty.Mount(id, source, flags)
	if err != nil {
		return 0, err
	}

	entry, inserted := v.cache.InsertIfAbsent(nil, fs.RootNode(), "/")
	if !inserted {
		// Someone else mounted "/" first; no structure lock exists yet to
		// have serialized this, so the cache's own atomic check-then-insert
		// is what arbitrates.
		entry.DecRef()
		ty.Unmount(fs)
		return 0, vfserror.Of(vfserror.AlreadyExists)
	}
	entry.IncRef()

	v.mounts.Insert(&VfsMount{ID: id, root: entry, FileSystem: fs})
	logf.WithField("mount_id", id).Info("mounted root filesystem")
	return id, nil
}

// Open resolves path to a file, creating it first if mode is mutating and
// no entry exists yet, and returns a descriptor for subsequent Read/Write/
// Close calls.
func (v *VirtualFilesystem) Open(path string, mode FileMode) (FileDescriptor, error) {
	var entry *DirectoryEntry

	if mode.Mutating() {
		resolved, err := v.resolvePath(path)
		if err != nil {
			return NullFileDescriptor, err
		}
		if resolved != nil {
			if resolved.Node.IsDirectory() {
				resolved.DecRef()
				return NullFileDescriptor, vfserror.Of(vfserror.NotAFile)
			}
			entry = resolved
		} else {
			parent, name, err := v.resolveParentDirectory(path)
			if err != nil {
				return NullFileDescriptor, err
			}

			fs, err := v.fileSystemFor(parent.Node)
			if err != nil {
				parent.DecRef()
				return NullFileDescriptor, err
			}

			parent.Node.Lock()
			node, err := fs.DirectoryOps().CreateFile(parent, name)
			parent.Node.Unlock()
			if err != nil {
				parent.DecRef()
				return NullFileDescriptor, err
			}

			entry = v.cache.insert(parent, node, name)
			entry.IncRef() // own a reference on top of the table's baseline
			parent.DecRef()
		}
	} else {
		resolved, err := v.resolvePath(path)
		if err != nil {
			return NullFileDescriptor, err
		}
		if resolved == nil {
			return NullFileDescriptor, vfserror.Of(vfserror.EntryNotFound)
		}
		if resolved.Node.IsDirectory() {
			resolved.DecRef()
			return NullFileDescriptor, vfserror.Of(vfserror.NotAFile)
		}
		entry = resolved
	}
	defer entry.DecRef()

	fs, err := v.fileSystemFor(entry.Node)
	if err != nil {
		return NullFileDescriptor, err
	}

	f, err := openNode(fs, entry.Node, mode)
	if err != nil {
		return NullFileDescriptor, err
	}

	fd := v.files.Insert(f)
	v.log.WithFields(logrus.Fields{"op": "open", "path": path, "mode": mode, "fd": fd}).Debug("opened file")
	return fd, nil
}

// Close flushes fd through its driver and releases its link count.
func (v *VirtualFilesystem) Close(fd FileDescriptor) error {
	f, ok := v.files.Remove(fd)
	if !ok {
		return vfserror.Of(vfserror.InvalidFile)
	}

	fs, err := v.fileSystemFor(f.Node)
	if err != nil {
		return err
	}
	return closeFile(fs, f)
}

// Read reads from fd at its current cursor and advances it by the number
// of bytes actually read. Reads past end-of-file return 0, nil.
func (v *VirtualFilesystem) Read(fd FileDescriptor, buf []byte) (int, error) {
	f, ok := v.files.Get(fd)
	if !ok {
		return 0, vfserror.Of(vfserror.InvalidFile)
	}
	if f.Mode != ModeRead {
		return 0, vfserror.Of(vfserror.InvalidMode)
	}

	fs, err := v.fileSystemFor(f.Node)
	if err != nil {
		return 0, err
	}

	offset := f.Position()
	n, err := fs.FileOps().Read(f, offset, buf)
	if err != nil {
		return 0, err
	}
	f.Advance(int64(n))
	return n, nil
}

// Write writes to fd at its current cursor and advances it by the number
// of bytes actually written.
func (v *VirtualFilesystem) Write(fd FileDescriptor, buf []byte) (int, error) {
	f, ok := v.files.Get(fd)
	if !ok {
		return 0, vfserror.Of(vfserror.InvalidFile)
	}
	if !f.Mode.Mutating() {
		return 0, vfserror.Of(vfserror.InvalidMode)
	}

	fs, err := v.fileSystemFor(f.Node)
	if err != nil {
		return 0, err
	}

	offset := f.Position()
	n, err := fs.FileOps().Write(f, offset, buf)
	if err != nil {
		return 0, err
	}
	f.Advance(int64(n))
	return n, nil
}

// ReadDirectory lists path's immediate children, merging in the root
// entries of any mounts attached directly under it (mount entries override
// driver entries of the same name). Entries are ordered by name.
func (v *VirtualFilesystem) ReadDirectory(path string) ([]DirectoryIterationEntry, error) {
	entry, err := v.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, vfserror.Of(vfserror.EntryNotFound)
	}
	defer entry.DecRef()

	if !entry.Node.IsDirectory() {
		return nil, vfserror.Of(vfserror.NotADirectory)
	}

	entry.Node.Lock()
	defer entry.Node.Unlock()

	fs, err := v.fileSystemFor(entry.Node)
	if err != nil {
		return nil, err
	}
	driverEntries, err := fs.DirectoryOps().ReadDirectory(entry)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]DirectoryIterationEntry, len(driverEntries))
	for _, e := range driverEntries {
		byName[e.Name] = e
	}
	for _, mountRoot := range v.mounts.ChildrenAt(entry) {
		byName[mountRoot.Name] = NewDirectoryIterationEntry(mountRoot.Name, mountRoot.Node.Kind, mountRoot.Node.ID)
	}

	out := make([]DirectoryIterationEntry, 0, len(byName))
	for _, e := range byName {
		out = append(out, e)
	}
	sortIterationEntries(out)
	return out, nil
}

// CreateDirectory creates a new directory at path, failing with
// vfserror.AlreadyExists if path already resolves.
func (v *VirtualFilesystem) CreateDirectory(path string) (*DirectoryEntry, error) {
	if existing, err := v.resolvePath(path); err != nil {
		return nil, err
	} else if existing != nil {
		existing.DecRef()
		return nil, vfserror.Of(vfserror.AlreadyExists)
	}

	parent, name, err := v.resolveParentDirectory(path)
	if err != nil {
		return nil, err
	}
	defer parent.DecRef()

	fs, err := v.fileSystemFor(parent.Node)
	if err != nil {
		return nil, err
	}

	parent.Node.Lock()
	node, err := fs.DirectoryOps().CreateDirectory(parent, name)
	parent.Node.Unlock()
	if err != nil {
		return nil, err
	}

	entry := v.cache.insert(parent, node, name)
	entry.IncRef() // own a reference on top of the table's baseline
	return entry, nil
}

// Stat resolves path, returning vfserror.EntryNotFound if it doesn't exist.
func (v *VirtualFilesystem) Stat(path string) (*DirectoryEntry, error) {
	entry, err := v.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, vfserror.Of(vfserror.EntryNotFound)
	}
	return entry, nil
}

// PruneDirectoryCache reclaims cache slots with no external references.
// Intended to be driven by external memory pressure.
func (v *VirtualFilesystem) PruneDirectoryCache() {
	v.cache.Prune()
}

func sortIterationEntries(entries []DirectoryIterationEntry) {
	// Small-N insertion sort: directory listings in the bundled drivers
	// never approach a size where this would matter, and it avoids an
	// extra import for a one-line comparison.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Name < entries[j-1].Name; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}
