// Package ramfs is the bundled in-memory reference file system: directory
// nodes hold a name-to-FsNode map, file nodes hold a growable byte buffer,
// both guarded by their own reader-writer lock. Grounded on RamFileSystem in
// _examples/original_source/kernel/src/drivers/fs/ram.rs, reworked so the
// driver never fabricates a DirectoryEntry itself — it hands the VFS bare
// FsNodes and lets the directory cache bind names, per the driver contract.
package ramfs

import (
	"math"
	"sync"

	"github.com/wavekernel/vfscore/internal/atomicbitops"
	"github.com/wavekernel/vfscore/pkg/vfs"
	"github.com/wavekernel/vfscore/pkg/vfserror"
)

const Name = "ramfs"

type fileSystemType struct{}

// NewType returns the ramfs driver, ready to register with a
// vfs.FileSystemRegistry.
func NewType() vfs.FileSystemType { return fileSystemType{} }

func (fileSystemType) Name() string { return Name }

func (fileSystemType) Mount(id uint64, source string, flags vfs.MountFlags) (vfs.FileSystem, error) {
	if source != "" {
		return nil, vfserror.Of(vfserror.InvalidPath)
	}

	fs := &fileSystem{
		metadata: vfs.FileSystemMetadata{
			Flags:       flags,
			BlockSize:   512,
			MaxFileSize: math.MaxUint64,
		},
	}
	fs.root = &vfs.FsNode{
		ID:      0,
		MountID: id,
		Kind:    vfs.KindDirectory,
		Private: newDirectoryNode(),
	}
	// nextNodeID starts at its zero value; Next()'s first call returns 1,
	// leaving 0 reserved for the root node constructed above.
	return fs, nil
}

func (fileSystemType) Unmount(vfs.FileSystem) {}

type fileSystem struct {
	vfs.DefaultFileOperations

	metadata   vfs.FileSystemMetadata
	root       *vfs.FsNode
	nextNodeID atomicbitops.Uint64
}

func (fs *fileSystem) Metadata() vfs.FileSystemMetadata { return fs.metadata }
func (fs *fileSystem) RootNode() *vfs.FsNode            { return fs.root }
func (fs *fileSystem) NodeOps() vfs.NodeOperations       { return fs }
func (fs *fileSystem) FileOps() vfs.FileOperations       { return fs }
func (fs *fileSystem) DirectoryOps() vfs.DirectoryOperations { return fs }

// WriteNode and EvictNode are no-ops: ramfs never persists anything.
func (fs *fileSystem) WriteNode(*vfs.FsNode) error { return nil }
func (fs *fileSystem) EvictNode(*vfs.FsNode) error { return nil }

// Read returns the truncated intersection of [offset, offset+len(buf)) with
// the file's current length; reads past the end of the file return 0.
func (fs *fileSystem) Read(file *vfs.File, offset int64, buf []byte) (int, error) {
	f := file.Node.Private.(*fileNode)
	f.mu.RLock()
	defer f.mu.RUnlock()

	if offset >= int64(len(f.data)) {
		return 0, nil
	}
	n := copy(buf, f.data[offset:])
	return n, nil
}

// Write zero-fills any gap created by writing past the current length,
// then copies buf in at offset.
func (fs *fileSystem) Write(file *vfs.File, offset int64, buf []byte) (int, error) {
	f := file.Node.Private.(*fileNode)
	f.mu.Lock()
	defer f.mu.Unlock()

	needed := offset + int64(len(buf))
	if needed > int64(len(f.data)) {
		grown := make([]byte, needed)
		copy(grown, f.data)
		f.data = grown
	}
	n := copy(f.data[offset:], buf)
	file.Node.Metadata.SetSize(uint64(len(f.data)))
	return n, nil
}

func (fs *fileSystem) CreateFile(parent *vfs.DirectoryEntry, name string) (*vfs.FsNode, error) {
	dir := parent.Node.Private.(*directoryNode)
	dir.mu.Lock()
	defer dir.mu.Unlock()

	if _, exists := dir.children[name]; exists {
		return nil, vfserror.Of(vfserror.AlreadyExists)
	}
	node := &vfs.FsNode{
		ID:      fs.nextNodeID.Next(),
		MountID: fs.root.MountID,
		Kind:    vfs.KindFile,
		Private: &fileNode{},
	}
	dir.children[name] = node
	return node, nil
}

func (fs *fileSystem) CreateDirectory(parent *vfs.DirectoryEntry, name string) (*vfs.FsNode, error) {
	dir := parent.Node.Private.(*directoryNode)
	dir.mu.Lock()
	defer dir.mu.Unlock()

	if _, exists := dir.children[name]; exists {
		return nil, vfserror.Of(vfserror.AlreadyExists)
	}
	node := &vfs.FsNode{
		ID:      fs.nextNodeID.Next(),
		MountID: fs.root.MountID,
		Kind:    vfs.KindDirectory,
		Private: newDirectoryNode(),
	}
	dir.children[name] = node
	return node, nil
}

func (fs *fileSystem) RemoveFile(parent *vfs.DirectoryEntry, name string) error {
	dir := parent.Node.Private.(*directoryNode)
	dir.mu.Lock()
	defer dir.mu.Unlock()

	child, ok := dir.children[name]
	if !ok {
		return vfserror.Of(vfserror.EntryNotFound)
	}
	if child.IsDirectory() {
		return vfserror.Of(vfserror.NotAFile)
	}
	delete(dir.children, name)
	return nil
}

func (fs *fileSystem) RemoveDirectory(parent *vfs.DirectoryEntry, name string) error {
	dir := parent.Node.Private.(*directoryNode)
	dir.mu.Lock()
	defer dir.mu.Unlock()

	child, ok := dir.children[name]
	if !ok {
		return vfserror.Of(vfserror.EntryNotFound)
	}
	if !child.IsDirectory() {
		return vfserror.Of(vfserror.NotADirectory)
	}
	childDir := child.Private.(*directoryNode)
	childDir.mu.RLock()
	empty := len(childDir.children) == 0
	childDir.mu.RUnlock()
	if !empty {
		return vfserror.Of(vfserror.AlreadyExists)
	}
	delete(dir.children, name)
	return nil
}

func (fs *fileSystem) Lookup(parent *vfs.DirectoryEntry, name string) (*vfs.FsNode, error) {
	dir := parent.Node.Private.(*directoryNode)
	dir.mu.RLock()
	defer dir.mu.RUnlock()
	return dir.children[name], nil
}

func (fs *fileSystem) ReadDirectory(parent *vfs.DirectoryEntry) ([]vfs.DirectoryIterationEntry, error) {
	dir := parent.Node.Private.(*directoryNode)
	dir.mu.RLock()
	defer dir.mu.RUnlock()

	out := make([]vfs.DirectoryIterationEntry, 0, len(dir.children))
	for name, node := range dir.children {
		out = append(out, vfs.NewDirectoryIterationEntry(name, node.Kind, node.ID))
	}
	return out, nil
}

type directoryNode struct {
	mu       sync.RWMutex
	children map[string]*vfs.FsNode
}

func newDirectoryNode() *directoryNode {
	return &directoryNode{children: make(map[string]*vfs.FsNode)}
}

type fileNode struct {
	mu   sync.RWMutex
	data []byte
}
