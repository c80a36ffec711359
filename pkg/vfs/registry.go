package vfs

import (
	"sync"

	"github.com/wavekernel/vfscore/pkg/vfserror"
)

// FileSystemRegistry maps driver names to FileSystemType instances,
// mirroring register_file_system/find_file_system_type in
// _examples/original_source/kernel/src/fs/registry.rs. Every
// VirtualFilesystem owns one; bootconfig populates it at startup.
type FileSystemRegistry struct {
	mu    sync.Mutex
	types map[string]FileSystemType
}

func newFileSystemRegistry() *FileSystemRegistry {
	return &FileSystemRegistry{types: make(map[string]FileSystemType)}
}

// Register adds a driver under its own Name(). Returns vfserror.AlreadyExists
// if that name is taken.
func (r *FileSystemRegistry) Register(ty FileSystemType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[ty.Name()]; ok {
		return vfserror.Of(vfserror.AlreadyExists)
	}
	r.types[ty.Name()] = ty
	return nil
}

// Find looks up a registered driver by name for mounting purposes.
func (r *FileSystemRegistry) Find(name string) (FileSystemType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ty, ok := r.types[name]
	if !ok {
		return nil, vfserror.Of(vfserror.FileSystemTypeNotFound)
	}
	return ty, nil
}

// CharDevice is a registered character device: the node and file
// operations bound under a stable name in the device registry, which devfs
// attaches to the FsNodes it mints. It generalizes gVisor's own memdev
// null/full/zero/random device set.
type CharDevice interface {
	Name() string
	NodeOperations
	FileOperations
}

// DeviceRegistry maps device names ("null", "zero", ...) to the CharDevice
// implementation backing them. devfs consults it to populate its synthetic
// directory, assigning each registered device a stable node id derived from
// registration order rather than the cache's entry-id sequence.
type DeviceRegistry struct {
	mu      sync.Mutex
	devices map[string]CharDevice
	order   []string
}

func newDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{devices: make(map[string]CharDevice)}
}

// Register adds a character device under its own Name(). Returns
// vfserror.AlreadyExists if that name is taken.
func (r *DeviceRegistry) Register(dev CharDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[dev.Name()]; ok {
		return vfserror.Of(vfserror.AlreadyExists)
	}
	r.devices[dev.Name()] = dev
	r.order = append(r.order, dev.Name())
	return nil
}

// Find looks up a registered device by name.
func (r *DeviceRegistry) Find(name string) (CharDevice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dev, ok := r.devices[name]
	return dev, ok
}

// List returns registered device names in registration order, which devfs
// uses both to populate its directory listing and to assign stable node
// ids (1-indexed position in this slice).
func (r *DeviceRegistry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// NodeID returns the stable node id devfs assigns to name, or (0, false) if
// name isn't registered.
func (r *DeviceRegistry) NodeID(name string) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.order {
		if n == name {
			return uint64(i + 1), true
		}
	}
	return 0, false
}
