package devfs

import "github.com/wavekernel/vfscore/pkg/vfs"

// ZeroDevice fills every read with zero bytes and discards every write,
// grounded on ZeroDevice in
// _examples/original_source/kernel/src/drivers/char/zero.rs.
type ZeroDevice struct {
	vfs.DefaultFileOperations
}

func (ZeroDevice) Name() string { return "zero" }

func (ZeroDevice) WriteNode(*vfs.FsNode) error { return nil }
func (ZeroDevice) EvictNode(*vfs.FsNode) error { return nil }

func (ZeroDevice) Read(file *vfs.File, offset int64, buf []byte) (int, error) {
	for i := range buf {
		buf[i] = 0
	}
	return len(buf), nil
}

func (ZeroDevice) Write(file *vfs.File, offset int64, buf []byte) (int, error) {
	return len(buf), nil
}
