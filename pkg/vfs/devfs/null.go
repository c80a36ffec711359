package devfs

import "github.com/wavekernel/vfscore/pkg/vfs"

// NullDevice discards every write and reports end-of-file on every read,
// grounded on NullDevice in
// _examples/original_source/kernel/src/drivers/char/null.rs.
type NullDevice struct {
	vfs.DefaultFileOperations
}

func (NullDevice) Name() string { return "null" }

func (NullDevice) WriteNode(*vfs.FsNode) error { return nil }
func (NullDevice) EvictNode(*vfs.FsNode) error { return nil }

func (NullDevice) Read(file *vfs.File, offset int64, buf []byte) (int, error) {
	return 0, nil
}

func (NullDevice) Write(file *vfs.File, offset int64, buf []byte) (int, error) {
	return len(buf), nil
}
