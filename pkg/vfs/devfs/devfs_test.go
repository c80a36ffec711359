package devfs

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/wavekernel/vfscore/pkg/vfs"
)

func newRegistry(t *testing.T) *vfs.DeviceRegistry {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	reg := vfs.New(log).Devices()
	if err := reg.Register(NullDevice{}); err != nil {
		t.Fatalf("register null: %v", err)
	}
	if err := reg.Register(ZeroDevice{}); err != nil {
		t.Fatalf("register zero: %v", err)
	}
	return reg
}

func TestReadDirectoryListsRegisteredDevices(t *testing.T) {
	reg := newRegistry(t)
	mounted, err := NewType(reg).Mount(1, "", vfs.MountRead|vfs.MountWrite)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	fs := mounted.(*fileSystem)
	root := vfs.NewTestDirectoryEntry("/", fs.RootNode(), nil)

	entries, err := fs.ReadDirectory(root)
	if err != nil {
		t.Fatalf("ReadDirectory: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
		if e.Kind != vfs.KindCharDevice {
			t.Fatalf("entry %s kind = %v, want KindCharDevice", e.Name, e.Kind)
		}
	}
	sort.Strings(names)
	if diff := cmp.Diff([]string{"null", "zero"}, names); diff != "" {
		t.Fatalf("device listing mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupAssignsStableNodeID(t *testing.T) {
	reg := newRegistry(t)
	mounted, err := NewType(reg).Mount(1, "", vfs.MountRead|vfs.MountWrite)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	fs := mounted.(*fileSystem)
	root := vfs.NewTestDirectoryEntry("/", fs.RootNode(), nil)

	first, err := fs.Lookup(root, "zero")
	if err != nil || first == nil {
		t.Fatalf("Lookup(zero) = (%v, %v)", first, err)
	}
	second, err := fs.Lookup(root, "zero")
	if err != nil || second == nil {
		t.Fatalf("second Lookup(zero) = (%v, %v)", second, err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same node id across repeated lookups, got %d and %d", first.ID, second.ID)
	}

	miss, err := fs.Lookup(root, "nope")
	if err != nil || miss != nil {
		t.Fatalf("Lookup(unregistered) = (%v, %v), want (nil, nil)", miss, err)
	}
}

func TestNullDeviceDiscardsWritesAndReadsEmpty(t *testing.T) {
	var dev NullDevice
	file := &vfs.File{Mode: vfs.ModeWrite}

	n, err := dev.Write(file, 0, []byte("anything"))
	if err != nil || n != len("anything") {
		t.Fatalf("Write = (%d, %v)", n, err)
	}

	buf := make([]byte, 8)
	n, err = dev.Read(file, 0, buf)
	if err != nil || n != 0 {
		t.Fatalf("Read = (%d, %v), want (0, nil)", n, err)
	}
}

func TestZeroDeviceFillsReadsWithZero(t *testing.T) {
	var dev ZeroDevice
	file := &vfs.File{Mode: vfs.ModeRead}

	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = 0xAA
	}
	n, err := dev.Read(file, 0, buf)
	if err != nil || n != len(buf) {
		t.Fatalf("Read = (%d, %v)", n, err)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected zero-filled buffer, got %v", buf)
		}
	}

	n, err = dev.Write(file, 0, []byte("discarded"))
	if err != nil || n != len("discarded") {
		t.Fatalf("Write = (%d, %v)", n, err)
	}
}
