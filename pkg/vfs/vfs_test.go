package vfs_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/wavekernel/vfscore/pkg/vfs"
	"github.com/wavekernel/vfscore/pkg/vfs/bootconfig"
	"github.com/wavekernel/vfscore/pkg/vfserror"
)

func bootedVFS(t *testing.T) *vfs.VirtualFilesystem {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	v := vfs.New(log)
	if err := bootconfig.Default().Apply(v); err != nil {
		t.Fatalf("boot: %v", err)
	}
	return v
}

func TestBootMountsRootAndDev(t *testing.T) {
	v := bootedVFS(t)

	entries, err := v.ReadDirectory("/")
	if err != nil {
		t.Fatalf("ReadDirectory(/): %v", err)
	}
	if diff := cmp.Diff([]string{"dev"}, entryNames(entries)); diff != "" {
		t.Fatalf("root listing mismatch (-want +got):\n%s", diff)
	}

	devEntries, err := v.ReadDirectory("/dev")
	if err != nil {
		t.Fatalf("ReadDirectory(/dev): %v", err)
	}
	if diff := cmp.Diff([]string{"null", "zero"}, entryNames(devEntries)); diff != "" {
		t.Fatalf("/dev listing mismatch (-want +got):\n%s", diff)
	}
}

// entryNames extracts and sorts the Name field of a directory listing, for
// comparison with cmp.Diff against a fixed expectation.
func entryNames(entries []vfs.DirectoryIterationEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	sort.Strings(names)
	return names
}

func TestWriteReadRoundTrip(t *testing.T) {
	v := bootedVFS(t)

	wfd, err := v.Open("/greeting.txt", vfs.ModeWrite)
	if err != nil {
		t.Fatalf("Open(write): %v", err)
	}
	payload := []byte("hello vfscore")
	n, err := v.Write(wfd, payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("Write returned %d, want %d", n, len(payload))
	}
	if err := v.Close(wfd); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rfd, err := v.Open("/greeting.txt", vfs.ModeRead)
	if err != nil {
		t.Fatalf("Open(read): %v", err)
	}
	defer v.Close(rfd)

	buf := make([]byte, 64)
	n, err = v.Read(rfd, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != string(payload) {
		t.Fatalf("Read got %q, want %q", buf[:n], payload)
	}

	// Reading again from the (now-advanced) cursor hits EOF: 0 bytes, no
	// error.
	n, err = v.Read(rfd, buf)
	if err != nil || n != 0 {
		t.Fatalf("Read past EOF = (%d, %v), want (0, nil)", n, err)
	}
}

func TestDeviceReadWritePassthrough(t *testing.T) {
	v := bootedVFS(t)

	zfd, err := v.Open("/dev/zero", vfs.ModeRead)
	if err != nil {
		t.Fatalf("Open(/dev/zero): %v", err)
	}
	defer v.Close(zfd)

	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = 0xff
	}
	n, err := v.Read(zfd, buf)
	if err != nil || n != len(buf) {
		t.Fatalf("Read(/dev/zero) = (%d, %v)", n, err)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected all-zero read from /dev/zero, got %v", buf)
		}
	}

	nfd, err := v.Open("/dev/null", vfs.ModeWrite)
	if err != nil {
		t.Fatalf("Open(/dev/null): %v", err)
	}
	defer v.Close(nfd)
	n, err = v.Write(nfd, []byte("discard me"))
	if err != nil || n != len("discard me") {
		t.Fatalf("Write(/dev/null) = (%d, %v)", n, err)
	}
}

func TestMountOntoExistingDirectoryFails(t *testing.T) {
	v := bootedVFS(t)

	mnt, err := v.CreateDirectory("/mnt")
	if err != nil {
		t.Fatalf("CreateDirectory(/mnt): %v", err)
	}
	mnt.DecRef()

	// Mounting over a path that already resolves is unsupported: the
	// original left this case as a todo!(), and there's no safe way to
	// splice a new root in without racing a concurrent resolver.
	if _, err := v.Mount("", "/mnt", "ramfs", vfs.MountRead|vfs.MountWrite); !errors.Is(err, vfserror.Of(vfserror.OperationNotSupported)) {
		t.Fatalf("Mount over existing directory = %v, want OperationNotSupported", err)
	}
}

func TestMountIntoFreshDirectoryExposesNewRoot(t *testing.T) {
	v := bootedVFS(t)

	if _, err := v.Mount("", "/mnt", "ramfs", vfs.MountRead|vfs.MountWrite); err != nil {
		t.Fatalf("Mount(/mnt): %v", err)
	}

	entries, err := v.ReadDirectory("/mnt")
	if err != nil {
		t.Fatalf("ReadDirectory(/mnt): %v", err)
	}
	if diff := cmp.Diff([]string{}, entryNames(entries)); diff != "" {
		t.Fatalf("expected a freshly mounted ramfs root to start empty (-want +got):\n%s", diff)
	}

	if _, err := v.Open("/mnt/inside.txt", vfs.ModeWrite); err != nil {
		t.Fatalf("Open under the new mount: %v", err)
	}
}

func TestCacheIdentityChangesAcrossPrune(t *testing.T) {
	v := bootedVFS(t)

	created, err := v.CreateDirectory("/keep")
	if err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	created.DecRef()

	first, err := v.Stat("/keep")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	firstID := first.ID()
	first.DecRef()

	v.PruneDirectoryCache()

	second, err := v.Stat("/keep")
	if err != nil {
		t.Fatalf("Stat after prune: %v", err)
	}
	defer second.DecRef()
	if second.ID() == firstID {
		t.Fatalf("expected a fresh entry id after prune dropped the last reference, got the same id %d", firstID)
	}
}

func TestOpenOnDirectoryFails(t *testing.T) {
	v := bootedVFS(t)

	_, err := v.Open("/dev", vfs.ModeRead)
	if !errors.Is(err, vfserror.Of(vfserror.NotAFile)) {
		t.Fatalf("Open(/dev) = %v, want NotAFile", err)
	}
}

func TestDoubleCloseFails(t *testing.T) {
	v := bootedVFS(t)

	fd, err := v.Open("/f.txt", vfs.ModeWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := v.Close(fd); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := v.Close(fd); !errors.Is(err, vfserror.Of(vfserror.InvalidFile)) {
		t.Fatalf("second Close = %v, want InvalidFile", err)
	}
}

func TestWriteWrongModeFails(t *testing.T) {
	v := bootedVFS(t)

	if _, err := v.Open("/r.txt", vfs.ModeWrite); err != nil {
		t.Fatalf("Open(write) to create: %v", err)
	}

	fd, err := v.Open("/r.txt", vfs.ModeRead)
	if err != nil {
		t.Fatalf("Open(read): %v", err)
	}
	defer v.Close(fd)

	if _, err := v.Write(fd, []byte("nope")); !errors.Is(err, vfserror.Of(vfserror.InvalidMode)) {
		t.Fatalf("Write on a read-mode fd = %v, want InvalidMode", err)
	}
}

func TestEmptyPathIsInvalid(t *testing.T) {
	v := bootedVFS(t)
	if _, err := v.Open("", vfs.ModeRead); !errors.Is(err, vfserror.Of(vfserror.InvalidPath)) {
		t.Fatalf("Open(\"\") = %v, want InvalidPath", err)
	}
}

func TestStatMissingEntryFails(t *testing.T) {
	v := bootedVFS(t)
	if _, err := v.Stat("/nope.txt"); !errors.Is(err, vfserror.Of(vfserror.EntryNotFound)) {
		t.Fatalf("Stat(missing) = %v, want EntryNotFound", err)
	}
}
