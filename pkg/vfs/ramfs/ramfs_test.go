package ramfs

import (
	"bytes"
	"errors"
	"testing"

	"github.com/wavekernel/vfscore/pkg/vfs"
	"github.com/wavekernel/vfscore/pkg/vfserror"
)

func mustMount(t *testing.T) *fileSystem {
	t.Helper()
	fs, err := fileSystemType{}.Mount(1, "", vfs.MountRead|vfs.MountWrite)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return fs.(*fileSystem)
}

func rootEntry(fs *fileSystem) *vfs.DirectoryEntry {
	// ramfs never constructs DirectoryEntry values itself; tests stand in
	// for the directory cache by wrapping the root FsNode the same way
	// DirectoryCache.insert would.
	return vfs.NewTestDirectoryEntry("/", fs.RootNode(), nil)
}

func TestCreateFileThenLookup(t *testing.T) {
	fs := mustMount(t)
	root := rootEntry(fs)

	node, err := fs.CreateFile(root, "a.txt")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if node.Kind != vfs.KindFile {
		t.Fatalf("created node kind = %v, want KindFile", node.Kind)
	}

	found, err := fs.Lookup(root, "a.txt")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found == nil || found.ID != node.ID {
		t.Fatalf("Lookup returned %+v, want the created node", found)
	}

	miss, err := fs.Lookup(root, "missing")
	if err != nil || miss != nil {
		t.Fatalf("Lookup(missing) = (%v, %v), want (nil, nil)", miss, err)
	}
}

func TestCreateFileDuplicateNameFails(t *testing.T) {
	fs := mustMount(t)
	root := rootEntry(fs)

	if _, err := fs.CreateFile(root, "dup.txt"); err != nil {
		t.Fatalf("first CreateFile: %v", err)
	}
	if _, err := fs.CreateFile(root, "dup.txt"); !errors.Is(err, vfserror.Of(vfserror.AlreadyExists)) {
		t.Fatalf("second CreateFile = %v, want AlreadyExists", err)
	}
}

func TestFileReadWriteZeroFillsGaps(t *testing.T) {
	fs := mustMount(t)
	root := rootEntry(fs)

	node, err := fs.CreateFile(root, "sparse.bin")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	file := &vfs.File{Node: node, Mode: vfs.ModeWrite}

	n, err := fs.Write(file, 4, []byte("xy"))
	if err != nil || n != 2 {
		t.Fatalf("Write = (%d, %v)", n, err)
	}

	buf := make([]byte, 6)
	n, err = fs.Read(file, 0, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []byte{0, 0, 0, 0, 'x', 'y'}
	if n != len(want) || !bytes.Equal(buf[:n], want) {
		t.Fatalf("Read = %v, want %v", buf[:n], want)
	}

	// A read starting past the end of the file returns 0, not an error.
	n, err = fs.Read(file, 100, buf)
	if err != nil || n != 0 {
		t.Fatalf("Read past EOF = (%d, %v), want (0, nil)", n, err)
	}
}

func TestRemoveDirectoryRequiresEmpty(t *testing.T) {
	fs := mustMount(t)
	root := rootEntry(fs)

	if _, err := fs.CreateDirectory(root, "d"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	dirNode, _ := fs.Lookup(root, "d")
	dirEntry := vfs.NewTestDirectoryEntry("d", dirNode, root)

	if _, err := fs.CreateFile(dirEntry, "child"); err != nil {
		t.Fatalf("CreateFile in d: %v", err)
	}

	if err := fs.RemoveDirectory(root, "d"); !errors.Is(err, vfserror.Of(vfserror.AlreadyExists)) {
		t.Fatalf("RemoveDirectory(non-empty) = %v, want AlreadyExists", err)
	}

	if err := fs.RemoveFile(dirEntry, "child"); err != nil {
		t.Fatalf("RemoveFile(child): %v", err)
	}
	if err := fs.RemoveDirectory(root, "d"); err != nil {
		t.Fatalf("RemoveDirectory(empty): %v", err)
	}
	if found, _ := fs.Lookup(root, "d"); found != nil {
		t.Fatalf("expected d to be gone after RemoveDirectory, found %+v", found)
	}
}

func TestRemoveFileRejectsDirectory(t *testing.T) {
	fs := mustMount(t)
	root := rootEntry(fs)

	if _, err := fs.CreateDirectory(root, "d"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if err := fs.RemoveFile(root, "d"); !errors.Is(err, vfserror.Of(vfserror.NotAFile)) {
		t.Fatalf("RemoveFile(directory) = %v, want NotAFile", err)
	}
}
