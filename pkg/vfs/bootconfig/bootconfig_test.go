package bootconfig

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/wavekernel/vfscore/pkg/vfs"
	"github.com/wavekernel/vfscore/pkg/vfserror"
)

func testVFS() *vfs.VirtualFilesystem {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return vfs.New(log)
}

func TestDefaultMatchesInitSequence(t *testing.T) {
	cfg := Default()
	if len(cfg.FileSystems) != 2 || cfg.FileSystems[0] != "ramfs" || cfg.FileSystems[1] != "devfs" {
		t.Fatalf("FileSystems = %v, want [ramfs devfs]", cfg.FileSystems)
	}
	if len(cfg.Devices) != 2 || cfg.Devices[0] != "null" || cfg.Devices[1] != "zero" {
		t.Fatalf("Devices = %v, want [null zero]", cfg.Devices)
	}
	if len(cfg.Mounts) != 2 || cfg.Mounts[0].Target != "/" || cfg.Mounts[1].Target != "/dev" {
		t.Fatalf("Mounts = %+v, want root then /dev", cfg.Mounts)
	}
}

func TestApplyBootsRootAndDev(t *testing.T) {
	v := testVFS()
	if err := Default().Apply(v); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	entries, err := v.ReadDirectory("/dev")
	if err != nil {
		t.Fatalf("ReadDirectory(/dev): %v", err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	if !names["null"] || !names["zero"] {
		t.Fatalf("expected /dev to list null and zero after Apply, got %+v", entries)
	}
}

func TestParseRoundTrip(t *testing.T) {
	doc := `
file_systems = ["ramfs", "devfs"]
devices = ["null"]

[[mount]]
type = "ramfs"
target = "/"
flags = ["read", "write"]
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.FileSystems) != 2 || len(cfg.Devices) != 1 || len(cfg.Mounts) != 1 {
		t.Fatalf("Parse produced %+v", cfg)
	}
	if cfg.Mounts[0].Target != "/" || cfg.Mounts[0].Type != "ramfs" {
		t.Fatalf("Mounts[0] = %+v", cfg.Mounts[0])
	}

	v := testVFS()
	if err := cfg.Apply(v); err != nil {
		t.Fatalf("Apply parsed config: %v", err)
	}
}

func TestApplyUnknownFileSystemTypeFails(t *testing.T) {
	cfg := &Config{
		FileSystems: []string{"nonexistent-fs"},
	}
	v := testVFS()
	err := cfg.Apply(v)
	if err == nil {
		t.Fatalf("Apply with unknown file system type succeeded, want an error")
	}
	if kind, ok := vfserror.KindOf(err); !ok || kind != vfserror.FileSystemTypeNotFound {
		t.Fatalf("KindOf(%v) = (%v, %v), want (FileSystemTypeNotFound, true)", err, kind, ok)
	}
}

func TestApplyUnknownDeviceFails(t *testing.T) {
	cfg := &Config{
		Devices: []string{"nonexistent-device"},
	}
	v := testVFS()
	if err := cfg.Apply(v); err == nil {
		t.Fatalf("Apply with unknown device succeeded, want an error")
	}
}

func TestApplyUnknownMountFlagFails(t *testing.T) {
	cfg := &Config{
		FileSystems: []string{"ramfs"},
		Mounts: []MountSpec{
			{Type: "ramfs", Target: "/", Flags: []string{"execute"}},
		},
	}
	v := testVFS()
	if err := cfg.Apply(v); err == nil {
		t.Fatalf("Apply with unknown mount flag succeeded, want an error")
	}
}
