// Package bootconfig is the declarative stand-in for the hardcoded startup
// sequence in fs::init() (_examples/original_source/kernel/src/fs/vfs.rs):
// which bundled file system drivers to register, which synthetic devices to
// install, and what to mount where. A Config is ordinarily loaded from TOML
// via github.com/BurntSushi/toml and applied to a freshly constructed
// *vfs.VirtualFilesystem once, at startup.
package bootconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/wavekernel/vfscore/pkg/vfs"
	"github.com/wavekernel/vfscore/pkg/vfs/devfs"
	"github.com/wavekernel/vfscore/pkg/vfs/ramfs"
	"github.com/wavekernel/vfscore/pkg/vfserror"
)

// Config is the decoded boot configuration.
type Config struct {
	// FileSystems lists the bundled driver names to register before any
	// mount is attempted.
	FileSystems []string `toml:"file_systems"`
	// Devices lists the synthetic character devices devfs should expose.
	Devices []string `toml:"devices"`
	// Mounts runs in order; later entries may target paths created by
	// earlier ones (e.g. devfs mounting onto "/dev" after ramfs has
	// provided the root).
	Mounts []MountSpec `toml:"mount"`
}

// MountSpec is one [[mount]] table entry.
type MountSpec struct {
	Type   string   `toml:"type"`
	Target string   `toml:"target"`
	Source string   `toml:"source"`
	Flags  []string `toml:"flags"`
}

// Default reproduces fs::init()'s literal sequence: an empty, writable
// ramfs mounted at "/", followed by devfs mounted at "/dev" exposing the
// null and zero devices.
func Default() *Config {
	return &Config{
		FileSystems: []string{ramfs.Name, devfs.Name},
		Devices:     []string{"null", "zero"},
		Mounts: []MountSpec{
			{Type: ramfs.Name, Target: "/", Flags: []string{"read", "write"}},
			{Type: devfs.Name, Target: "/dev", Flags: []string{"read", "write"}},
		},
	}
}

// Load reads and decodes a TOML boot configuration from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootconfig: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a TOML boot configuration from an in-memory buffer.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("bootconfig: decoding: %w", err)
	}
	return &cfg, nil
}

// Apply registers every listed device and file system type into v, then
// performs every mount in order, failing closed on the first error.
func (c *Config) Apply(v *vfs.VirtualFilesystem) error {
	for _, name := range c.Devices {
		dev, err := knownDevice(name)
		if err != nil {
			return err
		}
		if err := v.Devices().Register(dev); err != nil {
			return fmt.Errorf("bootconfig: registering device %q: %w", name, err)
		}
	}

	for _, name := range c.FileSystems {
		ty, err := knownFileSystemType(name, v.Devices())
		if err != nil {
			return err
		}
		if err := v.FileSystems().Register(ty); err != nil {
			return fmt.Errorf("bootconfig: registering file system type %q: %w", name, err)
		}
	}

	for _, m := range c.Mounts {
		flags, err := parseMountFlags(m.Flags)
		if err != nil {
			return err
		}
		if _, err := v.Mount(m.Source, m.Target, m.Type, flags); err != nil {
			return fmt.Errorf("bootconfig: mounting %q (%s) at %s: %w", m.Type, m.Source, m.Target, err)
		}
	}
	return nil
}

func parseMountFlags(names []string) (vfs.MountFlags, error) {
	var flags vfs.MountFlags
	for _, name := range names {
		switch name {
		case "read":
			flags |= vfs.MountRead
		case "write":
			flags |= vfs.MountWrite
		default:
			return 0, fmt.Errorf("bootconfig: unknown mount flag %q", name)
		}
	}
	return flags, nil
}

// knownFileSystemType is the bundled-driver registry bootconfig draws from.
// A real deployment with out-of-tree drivers would widen this to a
// pluggable lookup; vfscore only ships ramfs and devfs.
func knownFileSystemType(name string, devices *vfs.DeviceRegistry) (vfs.FileSystemType, error) {
	switch name {
	case ramfs.Name:
		return ramfs.NewType(), nil
	case devfs.Name:
		return devfs.NewType(devices), nil
	default:
		return nil, vfserror.Wrap(vfserror.FileSystemTypeNotFound, fmt.Errorf("bootconfig: unknown file system type %q", name))
	}
}

func knownDevice(name string) (vfs.CharDevice, error) {
	switch name {
	case "null":
		return devfs.NullDevice{}, nil
	case "zero":
		return devfs.ZeroDevice{}, nil
	default:
		return nil, fmt.Errorf("bootconfig: unknown device %q", name)
	}
}
