// Command vfsctl is a demo harness for pkg/vfs: it boots a
// *vfs.VirtualFilesystem from a TOML boot configuration and runs a single
// file system operation against it, the way a test harness or an early-boot
// shell would exercise the engine one call at a time. It has no parser, no
// line editing, and no persistent session: the interactive shell itself is
// explicitly out of scope, this only drives the public call surface.
//
// Registration and dispatch follow the same subcommands.Commander pattern
// as runsc's own CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/wavekernel/vfscore/pkg/vfs"
	"github.com/wavekernel/vfscore/pkg/vfs/bootconfig"
	"github.com/wavekernel/vfscore/pkg/vfserror"
)

// exitNotFound is returned for errors whose vfserror.Kind marks them as a
// missing entry or an unregistered driver name, so scripts can tell "path
// doesn't exist" apart from other failures without scraping stderr.
const exitNotFound subcommands.ExitStatus = 2

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&lsCommand{}, "")
	subcommands.Register(&statCommand{}, "")
	subcommands.Register(&writeCommand{}, "")
	subcommands.Register(&readCommand{}, "")
	subcommands.Register(&demoCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// boot constructs a VirtualFilesystem and applies configPath (or the
// built-in default, mirroring fs::init()'s hardcoded ramfs+devfs sequence)
// to it.
func boot(configPath string) (*vfs.VirtualFilesystem, error) {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	cfg := bootconfig.Default()
	if configPath != "" {
		loaded, err := bootconfig.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	v := vfs.New(log)
	if err := cfg.Apply(v); err != nil {
		return nil, err
	}
	return v, nil
}

// exitCode prints err to stderr and maps it to a subcommands.ExitStatus.
func exitCode(err error) subcommands.ExitStatus {
	if err == nil {
		return subcommands.ExitSuccess
	}
	fmt.Fprintln(os.Stderr, err)
	if kind, ok := vfserror.KindOf(err); ok {
		switch kind {
		case vfserror.EntryNotFound, vfserror.FileSystemTypeNotFound:
			return exitNotFound
		}
	}
	return subcommands.ExitFailure
}

type lsCommand struct {
	config string
}

func (*lsCommand) Name() string     { return "ls" }
func (*lsCommand) Synopsis() string { return "list a directory's contents" }
func (*lsCommand) Usage() string    { return "ls [-config path] <path>\n" }
func (c *lsCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "", "boot config TOML; empty uses the built-in default")
}

func (c *lsCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	v, err := boot(c.config)
	if err != nil {
		return exitCode(err)
	}
	entries, err := v.ReadDirectory(f.Arg(0))
	if err != nil {
		return exitCode(err)
	}
	for _, e := range entries {
		fmt.Printf("%-20s %-12s %d\n", e.Name, e.Kind, e.NodeID)
	}
	return subcommands.ExitSuccess
}

type statCommand struct {
	config string
}

func (*statCommand) Name() string     { return "stat" }
func (*statCommand) Synopsis() string { return "resolve a path and print its metadata" }
func (*statCommand) Usage() string    { return "stat [-config path] <path>\n" }
func (c *statCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "", "boot config TOML; empty uses the built-in default")
}

func (c *statCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	v, err := boot(c.config)
	if err != nil {
		return exitCode(err)
	}
	entry, err := v.Stat(f.Arg(0))
	if err != nil {
		return exitCode(err)
	}
	defer entry.DecRef()
	fmt.Printf("name=%s kind=%s size=%d links=%d\n",
		entry.Name, entry.Node.Kind, entry.Node.Metadata.Size(), entry.Node.Metadata.LinkCount())
	return subcommands.ExitSuccess
}

type writeCommand struct {
	config string
}

func (*writeCommand) Name() string     { return "write" }
func (*writeCommand) Synopsis() string { return "write a string to a file, creating it if needed" }
func (*writeCommand) Usage() string    { return "write [-config path] <path> <data>\n" }
func (c *writeCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "", "boot config TOML; empty uses the built-in default")
}

func (c *writeCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	v, err := boot(c.config)
	if err != nil {
		return exitCode(err)
	}
	fd, err := v.Open(f.Arg(0), vfs.ModeWrite)
	if err != nil {
		return exitCode(err)
	}
	n, err := v.Write(fd, []byte(f.Arg(1)))
	if err != nil {
		_ = v.Close(fd)
		return exitCode(err)
	}
	if err := v.Close(fd); err != nil {
		return exitCode(err)
	}
	fmt.Printf("wrote %d bytes\n", n)
	return subcommands.ExitSuccess
}

type readCommand struct {
	config string
}

func (*readCommand) Name() string     { return "read" }
func (*readCommand) Synopsis() string { return "read and print a file's contents" }
func (*readCommand) Usage() string    { return "read [-config path] <path>\n" }
func (c *readCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "", "boot config TOML; empty uses the built-in default")
}

func (c *readCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	v, err := boot(c.config)
	if err != nil {
		return exitCode(err)
	}
	fd, err := v.Open(f.Arg(0), vfs.ModeRead)
	if err != nil {
		return exitCode(err)
	}
	defer v.Close(fd)

	buf := make([]byte, 4096)
	n, err := v.Read(fd, buf)
	if err != nil {
		return exitCode(err)
	}
	os.Stdout.Write(buf[:n])
	fmt.Println()
	return subcommands.ExitSuccess
}

// demoCommand exercises mount, open, write, close, read, ls and stat
// against a single booted instance, the Go analogue of fs::init()'s own
// write-then-read smoke test at the end of
// _examples/original_source/kernel/src/fs/vfs.rs.
type demoCommand struct {
	config string
}

func (*demoCommand) Name() string { return "demo" }
func (*demoCommand) Synopsis() string {
	return "boot, write a file, read it back, then list and stat it"
}
func (*demoCommand) Usage() string { return "demo [-config path]\n" }
func (c *demoCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "", "boot config TOML; empty uses the built-in default")
}

func (c *demoCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	v, err := boot(c.config)
	if err != nil {
		return exitCode(err)
	}

	const path = "/test.txt"
	const payload = "Hello, world!"

	wfd, err := v.Open(path, vfs.ModeWrite)
	if err != nil {
		return exitCode(err)
	}
	if _, err := v.Write(wfd, []byte(payload)); err != nil {
		return exitCode(err)
	}
	if err := v.Close(wfd); err != nil {
		return exitCode(err)
	}
	fmt.Printf("wrote %q to %s\n", payload, path)

	rfd, err := v.Open(path, vfs.ModeRead)
	if err != nil {
		return exitCode(err)
	}
	buf := make([]byte, len(payload))
	n, err := v.Read(rfd, buf)
	if err != nil {
		return exitCode(err)
	}
	if err := v.Close(rfd); err != nil {
		return exitCode(err)
	}
	fmt.Printf("read back %q\n", string(buf[:n]))

	entries, err := v.ReadDirectory("/")
	if err != nil {
		return exitCode(err)
	}
	fmt.Println("ls /:")
	for _, e := range entries {
		fmt.Printf("  %-20s %-12s %d\n", e.Name, e.Kind, e.NodeID)
	}

	entry, err := v.Stat(path)
	if err != nil {
		return exitCode(err)
	}
	defer entry.DecRef()
	fmt.Printf("stat %s: size=%d links=%d\n", path, entry.Node.Metadata.Size(), entry.Node.Metadata.LinkCount())

	return subcommands.ExitSuccess
}
