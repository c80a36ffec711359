package vfs

import "github.com/wavekernel/vfscore/pkg/vfserror"

// resolvePath implements spec-level resolve_path: segment-by-segment
// resolution over the directory cache, drivers, and mount overlays,
// grounded on VirtualFileSystem::resolve_path in
// _examples/original_source/kernel/src/fs/vfs.rs. A nil result with a nil
// error means some segment was missing; callers that require the path to
// exist translate that into vfserror.EntryNotFound themselves.
func (v *VirtualFilesystem) resolvePath(raw string) (*DirectoryEntry, error) {
	path, err := ParsePath(raw)
	if err != nil {
		return nil, err
	}
	if !path.Absolute() {
		// Relative path resolution (cwd-relative lookups) is out of scope.
		return nil, vfserror.Of(vfserror.InvalidPath)
	}

	root := v.cache.GetRoot()
	if root == nil {
		return nil, vfserror.Of(vfserror.NoRootDirectory)
	}

	stack := []*DirectoryEntry{root}
	for _, segment := range path.Segments()[1:] {
		top := stack[len(stack)-1]
		if !top.Node.IsDirectory() {
			releaseStack(stack)
			return nil, vfserror.Of(vfserror.NotADirectory)
		}

		switch segment {
		case "", ".":
			// Redundant in absolute paths (and, per the path parser, an
			// empty segment from a doubled slash behaves identically).
			continue
		case "..":
			if len(stack) == 1 {
				// At the root: POSIX ignores a leading "..".
				continue
			}
			last := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			last.DecRef()
		default:
			if mounted := v.mounts.MountedAt(top, segment); mounted != nil {
				stack = append(stack, mounted)
				continue
			}

			fs, err := v.fileSystemFor(top.Node)
			if err != nil {
				releaseStack(stack)
				return nil, err
			}
			entry, err := v.cache.getCachedOrLookup(fs, top, segment)
			if err != nil {
				releaseStack(stack)
				return nil, err
			}
			if entry == nil {
				releaseStack(stack)
				return nil, nil
			}
			stack = append(stack, entry)
		}
	}

	result := stack[len(stack)-1]
	for _, e := range stack[:len(stack)-1] {
		e.DecRef()
	}
	return result, nil
}

// resolveParentDirectory mirrors resolvePath but stops one segment early,
// returning the collected parent directory and the trailing name. An empty
// trailing name (the path is just "/") fails with vfserror.InvalidPath.
func (v *VirtualFilesystem) resolveParentDirectory(raw string) (*DirectoryEntry, string, error) {
	path, err := ParsePath(raw)
	if err != nil {
		return nil, "", err
	}
	if !path.Absolute() {
		return nil, "", vfserror.Of(vfserror.InvalidPath)
	}

	segments := path.Segments()[1:]
	if len(segments) == 0 {
		return nil, "", vfserror.Of(vfserror.InvalidPath)
	}

	root := v.cache.GetRoot()
	if root == nil {
		return nil, "", vfserror.Of(vfserror.NoRootDirectory)
	}

	stack := []*DirectoryEntry{root}
	last := len(segments) - 1
	for _, segment := range segments[:last] {
		top := stack[len(stack)-1]
		if !top.Node.IsDirectory() {
			releaseStack(stack)
			return nil, "", vfserror.Of(vfserror.NotADirectory)
		}

		switch segment {
		case "", ".":
			continue
		case "..":
			if len(stack) == 1 {
				continue
			}
			popped := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			popped.DecRef()
		default:
			if mounted := v.mounts.MountedAt(top, segment); mounted != nil {
				stack = append(stack, mounted)
				continue
			}
			fs, err := v.fileSystemFor(top.Node)
			if err != nil {
				releaseStack(stack)
				return nil, "", err
			}
			entry, err := v.cache.getCachedOrLookup(fs, top, segment)
			if err != nil {
				releaseStack(stack)
				return nil, "", err
			}
			if entry == nil {
				releaseStack(stack)
				return nil, "", vfserror.Of(vfserror.EntryNotFound)
			}
			if !entry.Node.IsDirectory() {
				releaseStack(stack)
				entry.DecRef()
				return nil, "", vfserror.Of(vfserror.NotADirectory)
			}
			stack = append(stack, entry)
		}
	}

	trailing := segments[last]
	if trailing == "" {
		releaseStack(stack)
		return nil, "", vfserror.Of(vfserror.InvalidPath)
	}

	parent := stack[len(stack)-1]
	for _, e := range stack[:len(stack)-1] {
		e.DecRef()
	}
	return parent, trailing, nil
}

func releaseStack(stack []*DirectoryEntry) {
	for _, e := range stack {
		e.DecRef()
	}
}
