// Package vfserror renders the IoError taxonomy from
// _examples/original_source/kernel/src/fs/vfs.rs as a small, closed set of
// Go error values, following the shape of gVisor's own linuxerr
// package (a fixed vocabulary of named sentinel errors checked with
// errors.Is; see the linuxerr.EBUSY / linuxerr.ENOENT usage throughout
// _examples/Talismancer-gvisor-ligolo/pkg/sentry/vfs/dentry.go and
// _examples/Talismancer-gvisor-ligolo/pkg/sentry/syscalls/linux).
package vfserror

import "fmt"

// Kind identifies one of the fixed VFS error categories from spec §7.
type Kind int

const (
	// OperationNotSupported means the driver does not implement this hook.
	OperationNotSupported Kind = iota + 1
	// EntryNotFound means some path segment did not resolve.
	EntryNotFound
	// AlreadyExists means the target path, name, or mount slot is occupied.
	AlreadyExists
	// NotADirectory means a segment that must be a directory is not.
	NotADirectory
	// NotAFile means a directory was opened as a file.
	NotAFile
	// InvalidPath means parsing or a structural path requirement failed.
	InvalidPath
	// InvalidFile means the descriptor is unknown or already closed.
	InvalidFile
	// InvalidMode means the operation is incompatible with the open mode.
	InvalidMode
	// FileSystemTypeNotFound means mount received an unregistered type name.
	FileSystemTypeNotFound
	// NoRootDirectory means resolution was attempted before root was mounted.
	NoRootDirectory
)

func (k Kind) String() string {
	switch k {
	case OperationNotSupported:
		return "operation not supported"
	case EntryNotFound:
		return "entry not found"
	case AlreadyExists:
		return "already exists"
	case NotADirectory:
		return "not a directory"
	case NotAFile:
		return "not a file"
	case InvalidPath:
		return "invalid path"
	case InvalidFile:
		return "invalid file"
	case InvalidMode:
		return "invalid mode"
	case FileSystemTypeNotFound:
		return "file system type not found"
	case NoRootDirectory:
		return "no root directory"
	default:
		return "unknown vfs error"
	}
}

// Error is the concrete error type returned by every vfscore operation.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is(err, vfserror.Of(EntryNotFound)) match any *Error with
// the same Kind, regardless of wrapped cause.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// Of returns the sentinel error for kind with no wrapped cause.
func Of(kind Kind) error {
	return &Error{Kind: kind}
}

// Wrap returns an error of the given kind that wraps cause, preserving
// cause in the error chain (visible via errors.Unwrap / %w-style chains).
func Wrap(kind Kind, cause error) error {
	if cause == nil {
		return Of(kind)
	}
	return &Error{Kind: kind, cause: cause}
}

// KindOf recovers the Kind carried by err if it (or something it wraps) is
// a *Error, and reports whether one was found.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return 0, false
}
