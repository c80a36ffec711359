package vfs

import (
	"strings"

	"github.com/wavekernel/vfscore/pkg/vfserror"
)

// MaxPathLength is the largest path, in bytes, the parser will accept.
// Grounded on MAX_PATH_LENGTH in
// _examples/original_source/kernel/src/fs/path.rs.
const MaxPathLength = 4096

// Path is a tokenized byte path: an ordered sequence of segments, with the
// leading "/" (if any) emitted as its own literal segment. No "."/".."
// normalization happens here — that is the path walker's job.
type Path struct {
	segments []string
}

// Absolute reports whether the path began with "/".
func (p Path) Absolute() bool {
	return len(p.segments) > 0 && p.segments[0] == "/"
}

// Segments returns the ordered segment list, including the leading "/" for
// absolute paths.
func (p Path) Segments() []string {
	return p.segments
}

// ParsePath tokenizes raw into a Path. It enforces the length and charset
// rules: up to MaxPathLength bytes, ASCII only, non-empty. Consecutive
// slashes are passed through as empty segments rather than collapsed; the
// walker treats an empty segment identically to ".", the less surprising of
// the two consistent ways to handle them.
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, vfserror.Of(vfserror.InvalidPath)
	}
	if len(raw) > MaxPathLength {
		return Path{}, vfserror.Of(vfserror.InvalidPath)
	}
	if !isASCII(raw) {
		return Path{}, vfserror.Of(vfserror.InvalidPath)
	}

	var segments []string
	rest := raw
	if strings.HasPrefix(rest, "/") {
		segments = append(segments, "/")
		rest = rest[1:]
	}
	if rest != "" {
		segments = append(segments, strings.Split(rest, "/")...)
	}
	return Path{segments: segments}, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}
