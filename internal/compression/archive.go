// Package compression provides read-only access to the members of image
// archives (.tar, .tar.gz, .tar.xz, .tar.bz2 and .zip).
package compression

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/ultramarine/internal/security"
)

// MaxMemberSize caps how many bytes are read from a single archive member.
const MaxMemberSize = 256 * 1024 * 1024

// Format identifies an archive container.
type Format int

const (
	// FormatNone means the path is not a recognised archive.
	FormatNone Format = iota
	FormatTar
	FormatTarGz
	FormatTarXz
	FormatTarBz2
	FormatZip
)

// String returns the conventional extension for the format.
func (f Format) String() string {
	switch f {
	case FormatTar:
		return "tar"
	case FormatTarGz:
		return "tar.gz"
	case FormatTarXz:
		return "tar.xz"
	case FormatTarBz2:
		return "tar.bz2"
	case FormatZip:
		return "zip"
	default:
		return "none"
	}
}

// DetectFormat detects the archive format from a file name.
func DetectFormat(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return FormatTarXz
	case strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tbz"), strings.HasSuffix(name, ".tbz2"):
		return FormatTarBz2
	case strings.HasSuffix(name, ".tar"):
		return FormatTar
	case strings.HasSuffix(name, ".zip"):
		return FormatZip
	}
	return FormatNone
}

// IsArchive reports whether path names a supported archive.
func IsArchive(path string) bool {
	return DetectFormat(path) != FormatNone
}

// WalkFunc is called once per regular file in an archive. The reader is only
// valid for the duration of the call.
type WalkFunc func(name string, r io.Reader) error

// WalkArchive calls fn for every regular file in the archive at path, in
// archive order. Members whose names would escape the archive root are
// rejected. Returning an error from fn stops the walk and returns that error.
func WalkArchive(path string, fn WalkFunc) error {
	format := DetectFormat(path)
	switch format {
	case FormatTar, FormatTarGz, FormatTarXz, FormatTarBz2:
		return walkTar(path, format, fn)
	case FormatZip:
		return walkZip(path, fn)
	default:
		return fmt.Errorf("unsupported archive format: %s", path)
	}
}

// MemberID joins an archive path and member name into a single identifier.
func MemberID(archivePath, member string) string {
	return archivePath + "!" + member
}

func visit(name string, r io.Reader, fn WalkFunc) error {
	if err := security.ValidateArchiveMember(name); err != nil {
		return fmt.Errorf("invalid archive member %q: %w", name, err)
	}
	return fn(name, security.NewLimitedReader(r, MaxMemberSize))
}
