// Package security provides input validation for untrusted archive contents.
package security

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ValidateArchiveMember rejects archive member names that are absolute or
// contain directory traversal.
func ValidateArchiveMember(name string) error {
	if name == "" {
		return fmt.Errorf("empty file path")
	}

	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return fmt.Errorf("absolute paths in archives are not allowed")
	}

	for part := range strings.SplitSeq(filepath.ToSlash(name), "/") {
		if part == ".." {
			return fmt.Errorf("file path contains directory traversal (..) - not allowed")
		}
	}
	return nil
}

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
// This prevents decompression bomb attacks when reading archives.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		return 0, fmt.Errorf("decompression size limit exceeded")
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}
