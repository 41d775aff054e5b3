package compression

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// walkTar visits every regular file in a (possibly compressed) tar archive.
func walkTar(path string, format Format, fn WalkFunc) error {
	file, err := os.Open(path) // #nosec G304 - User-specified archive path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	stream, err := decompressor(file, format)
	if err != nil {
		return err
	}
	if c, ok := stream.(io.Closer); ok {
		defer c.Close()
	}

	tr := tar.NewReader(stream)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if err := visit(header.Name, tr, fn); err != nil {
			return err
		}
	}
}

// decompressor wraps r with the decompressor for the tar variant.
func decompressor(r io.Reader, format Format) (io.Reader, error) {
	switch format {
	case FormatTarGz:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzr, nil
	case FormatTarXz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzr, nil
	case FormatTarBz2:
		return bzip2.NewReader(r), nil
	default:
		return r, nil
	}
}
