package compression

import (
	"archive/zip"
	"fmt"
)

// walkZip visits every regular file in a zip archive.
func walkZip(path string, fn WalkFunc) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !f.FileInfo().Mode().IsRegular() {
			continue
		}
		if err := visitZipFile(f, fn); err != nil {
			return err
		}
	}
	return nil
}

func visitZipFile(f *zip.File, fn WalkFunc) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s in zip archive: %w", f.Name, err)
	}
	defer rc.Close()
	return visit(f.Name, rc, fn)
}
