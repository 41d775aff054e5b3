package batch

import (
	"bytes"
	"fmt"
	goimage "image"
	"io"
	"os"

	"github.com/jmylchreest/ultramarine/internal/compression"
	"github.com/jmylchreest/ultramarine/internal/image"
)

// FromPaths expands paths into items. Files become one item each,
// directories are scanned for images, and archives contribute one item per
// image member. Archive members are read into memory here; decoding happens
// in Load.
func FromPaths(loader image.Loader, paths []string, recursive bool) ([]Item, error) {
	var items []Item
	for _, path := range paths {
		expanded, err := expandPath(loader, path, recursive)
		if err != nil {
			return nil, err
		}
		items = append(items, expanded...)
	}
	return items, nil
}

func expandPath(loader image.Loader, path string, recursive bool) ([]Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Unreadable files are reported per item rather than failing the batch.
		return []Item{fileItem(loader, path)}, nil
	}

	switch {
	case info.IsDir():
		files, err := image.ScanDirectoryForImages(path, recursive)
		if err != nil {
			return nil, err
		}
		items := make([]Item, 0, len(files))
		for _, f := range files {
			items = append(items, fileItem(loader, f))
		}
		return items, nil
	case compression.IsArchive(path):
		return archiveItems(path)
	default:
		return []Item{fileItem(loader, path)}, nil
	}
}

func fileItem(loader image.Loader, path string) Item {
	return Item{
		ID:   path,
		Load: func() (goimage.Image, error) { return loader.Load(path) },
	}
}

func archiveItems(path string) ([]Item, error) {
	var items []Item
	err := compression.WalkArchive(path, func(name string, r io.Reader) error {
		if !image.IsImageFile(name) {
			return nil
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		items = append(items, Item{
			ID: compression.MemberID(path, name),
			Load: func() (goimage.Image, error) {
				return image.Decode(bytes.NewReader(data))
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", path, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no supported image files found in archive: %s", path)
	}
	return items, nil
}
