// Package watch indexes images as they appear in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	goimage "image"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ultramarine/internal/batch"
	"github.com/jmylchreest/ultramarine/internal/image"
)

// DefaultSettle is how long a file must stay quiet before it is processed.
const DefaultSettle = 250 * time.Millisecond

// Sink receives processed results.
type Sink interface {
	PutResults(ctx context.Context, results []batch.Result) error
}

// Watcher processes every image file created or rewritten in Dir.
type Watcher struct {
	Dir       string
	Processor *batch.Processor
	// Store is optional; when nil results are only reported to OnResult.
	Store  Sink
	Logger hclog.Logger
	// Loader defaults to image.NewFileLoader().
	Loader image.Loader
	// Settle defaults to DefaultSettle.
	Settle time.Duration
	// OnResult is called for each processed file.
	OnResult func(batch.Result)
}

// Run watches Dir until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := w.open()
	if err != nil {
		return err
	}
	defer fw.Close()
	return w.loop(ctx, fw)
}

func (w *Watcher) open() (*fsnotify.Watcher, error) {
	if w.Processor == nil {
		return nil, errors.New("watcher has no processor")
	}
	info, err := os.Stat(w.Dir)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", w.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot watch %s: not a directory", w.Dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(w.Dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}
	w.logger().Info("watching for images", "dir", w.Dir)
	return fw, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) error {
	logger := w.logger()
	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	// Editors and copies emit several writes per file; each path is
	// processed once it has been quiet for settle.
	pending := make(map[string]*time.Timer)
	ready := make(chan string)
	done := make(chan struct{})
	defer func() {
		close(done)
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopped watching", "dir", w.Dir)
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !image.IsImageFile(event.Name) {
				continue
			}
			if t, exists := pending[event.Name]; exists {
				t.Reset(settle)
				continue
			}
			path := event.Name
			pending[path] = time.AfterFunc(settle, func() {
				select {
				case ready <- path:
				case <-done:
				}
			})

		case path := <-ready:
			delete(pending, path)
			w.handle(ctx, path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	logger := w.logger()
	loader := w.Loader
	if loader == nil {
		loader = image.NewFileLoader()
	}

	results := w.Processor.Run(ctx, []batch.Item{{
		ID:   path,
		Load: func() (goimage.Image, error) { return loader.Load(path) },
	}})

	if w.Store != nil {
		if err := w.Store.PutResults(ctx, results); err != nil {
			logger.Error("failed to store palette", "path", path, "error", err)
		}
	}
	for _, r := range results {
		logger.Debug("indexed image", "path", filepath.Base(r.ID), "palette", r.Text())
		if w.OnResult != nil {
			w.OnResult(r)
		}
	}
}

func (w *Watcher) logger() hclog.Logger {
	if w.Logger == nil {
		return hclog.NewNullLogger()
	}
	return w.Logger
}
