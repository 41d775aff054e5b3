package watch

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/ultramarine/internal/batch"
	"github.com/jmylchreest/ultramarine/internal/colour"
)

type memorySink struct {
	mu      sync.Mutex
	results []batch.Result
}

func (m *memorySink) PutResults(_ context.Context, results []batch.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, results...)
	return nil
}

func (m *memorySink) snapshot() []batch.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]batch.Result(nil), m.results...)
}

func newWatcher(t *testing.T, dir string, sink Sink) *Watcher {
	t.Helper()
	extractor, err := colour.NewLabExtractor(colour.DefaultExtractorConfig())
	if err != nil {
		t.Fatal(err)
	}
	return &Watcher{
		Dir:       dir,
		Processor: batch.NewProcessor(extractor),
		Store:     sink,
		Settle:    20 * time.Millisecond,
	}
}

func writeSolidPNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.SetNRGBA(x, y, c)
		}
	}
	// Write under a non-image name and rename so the watcher never sees a
	// partially written file.
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherIndexesNewImages(t *testing.T) {
	dir := t.TempDir()
	sink := &memorySink{}
	w := newWatcher(t, dir, sink)

	got := make(chan batch.Result, 4)
	w.OnResult = func(r batch.Result) { got <- r }

	fw, err := w.open()
	if err != nil {
		t.Fatalf("open() error = %v", err)
	}
	defer fw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.loop(ctx, fw) }()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "red.png")
	writeSolidPNG(t, path, color.NRGBA{R: 255, A: 255})

	select {
	case r := <-got:
		if r.ID != path || r.Text() != "ff0000" {
			t.Errorf("result = %s %s, want %s ff0000", r.ID, r.Text(), path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the watcher")
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("loop() error = %v", err)
	}

	stored := sink.snapshot()
	if len(stored) == 0 || stored[0].ID != path {
		t.Errorf("sink received %+v", stored)
	}
	for _, r := range stored {
		if filepath.Ext(r.ID) != ".png" {
			t.Errorf("non-image file was processed: %s", r.ID)
		}
	}
}

func TestWatcherOpenErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.png")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		w    *Watcher
	}{
		{name: "missing dir", w: newWatcher(t, filepath.Join(dir, "nope"), nil)},
		{name: "not a dir", w: newWatcher(t, file, nil)},
		{name: "no processor", w: &Watcher{Dir: dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.w.Run(context.Background()); err == nil {
				t.Error("Run() should fail")
			}
		})
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	w := newWatcher(t, t.TempDir(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
