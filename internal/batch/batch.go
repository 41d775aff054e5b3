// Package batch runs palette extraction over many images with bounded,
// chunked concurrency and collects one result per image.
package batch

import (
	"context"
	"fmt"
	goimage "image"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ultramarine/internal/colour"
	"github.com/jmylchreest/ultramarine/internal/image"
)

// DefaultChunkSize is the number of images processed concurrently.
const DefaultChunkSize = 10

// ErrorText is the palette text reported for an image that failed.
const ErrorText = "error"

// Item is one image to process.
type Item struct {
	// ID identifies the image in results, usually its path.
	ID string
	// Load decodes the image. It is called from a worker goroutine.
	Load func() (goimage.Image, error)
}

// Result is the outcome of processing one Item. Exactly one of Palette and
// Err is set.
type Result struct {
	ID      string
	Palette *colour.Palette
	Err     error
}

// OK reports whether the item produced a palette.
func (r Result) OK() bool {
	return r.Err == nil && r.Palette != nil
}

// Text returns the compact palette text, or ErrorText on failure.
func (r Result) Text() string {
	if !r.OK() {
		return ErrorText
	}
	return r.Palette.Text()
}

// Chunk splits items into consecutive groups of at most size elements.
// A size below 1 yields a single group.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size < 1 {
		size = len(items)
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		chunks = append(chunks, items[i:min(i+size, len(items))])
	}
	return chunks
}

// Processor extracts palettes for a list of items.
type Processor struct {
	// Extractor is shared by all workers and must be safe for concurrent use.
	Extractor colour.Extractor
	// Count is the palette size passed to the extractor; zero uses its default.
	Count int
	// ChunkSize bounds concurrency; zero uses DefaultChunkSize.
	ChunkSize int
	// MaxDimension downscales larger images before extraction; zero disables.
	MaxDimension int
	// DropEmpty removes zero-weight entries from each palette.
	DropEmpty bool
	// Logger receives progress and per-item failures.
	Logger hclog.Logger
}

// NewProcessor creates a Processor with default chunking and a null logger.
func NewProcessor(extractor colour.Extractor) *Processor {
	return &Processor{
		Extractor: extractor,
		ChunkSize: DefaultChunkSize,
		Logger:    hclog.NewNullLogger(),
	}
}

// Run processes items one chunk at a time. All items in a chunk run
// concurrently and the chunk completes before the next one starts. Results
// are returned in input order. A failing item never stops the batch; if ctx
// is cancelled, remaining items are reported with the context error.
func (p *Processor) Run(ctx context.Context, items []Item) []Result {
	logger := p.logger()
	chunkSize := p.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	results := make([]Result, len(items))
	offset := 0
	for n, chunk := range Chunk(items, chunkSize) {
		start := time.Now()

		var wg sync.WaitGroup
		for i, item := range chunk {
			slot := &results[offset+i]
			wg.Go(func() {
				*slot = p.process(ctx, item)
			})
		}
		wg.Wait()
		offset += len(chunk)

		logger.Debug("processed chunk", "chunk", n+1, "items", len(chunk), "duration", time.Since(start))
	}

	for _, r := range results {
		if r.Err != nil {
			logger.Warn("palette extraction failed", "id", r.ID, "error", r.Err)
		}
	}
	return results
}

// process runs one item, converting panics from decoders into errors.
func (p *Processor) process(ctx context.Context, item Item) (result Result) {
	result.ID = item.ID
	defer func() {
		if r := recover(); r != nil {
			result.Palette = nil
			result.Err = fmt.Errorf("panic while processing %s: %v", item.ID, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	if item.Load == nil {
		result.Err = fmt.Errorf("no loader for %s", item.ID)
		return result
	}

	img, err := item.Load()
	if err != nil {
		result.Err = err
		return result
	}

	palette, err := p.Extractor.Extract(image.NewPixels(image.Downscale(img, p.MaxDimension)), p.Count)
	if err != nil {
		result.Err = err
		return result
	}
	if !palette.Converged {
		p.logger().Warn("palette refinement hit the pass cap", "id", item.ID, "passes", palette.Passes)
	}
	if p.DropEmpty {
		palette = palette.Dominant()
	}
	result.Palette = palette
	return result
}

func (p *Processor) logger() hclog.Logger {
	if p.Logger == nil {
		return hclog.NewNullLogger()
	}
	return p.Logger
}
