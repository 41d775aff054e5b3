package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ultramarine/internal/batch"
	"github.com/jmylchreest/ultramarine/internal/colour"
	"github.com/jmylchreest/ultramarine/internal/image"
	"github.com/jmylchreest/ultramarine/internal/store"
)

type batchOptions struct {
	colours      int
	chunkSize    int
	recursive    bool
	maxDimension int
	dropEmpty    bool
	format       string
	preview      bool
	index        bool
	dbPath       string
}

func newBatchCmd(a *app) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <path>...",
		Short: "Extract palettes from many images",
		Long: `Extract palettes from image files, directories and archives.

Images are processed in chunks; every image in a chunk is processed
concurrently. An image that cannot be read or decoded is reported with the
palette text "error" and does not stop the batch.

Supported archives: .zip, .tar, .tar.gz, .tgz, .tar.xz, .txz, .tar.bz2

Examples:
  # Print one line per image
  ultramarine batch photos/ wallpapers.zip

  # Store results in the palette index for later searches
  ultramarine batch --index -r photos/

  # Use a specific index and larger chunks
  ultramarine batch --db ./palettes.db --chunk-size 32 photos/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.index = opts.index || cmd.Flags().Changed("db")
			return runBatch(cmd, a, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.colours, "colours", "c", colour.DefaultExtractorConfig().PaletteSize,
		"number of colours per palette (env "+EnvPaletteSize+")")
	flags.IntVar(&opts.chunkSize, "chunk-size", batch.DefaultChunkSize,
		"images processed concurrently (env "+EnvChunkSize+")")
	flags.BoolVarP(&opts.recursive, "recursive", "r", false, "scan directories recursively")
	flags.IntVar(&opts.maxDimension, "max-dimension", 0, "downscale images larger than this many pixels per side (0 disables)")
	flags.BoolVar(&opts.dropEmpty, "drop-empty", false, "omit colours with no assigned pixels")
	flags.StringVarP(&opts.format, "format", "f", "text", "output format (text, json, table)")
	flags.BoolVar(&opts.preview, "preview", false, "show colour swatches in table output")
	flags.BoolVar(&opts.index, "index", false, "store results in the palette index")
	flags.StringVar(&opts.dbPath, "db", "", "palette index path (env "+EnvDB+"; implies --index)")
	return cmd
}

func runBatch(cmd *cobra.Command, a *app, opts *batchOptions, paths []string) error {
	logger := a.logger.Named("batch")

	if opts.chunkSize < 1 {
		return fmt.Errorf("chunk size must be at least 1, got %d", opts.chunkSize)
	}
	switch opts.format {
	case "text", "json", "table":
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, table)", opts.format)
	}

	extractor, err := colour.NewLabExtractor(colour.ExtractorConfig{
		PaletteSize: opts.colours,
		MaxPasses:   colour.DefaultMaxPasses,
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	items, err := batch.FromPaths(image.NewFileLoader(), paths, opts.recursive)
	if err != nil {
		return err
	}
	logger.Debug("collected images", "count", len(items))

	var idx *store.Store
	if opts.index {
		idx, err = store.Open(opts.dbPath, a.logger.Named("store"))
		if err != nil {
			return err
		}
		defer idx.Close()
	}

	processor := batch.NewProcessor(extractor)
	processor.ChunkSize = opts.chunkSize
	processor.MaxDimension = opts.maxDimension
	processor.DropEmpty = opts.dropEmpty
	processor.Logger = logger

	ctx := cmd.Context()
	results := processor.Run(ctx, items)

	if idx != nil {
		if err := idx.PutResults(ctx, results); err != nil {
			return err
		}
		logger.Info("indexed palettes", "count", len(results), "db", opts.dbPath)
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	logger.Debug("batch complete", "images", len(results), "failed", failed)

	if err := writeResults(cmd.OutOrStdout(), results, opts.format, opts.preview); err != nil {
		return err
	}
	return ctx.Err()
}

// batchResultJSON is the JSON form of one batch result.
type batchResultJSON struct {
	ID      string          `json:"id"`
	Text    string          `json:"text"`
	Palette *colour.Palette `json:"palette,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func writeResults(w io.Writer, results []batch.Result, format string, preview bool) error {
	switch format {
	case "json":
		out := make([]batchResultJSON, len(results))
		for i, r := range results {
			out[i] = batchResultJSON{ID: r.ID, Text: r.Text()}
			if r.OK() {
				out[i].Palette = r.Palette
			} else if r.Err != nil {
				out[i].Error = r.Err.Error()
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)

	case "table":
		table := NewTable([]string{"ID", "Palette", "Status"})
		for _, r := range results {
			status := "ok"
			if !r.OK() {
				status = "error"
				if r.Err != nil {
					status = r.Err.Error()
				}
			}
			text := r.Text()
			if preview && r.OK() {
				text = swatches(r.Palette) + " " + text
			}
			table.AddRow([]string{r.ID, text, status})
		}
		_, err := io.WriteString(w, table.Render())
		return err

	default:
		for _, r := range results {
			if _, err := fmt.Fprintf(w, "%s - Palette: %s\n", r.ID, r.Text()); err != nil {
				return err
			}
		}
		return nil
	}
}

// swatches renders a two-cell colour block per palette entry.
func swatches(p *colour.Palette) string {
	var b strings.Builder
	for _, c := range p.All() {
		b.WriteString(colour.ColourPreview(c, 2))
	}
	return b.String()
}
