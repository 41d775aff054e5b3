package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ultramarine/internal/batch"
	"github.com/jmylchreest/ultramarine/internal/colour"
	"github.com/jmylchreest/ultramarine/internal/store"
	"github.com/jmylchreest/ultramarine/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		dbPath       string
		colours      int
		maxDimension int
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Index images as they are added to a directory",
		Long: `Watch a directory and index the palette of every image created or
rewritten in it. Runs until interrupted.

Example:
  ultramarine watch ~/Pictures/wallpapers`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor, err := colour.NewLabExtractor(colour.ExtractorConfig{
				PaletteSize: colours,
				MaxPasses:   colour.DefaultMaxPasses,
			})
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			idx, err := store.Open(dbPath, a.logger.Named("store"))
			if err != nil {
				return err
			}
			defer idx.Close()

			processor := batch.NewProcessor(extractor)
			processor.MaxDimension = maxDimension
			processor.Logger = a.logger.Named("batch")

			out := cmd.OutOrStdout()
			w := &watch.Watcher{
				Dir:       args[0],
				Processor: processor,
				Store:     idx,
				Logger:    a.logger.Named("watch"),
				OnResult: func(r batch.Result) {
					fmt.Fprintf(out, "%s - Palette: %s\n", r.ID, r.Text())
				},
			}
			return w.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&dbPath, "db", "", "palette index path (env "+EnvDB+")")
	flags.IntVarP(&colours, "colours", "c", colour.DefaultExtractorConfig().PaletteSize,
		"number of colours per palette (env "+EnvPaletteSize+")")
	flags.IntVar(&maxDimension, "max-dimension", 0, "downscale images larger than this many pixels per side (0 disables)")
	return cmd
}
