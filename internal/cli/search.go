package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ultramarine/internal/colour"
	"github.com/jmylchreest/ultramarine/internal/store"
)

type searchOptions struct {
	dbPath  string
	limit   int
	preview bool
}

func newSearchCmd(a *app) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <palette>",
		Short: "Find indexed images with a similar palette",
		Long: `Find indexed images whose palette is closest to the given one.

The palette is given in the compact text form printed by batch and
"extract --format text": hex colours separated by "-".

Examples:
  ultramarine search 8f7358-8e463d-d4d1cc
  ultramarine search --limit 3 --db ./palettes.db ff0000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, a, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dbPath, "db", "", "palette index path (env "+EnvDB+")")
	flags.IntVarP(&opts.limit, "limit", "n", 10, "maximum number of matches (0 for all)")
	flags.BoolVar(&opts.preview, "preview", false, "show colour swatches")
	return cmd
}

func runSearch(cmd *cobra.Command, a *app, opts *searchOptions, text string) error {
	query, err := colour.ParsePaletteText(text)
	if err != nil {
		return fmt.Errorf("invalid palette %q: %w", text, err)
	}

	idx, err := store.Open(opts.dbPath, a.logger.Named("store"))
	if err != nil {
		return err
	}
	defer idx.Close()

	matches, err := idx.Search(cmd.Context(), query, opts.limit)
	if err != nil {
		return err
	}
	a.logger.Debug("search complete", "matches", len(matches))

	table := NewTable([]string{"#", "ID", "Distance", "Palette"})
	for i, m := range matches {
		palette := m.Text()
		if opts.preview {
			palette = swatches(m.Palette) + " " + palette
		}
		table.AddRow([]string{
			strconv.Itoa(i + 1),
			m.ID,
			strconv.FormatFloat(m.Distance, 'f', 2, 64),
			palette,
		})
	}
	_, err = io.WriteString(cmd.OutOrStdout(), table.Render())
	return err
}

