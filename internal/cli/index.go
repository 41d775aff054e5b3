package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ultramarine/internal/store"
)

func newListCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed palettes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := store.Open(dbPath, a.logger.Named("store"))
			if err != nil {
				return err
			}
			defer idx.Close()

			entries, err := idx.List(cmd.Context())
			if err != nil {
				return err
			}

			table := NewTable([]string{"ID", "Status", "Updated", "Palette"})
			for _, e := range entries {
				table.AddRow([]string{e.ID, e.Status, e.UpdatedAt.Local().Format(time.DateTime), e.Text()})
			}
			_, err = io.WriteString(cmd.OutOrStdout(), table.Render())
			return err
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "palette index path (env "+EnvDB+")")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove palettes from the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := store.Open(dbPath, a.logger.Named("store"))
			if err != nil {
				return err
			}
			defer idx.Close()

			for _, id := range args {
				if err := idx.Delete(cmd.Context(), id); err != nil {
					return err
				}
				a.logger.Debug("removed palette", "id", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "palette index path (env "+EnvDB+")")
	return cmd
}
