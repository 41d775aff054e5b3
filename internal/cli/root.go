// Package cli provides the command-line interface for Ultramarine.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/ultramarine/internal/version"
)

// app carries state resolved once per invocation and shared by subcommands.
type app struct {
	getenv func(string) string
	cfg    Config
	logger hclog.Logger

	verbose bool
	quiet   bool
	logJSON bool
}

// NewRootCmd builds the command tree, reading the process environment.
func NewRootCmd() *cobra.Command {
	return newRootCmd(os.Getenv)
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv, logger: hclog.NewNullLogger()}

	rootCmd := &cobra.Command{
		Use:   "ultramarine",
		Short: "Perceptual colour palette extraction",
		Long: `Ultramarine extracts small, perceptually distinct colour palettes from images.

Colours are binned into a 4096-bucket histogram, seeded greedily in CIE Lab
space and refined with weighted k-means. Palettes can be extracted from single
images, batches of files, directories and archives, stored in a local index and
searched by similarity.`,
		Version:           version.Short(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "write logs as JSON")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		newVersionCmd(),
		newExtractCmd(a),
		newBatchCmd(a),
		newSearchCmd(a),
		newWatchCmd(a),
		newListCmd(a),
		newRemoveCmd(a),
	)
	return rootCmd
}

// Execute runs the root command with ctx and reports any error on stderr.
// It returns the process exit code.
func Execute(ctx context.Context) int {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := hclog.Info
	switch {
	case a.verbose:
		level = hclog.Debug
	case a.quiet:
		level = hclog.Error
	}
	a.logger = hclog.New(&hclog.LoggerOptions{
		Name:       "ultramarine",
		Output:     cmd.ErrOrStderr(),
		Level:      level,
		JSONFormat: a.logJSON,
	})

	cfg, err := LoadConfig(a.getenv)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if err := cfg.applyTo(cmd.Flags()); err != nil {
		return err
	}
	a.logger.Debug("resolved configuration", "db", cfg.DBPath, "chunk_size", cfg.ChunkSize, "palette_size", cfg.PaletteSize)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
