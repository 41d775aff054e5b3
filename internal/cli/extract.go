package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ultramarine/internal/colour"
	"github.com/jmylchreest/ultramarine/internal/image"
)

type extractOptions struct {
	colours      int
	format       string
	output       string
	preview      bool
	maxPasses    int
	maxDimension int
	dropEmpty    bool
}

func newExtractCmd(a *app) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract a colour palette from an image",
		Long: `Extract a colour palette from an image.

Supported image formats: JPEG, PNG, GIF, WebP, AVIF

Examples:
  # Extract 5 colours (default) from an image
  ultramarine extract wallpaper.jpg

  # Extract 8 colours with terminal swatches
  ultramarine extract --preview --colours 8 wallpaper.png

  # Print the compact text form used by batch and search
  ultramarine extract --format text wallpaper.jpg

  # Extract colours as JSON and save to a file
  ultramarine extract --format json --output palette.json wallpaper.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, a, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.colours, "colours", "c", colour.DefaultExtractorConfig().PaletteSize,
		"number of colours to extract (1-256, env "+EnvPaletteSize+")")
	flags.StringVarP(&opts.format, "format", "f", "hex", "output format (hex, rgb, json, text)")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	flags.BoolVar(&opts.preview, "preview", false, "show colour previews in terminal")
	flags.IntVar(&opts.maxPasses, "max-passes", colour.DefaultMaxPasses, "maximum refinement passes")
	flags.IntVar(&opts.maxDimension, "max-dimension", 0, "downscale images larger than this many pixels per side (0 disables)")
	flags.BoolVar(&opts.dropEmpty, "drop-empty", false, "omit colours with no assigned pixels")
	return cmd
}

func runExtract(cmd *cobra.Command, a *app, opts *extractOptions, imagePath string) error {
	logger := a.logger.Named("extract")

	header, format, err := image.ReadConfig(imagePath)
	if err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}

	extractor, err := colour.NewLabExtractor(colour.ExtractorConfig{
		PaletteSize: opts.colours,
		MaxPasses:   opts.maxPasses,
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	config := extractor.Config()
	logger.Debug("extractor ready", "colours", config.PaletteSize, "max_passes", config.MaxPasses)

	logger.Debug("loading image", "path", imagePath, "format", format, "width", header.Width, "height", header.Height)
	img, err := image.NewFileLoader().Load(imagePath)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	img = image.Downscale(img, opts.maxDimension)
	palette, err := extractor.Extract(image.NewPixels(img), 0)
	if err != nil {
		return fmt.Errorf("failed to extract colours: %w", err)
	}
	if !palette.Converged {
		logger.Warn("palette refinement hit the pass cap", "passes", palette.Passes)
	}
	if opts.dropEmpty {
		palette = palette.Dominant()
	}
	logger.Debug("extracted palette", "colours", palette.Len(), "passes", palette.Passes)

	preview := opts.preview && opts.output == ""
	out := cmd.OutOrStdout()
	if preview && out == io.Writer(os.Stdout) && !colour.SupportsANSIColours(os.Stdout) {
		logger.Debug("terminal does not support colour, disabling preview")
		preview = false
	}

	output, err := formatPalette(palette, opts.format, preview)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := io.WriteString(out, output)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(output), 0o644); err != nil { // #nosec G306 - palette output is not sensitive
		return fmt.Errorf("failed to write output file: %w", err)
	}
	logger.Info("wrote palette", "path", opts.output)
	return nil
}

// formatPalette renders the palette in the requested format.
func formatPalette(palette *colour.Palette, format string, showPreview bool) (string, error) {
	switch format {
	case "hex":
		return formatHex(palette, showPreview), nil
	case "rgb":
		return formatRGB(palette, showPreview), nil
	case "text":
		return palette.Text() + "\n", nil
	case "json":
		jsonBytes, err := palette.ToJSON()
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(jsonBytes) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: hex, rgb, json, text)", format)
	}
}

func formatHex(palette *colour.Palette, showPreview bool) string {
	if !showPreview {
		if palette.Len() == 0 {
			return ""
		}
		return strings.Join(palette.ToHex(), "\n") + "\n"
	}
	var b strings.Builder
	for _, c := range palette.All() {
		b.WriteString(colour.FormatColourWithPreview(c, 8))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatRGB(palette *colour.Palette, showPreview bool) string {
	var b strings.Builder
	for _, c := range palette.All() {
		if showPreview {
			b.WriteString(colour.ColourPreview(c, 8))
			b.WriteString("  ")
		}
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}
