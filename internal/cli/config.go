package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/jmylchreest/ultramarine/internal/batch"
	"github.com/jmylchreest/ultramarine/internal/colour"
)

// Environment variables read at startup. Flags override them.
const (
	EnvDB          = "ULTRAMARINE_DB"
	EnvChunkSize   = "ULTRAMARINE_CHUNK_SIZE"
	EnvPaletteSize = "ULTRAMARINE_PALETTE_SIZE"
)

// Config holds settings shared by several commands.
type Config struct {
	DBPath      string
	ChunkSize   int
	PaletteSize int
}

// DefaultConfig returns built-in defaults. The index lives in the user cache
// directory when one is available.
func DefaultConfig() Config {
	dbPath := "ultramarine.db"
	if dir, err := os.UserCacheDir(); err == nil {
		dbPath = filepath.Join(dir, "ultramarine", "palettes.db")
	}
	return Config{
		DBPath:      dbPath,
		ChunkSize:   batch.DefaultChunkSize,
		PaletteSize: colour.DefaultExtractorConfig().PaletteSize,
	}
}

// LoadConfig applies environment overrides, looked up with getenv, on top of
// DefaultConfig.
func LoadConfig(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	if v := getenv(EnvDB); v != "" {
		cfg.DBPath = v
	}
	if v := getenv(EnvChunkSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("invalid %s %q: must be a positive integer", EnvChunkSize, v)
		}
		cfg.ChunkSize = n
	}
	if v := getenv(EnvPaletteSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > colour.MaxPaletteSize {
			return cfg, fmt.Errorf("invalid %s %q: must be between 1 and %d", EnvPaletteSize, v, colour.MaxPaletteSize)
		}
		cfg.PaletteSize = n
	}
	return cfg, nil
}

// applyTo copies configured values into flags the user did not set. Flags
// that a command does not define are skipped, and Changed stays false.
func (c Config) applyTo(flags *pflag.FlagSet) error {
	values := map[string]string{
		"db":         c.DBPath,
		"chunk-size": strconv.Itoa(c.ChunkSize),
		"colours":    strconv.Itoa(c.PaletteSize),
	}
	for name, value := range values {
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if err := f.Value.Set(value); err != nil {
			return fmt.Errorf("invalid configured value for --%s: %w", name, err)
		}
	}
	return nil
}
