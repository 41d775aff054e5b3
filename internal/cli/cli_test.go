package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/ultramarine/internal/batch"
	"github.com/jmylchreest/ultramarine/internal/colour"
	"github.com/jmylchreest/ultramarine/internal/version"
)

// run executes the command tree with env as the only environment.
func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	getenv := func(k string) string { return env[k] }

	var out, errOut bytes.Buffer
	rootCmd := newRootCmd(getenv)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeImage writes a 4x4 PNG whose top three rows are top and bottom row
// is bottom.
func writeImage(t *testing.T, path string, top, bottom color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			c := top
			if y == 3 {
				c = bottom
			}
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func TestLoadConfig(t *testing.T) {
	defaults := DefaultConfig()

	tests := []struct {
		name    string
		env     map[string]string
		want    Config
		wantErr bool
	}{
		{name: "defaults", want: defaults},
		{
			name: "overrides",
			env:  map[string]string{EnvDB: "/tmp/x.db", EnvChunkSize: "4", EnvPaletteSize: "8"},
			want: Config{DBPath: "/tmp/x.db", ChunkSize: 4, PaletteSize: 8},
		},
		{name: "bad chunk size", env: map[string]string{EnvChunkSize: "zero"}, wantErr: true},
		{name: "zero chunk size", env: map[string]string{EnvChunkSize: "0"}, wantErr: true},
		{name: "palette too large", env: map[string]string{EnvPaletteSize: "257"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadConfig(func(k string) string { return tt.env[k] })
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if defaults.ChunkSize != batch.DefaultChunkSize || defaults.PaletteSize != 5 {
		t.Errorf("DefaultConfig() = %+v", defaults)
	}
}

func TestExtractCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.png")
	writeImage(t, path, red, blue)

	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{name: "hex", args: []string{"extract", path}, want: "#ff0000\n#0000ff\n"},
		{name: "rgb", args: []string{"extract", "-f", "rgb", path}, want: "rgb(255, 0, 0)\nrgb(0, 0, 255)\n"},
		{name: "text", args: []string{"extract", "--format", "text", path}, want: "ff0000-0000ff\n"},
		{name: "one colour", args: []string{"extract", "-c", "1", "-f", "text", path}, want: "e80050\n"},
		{
			name: "palette size from env",
			args: []string{"extract", "-f", "text", path},
			env:  map[string]string{EnvPaletteSize: "1"},
			want: "e80050\n",
		},
		{
			name: "flag beats env",
			args: []string{"extract", "-c", "2", "-f", "text", path},
			env:  map[string]string{EnvPaletteSize: "1"},
			want: "ff0000-0000ff\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.env, tt.args...)
			if err != nil {
				t.Fatalf("extract error = %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractCommandJSONAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wall.png")
	writeImage(t, path, red, blue)
	outPath := filepath.Join(dir, "palette.json")

	stdout, err := run(t, nil, "extract", "--format", "json", "--output", outPath, path)
	if err != nil {
		t.Fatalf("extract error = %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing when --output is set", stdout)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var got colour.PaletteJSON
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, data)
	}
	if got.Count != 2 || !got.Converged {
		t.Errorf("palette = %+v", got)
	}
	if got.Colours[0].Hex != "#ff0000" || got.Colours[0].Weight != 12 || got.Colours[1].Weight != 4 {
		t.Errorf("colours = %+v", got.Colours)
	}
}

func TestFormatHex(t *testing.T) {
	tests := []struct {
		name    string
		palette *colour.Palette
		want    string
	}{
		{name: "empty", palette: &colour.Palette{}, want: ""},
		{
			name:    "two colours",
			palette: &colour.Palette{Colours: []colour.RGB{{R: 0x8f, G: 0x73, B: 0x58}, {B: 0xff}}},
			want:    "#8f7358\n#0000ff\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatHex(tt.palette, false); got != tt.want {
				t.Errorf("formatHex() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractCommandErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.png")
	writeImage(t, path, red, blue)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing file", args: []string{"extract", filepath.Join(t.TempDir(), "nope.png")}},
		{name: "directory", args: []string{"extract", filepath.Dir(path)}},
		{name: "bad format", args: []string{"extract", "-f", "yaml", path}},
		{name: "too many colours", args: []string{"extract", "-c", "300", path}},
		{name: "no args", args: []string{"extract"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, nil, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"), red, red)
	writeImage(t, filepath.Join(dir, "b.png"), blue, blue)
	broken := filepath.Join(dir, "c.png")
	if err := os.WriteFile(broken, []byte("not a png"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := run(t, nil, "batch", "--chunk-size", "2", dir)
	if err != nil {
		t.Fatalf("batch error = %v", err)
	}
	want := filepath.Join(dir, "a.png") + " - Palette: ff0000\n" +
		filepath.Join(dir, "b.png") + " - Palette: 0000ff\n" +
		broken + " - Palette: error\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	out, err := run(t, nil, "batch", "--format", "json", filepath.Join(dir, "a.png"), broken)
	if err != nil {
		t.Fatalf("batch --format json error = %v", err)
	}
	var results []batchResultJSON
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(results) != 2 || results[0].Text != "ff0000" || results[1].Text != batch.ErrorText || results[1].Error == "" {
		t.Errorf("results = %+v", results)
	}

	if _, err := run(t, nil, "batch", "--format", "xml", dir); err == nil {
		t.Error("unsupported format should fail")
	}
}

func TestIndexWorkflow(t *testing.T) {
	dir := t.TempDir()
	reds := filepath.Join(dir, "reds.png")
	blues := filepath.Join(dir, "blues.png")
	writeImage(t, reds, red, color.NRGBA{R: 200, G: 20, B: 20, A: 255})
	writeImage(t, blues, blue, color.NRGBA{R: 20, G: 20, B: 200, A: 255})

	env := map[string]string{EnvDB: filepath.Join(t.TempDir(), "index", "palettes.db")}

	if _, err := run(t, env, "batch", "--index", reds, blues); err != nil {
		t.Fatalf("batch --index error = %v", err)
	}

	out, err := run(t, env, "search", "--limit", "1", "f00000")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("search output has %d lines, want header, separator and one match:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[2], reds) {
		t.Errorf("nearest match = %q, want %s", lines[2], reds)
	}

	if _, err := run(t, env, "remove", reds); err != nil {
		t.Fatalf("remove error = %v", err)
	}
	out, err = run(t, env, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if strings.Contains(out, reds) || !strings.Contains(out, blues) {
		t.Errorf("list after remove:\n%s", out)
	}

	if _, err := run(t, env, "search", "not-a-palette"); err == nil {
		t.Error("invalid search palette should fail")
	}
}

func TestBatchDBFlagImpliesIndex(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	writeImage(t, img, red, red)
	db := filepath.Join(dir, "explicit.db")

	if _, err := run(t, nil, "batch", "--db", db, img); err != nil {
		t.Fatalf("batch --db error = %v", err)
	}
	out, err := run(t, nil, "list", "--db", db)
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, img) || !strings.Contains(out, "ff0000") {
		t.Errorf("list output:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, nil, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if strings.TrimSpace(out) != version.String() {
		t.Errorf("version output = %q, want %q", out, version.String())
	}
}

func TestVerboseAndQuietAreExclusive(t *testing.T) {
	if _, err := run(t, nil, "--verbose", "--quiet", "version"); err == nil {
		t.Error("--verbose with --quiet should fail")
	}
}
