package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/label/symbol"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadApply(t *testing.T) {
	path := writeConfig(t, `
root_url = "https://inv.example.com"
route = "container"
error_correction = "Q"
columns = 4
margin = 0.0
dpi = 150.0
text_height = 0.6
text_padding = 0

[cache]
backend = "redis"
redis_addr = "cache:6379"
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Path() != path {
		t.Errorf("Path() = %q", f.Path())
	}

	opts := pipeline.DefaultOptions()
	f.Apply(&opts)

	if opts.RootURL != "https://inv.example.com" || opts.Route != "container" {
		t.Errorf("locator options not applied: %q %q", opts.RootURL, opts.Route)
	}
	if opts.ErrorCorrection != symbol.Quartile {
		t.Errorf("ErrorCorrection = %v, want quartile", opts.ErrorCorrection)
	}
	if opts.Sheet.Columns != 4 || opts.Sheet.DPI != 150 {
		t.Errorf("sheet not applied: %+v", opts.Sheet)
	}
	if opts.Sheet.Margin != 0 {
		t.Errorf("explicit zero margin should override default, got %v", opts.Sheet.Margin)
	}
	if opts.TextHeight != 0.6 || opts.TextPadding != 0 {
		t.Errorf("text options = %g/%d, want 0.6/0", opts.TextHeight, opts.TextPadding)
	}
	opts.SetLabelDefaults()
	if opts.TextPadding != 0 {
		t.Errorf("explicit zero padding should survive defaults, got %d", opts.TextPadding)
	}
	if opts.SymbolDimension != pipeline.DefaultSymbolDimension {
		t.Errorf("unset key changed SymbolDimension to %d", opts.SymbolDimension)
	}

	c, err := f.CacheSettings()
	if err != nil {
		t.Fatalf("CacheSettings: %v", err)
	}
	if c.Backend != BackendRedis || c.RedisAddr != "cache:6379" {
		t.Errorf("cache = %+v", c)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeConfig(t, "colums = 4\n")
	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("err = %v, want INVALID_CONFIG", err)
	}
	if !strings.Contains(err.Error(), "colums") {
		t.Errorf("error should name the key: %v", err)
	}
}

func TestLoadBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad level", `error_correction = "X"`},
		{"wrong type", `columns = "eight"`},
		{"syntax", `root_url = `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestEmptyConfigChangesNothing(t *testing.T) {
	opts := pipeline.DefaultOptions()
	want := opts
	(&File{}).Apply(&opts)
	if opts != want {
		t.Errorf("empty config changed options: %+v", opts)
	}
}

func TestCacheSettingsDefaults(t *testing.T) {
	c, err := (&File{}).CacheSettings()
	if err != nil {
		t.Fatalf("CacheSettings: %v", err)
	}
	if c.Backend != BackendFile || c.Dir == "" || c.RedisAddr != DefaultRedisAddr {
		t.Errorf("defaults = %+v", c)
	}

	bad := &File{Cache: Cache{Backend: "memcached"}}
	if _, err := bad.CacheSettings(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	opts := pipeline.DefaultOptions()
	opts.Route = "site"
	opts.ErrorCorrection = symbol.High
	opts.TextHeight = 0.5

	data, err := Encode(opts, Cache{Backend: BackendNone})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `error_correction = "high"`) {
		t.Errorf("level should encode by name:\n%s", data)
	}

	f, err := Load(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("Load encoded config: %v", err)
	}
	got := pipeline.Options{}
	f.Apply(&got)
	if got.Route != "site" || got.ErrorCorrection != symbol.High || got.Sheet != opts.Sheet || got.TextHeight != 0.5 || got.TextPadding != opts.TextPadding {
		t.Errorf("round trip = %+v", got)
	}
}
