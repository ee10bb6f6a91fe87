// Package config loads labelsheet settings from a TOML file.
//
// The file mirrors pipeline.Options plus a [cache] table:
//
//	root_url = "https://inventory.example.com"
//	route = "container"
//	error_correction = "medium"
//	columns = 8
//	margin = 0.76
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
// Only keys present in the file override defaults, so an explicit zero
// (for example margin = 0) is honoured. Unknown keys are rejected.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/label/symbol"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/sheet/layout"
)

// Cache backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// DefaultRedisAddr is used when the redis backend has no address.
const DefaultRedisAddr = "localhost:6379"

// File is the on-disk configuration.
type File struct {
	RootURL         string       `toml:"root_url"`
	Route           string       `toml:"route"`
	SymbolDimension int          `toml:"symbol_dimension"`
	LabelAspect     float64      `toml:"label_aspect"`
	ErrorCorrection symbol.Level `toml:"error_correction"`
	Font            string       `toml:"font"`
	TextHeight      float64      `toml:"text_height"`
	TextPadding     int          `toml:"text_padding"`
	Workers         int          `toml:"workers"`

	PageWidth  layout.Length `toml:"page_width"`
	PageHeight layout.Length `toml:"page_height"`
	PitchX     layout.Length `toml:"pitch_x"`
	PitchY     layout.Length `toml:"pitch_y"`
	Margin     layout.Length `toml:"margin"`
	Columns    int           `toml:"columns"`
	DPI        float64       `toml:"dpi"`

	Cache Cache `toml:"cache"`

	meta toml.MetaData
	path string
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// DefaultPath returns the per-user config file location,
// e.g. ~/.config/labelsheet/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "labelsheet", "config.toml"), nil
}

// DefaultCacheDir returns the per-user cache directory.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "labelsheet-cache")
	}
	return filepath.Join(dir, "labelsheet")
}

// Load reads the config at path. An empty path means DefaultPath, and a
// missing default file yields an empty config; a missing explicit path is
// an error.
func Load(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return &File{}, nil
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return &File{}, nil
	}

	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	f.meta = meta
	f.path = path
	return &f, nil
}

// Path returns the file the config was read from, or "" for an empty config.
func (f *File) Path() string { return f.path }

// Apply copies every key present in the file onto opts.
func (f *File) Apply(opts *pipeline.Options) {
	set := f.meta.IsDefined
	if set("root_url") {
		opts.RootURL = f.RootURL
	}
	if set("route") {
		opts.Route = f.Route
	}
	if set("symbol_dimension") {
		opts.SymbolDimension = f.SymbolDimension
	}
	if set("label_aspect") {
		opts.LabelAspect = f.LabelAspect
	}
	if set("error_correction") {
		opts.ErrorCorrection = f.ErrorCorrection
	}
	if set("font") {
		opts.FontPath = f.Font
	}
	if set("text_height") {
		opts.TextHeight = f.TextHeight
	}
	if set("text_padding") {
		opts.TextPadding = f.TextPadding
	}
	if set("workers") {
		opts.Workers = f.Workers
	}
	if set("page_width") {
		opts.Sheet.PageWidth = f.PageWidth
	}
	if set("page_height") {
		opts.Sheet.PageHeight = f.PageHeight
	}
	if set("pitch_x") {
		opts.Sheet.PitchX = f.PitchX
	}
	if set("pitch_y") {
		opts.Sheet.PitchY = f.PitchY
	}
	if set("margin") {
		opts.Sheet.Margin = f.Margin
	}
	if set("columns") {
		opts.Sheet.Columns = f.Columns
	}
	if set("dpi") {
		opts.Sheet.DPI = f.DPI
	}
}

// CacheSettings returns the cache table with defaults filled in.
func (f *File) CacheSettings() (Cache, error) {
	c := f.Cache
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	switch c.Backend {
	case BackendNone, BackendFile, BackendRedis:
	default:
		return c, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (must be one of: none, file, redis)", c.Backend)
	}
	if c.Dir == "" {
		c.Dir = DefaultCacheDir()
	}
	if c.RedisAddr == "" {
		c.RedisAddr = DefaultRedisAddr
	}
	return c, nil
}

// Encode renders opts and cache settings as a complete config file.
func Encode(opts pipeline.Options, c Cache) ([]byte, error) {
	f := File{
		RootURL:         opts.RootURL,
		Route:           opts.Route,
		SymbolDimension: opts.SymbolDimension,
		LabelAspect:     opts.LabelAspect,
		ErrorCorrection: opts.ErrorCorrection,
		Font:            opts.FontPath,
		TextHeight:      opts.TextHeight,
		TextPadding:     opts.TextPadding,
		Workers:         opts.Workers,
		PageWidth:       opts.Sheet.PageWidth,
		PageHeight:      opts.Sheet.PageHeight,
		PitchX:          opts.Sheet.PitchX,
		PitchY:          opts.Sheet.PitchY,
		Margin:          opts.Sheet.Margin,
		Columns:         opts.Sheet.Columns,
		DPI:             opts.Sheet.DPI,
		Cache:           c,
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return buf.Bytes(), nil
}
