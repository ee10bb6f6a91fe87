// Package cli implements the labelsheet command-line interface.
//
// # Commands
//
//   - label: render one label as PNG
//   - sheet: render a record file as a PDF label sheet
//   - config: show, locate or initialise the config file
//   - cache: clear or locate the label cache
//
// Settings come from the config file (see pkg/config) and are overridden by
// flags. All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/buildinfo"
	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/config"
	"github.com/matzehuels/labelsheet/pkg/fonts"
	"github.com/matzehuels/labelsheet/pkg/observability"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "labelsheet"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Labelsheet prints QR code labels for inventory records",
		Long:         `Labelsheet turns inventory records into scannable labels, each a QR code linking to the record above its name, and tiles them on printable PDF sheets.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			hooks := observability.NewLogHooks(c.Logger)
			observability.SetPipelineHooks(hooks)
			observability.SetCacheHooks(hooks)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: user config dir)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the label cache")

	root.AddCommand(c.labelCommand())
	root.AddCommand(c.sheetCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Settings & Runner Factory
// =============================================================================

// settings is the effective configuration of one command run.
type settings struct {
	file  *config.File
	opts  pipeline.Options
	cache config.Cache
}

// loadSettings reads the config file and applies it over the defaults.
func (c *CLI) loadSettings() (*settings, error) {
	f, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	s := &settings{file: f, opts: pipeline.DefaultOptions()}
	f.Apply(&s.opts)
	if s.cache, err = f.CacheSettings(); err != nil {
		return nil, err
	}
	if c.noCache {
		s.cache.Backend = config.BackendNone
	}
	if f.Path() != "" {
		c.Logger.Debug("loaded config", "path", f.Path())
	}
	return s, nil
}

// newRunner creates a pipeline runner for the settings. The font is loaded
// here so a broken font fails before any work starts.
func (c *CLI) newRunner(ctx context.Context, s *settings) (*pipeline.Runner, error) {
	font, err := fonts.Load(s.opts.FontPath)
	if err != nil {
		return nil, err
	}
	store, err := c.openCache(ctx, s.cache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.CacheScope())
	c.Logger.Debug("runner ready", "font", font.Name, "cache", s.cache.Backend)
	return pipeline.NewRunner(store, keyer, font, c.Logger)
}

// openCache opens the configured backend. An unreachable Redis server
// degrades to no caching with a warning.
func (c *CLI) openCache(ctx context.Context, s config.Cache) (cache.Cache, error) {
	switch s.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
			Prefix:   appName + ":",
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, continuing without cache", "addr", s.RedisAddr, "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	default:
		fc, err := cache.NewFileCache(s.Dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, continuing without cache", "dir", s.Dir, "err", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}
