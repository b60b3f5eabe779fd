package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mapstyle/internal/app"
	"github.com/matzehuels/mapstyle/pkg/buildinfo"
	"github.com/matzehuels/mapstyle/pkg/cache"
	"github.com/matzehuels/mapstyle/pkg/httputil"
	"github.com/matzehuels/mapstyle/pkg/scene"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mapstyle"

	// defaultScene is the scene loaded when no path is given.
	defaultScene = "scene.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
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
		Short:        "Mapstyle switches the look of a vector map scene",
		Long:         `Mapstyle loads a map scene, lets you switch between named styles, tune the key light and hover features for their names, in the terminal or over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.stylesCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.pickCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Scene Loading
// =============================================================================

// sceneFlags are the flags shared by every command that loads a scene.
type sceneFlags struct {
	noCache bool
	// store, when set, replaces the file cache.
	store cache.Cache
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "do not cache remote scenes and sources")
}

// scenePath returns the scene argument or the default scene file.
func scenePath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return defaultScene
}

// appOptions fills the scene loading options of opts: the fetch cache, the
// cache keyer and loggers taken from ctx.
func appOptions(ctx context.Context, flags sceneFlags, opts app.Options) (app.Options, error) {
	logger := loggerFromContext(ctx)
	if opts.Logger == nil {
		opts.Logger = logger
	}
	c := flags.store
	keyer := cache.NewDefaultKeyer()
	if c != nil {
		keyer = cache.NewPrefixKeyer(keyer, appName+":")
	} else {
		var err error
		if c, err = newCache(flags.noCache); err != nil {
			return opts, err
		}
	}
	opts.Load = scene.LoadOptions{
		Fetcher: newFetcher(c, logger),
		Keyer:   keyer,
		Logger:  logger.WithPrefix("scene"),
	}
	return opts, nil
}

// loadApp reads the scene at location behind a spinner and assembles an App
// around it. The App is started before it is returned.
func loadApp(ctx context.Context, location string, flags sceneFlags, opts app.Options) (*app.App, error) {
	opts, err := appOptions(ctx, flags, opts)
	if err != nil {
		return nil, err
	}

	prog := newProgress(loggerFromContext(ctx))
	spin := newSpinner(ctx, os.Stderr, "Loading "+location)
	spin.start()
	defer spin.stop()
	a, err := app.Load(ctx, location, opts)
	if err != nil {
		return nil, err
	}
	spin.update("Capturing baseline of " + a.Scene.Name())
	if err := a.Start(ctx); err != nil {
		return nil, err
	}
	spin.stop()
	prog.done("Loaded scene " + a.Scene.Name())
	return a, nil
}

func newFetcher(c cache.Cache, logger *log.Logger) *httputil.Fetcher {
	return httputil.NewFetcher(c, httputil.WithLogger(logger.WithPrefix("fetch")))
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mapstyle/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// sessionDir returns the directory of the terminal UI's saved views.
func sessionDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "sessions"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "sessions"), nil
}
