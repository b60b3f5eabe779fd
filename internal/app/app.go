// Package app assembles a loaded scene with its style manager, control
// panel, light panel and hover controller. The terminal UI and the HTTP
// server both drive one App.
package app

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/hover"
	"github.com/matzehuels/mapstyle/pkg/light"
	"github.com/matzehuels/mapstyle/pkg/panel"
	"github.com/matzehuels/mapstyle/pkg/scene"
	"github.com/matzehuels/mapstyle/pkg/style"
)

// Panel controller names outside the style and light folders.
const (
	DefaultButton = "Default"
	StylesFolder  = "Styles"
)

// Options configure an App.
type Options struct {
	Logger *log.Logger
	// Load is used by Load to fetch the scene and its sources.
	Load scene.LoadOptions
	// DiscardStale drops hover results that a newer move superseded.
	DiscardStale bool
}

// App is the interactive state around one scene. It is not safe for
// concurrent use; front ends serialize calls on their event loop.
type App struct {
	Scene   *scene.Scene
	Styles  *style.Manager
	Panel   *panel.Panel
	Light   *light.Panel
	Overlay *hover.Overlay
	Hover   *hover.Controller

	opts    Options
	logger  *log.Logger
	started bool
}

// Load reads the scene at location and assembles an App around it.
func Load(ctx context.Context, location string, opts Options) (*App, error) {
	if opts.Load.Logger == nil {
		opts.Load.Logger = opts.Logger
	}
	sc, err := scene.Load(ctx, location, opts.Load)
	if err != nil {
		return nil, err
	}
	return New(sc, opts)
}

// New assembles an App. The style catalog comes from the scene's declared
// styles, or the default catalog when it declares none.
func New(sc *scene.Scene, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	catalog, err := style.FromConfig(sc.Config())
	if err != nil {
		return nil, err
	}

	a := &App{
		Scene:   sc,
		Panel:   panel.New(),
		Overlay: &hover.Overlay{},
		opts:    opts,
		logger:  logger,
	}
	a.Styles, err = style.NewManager(sc, catalog,
		style.WithPanel(a.Panel),
		style.WithLogger(logger.WithPrefix("style")),
	)
	if err != nil {
		return nil, err
	}

	a.Panel.Root().AddButton(DefaultButton, func() {
		a.applyFromPanel("")
	})
	styles := a.Panel.AddFolder(StylesFolder)
	for _, name := range catalog.Names() {
		styles.AddButton(name, func() { a.applyFromPanel(name) })
	}

	a.Light, err = light.New(sc, a.Panel, light.WithLogger(logger.WithPrefix("light")))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Start waits for the scene to be ready, captures the style baseline and
// attaches the hover controller.
func (a *App) Start(ctx context.Context) error {
	if a.started {
		return nil
	}
	select {
	case <-a.Scene.Ready():
	case <-ctx.Done():
		return errors.Wrap(errors.ErrCodeNotReady, ctx.Err(), "scene %q not ready", a.Scene.Name())
	}
	if err := a.Styles.CaptureBaseline(); err != nil {
		return err
	}

	var hopts []hover.Option
	hopts = append(hopts, hover.WithLogger(a.logger.WithPrefix("hover")))
	if a.opts.DiscardStale {
		hopts = append(hopts, hover.DiscardStale())
	}
	h, err := hover.New(a.Scene, a.Overlay, hopts...)
	if err != nil {
		return err
	}
	a.Hover = h
	a.started = true
	a.logger.Debug("scene ready", "scene", a.Scene.Name(), "layers", len(a.Scene.LayerNames()))
	return nil
}

// Started reports whether Start succeeded.
func (a *App) Started() bool { return a.started }

// ApplyStyle switches to the named style. "" restores the baseline.
func (a *App) ApplyStyle(ctx context.Context, name string) error {
	if !a.started {
		return errors.New(errors.ErrCodeNotReady, "scene not started")
	}
	return a.Styles.Apply(ctx, name)
}

// StyleNames lists the catalog in order.
func (a *App) StyleNames() []string { return a.Styles.Catalog().Names() }

func (a *App) applyFromPanel(name string) {
	if err := a.ApplyStyle(context.Background(), name); err != nil {
		a.logger.Warn("apply style", "style", name, "err", err)
	}
}
