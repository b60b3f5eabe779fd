// Package light binds four panel sliders to the scene's key light.
package light

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/panel"
	"github.com/matzehuels/mapstyle/pkg/scene"
)

// FolderName is the panel folder holding the sliders.
const FolderName = "Light"

// Parameter names.
const (
	ParamX       = "x"
	ParamY       = "y"
	ParamDiffuse = "diffuse"
	ParamAmbient = "ambient"
)

// Range is a slider's bounds.
type Range struct{ Min, Max float64 }

// Ranges are the slider bounds per parameter.
var Ranges = map[string]Range{
	ParamX:       {-1, 1},
	ParamY:       {-1, 1},
	ParamDiffuse: {0, 2},
	ParamAmbient: {0, 1},
}

// Params are the panel's values.
type Params struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Diffuse float64 `json:"diffuse"`
	Ambient float64 `json:"ambient"`
}

// Defaults returns the starting values.
func Defaults() Params {
	return Params{X: 0.3, Y: 0.5, Diffuse: 1, Ambient: 0.5}
}

// Engine is the light store. *scene.Scene satisfies it.
type Engine interface {
	UpdateLight(name string, fn func(*scene.Light)) error
}

// sinks write one parameter into the light it controls.
var sinks = map[string]func(l *scene.Light, v float64){
	ParamX:       func(l *scene.Light, v float64) { l.Direction[0] = -v },
	ParamY:       func(l *scene.Light, v float64) { l.Direction[1] = -v },
	ParamDiffuse: func(l *scene.Light, v float64) { l.Diffuse = [4]float64{v, v, v, 0} },
	ParamAmbient: func(l *scene.Light, v float64) { l.Ambient = [4]float64{v, v, v, 1} },
}

// order is the slider order in the folder.
var order = []string{ParamX, ParamY, ParamDiffuse, ParamAmbient}

// Option configures a Panel.
type Option func(*Panel)

// WithLogger sets the logger for failed light writes.
func WithLogger(l *log.Logger) Option {
	return func(lp *Panel) {
		if l != nil {
			lp.logger = l
		}
	}
}

// Panel is the bound light control.
type Panel struct {
	engine  Engine
	params  Params
	folder  *panel.Folder
	ctrls   map[string]*panel.Controller
	changed map[string]bool
	logger  *log.Logger
}

// New adds the Light folder to p. The scene's key light is left as loaded
// until a slider moves; each slider then writes only its own field.
func New(engine Engine, p *panel.Panel, opts ...Option) (*Panel, error) {
	if engine == nil || p == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "light panel needs an engine and a panel")
	}
	lp := &Panel{
		engine:  engine,
		params:  Defaults(),
		ctrls:   make(map[string]*panel.Controller),
		changed: make(map[string]bool),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(lp)
	}
	lp.folder = p.AddFolder(FolderName)
	lp.folder.Open()

	for _, name := range order {
		r := Ranges[name]
		lp.ctrls[name] = lp.folder.AddNumber(name, lp.field(name), r.Min, r.Max).OnChange(func(v float64) {
			lp.write(name, v)
		})
	}
	return lp, nil
}

func (lp *Panel) field(name string) *float64 {
	switch name {
	case ParamX:
		return &lp.params.X
	case ParamY:
		return &lp.params.Y
	case ParamDiffuse:
		return &lp.params.Diffuse
	}
	return &lp.params.Ambient
}

// Params returns the current values.
func (lp *Panel) Params() Params { return lp.params }

// Folder returns the panel folder.
func (lp *Panel) Folder() *panel.Folder { return lp.folder }

// Changed lists the parameters moved since New, in slider order.
func (lp *Panel) Changed() []string {
	var names []string
	for _, name := range order {
		if lp.changed[name] {
			names = append(names, name)
		}
	}
	return names
}

// Set changes one parameter through its slider, clamping to range, and
// returns the stored value.
func (lp *Panel) Set(name string, v float64) (float64, error) {
	c, ok := lp.ctrls[name]
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidParam, "unknown light parameter %q", name)
	}
	return c.SetValue(v), nil
}

// Adopt moves the sliders prev has changed to prev's values. Untouched
// parameters keep this panel's scene light as loaded.
func (lp *Panel) Adopt(prev *Panel) {
	for _, name := range prev.Changed() {
		_, _ = lp.Set(name, *prev.field(name))
	}
}

func (lp *Panel) write(name string, v float64) {
	lp.changed[name] = true
	sink := sinks[name]
	if err := lp.engine.UpdateLight(scene.KeyLight, func(l *scene.Light) { sink(l, v) }); err != nil {
		lp.logger.Warn("write light", "param", name, "err", err)
	}
}
