package style

import (
	"context"
	stderrors "errors"
	"io"
	"maps"
	"slices"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/observability"
	"github.com/matzehuels/mapstyle/pkg/panel"
)

// ErrBaselineCaptured is returned by a second CaptureBaseline call.
var ErrBaselineCaptured = stderrors.New("style: baseline already captured")

// Engine is the part of the live scene the manager mutates.
// *scene.Scene satisfies it.
type Engine interface {
	LayerNames() []string
	LayerStyle(layer string) (string, bool)
	SetLayerStyle(layer, style string) error
	ActiveCamera() string
	SetActiveCamera(name string) error
	SetUniform(style, name string, v float64)
	RebuildGeometry()
}

// Baseline is the scene's look before any style was applied.
type Baseline struct {
	// Layers maps each layer to its original style name.
	Layers map[string]string
	Camera string
}

// State is the per-apply parameter bag of the active style.
type State struct {
	style  string
	values map[string]*float64
	order  []string
}

func newState(style string) *State {
	return &State{style: style, values: make(map[string]*float64)}
}

// Style returns the style the bag belongs to.
func (s *State) Style() string { return s.style }

// Value returns the current value of a uniform.
func (s *State) Value(name string) (float64, bool) {
	v, ok := s.values[name]
	if !ok {
		return 0, false
	}
	return *v, true
}

// Names returns the uniform names in declaration order.
func (s *State) Names() []string { return slices.Clone(s.order) }

func (s *State) bind(name string, v float64) *float64 {
	if p, ok := s.values[name]; ok {
		*p = v
		return p
	}
	p := new(float64)
	*p = v
	s.values[name] = p
	s.order = append(s.order, name)
	return p
}

// Option configures a Manager.
type Option func(*Manager)

// WithPanel attaches the widget panel that hosts per-style folders.
func WithPanel(p *panel.Panel) Option {
	return func(m *Manager) { m.panel = p }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager applies catalog styles to an Engine. It is not safe for
// concurrent use; callers serialize it on their event loop.
type Manager struct {
	engine  Engine
	catalog *Catalog
	panel   *panel.Panel
	logger  *log.Logger

	baseline      *Baseline
	layerOrder    []string
	restoreCamera string
	active        string
	state         *State
	folder        *panel.Folder
}

// NewManager creates a manager over engine with the given catalog.
func NewManager(engine Engine, catalog *Catalog, opts ...Option) (*Manager, error) {
	if engine == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "style manager needs an engine")
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	m := &Manager{
		engine:  engine,
		catalog: catalog,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Catalog returns the manager's catalog.
func (m *Manager) Catalog() *Catalog { return m.catalog }

// CaptureBaseline records every layer's style and the active camera.
// It must run once, after the scene is ready.
func (m *Manager) CaptureBaseline() error {
	if m.baseline != nil {
		return ErrBaselineCaptured
	}
	b := &Baseline{Layers: make(map[string]string), Camera: m.engine.ActiveCamera()}
	for _, name := range m.engine.LayerNames() {
		st, ok := m.engine.LayerStyle(name)
		if !ok {
			continue
		}
		b.Layers[name] = st
		m.layerOrder = append(m.layerOrder, name)
	}
	m.baseline = b
	m.restoreCamera = b.Camera
	m.logger.Debug("baseline captured", "layers", len(b.Layers), "camera", b.Camera)
	return nil
}

// Baseline returns a copy of the captured snapshot.
func (m *Manager) Baseline() (Baseline, bool) {
	if m.baseline == nil {
		return Baseline{}, false
	}
	return Baseline{Layers: maps.Clone(m.baseline.Layers), Camera: m.baseline.Camera}, true
}

// Active returns the applied style name, or "" when none is.
func (m *Manager) Active() string { return m.active }

// RestoreCamera returns the camera the next Apply resets to.
func (m *Manager) RestoreCamera() string { return m.restoreCamera }

// State returns the active style's parameter bag, or nil.
func (m *Manager) State() *State { return m.state }

// Apply restores the baseline and then applies the named style. An empty
// or unknown name leaves the scene at its baseline.
func (m *Manager) Apply(ctx context.Context, name string) error {
	if m.baseline == nil {
		return errors.New(errors.ErrCodeNotReady, "apply %q before baseline capture", name)
	}
	start := time.Now()

	m.restore()

	desc, known := m.catalog.Lookup(name)
	if known {
		cam := desc.Camera
		if cam == "" {
			cam = m.baseline.Camera
		}
		m.setCamera(cam)
		m.restoreCamera = m.engine.ActiveCamera()
		m.active = name
		if desc.Setup != nil {
			m.state = newState(name)
			if m.panel != nil {
				m.folder = m.panel.AddFolder(folderName(name))
				m.folder.Open()
			}
			desc.Setup.run(&setupContext{ctx: ctx, m: m, style: name})
		}
	} else {
		if name != "" {
			m.logger.Debug("unknown style, clearing", "style", name)
		}
		m.setCamera(m.baseline.Camera)
		m.restoreCamera = m.baseline.Camera
		m.active = ""
	}

	m.engine.RebuildGeometry()
	if m.panel != nil {
		m.panel.RefreshAll()
	}

	dur := time.Since(start)
	m.logger.Info("style applied", "style", m.active, "camera", m.restoreCamera, "took", dur)
	observability.Style().OnApply(ctx, name, known, dur)
	return nil
}

func (m *Manager) restore() {
	for _, layer := range m.layerOrder {
		if err := m.engine.SetLayerStyle(layer, m.baseline.Layers[layer]); err != nil {
			m.logger.Warn("restore layer", "layer", layer, "err", err)
		}
	}
	if m.restoreCamera != "" {
		m.setCamera(m.restoreCamera)
	}
	if m.folder != nil {
		m.panel.RemoveFolder(m.folder)
		m.folder = nil
	}
	m.state = nil
}

func (m *Manager) setCamera(name string) {
	if name == "" || name == m.engine.ActiveCamera() {
		return
	}
	if err := m.engine.SetActiveCamera(name); err != nil {
		m.logger.Warn("set camera", "camera", name, "err", err)
	}
}

// folderName upper-cases the first letter of a style name.
func folderName(style string) string {
	r, n := utf8.DecodeRuneInString(style)
	if r == utf8.RuneError {
		return style
	}
	return string(unicode.ToUpper(r)) + style[n:]
}

type setupContext struct {
	ctx   context.Context
	m     *Manager
	style string
}

// bindLayer points layer at the style. Layers absent from the baseline or
// the engine are skipped.
func (sc *setupContext) bindLayer(layer string) {
	m := sc.m
	if _, ok := m.baseline.Layers[layer]; !ok {
		m.logger.Warn("style names a layer outside the baseline", "style", sc.style, "layer", layer)
		observability.Style().OnMissingLayer(sc.ctx, sc.style, layer)
		return
	}
	if err := m.engine.SetLayerStyle(layer, sc.style); err != nil {
		m.logger.Warn("style names a missing layer", "style", sc.style, "layer", layer, "err", err)
		observability.Style().OnMissingLayer(sc.ctx, sc.style, layer)
	}
}

func (sc *setupContext) bindUniform(u Uniform) {
	m, style := sc.m, sc.style
	v := clamp(u.Value, u.Min, u.Max)
	p := m.state.bind(u.Name, v)
	m.engine.SetUniform(style, u.Name, v)
	if m.folder == nil {
		return
	}
	name := u.Name
	m.folder.AddNumber(name, p, u.Min, u.Max).OnChange(func(v float64) {
		m.engine.SetUniform(style, name, v)
	})
}

func (a AssignLayers) run(sc *setupContext) {
	for _, layer := range a.Layers {
		sc.bindLayer(layer)
	}
	for _, u := range a.Uniforms {
		sc.bindUniform(u)
	}
}

func clamp(v, lo, hi float64) float64 {
	if lo >= hi {
		return v
	}
	return max(lo, min(hi, v))
}
