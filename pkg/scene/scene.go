package scene

import (
	"io"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/feature"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

// Default surface size before a front end reports its own.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Camera is a declared camera.
type Camera struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Light is the lighting state the renderer reads. Direction is the x/y
// component of the light vector; Diffuse and Ambient are RGBA.
type Light struct {
	Type      string     `json:"type"`
	Direction [2]float64 `json:"direction"`
	Diffuse   [4]float64 `json:"diffuse"`
	Ambient   [4]float64 `json:"ambient"`
}

// DefaultKeyLight is used when a scene declares no key light.
var DefaultKeyLight = Light{
	Type:      "directional",
	Direction: [2]float64{-0.3, -0.5},
	Diffuse:   [4]float64{1, 1, 1, 0},
	Ambient:   [4]float64{0.5, 0.5, 0.5, 1},
}

// LayerInfo is a read-only view of a layer.
type LayerInfo struct {
	Name     string `json:"name"`
	Style    string `json:"style"`
	Source   string `json:"source,omitempty"`
	Order    int    `json:"order"`
	Features int    `json:"features"`
}

type layer struct {
	name     string
	style    string
	source   string
	order    int
	filter   map[string]string
	features []*feature.Feature
}

// Scene is the live, mutable map scene.
type Scene struct {
	mu sync.RWMutex

	cfg        Config
	layers     map[string]*layer
	cameras    map[string]Camera
	camera     string
	lights     map[string]*Light
	uniforms   map[string]map[string]float64
	panning    bool
	view       viewport.View
	generation uint64

	ready     chan struct{}
	readyOnce sync.Once
	logger    *log.Logger
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the scene's logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Scene) { s.logger = l }
}

// New builds an empty scene from cfg. Layers exist but hold no features
// and the scene is not ready; [Load] fills sources and marks it ready.
func New(cfg Config, opts ...Option) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scene{
		cfg:      cfg,
		layers:   make(map[string]*layer, len(cfg.Layers)),
		cameras:  make(map[string]Camera),
		lights:   make(map[string]*Light),
		uniforms: make(map[string]map[string]float64),
		ready:    make(chan struct{}),
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	for name, lc := range cfg.Layers {
		s.layers[name] = &layer{
			name:   name,
			style:  lc.Style,
			source: lc.Source,
			order:  lc.Order,
			filter: lc.Filter,
		}
	}

	for name, cc := range cfg.Cameras {
		s.cameras[name] = Camera{Name: name, Type: strings.ToLower(cc.Type)}
	}
	if len(s.cameras) == 0 {
		s.cameras[CameraPerspective] = Camera{Name: CameraPerspective, Type: CameraPerspective}
	}
	s.camera = cfg.Camera
	if s.camera == "" {
		s.camera = firstCamera(s.cameras)
	}

	for name, lc := range cfg.Lights {
		s.lights[name] = lightFromConfig(lc)
	}
	if _, ok := s.lights[KeyLight]; !ok {
		key := DefaultKeyLight
		s.lights[KeyLight] = &key
	}

	for _, st := range cfg.Styles {
		if len(st.Uniforms) == 0 {
			continue
		}
		u := make(map[string]float64, len(st.Uniforms))
		for _, uc := range st.Uniforms {
			u[uc.Name] = uc.Value
		}
		s.uniforms[st.Name] = u
	}

	start := viewport.Default()
	if cfg.Start != "" {
		start = viewport.Resolve("", cfg.Start)
	}
	s.view = viewport.View{Center: start, Width: DefaultWidth, Height: DefaultHeight}
	return s, nil
}

func firstCamera(cams map[string]Camera) string {
	if _, ok := cams[CameraPerspective]; ok {
		return CameraPerspective
	}
	names := make([]string, 0, len(cams))
	for n := range cams {
		names = append(names, n)
	}
	sort.Strings(names)
	return names[0]
}

func lightFromConfig(lc LightConfig) *Light {
	l := DefaultKeyLight
	if lc.Type != "" {
		l.Type = lc.Type
	}
	copy(l.Direction[:], lc.Direction)
	copy(l.Diffuse[:], lc.Diffuse)
	copy(l.Ambient[:], lc.Ambient)
	return &l
}

// Config returns the configuration the scene was built from.
func (s *Scene) Config() Config { return s.cfg }

// Snapshot returns the configuration with the live layer styles, active
// camera and lights written back, ready to be encoded as a scene file.
func (s *Scene) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := s.cfg
	cfg.Camera = s.camera
	cfg.Layers = make(map[string]LayerConfig, len(s.cfg.Layers))
	for name, lc := range s.cfg.Layers {
		if l, ok := s.layers[name]; ok {
			lc.Style = l.style
		}
		cfg.Layers[name] = lc
	}
	cfg.Lights = make(map[string]LightConfig, len(s.lights))
	for name, l := range s.lights {
		cfg.Lights[name] = LightConfig{
			Type:      l.Type,
			Direction: slices.Clone(l.Direction[:]),
			Diffuse:   slices.Clone(l.Diffuse[:]),
			Ambient:   slices.Clone(l.Ambient[:]),
		}
	}
	return cfg
}

// Name returns the scene name.
func (s *Scene) Name() string { return s.cfg.Name }

// Attribution returns the data attribution line.
func (s *Scene) Attribution() string { return s.cfg.Attribution }

// =============================================================================
// Readiness
// =============================================================================

// Ready is closed once the scene's sources are loaded.
func (s *Scene) Ready() <-chan struct{} { return s.ready }

// IsReady reports whether Ready has fired.
func (s *Scene) IsReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// MarkReady closes the Ready channel. Later calls do nothing.
func (s *Scene) MarkReady() {
	s.readyOnce.Do(func() {
		s.logger.Debug("scene ready", "name", s.cfg.Name, "layers", len(s.layers))
		close(s.ready)
	})
}

// =============================================================================
// Layers
// =============================================================================

// LayerNames returns layer names bottom to top in draw order.
func (s *Scene) LayerNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls := s.sortedLayers()
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.name
	}
	return out
}

// Layers returns every layer bottom to top.
func (s *Scene) Layers() []LayerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls := s.sortedLayers()
	out := make([]LayerInfo, len(ls))
	for i, l := range ls {
		out[i] = LayerInfo{Name: l.name, Style: l.style, Source: l.source, Order: l.order, Features: len(l.features)}
	}
	return out
}

func (s *Scene) sortedLayers() []*layer {
	out := make([]*layer, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].order != out[j].order {
			return out[i].order < out[j].order
		}
		return out[i].name < out[j].name
	})
	return out
}

// LayerStyle returns the style currently bound to a layer.
func (s *Scene) LayerStyle(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layers[name]
	if !ok {
		return "", false
	}
	return l.style, true
}

// SetLayerStyle binds style to layer name.
func (s *Scene) SetLayerStyle(name, style string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[name]
	if !ok {
		return errors.New(errors.ErrCodeLayerNotFound, "layer %q", name)
	}
	l.style = style
	return nil
}

// AddFeatures appends features to a layer, tagging them with the layer name.
func (s *Scene) AddFeatures(name string, fs ...*feature.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[name]
	if !ok {
		return errors.New(errors.ErrCodeLayerNotFound, "layer %q", name)
	}
	for _, f := range fs {
		c := *f
		c.Layer = name
		l.features = append(l.features, &c)
	}
	return nil
}

// =============================================================================
// Cameras
// =============================================================================

// Cameras returns the declared cameras sorted by name.
func (s *Scene) Cameras() []Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Camera, 0, len(s.cameras))
	for _, c := range s.cameras {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ActiveCamera returns the active camera's name.
func (s *Scene) ActiveCamera() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// SetActiveCamera switches the active camera.
func (s *Scene) SetActiveCamera(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cameras[name]; !ok {
		return errors.New(errors.ErrCodeCameraNotFound, "camera %q", name)
	}
	s.camera = name
	return nil
}

// =============================================================================
// Lights and uniforms
// =============================================================================

// Light returns a copy of the named light.
func (s *Scene) Light(name string) (Light, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lights[name]
	if !ok {
		return Light{}, false
	}
	return *l, true
}

// UpdateLight applies fn to the named light under the write lock.
func (s *Scene) UpdateLight(name string, fn func(*Light)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lights[name]
	if !ok {
		return errors.New(errors.ErrCodeLightNotFound, "light %q", name)
	}
	fn(l)
	return nil
}

// Uniform returns a style's shader parameter.
func (s *Scene) Uniform(style, name string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.uniforms[style][name]
	return v, ok
}

// SetUniform sets a style's shader parameter.
func (s *Scene) SetUniform(style, name string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uniforms[style]
	if !ok {
		u = make(map[string]float64)
		s.uniforms[style] = u
	}
	u[name] = v
}

// =============================================================================
// Rendering state
// =============================================================================

// RebuildGeometry invalidates derived render state so the next frame
// reflects the current layer bindings.
func (s *Scene) RebuildGeometry() {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()
	s.logger.Debug("rebuild geometry", "generation", gen)
}

// Generation counts RebuildGeometry calls.
func (s *Scene) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Panning reports whether a pan/drag is in progress.
func (s *Scene) Panning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panning
}

// SetPanning marks the start or end of a pan/drag.
func (s *Scene) SetPanning(p bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panning = p
}

// View returns the current viewport.
func (s *Scene) View() viewport.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetCenter moves the viewport.
func (s *Scene) SetCenter(loc viewport.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Center = loc
	return nil
}

// SetSize resizes the render surface. Non-positive sizes are ignored.
func (s *Scene) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Width, s.view.Height = width, height
}

// Pan drags the map content by (dx, dy) pixels and returns the new center.
func (s *Scene) Pan(dx, dy float64) viewport.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Center = s.view.Pan(dx, dy)
	return s.view.Center
}

// Zoom changes the zoom level by delta, clamped to the tile pyramid.
func (s *Scene) Zoom(delta float64) viewport.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := s.view.Center.Zoom + delta
	s.view.Center.Zoom = max(viewport.MinZoom, min(viewport.MaxZoom, z))
	return s.view.Center
}
