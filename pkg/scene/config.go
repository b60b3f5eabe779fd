package scene

import (
	"slices"
	"strings"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/source"
)

// Camera types.
const (
	CameraPerspective = "perspective"
	CameraIsometric   = "isometric"
	CameraFlat        = "flat"
)

// KeyLight is the light driven by the light panel.
const KeyLight = "key"

// Config is the decoded scene file.
type Config struct {
	Name        string                   `toml:"name" yaml:"name"`
	Attribution string                   `toml:"attribution" yaml:"attribution"`
	Camera      string                   `toml:"camera" yaml:"camera"`
	Start       string                   `toml:"start" yaml:"start"`
	Cameras     map[string]CameraConfig  `toml:"cameras" yaml:"cameras"`
	Lights      map[string]LightConfig   `toml:"lights" yaml:"lights"`
	Sources     map[string]source.Config `toml:"sources" yaml:"sources"`
	Layers      map[string]LayerConfig   `toml:"layers" yaml:"layers"`
	Styles      []StyleConfig            `toml:"styles" yaml:"styles"`
}

// CameraConfig declares a camera.
type CameraConfig struct {
	Type string `toml:"type" yaml:"type"`
}

// LightConfig declares a light. Direction has two components, colors four.
type LightConfig struct {
	Type      string    `toml:"type" yaml:"type"`
	Direction []float64 `toml:"direction" yaml:"direction"`
	Diffuse   []float64 `toml:"diffuse" yaml:"diffuse"`
	Ambient   []float64 `toml:"ambient" yaml:"ambient"`
}

// LayerConfig declares a layer: which source feeds it, which features of
// that source it keeps and the style it starts with.
type LayerConfig struct {
	Source string            `toml:"source" yaml:"source"`
	Style  string            `toml:"style" yaml:"style"`
	Order  int               `toml:"order" yaml:"order"`
	Filter map[string]string `toml:"filter" yaml:"filter"`
}

// StyleConfig declares an entry of the style catalog.
type StyleConfig struct {
	Name     string          `toml:"name" yaml:"name"`
	Camera   string          `toml:"camera" yaml:"camera"`
	Layers   []string        `toml:"layers" yaml:"layers"`
	Uniforms []UniformConfig `toml:"uniforms" yaml:"uniforms"`
}

// UniformConfig declares a numeric shader parameter exposed while a style is active.
type UniformConfig struct {
	Name  string  `toml:"name" yaml:"name"`
	Value float64 `toml:"value" yaml:"value"`
	Min   float64 `toml:"min" yaml:"min"`
	Max   float64 `toml:"max" yaml:"max"`
}

// Validate checks references between sections.
func (c *Config) Validate() error {
	if len(c.Layers) == 0 {
		return errors.New(errors.ErrCodeInvalidScene, "scene declares no layers")
	}

	for name, cam := range c.Cameras {
		switch strings.ToLower(cam.Type) {
		case CameraPerspective, CameraIsometric, CameraFlat:
		default:
			return errors.New(errors.ErrCodeInvalidCamera, "camera %q: unknown type %q", name, cam.Type)
		}
	}
	if c.Camera != "" {
		if _, ok := c.Cameras[c.Camera]; !ok {
			return errors.New(errors.ErrCodeCameraNotFound, "active camera %q is not declared", c.Camera)
		}
	}

	for name, l := range c.Lights {
		if l.Direction != nil && len(l.Direction) != 2 {
			return errors.New(errors.ErrCodeInvalidScene, "light %q: direction needs 2 components", name)
		}
		if l.Diffuse != nil && len(l.Diffuse) != 4 {
			return errors.New(errors.ErrCodeInvalidScene, "light %q: diffuse needs 4 components", name)
		}
		if l.Ambient != nil && len(l.Ambient) != 4 {
			return errors.New(errors.ErrCodeInvalidScene, "light %q: ambient needs 4 components", name)
		}
	}

	for name, src := range c.Sources {
		if err := src.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "source %q", name)
		}
	}

	for name, l := range c.Layers {
		if err := errors.ValidateLayerName(name); err != nil {
			return err
		}
		if l.Source != "" {
			if _, ok := c.Sources[l.Source]; !ok {
				return errors.New(errors.ErrCodeInvalidScene, "layer %q: unknown source %q", name, l.Source)
			}
		}
	}

	seen := map[string]bool{}
	for _, s := range c.Styles {
		if s.Name == "" {
			return errors.New(errors.ErrCodeInvalidStyle, "style without a name")
		}
		if err := errors.ValidateStyleName(s.Name); err != nil {
			return err
		}
		if seen[s.Name] {
			return errors.New(errors.ErrCodeInvalidStyle, "duplicate style %q", s.Name)
		}
		seen[s.Name] = true
		if s.Camera != "" {
			if _, ok := c.Cameras[s.Camera]; !ok {
				return errors.New(errors.ErrCodeCameraNotFound, "style %q: camera %q is not declared", s.Name, s.Camera)
			}
		}
		for _, u := range s.Uniforms {
			if u.Name == "" || u.Min > u.Max {
				return errors.New(errors.ErrCodeInvalidParam, "style %q: invalid uniform %q", s.Name, u.Name)
			}
		}
	}
	return nil
}

// StyleNames returns the declared styles in file order.
func (c *Config) StyleNames() []string {
	out := make([]string, len(c.Styles))
	for i, s := range c.Styles {
		out[i] = s.Name
	}
	return out
}

// Style returns the declared style called name.
func (c *Config) Style(name string) (StyleConfig, bool) {
	i := slices.IndexFunc(c.Styles, func(s StyleConfig) bool { return s.Name == name })
	if i < 0 {
		return StyleConfig{}, false
	}
	return c.Styles[i], true
}
