package style

import (
	"slices"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/scene"
)

// Setup is the closed set of style setup variants.
type Setup interface {
	run(sc *setupContext)
}

// Uniform is a tunable shader parameter shown in the style's panel folder.
type Uniform struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

// AssignLayers binds the style's name to each listed layer and publishes
// its uniforms.
type AssignLayers struct {
	Layers   []string
	Uniforms []Uniform
}

// Descriptor is one catalog entry.
type Descriptor struct {
	Name string
	// Camera, when set, is activated by the style.
	Camera string
	// Setup, when nil, makes the style a camera pin only.
	Setup Setup
}

// Catalog is an ordered set of descriptors keyed by name.
type Catalog struct {
	order  []string
	byName map[string]Descriptor
}

// NewCatalog builds a catalog, keeping the given order.
func NewCatalog(ds ...Descriptor) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Descriptor, len(ds))}
	for _, d := range ds {
		if d.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "style without a name")
		}
		if err := errors.ValidateStyleName(d.Name); err != nil {
			return nil, err
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "duplicate style %q", d.Name)
		}
		c.order = append(c.order, d.Name)
		c.byName[d.Name] = d
	}
	return c, nil
}

// MustCatalog is NewCatalog for static tables; it panics on error.
func MustCatalog(ds ...Descriptor) *Catalog {
	c, err := NewCatalog(ds...)
	if err != nil {
		panic(err)
	}
	return c
}

// Names returns style names in catalog order.
func (c *Catalog) Names() []string { return slices.Clone(c.order) }

// Len returns the number of styles.
func (c *Catalog) Len() int { return len(c.order) }

// Lookup returns the descriptor for name.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// Descriptors returns all descriptors in catalog order.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, len(c.order))
	for i, n := range c.order {
		out[i] = c.byName[n]
	}
	return out
}

// DefaultCatalog is the built-in style set used when a scene declares none.
func DefaultCatalog() *Catalog {
	return MustCatalog(
		Descriptor{Name: "water", Setup: AssignLayers{Layers: []string{"water"}}},
		Descriptor{Name: "elevator", Setup: AssignLayers{Layers: []string{"buildings"}}},
		Descriptor{Name: "colorhalftone", Setup: AssignLayers{
			Layers: []string{"buildings", "water", "landuse", "earth"},
		}},
		Descriptor{Name: "windows", Camera: scene.CameraIsometric, Setup: AssignLayers{
			Layers: []string{"buildings"},
		}},
	)
}

// FromConfig converts a scene's declared styles. A scene without styles
// gets the default catalog.
func FromConfig(cfg scene.Config) (*Catalog, error) {
	if len(cfg.Styles) == 0 {
		return DefaultCatalog(), nil
	}
	ds := make([]Descriptor, 0, len(cfg.Styles))
	for _, sc := range cfg.Styles {
		d := Descriptor{Name: sc.Name, Camera: sc.Camera}
		if len(sc.Layers) > 0 || len(sc.Uniforms) > 0 {
			a := AssignLayers{Layers: slices.Clone(sc.Layers)}
			for _, u := range sc.Uniforms {
				a.Uniforms = append(a.Uniforms, Uniform(u))
			}
			d.Setup = a
		}
		ds = append(ds, d)
	}
	return NewCatalog(ds...)
}
