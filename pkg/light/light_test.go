package light

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/panel"
	"github.com/matzehuels/mapstyle/pkg/scene"
)

type fakeEngine struct {
	key    scene.Light
	writes int
}

func (e *fakeEngine) UpdateLight(name string, fn func(*scene.Light)) error {
	if name != scene.KeyLight {
		return errors.New(errors.ErrCodeLightNotFound, "light %q", name)
	}
	fn(&e.key)
	e.writes++
	return nil
}

func sceneKey() scene.Light {
	return scene.Light{
		Type:      "directional",
		Direction: [2]float64{0.9, 0.8},
		Diffuse:   [4]float64{2, 2, 2, 0},
		Ambient:   [4]float64{0.1, 0.1, 0.1, 1},
	}
}

func TestNewLeavesSceneLight(t *testing.T) {
	e := &fakeEngine{key: sceneKey()}
	p := panel.New()
	lp, err := New(e, p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if lp.Params() != Defaults() {
		t.Errorf("Params() = %+v", lp.Params())
	}
	if e.key != sceneKey() || e.writes != 0 {
		t.Errorf("key light = %+v after %d writes, want the scene's light untouched", e.key, e.writes)
	}
	if len(lp.Changed()) != 0 {
		t.Errorf("Changed() = %v", lp.Changed())
	}
	if _, ok := p.Folder(FolderName); !ok {
		t.Error("Light folder missing")
	}
}

func TestSliderWritesOnlyItsField(t *testing.T) {
	tests := []struct {
		param string
		want  func(*scene.Light)
	}{
		{ParamX, func(l *scene.Light) { l.Direction[0] = -0.4 }},
		{ParamY, func(l *scene.Light) { l.Direction[1] = -0.4 }},
		{ParamDiffuse, func(l *scene.Light) { l.Diffuse = [4]float64{0.4, 0.4, 0.4, 0} }},
		{ParamAmbient, func(l *scene.Light) { l.Ambient = [4]float64{0.4, 0.4, 0.4, 1} }},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			e := &fakeEngine{key: sceneKey()}
			lp, err := New(e, panel.New())
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if _, err := lp.Set(tt.param, 0.4); err != nil {
				t.Fatal(err)
			}
			want := sceneKey()
			tt.want(&want)
			if e.key != want {
				t.Errorf("key light = %+v, want %+v", e.key, want)
			}
			if got := lp.Changed(); len(got) != 1 || got[0] != tt.param {
				t.Errorf("Changed() = %v", got)
			}
		})
	}
}

func TestWriteWithoutKeyLightWarns(t *testing.T) {
	var buf bytes.Buffer
	lp, err := New(noKeyEngine{}, panel.New(), WithLogger(log.New(&buf)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if v, err := lp.Set(ParamX, 0.2); err != nil || v != 0.2 {
		t.Fatalf("Set = %v, %v", v, err)
	}
	if out := buf.String(); !strings.Contains(out, "write light") || !strings.Contains(out, "param=x") {
		t.Errorf("log = %q", out)
	}
}

type noKeyEngine struct{}

func (noKeyEngine) UpdateLight(name string, _ func(*scene.Light)) error {
	return errors.New(errors.ErrCodeLightNotFound, "light %q", name)
}

func TestAdopt(t *testing.T) {
	prev, err := New(&fakeEngine{}, panel.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := prev.Set(ParamAmbient, 0.9); err != nil {
		t.Fatal(err)
	}

	e := &fakeEngine{key: sceneKey()}
	next, err := New(e, panel.New())
	if err != nil {
		t.Fatal(err)
	}
	next.Adopt(prev)

	want := sceneKey()
	want.Ambient = [4]float64{0.9, 0.9, 0.9, 1}
	if e.key != want {
		t.Errorf("key light = %+v, want %+v", e.key, want)
	}
	if next.Params().Ambient != 0.9 || next.Params().X != Defaults().X {
		t.Errorf("Params() = %+v", next.Params())
	}
}

func TestSliders(t *testing.T) {
	tests := []struct {
		param string
		in    float64
		want  float64
		check func(scene.Light) float64
	}{
		{ParamX, 0.8, 0.8, func(l scene.Light) float64 { return -l.Direction[0] }},
		{ParamX, -3, -1, func(l scene.Light) float64 { return -l.Direction[0] }},
		{ParamY, -0.25, -0.25, func(l scene.Light) float64 { return -l.Direction[1] }},
		{ParamDiffuse, 1.5, 1.5, func(l scene.Light) float64 { return l.Diffuse[2] }},
		{ParamDiffuse, 9, 2, func(l scene.Light) float64 { return l.Diffuse[0] }},
		{ParamAmbient, 0.2, 0.2, func(l scene.Light) float64 { return l.Ambient[1] }},
		{ParamAmbient, -1, 0, func(l scene.Light) float64 { return l.Ambient[0] }},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			e := &fakeEngine{}
			p := panel.New()
			if _, err := New(e, p); err != nil {
				t.Fatalf("New: %v", err)
			}
			c, ok := p.Find(FolderName + "/" + tt.param)
			if !ok {
				t.Fatalf("controller %s missing", tt.param)
			}
			if got := c.SetValue(tt.in); got != tt.want {
				t.Errorf("SetValue(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got := tt.check(e.key); got != tt.want {
				t.Errorf("light component = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetUnknown(t *testing.T) {
	lp, err := New(&fakeEngine{}, panel.New())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := lp.Set("z", 1); !errors.Is(err, errors.ErrCodeInvalidParam) {
		t.Errorf("Set(z) = %v, want INVALID_PARAM", err)
	}
	if v, err := lp.Set(ParamDiffuse, 0.7); err != nil || v != 0.7 || lp.Params().Diffuse != 0.7 {
		t.Errorf("Set(diffuse) = %v, %v; params %+v", v, err, lp.Params())
	}
}

func TestNewWithScene(t *testing.T) {
	sc, err := scene.New(scene.Config{Layers: map[string]scene.LayerConfig{"earth": {}}})
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	lp, err := New(sc, panel.New())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := lp.Set(ParamX, -0.5); err != nil {
		t.Fatal(err)
	}
	key, _ := sc.Light(scene.KeyLight)
	if key.Direction[0] != 0.5 {
		t.Errorf("direction[0] = %v, want 0.5", key.Direction[0])
	}
	if key.Type != "directional" {
		t.Errorf("type = %q", key.Type)
	}
}

func TestNewNil(t *testing.T) {
	if _, err := New(nil, panel.New()); err == nil {
		t.Error("New(nil engine) succeeded")
	}
}
