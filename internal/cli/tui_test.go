package cli

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapstyle/internal/app"
	"github.com/matzehuels/mapstyle/pkg/hover"
	"github.com/matzehuels/mapstyle/pkg/scene"
	"github.com/matzehuels/mapstyle/pkg/session"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

const exampleScene = "../../examples/scene/scene.toml"

// nyseView centers the map on the New York Stock Exchange.
const nyseView = "#16/40.70665/-74.0114"

func startedApp(t *testing.T) *app.App {
	t.Helper()
	ctx := context.Background()
	a, err := app.Load(ctx, exampleScene, app.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return a
}

// testModel returns a 100x40 terminal model centered on nyseView.
func testModel(t *testing.T, a *app.App, store session.Store) tuiModel {
	t.Helper()
	m := newTUIModel(context.Background(), a, store, log.New(io.Discard))
	if err := m.restore(nyseView); err != nil {
		t.Fatalf("restore: %v", err)
	}
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func update(t *testing.T, m tuiModel, msg tea.Msg) tuiModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(tuiModel)
}

// run delivers msg and then every message its command produces.
func run(t *testing.T, m tuiModel, msg tea.Msg) tuiModel {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(tuiModel)
	for cmd != nil {
		out := cmd()
		if out == nil {
			break
		}
		next, cmd = m.Update(out)
		m = next.(tuiModel)
	}
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func motion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone}
}

func TestResizeSetsViewport(t *testing.T) {
	m := testModel(t, startedApp(t), nil)
	v := m.app.Scene.View()
	if v.Width != 100*cellWidth || v.Height != (40-chromeRows)*cellHeight {
		t.Errorf("viewport = %dx%d", v.Width, v.Height)
	}
}

func TestHoverShowsLabel(t *testing.T) {
	a := startedApp(t)
	m := testModel(t, a, nil)

	// The view is centered on the building, so it sits in the middle cell.
	x, y := m.width/2, m.mapRows()/2
	m = run(t, m, motion(x, y))

	l, ok := a.Hover.Label()
	if !ok {
		t.Fatal("no label after hovering the stock exchange")
	}
	if l.Text != "New York Stock Exchange" {
		t.Errorf("label = %q", l.Text)
	}
	want := cellPixel(x, y).Offset(hover.OffsetX, hover.OffsetY)
	if l.Pos != want {
		t.Errorf("label at %v, want %v", l.Pos, want)
	}
	if a.Overlay.Len() != 1 {
		t.Errorf("overlay holds %d labels, want 1", a.Overlay.Len())
	}

	// Moving onto the chrome clears it.
	m = run(t, m, motion(x, m.height-1))
	if a.Overlay.Len() != 0 {
		t.Error("label survived a move off the map")
	}
}

func TestDragSuppressesLabel(t *testing.T) {
	a := startedApp(t)
	m := testModel(t, a, nil)
	x, y := m.width/2, m.mapRows()/2
	m = run(t, m, motion(x, y))
	if a.Overlay.Len() != 1 {
		t.Fatal("expected a label before dragging")
	}
	before := a.Scene.View().Center

	m = update(t, m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !a.Scene.Panning() {
		t.Fatal("press did not start panning")
	}
	m = run(t, m, tea.MouseMsg{X: x + 3, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if a.Overlay.Len() != 0 {
		t.Error("label shown while panning")
	}

	m = update(t, m, tea.MouseMsg{X: x + 3, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if a.Scene.Panning() {
		t.Error("release did not end panning")
	}
	if after := a.Scene.View().Center; after.Lng >= before.Lng {
		t.Errorf("dragging right should move the center west: %v -> %v", before.Lng, after.Lng)
	}
	_ = m
}

func TestStyleKeys(t *testing.T) {
	a := startedApp(t)
	m := testModel(t, a, nil)

	tests := []struct {
		key        string
		wantActive string
		wantCamera string
		wantLayer  string // buildings style
	}{
		{"4", "windows", scene.CameraIsometric, "windows"},
		{"2", "elevator", scene.CameraPerspective, "elevator"},
		{"9", "elevator", scene.CameraPerspective, "elevator"}, // no ninth style
		{"0", "", scene.CameraPerspective, "polygons"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m = update(t, m, keyMsg(tt.key))
			if got := a.Styles.Active(); got != tt.wantActive {
				t.Errorf("active = %q, want %q", got, tt.wantActive)
			}
			if got := a.Scene.ActiveCamera(); got != tt.wantCamera {
				t.Errorf("camera = %q, want %q", got, tt.wantCamera)
			}
			if got, _ := a.Scene.LayerStyle("buildings"); got != tt.wantLayer {
				t.Errorf("buildings = %q, want %q", got, tt.wantLayer)
			}
		})
	}
}

func TestSliderKeys(t *testing.T) {
	a := startedApp(t)
	m := testModel(t, a, nil)

	// The first slider is the light's x.
	m = update(t, m, keyMsg("]"))
	if x := a.Light.Params().X; math.Abs(x-0.32) > 1e-9 {
		t.Errorf("x = %v, want 0.32", x)
	}
	k, _ := a.Scene.Light(scene.KeyLight)
	if math.Abs(k.Direction[0]+0.32) > 1e-9 {
		t.Errorf("key light direction[0] = %v, want -0.32", k.Direction[0])
	}

	m = update(t, m, keyMsg("tab"))
	m = update(t, m, keyMsg("{"))
	if y := a.Light.Params().Y; math.Abs(y-0.3) > 1e-9 {
		t.Errorf("y = %v, want 0.3", y)
	}

	// Style uniforms join the slider list while their style is active.
	n := len(m.sliders())
	m = update(t, m, keyMsg("3"))
	if got := len(m.sliders()); got != n+2 {
		t.Errorf("sliders with colorhalftone = %d, want %d", got, n+2)
	}
	if !strings.Contains(m.sliderBar(), "Colorhalftone/dot_scale") {
		t.Errorf("slider bar %q lacks the uniform", m.sliderBar())
	}
}

func TestArrowKeysPan(t *testing.T) {
	a := startedApp(t)
	m := testModel(t, a, nil)
	before := a.Scene.View().Center

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if a.Scene.View().Center.Lng <= before.Lng {
		t.Error("right arrow should move east")
	}
	m = update(t, m, keyMsg("+"))
	if z := a.Scene.View().Center.Zoom; z != before.Zoom+1 {
		t.Errorf("zoom = %v, want %v", z, before.Zoom+1)
	}
	_ = m
}

func TestSessionSaveAndRestore(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	m := testModel(t, startedApp(t), store)
	m = update(t, m, keyMsg("4"))

	sess, err := session.Lookup(ctx, store, session.LocalID)
	if err != nil {
		t.Fatalf("no session saved: %v", err)
	}
	if sess.Style != "windows" {
		t.Errorf("saved style = %q", sess.Style)
	}
	want, _ := viewport.Parse(nyseView)
	if sess.View != want {
		t.Errorf("saved view = %v, want %v", sess.View, want)
	}

	b := startedApp(t)
	restored := newTUIModel(ctx, b, store, log.New(io.Discard))
	if err := restored.restore(""); err != nil {
		t.Fatal(err)
	}
	if b.Styles.Active() != "windows" || b.Scene.ActiveCamera() != scene.CameraIsometric {
		t.Errorf("restored style %q camera %q", b.Styles.Active(), b.Scene.ActiveCamera())
	}
	if b.Scene.View().Center != want {
		t.Errorf("restored view = %v", b.Scene.View().Center)
	}
}

func TestQuit(t *testing.T) {
	m := testModel(t, startedApp(t), nil)
	for _, k := range []string{"q", "esc"} {
		_, cmd := m.Update(keyMsg(k))
		if cmd == nil {
			t.Fatalf("%s: no command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s did not quit", k)
		}
	}
}

func TestReloadKeepsStyleAndView(t *testing.T) {
	a := startedApp(t)
	m := testModel(t, a, nil)
	m.reloader = func(ctx context.Context) (*app.App, error) {
		next, err := app.Load(ctx, exampleScene, app.Options{})
		if err != nil {
			return nil, err
		}
		return next, next.Start(ctx)
	}
	m = update(t, m, keyMsg("4"))
	m = update(t, m, keyMsg("]"))
	view := a.Scene.View()

	m = run(t, m, sceneChangedMsg{path: "scene.toml"})
	if m.app == a {
		t.Fatal("app not replaced")
	}
	if m.app.Styles.Active() != "windows" {
		t.Errorf("style after reload = %q", m.app.Styles.Active())
	}
	if m.app.Scene.View() != view {
		t.Errorf("view after reload = %v, want %v", m.app.Scene.View(), view)
	}
	if x := m.app.Light.Params().X; math.Abs(x-0.32) > 1e-9 {
		t.Errorf("light x after reload = %v", x)
	}
	if got := m.app.Light.Changed(); len(got) != 1 || got[0] != "x" {
		t.Errorf("sliders carried over = %v, want only x", got)
	}

	// A lookup issued against the old scene is ignored.
	stale := hoverMsg{app: a, result: hover.Result{}}
	m = update(t, m, stale)
	if !strings.HasPrefix(m.status, "reloaded") {
		t.Errorf("status = %q", m.status)
	}
}

func TestViewRendersChrome(t *testing.T) {
	m := testModel(t, startedApp(t), nil)
	out := m.View()

	lines := strings.Split(out, "\n")
	if len(lines) != m.height {
		t.Errorf("view has %d lines, want %d", len(lines), m.height)
	}
	for _, want := range []string{"windows", "Light/x", "OpenStreetMap", "#16/"} {
		if !strings.Contains(out, want) {
			t.Errorf("view lacks %q", want)
		}
	}
}

func TestDrawLabel(t *testing.T) {
	cells := make([][]string, 3)
	for r := range cells {
		cells[r] = strings.Split(strings.Repeat(" ", 6), "")
	}

	drawLabel(cells, hover.Label{Text: "Pier 17", Pos: viewport.Pixel{X: 2 * cellWidth, Y: cellHeight + 1}})

	row := strings.Join(cells[1], "")
	if !strings.Contains(row, "P") || !strings.Contains(row, "i") {
		t.Errorf("row = %q, want the label's start", row)
	}
	if strings.Join(cells[0], "") != "      " || strings.Join(cells[2], "") != "      " {
		t.Error("label leaked into other rows")
	}

	// Off-grid labels are dropped.
	drawLabel(cells, hover.Label{Text: "x", Pos: viewport.Pixel{X: 0, Y: 10 * cellHeight}})
}

func TestWatchScene(t *testing.T) {
	cfg, _, err := scene.ReadConfig(context.Background(), exampleScene, scene.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	w, err := watchScene(exampleScene, cfg, log.New(io.Discard), func(string) {})
	if err != nil {
		t.Fatalf("watchScene: %v", err)
	}
	defer w.Close()

	var names []string
	for _, f := range w.Files() {
		names = append(names, filepath.Base(f))
	}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "scene.toml") || !strings.Contains(joined, "data.geojson") {
		t.Errorf("watched files = %v", names)
	}

	if _, err := watchScene("https://example.com/scene.toml", cfg, log.New(io.Discard), func(string) {}); err == nil {
		t.Error("watching a URL should fail")
	}
}
