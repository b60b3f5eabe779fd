package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/matzehuels/mapstyle/internal/app"
	"github.com/matzehuels/mapstyle/internal/metrics"
	"github.com/matzehuels/mapstyle/pkg/observability"
	"github.com/matzehuels/mapstyle/pkg/scene"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

type fakeLocator struct{ loc viewport.Location }

func (f fakeLocator) Locate(net.IP) (viewport.Location, bool) { return f.loc, true }

func newTestServer(t *testing.T, cfg Config) (*Server, *app.App) {
	t.Helper()
	ctx := context.Background()
	a, err := app.Load(ctx, "../../examples/scene/scene.toml", app.Options{})
	if err != nil {
		t.Fatalf("app.Load: %v", err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return New(a, cfg), a
}

func do(t *testing.T, s *Server, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, r)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s, "GET", "/healthz", "")
	got := decodeBody[healthResponse](t, rec)
	if rec.Code != http.StatusOK || got.Status != "ok" || got.Build.Version == "" {
		t.Errorf("healthz = %d %+v", rec.Code, got)
	}
}

func TestStyles(t *testing.T) {
	s, a := newTestServer(t, Config{})

	got := decodeBody[stylesResponse](t, do(t, s, "GET", "/api/styles", ""))
	if strings.Join(got.Styles, ",") != "water,elevator,colorhalftone,windows" || got.Active != "" {
		t.Errorf("styles = %+v", got)
	}

	rec := do(t, s, "PUT", "/api/style", `{"name":"windows"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /api/style = %d %s", rec.Code, rec.Body.String())
	}
	applied := decodeBody[applyResponse](t, rec)
	if applied.Active != "windows" || applied.Camera != scene.CameraIsometric {
		t.Errorf("apply = %+v", applied)
	}
	if st, _ := a.Scene.LayerStyle("buildings"); st != "windows" {
		t.Errorf("buildings = %q", st)
	}

	for _, name := range []string{"no-such-style", "a b", ""} {
		rec := do(t, s, "PUT", "/api/style", `{"name":"`+name+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("PUT /api/style %q = %d %s", name, rec.Code, rec.Body.String())
		}
		applied = decodeBody[applyResponse](t, rec)
		if applied.Active != "" || applied.Camera != scene.CameraPerspective {
			t.Errorf("clear with %q = %+v", name, applied)
		}
		if st, _ := a.Scene.LayerStyle("buildings"); st == "windows" {
			t.Errorf("buildings still windows after %q", name)
		}
		if err := a.ApplyStyle(context.Background(), "windows"); err != nil {
			t.Fatal(err)
		}
	}
}

func TestApplyStyleBadRequest(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"unknown field", `{"style":"water"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, "PUT", "/api/style", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestStyleGraphDOT(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s, "GET", "/api/styles/graph?format=dot", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "digraph styles") {
		t.Errorf("graph = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, s, "GET", "/api/styles/graph?format=png", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("png status = %d, want 400", rec.Code)
	}
}

func TestLight(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s, "PUT", "/api/light/x", `{"value":0.9}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT light = %d %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[lightResponse](t, rec)
	if got.Params.X != 0.9 || got.Key.Direction[0] != -0.9 {
		t.Errorf("light = %+v", got)
	}

	got = decodeBody[lightResponse](t, do(t, s, "PUT", "/api/light/diffuse", `{"value":7}`))
	if got.Params.Diffuse != 2 {
		t.Errorf("diffuse = %v, want clamped 2", got.Params.Diffuse)
	}

	if rec := do(t, s, "PUT", "/api/light/z", `{"value":1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown param status = %d, want 400", rec.Code)
	}
}

func TestPanel(t *testing.T) {
	s, a := newTestServer(t, Config{})

	rec := do(t, s, "POST", "/api/panel/Styles/water", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("press = %d %s", rec.Code, rec.Body.String())
	}
	if a.Styles.Active() != "water" {
		t.Errorf("active = %q", a.Styles.Active())
	}

	do(t, s, "POST", "/api/panel/Default", "")
	if a.Styles.Active() != "" {
		t.Errorf("active after Default = %q", a.Styles.Active())
	}

	rec = do(t, s, "PUT", "/api/panel/Light/ambient", `{"value":0.25}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set = %d %s", rec.Code, rec.Body.String())
	}
	if a.Light.Params().Ambient != 0.25 {
		t.Errorf("ambient = %v", a.Light.Params().Ambient)
	}

	if rec := do(t, s, "POST", "/api/panel/Light/ambient", ""); rec.Code != http.StatusNotFound {
		t.Errorf("press on slider = %d, want 404", rec.Code)
	}

	ctrls := decodeBody[[]controllerInfo](t, do(t, s, "GET", "/api/panel", ""))
	if len(ctrls) == 0 || ctrls[0].Path != "Default" {
		t.Errorf("panel = %+v", ctrls)
	}
}

func TestHover(t *testing.T) {
	s, a := newTestServer(t, Config{})
	p := a.Scene.View().Project(orb.Point{-74.0114, 40.70665})

	rec := do(t, s, "GET", "/api/hover?x="+ftoa(p.X)+"&y="+ftoa(p.Y), "")
	got := decodeBody[hoverResponse](t, rec)
	if got.State != "labeled" || got.Label == nil || got.Label.Text != "New York Stock Exchange" {
		t.Fatalf("hover = %+v", got)
	}
	if got.Feature == nil || got.Feature.Properties.MustString("name") != "New York Stock Exchange" {
		t.Errorf("hover feature = %+v", got.Feature)
	}

	do(t, s, "PUT", "/api/panning", `{"panning":true}`)
	if a.Overlay.Len() != 0 {
		t.Error("label survived panning")
	}
	got = decodeBody[hoverResponse](t, do(t, s, "GET", "/api/hover?x="+ftoa(p.X)+"&y="+ftoa(p.Y), ""))
	if got.State != "idle" || got.Label != nil || got.Feature != nil {
		t.Errorf("hover while panning = %+v", got)
	}

	if rec := do(t, s, "GET", "/api/hover?x=a&y=1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad pixel status = %d", rec.Code)
	}
}

func TestViewSessions(t *testing.T) {
	seattle, _ := viewport.Named("seattle")
	s, a := newTestServer(t, Config{Locator: fakeLocator{seattle}})

	rec := do(t, s, "GET", "/api/view", "")
	got := decodeBody[viewResponse](t, rec)
	if got.Source != viewFromGeoIP || got.Location != seattle {
		t.Fatalf("first view = %+v", got)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || cookies[0].Value != got.Session {
		t.Fatalf("cookies = %+v", cookies)
	}

	rec = do(t, s, "PUT", "/api/view", `{"hash":"#16/51.5/-0.1"}`, cookies[0])
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT view = %d %s", rec.Code, rec.Body.String())
	}
	if c := a.Scene.View().Center; c.Zoom != 16 || c.Lat != 51.5 {
		t.Errorf("scene center = %+v", c)
	}

	got = decodeBody[viewResponse](t, do(t, s, "GET", "/api/view", "", cookies[0]))
	if got.Source != viewFromSession || got.Location.Lat != 51.5 {
		t.Errorf("session view = %+v", got)
	}

	got = decodeBody[viewResponse](t, do(t, s, "GET", "/api/view?hash=%2317/40.7/-74.0", "", cookies[0]))
	if got.Source != viewFromHash || got.Location.Zoom != 17 {
		t.Errorf("hash view = %+v", got)
	}

	if rec := do(t, s, "PUT", "/api/view", `{"hash":"#15/abc/1"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad hash status = %d", rec.Code)
	}
}

func TestViewDefault(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	got := decodeBody[viewResponse](t, do(t, s, "GET", "/api/view", ""))
	if got.Source != viewFromDefault || got.Location != viewport.Default() {
		t.Errorf("view = %+v", got)
	}
}

func TestSize(t *testing.T) {
	s, a := newTestServer(t, Config{})
	do(t, s, "PUT", "/api/size", `{"width":1024,"height":768}`)
	if v := a.Scene.View(); v.Width != 1024 || v.Height != 768 {
		t.Errorf("view = %dx%d", v.Width, v.Height)
	}
	if rec := do(t, s, "PUT", "/api/size", `{"width":0,"height":1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.Install()
	defer observability.Reset()

	s, _ := newTestServer(t, Config{Metrics: m})
	do(t, s, "GET", "/api/styles", "")
	rec := do(t, s, "GET", "/metrics", "")
	if !strings.Contains(rec.Body.String(), `mapstyle_http_requests_total{method="GET",route="/api/styles",status="200"} 1`) {
		t.Errorf("metrics missing request counter:\n%s", rec.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	if rec := do(t, s, "GET", "/api/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d", rec.Code)
	}
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
