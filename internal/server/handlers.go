package server

import (
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/hover"
	"github.com/matzehuels/mapstyle/pkg/light"
	"github.com/matzehuels/mapstyle/pkg/panel"
	"github.com/matzehuels/mapstyle/pkg/scene"
	"github.com/matzehuels/mapstyle/pkg/style"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

type sceneResponse struct {
	Name        string `json:"name"`
	Attribution string `json:"attribution"`
	Ready       bool   `json:"ready"`
	Camera      string `json:"camera"`
	Style       string `json:"style"`
	Generation  uint64 `json:"generation"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.app.Scene
	v := sc.View()
	writeJSON(w, http.StatusOK, sceneResponse{
		Name:        sc.Name(),
		Attribution: sc.Attribution(),
		Ready:       sc.IsReady(),
		Camera:      sc.ActiveCamera(),
		Style:       s.app.Styles.Active(),
		Generation:  sc.Generation(),
		Width:       v.Width,
		Height:      v.Height,
	})
}

type stylesResponse struct {
	Styles []string `json:"styles"`
	Active string   `json:"active"`
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, stylesResponse{Styles: s.app.StyleNames(), Active: s.app.Styles.Active()})
}

func (s *Server) handleStyleGraph(w http.ResponseWriter, r *http.Request) {
	dot := style.ToDOT(s.app.Styles.Catalog())
	switch r.URL.Query().Get("format") {
	case "", "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
	case "svg":
		svg, err := style.RenderSVG(r.Context(), dot)
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render style graph"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidFormat, "format must be dot or svg"))
	}
}

type applyRequest struct {
	Name string `json:"name"`
}

type applyResponse struct {
	Active string            `json:"active"`
	Camera string            `json:"camera"`
	Layers []scene.LayerInfo `json:"layers"`
}

func (s *Server) handleApplyStyle(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.app.ApplyStyle(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	s.rememberStyle(r, s.app.Styles.Active())
	writeJSON(w, http.StatusOK, applyResponse{
		Active: s.app.Styles.Active(),
		Camera: s.app.Scene.ActiveCamera(),
		Layers: s.app.Scene.Layers(),
	})
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.app.Scene.Layers())
}

type camerasResponse struct {
	Cameras []scene.Camera `json:"cameras"`
	Active  string         `json:"active"`
}

func (s *Server) handleCameras(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, camerasResponse{Cameras: s.app.Scene.Cameras(), Active: s.app.Scene.ActiveCamera()})
}

type lightResponse struct {
	Params light.Params `json:"params"`
	Key    scene.Light  `json:"key"`
}

func (s *Server) handleLight(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, _ := s.app.Scene.Light(scene.KeyLight)
	writeJSON(w, http.StatusOK, lightResponse{Params: s.app.Light.Params(), Key: key})
}

type valueRequest struct {
	Value float64 `json:"value"`
}

func (s *Server) handleSetLight(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.app.Light.Set(chi.URLParam(r, "param"), req.Value); err != nil {
		writeError(w, err)
		return
	}
	key, _ := s.app.Scene.Light(scene.KeyLight)
	writeJSON(w, http.StatusOK, lightResponse{Params: s.app.Light.Params(), Key: key})
}

type controllerInfo struct {
	Path  string  `json:"path"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value,omitempty"`
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
}

func controllers(p *panel.Panel) []controllerInfo {
	var out []controllerInfo
	for _, c := range p.Controllers() {
		info := controllerInfo{Path: c.Path(), Kind: c.Kind().String()}
		if c.Kind() == panel.KindNumber {
			info.Value = c.Display()
			info.Min, info.Max = c.Range()
		}
		out = append(out, info)
	}
	return out
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, controllers(s.app.Panel))
}

func (s *Server) controller(r *http.Request, kind panel.Kind) (*panel.Controller, error) {
	path := chi.URLParam(r, "*")
	c, ok := s.app.Panel.Find(path)
	if !ok || c.Kind() != kind {
		return nil, errors.New(errors.ErrCodeNotFound, "no %s control %q", kind, path)
	}
	return c, nil
}

func (s *Server) handleSetController(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.controller(r, panel.KindNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	c.SetValue(req.Value)
	writeJSON(w, http.StatusOK, controllers(s.app.Panel))
}

func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.controller(r, panel.KindButton)
	if err != nil {
		writeError(w, err)
		return
	}
	c.Press()
	writeJSON(w, http.StatusOK, stylesResponse{Styles: s.app.StyleNames(), Active: s.app.Styles.Active()})
}

type hoverResponse struct {
	State   string           `json:"state"`
	Label   *hover.Label     `json:"label,omitempty"`
	Feature *geojson.Feature `json:"feature,omitempty"`
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "x and y must be numbers"))
		return
	}
	ctx := r.Context()

	s.mu.Lock()
	if s.app.Hover == nil {
		s.mu.Unlock()
		writeError(w, errors.New(errors.ErrCodeNotReady, "scene not started"))
		return
	}
	look := s.app.Hover.Move(ctx, viewport.Pixel{X: x, Y: y})
	s.mu.Unlock()

	res := look(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.app.Hover.Resolve(ctx, res)
	resp := hoverResponse{State: state.String()}
	if l, ok := s.app.Hover.Label(); ok {
		resp.Label = &l
	}
	if state == hover.Labeled && res.Feature != nil {
		resp.Feature = res.Feature.ToGeoJSON()
	}
	writeJSON(w, http.StatusOK, resp)
}

type panningRequest struct {
	Panning bool `json:"panning"`
}

func (s *Server) handlePanning(w http.ResponseWriter, r *http.Request) {
	var req panningRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.app.Scene.SetPanning(req.Panning)
	if req.Panning && s.app.Hover != nil {
		s.app.Hover.Clear(r.Context())
	}
	writeJSON(w, http.StatusOK, req)
}

type sizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidViewport, "size must be positive"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.app.Scene.SetSize(req.Width, req.Height)
	v := s.app.Scene.View()
	writeJSON(w, http.StatusOK, sizeRequest{Width: v.Width, Height: v.Height})
}

func clientIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
