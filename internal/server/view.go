package server

import (
	"errors"
	"net/http"

	"github.com/matzehuels/mapstyle/pkg/session"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

// Where a resolved view came from.
const (
	viewFromHash    = "hash"
	viewFromSession = "session"
	viewFromGeoIP   = "geoip"
	viewFromDefault = "default"
)

type viewResponse struct {
	Hash     string            `json:"hash"`
	Location viewport.Location `json:"location"`
	Source   string            `json:"source"`
	Session  string            `json:"session"`
}

// handleGetView resolves the viewer's start view: a valid ?hash wins, then
// the session, then a GeoIP lookup, then the scene's start location.
func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.session(r)

	var loc viewport.Location
	var src string
	if l, err := viewport.Parse(r.URL.Query().Get("hash")); err == nil {
		loc, src = l, viewFromHash
	} else if sess != nil {
		loc, src = sess.View, viewFromSession
	} else if l, ok := s.locate(r); ok {
		loc, src = l, viewFromGeoIP
	} else {
		loc, src = viewport.Resolve("", s.app.Scene.Config().Start), viewFromDefault
	}

	if sess == nil {
		sess = session.New(loc, s.cfg.SessionTTL)
	}
	sess.View = loc
	sess.Touch(s.cfg.SessionTTL)
	if err := s.cfg.Sessions.Set(ctx, sess); err != nil {
		s.logger.Warn("store session", "err", err)
	}
	s.setCookie(w, sess)
	writeJSON(w, http.StatusOK, viewResponse{Hash: loc.Hash(), Location: loc, Source: src, Session: sess.ID})
}

type putViewRequest struct {
	Hash string `json:"hash"`
}

// handlePutView moves the shared scene to the given hash and remembers it
// in the viewer's session.
func (s *Server) handlePutView(w http.ResponseWriter, r *http.Request) {
	var req putViewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	loc, err := viewport.Parse(req.Hash)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	err = s.app.Scene.SetCenter(loc)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	sess := s.session(r)
	if sess == nil {
		sess = session.New(loc, s.cfg.SessionTTL)
	}
	sess.View = loc
	sess.Touch(s.cfg.SessionTTL)
	if err := s.cfg.Sessions.Set(r.Context(), sess); err != nil {
		s.logger.Warn("store session", "err", err)
	}
	s.setCookie(w, sess)
	writeJSON(w, http.StatusOK, viewResponse{Hash: loc.Hash(), Location: loc, Source: viewFromHash, Session: sess.ID})
}

// session returns the request's live session, or nil.
func (s *Server) session(r *http.Request) *session.Session {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	sess, err := session.Lookup(r.Context(), s.cfg.Sessions, c.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			s.logger.Warn("load session", "err", err)
		}
		return nil
	}
	return sess
}

func (s *Server) rememberStyle(r *http.Request, style string) {
	sess := s.session(r)
	if sess == nil {
		return
	}
	sess.Style = style
	if err := s.cfg.Sessions.Set(r.Context(), sess); err != nil {
		s.logger.Warn("store session", "err", err)
	}
}

func (s *Server) setCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) locate(r *http.Request) (viewport.Location, bool) {
	if s.cfg.Locator == nil {
		return viewport.Location{}, false
	}
	ip := clientIP(r)
	if ip == nil {
		return viewport.Location{}, false
	}
	return s.cfg.Locator.Locate(ip)
}
