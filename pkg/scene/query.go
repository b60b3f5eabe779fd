package scene

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/feature"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

// HitTolerance is how close, in pixels, a point or line must be to count as hit.
const HitTolerance = 6.0

// FeatureAt returns the topmost feature under pixel p, or nil when there is
// none. The returned feature is a copy owned by the caller.
func (s *Scene) FeatureAt(ctx context.Context, p viewport.Pixel) (*feature.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.IsReady() {
		return nil, errors.New(errors.ErrCodeNotReady, "scene %q is still loading", s.cfg.Name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.view
	if p.X < 0 || p.Y < 0 || p.X > float64(v.Width) || p.Y > float64(v.Height) {
		return nil, nil
	}
	f := s.hitLocked(v.Unproject(p), HitTolerance*v.DegreesPerPixel())
	if f == nil {
		return nil, nil
	}
	c := *f
	return &c, nil
}

// hitLocked walks layers top-down. Callers hold at least the read lock.
func (s *Scene) hitLocked(pt orb.Point, tol float64) *feature.Feature {
	ls := s.sortedLayers()
	for i := len(ls) - 1; i >= 0; i-- {
		fs := ls[i].features
		for j := len(fs) - 1; j >= 0; j-- {
			if hit(fs[j].Geometry, pt, tol) {
				return fs[j]
			}
		}
	}
	return nil
}

func hit(g orb.Geometry, pt orb.Point, tol float64) bool {
	if g == nil || !g.Bound().Pad(tol).Contains(pt) {
		return false
	}
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	case orb.Ring:
		return planar.RingContains(g, pt)
	case orb.Bound:
		return g.Contains(pt)
	case orb.Collection:
		for _, c := range g {
			if hit(c, pt, tol) {
				return true
			}
		}
		return false
	default:
		return planar.DistanceFrom(g, pt) <= tol
	}
}

// Cell is one sample of a rasterized frame.
type Cell struct {
	Layer string
	Style string
}

// Raster samples the visible surface on a cols x rows grid, reporting the
// topmost layer at the center of each cell. Empty cells have a zero Cell.
func (s *Scene) Raster(cols, rows int) [][]Cell {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.view
	cw := float64(v.Width) / float64(cols)
	ch := float64(v.Height) / float64(rows)
	tol := 0.5 * max(cw, ch) * v.DegreesPerPixel()

	out := make([][]Cell, rows)
	for r := range rows {
		out[r] = make([]Cell, cols)
		for c := range cols {
			pt := v.Unproject(viewport.Pixel{X: (float64(c) + 0.5) * cw, Y: (float64(r) + 0.5) * ch})
			if f := s.hitLocked(pt, tol); f != nil {
				out[r][c] = Cell{Layer: f.Layer, Style: s.layers[f.Layer].style}
			}
		}
	}
	return out
}
