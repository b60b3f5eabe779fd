package hover

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/feature"
	"github.com/matzehuels/mapstyle/pkg/observability"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

// State is the controller's label state.
type State int

const (
	Idle State = iota
	Labeled
)

func (s State) String() string {
	if s == Labeled {
		return "labeled"
	}
	return "idle"
}

// Querier answers feature lookups. *scene.Scene satisfies it.
type Querier interface {
	FeatureAt(ctx context.Context, p viewport.Pixel) (*feature.Feature, error)
	Panning() bool
}

// Result is the outcome of one Lookup.
type Result struct {
	Seq     uint64
	Pixel   viewport.Pixel
	Feature *feature.Feature
	Err     error
	// Suppressed is set when the scene was panning as the move was processed.
	Suppressed bool
	Took       time.Duration
}

// Lookup queries the feature under one pointer position. It does not touch
// controller state and may run on any goroutine.
type Lookup func(ctx context.Context) Result

// Option configures a Controller.
type Option func(*Controller)

// DiscardStale drops resolutions issued before the newest move.
func DiscardStale() Option {
	return func(c *Controller) { c.discardStale = true }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller drives the hover label. Move and Resolve must be called from
// one goroutine.
type Controller struct {
	q         Querier
	container Container
	logger    *log.Logger

	discardStale bool
	seq          uint64

	label    Label
	attached bool
}

// New creates a controller that shows its label in container.
func New(q Querier, container Container, opts ...Option) (*Controller, error) {
	if q == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "hover needs a feature querier")
	}
	if container == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "hover label container not found")
	}
	c := &Controller{q: q, container: container, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State reports whether the label is shown.
func (c *Controller) State() State {
	if c.attached {
		return Labeled
	}
	return Idle
}

// Label returns the shown label.
func (c *Controller) Label() (Label, bool) {
	return c.label, c.attached
}

// Move records a pointer move at p and returns the lookup to run for it.
// If the scene is panning the label is removed at once.
func (c *Controller) Move(ctx context.Context, p viewport.Pixel) Lookup {
	c.seq++
	seq := c.seq
	suppressed := c.q.Panning()
	if suppressed {
		c.idle(ctx)
	}
	return func(ctx context.Context) Result {
		start := time.Now()
		f, err := c.q.FeatureAt(ctx, p)
		return Result{
			Seq:        seq,
			Pixel:      p,
			Feature:    f,
			Err:        err,
			Suppressed: suppressed,
			Took:       time.Since(start),
		}
	}
}

// Resolve applies a lookup result and returns the new state.
func (c *Controller) Resolve(ctx context.Context, r Result) State {
	if c.discardStale && r.Seq < c.seq {
		c.logger.Debug("stale hover result dropped", "seq", r.Seq, "latest", c.seq)
		return c.State()
	}
	observability.Hover().OnLookup(ctx, r.Feature != nil, r.Took, r.Err)

	switch {
	case r.Suppressed || c.q.Panning():
		c.idle(ctx)
	case r.Err != nil:
		c.logger.Debug("feature lookup failed", "x", r.Pixel.X, "y", r.Pixel.Y, "err", r.Err)
		c.idle(ctx)
	default:
		name, ok := r.Feature.Name()
		if !ok {
			c.idle(ctx)
			break
		}
		c.show(ctx, name, r.Pixel.Offset(OffsetX, OffsetY))
	}
	return c.State()
}

// Hover runs Move, its lookup and Resolve in sequence.
func (c *Controller) Hover(ctx context.Context, p viewport.Pixel) State {
	return c.Resolve(ctx, c.Move(ctx, p)(ctx))
}

// Clear removes the label.
func (c *Controller) Clear(ctx context.Context) {
	c.idle(ctx)
}

func (c *Controller) show(ctx context.Context, text string, pos viewport.Pixel) {
	c.label.Text = text
	c.label.Pos = pos
	if c.attached {
		return
	}
	c.container.Attach(&c.label)
	c.attached = true
	observability.Hover().OnTransition(ctx, Labeled.String())
}

func (c *Controller) idle(ctx context.Context) {
	if !c.attached {
		return
	}
	c.container.Detach(&c.label)
	c.attached = false
	observability.Hover().OnTransition(ctx, Idle.String())
}
