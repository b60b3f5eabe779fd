package hover

import (
	"slices"
	"sync"

	"github.com/matzehuels/mapstyle/pkg/viewport"
)

// Label offset from the pointer, in pixels.
const (
	OffsetX = 5
	OffsetY = 15
)

// Label is the hover tooltip.
type Label struct {
	Text string         `json:"text"`
	Pos  viewport.Pixel `json:"pos"`
}

// Container hosts the label while it is shown.
type Container interface {
	Attach(l *Label)
	Detach(l *Label)
}

// Overlay is a Container that keeps attached labels in memory for a front
// end to draw. It is safe for concurrent use.
type Overlay struct {
	mu     sync.Mutex
	labels []*Label
}

// Attach adds l unless it is already attached.
func (o *Overlay) Attach(l *Label) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !slices.Contains(o.labels, l) {
		o.labels = append(o.labels, l)
	}
}

// Detach removes l.
func (o *Overlay) Detach(l *Label) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.labels = slices.DeleteFunc(o.labels, func(x *Label) bool { return x == l })
}

// Labels returns copies of the attached labels.
func (o *Overlay) Labels() []Label {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Label, len(o.labels))
	for i, l := range o.labels {
		out[i] = *l
	}
	return out
}

// Len returns the number of attached labels.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.labels)
}
