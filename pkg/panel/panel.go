// Package panel is a headless control panel: numeric sliders and buttons
// bound to plain values, grouped into folders.
//
// Front ends draw the panel however they like (the terminal UI renders
// sliders with lipgloss, the HTTP API lists controllers as JSON). Writes go
// through [Controller.SetValue], which clamps to the controller's range,
// stores into the bound value and fires the change callback. Code that
// changes bound values behind the panel's back calls [Panel.RefreshAll].
//
// A Panel is not safe for concurrent use; callers serialize access on
// their event loop.
package panel

import (
	"slices"
	"strings"
)

// Kind distinguishes controller types.
type Kind int

const (
	KindNumber Kind = iota
	KindButton
)

func (k Kind) String() string {
	if k == KindButton {
		return "button"
	}
	return "number"
}

// Panel is the root of the control tree.
type Panel struct {
	root *Folder
}

// New creates an empty panel.
func New() *Panel {
	p := &Panel{}
	p.root = &Folder{panel: p, open: true}
	return p
}

// Root returns the top-level folder.
func (p *Panel) Root() *Folder { return p.root }

// AddFolder adds a top-level folder.
func (p *Panel) AddFolder(name string) *Folder { return p.root.AddFolder(name) }

// Folder returns the top-level folder called name.
func (p *Panel) Folder(name string) (*Folder, bool) {
	for _, f := range p.root.folders {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// RemoveFolder detaches f and all its controllers from the panel.
// Removing a folder that is not attached does nothing.
func (p *Panel) RemoveFolder(f *Folder) {
	if f == nil || f.parent == nil {
		return
	}
	parent := f.parent
	parent.folders = slices.DeleteFunc(parent.folders, func(x *Folder) bool { return x == f })
	f.parent = nil
}

// Controllers returns every controller in display order, root first.
func (p *Panel) Controllers() []*Controller {
	var out []*Controller
	p.root.walk(func(f *Folder) {
		out = append(out, f.controllers...)
	})
	return out
}

// Find returns the controller at path, e.g. "Light/diffuse" or "Default".
func (p *Panel) Find(path string) (*Controller, bool) {
	parts := strings.Split(path, "/")
	f := p.root
	for _, name := range parts[:len(parts)-1] {
		next, ok := f.folder(name)
		if !ok {
			return nil, false
		}
		f = next
	}
	return f.Controller(parts[len(parts)-1])
}

// RefreshAll makes every controller re-read its bound value.
func (p *Panel) RefreshAll() {
	for _, c := range p.Controllers() {
		c.UpdateDisplay()
	}
}

// Folder groups controllers under a heading.
type Folder struct {
	panel       *Panel
	parent      *Folder
	name        string
	open        bool
	controllers []*Controller
	folders     []*Folder
}

// Name returns the folder heading. The root folder's name is empty.
func (f *Folder) Name() string { return f.name }

// AddFolder adds a closed sub-folder.
func (f *Folder) AddFolder(name string) *Folder {
	sub := &Folder{panel: f.panel, parent: f, name: name}
	f.folders = append(f.folders, sub)
	return sub
}

// Folders returns the direct sub-folders.
func (f *Folder) Folders() []*Folder { return slices.Clone(f.folders) }

func (f *Folder) folder(name string) (*Folder, bool) {
	for _, sub := range f.folders {
		if sub.name == name {
			return sub, true
		}
	}
	return nil, false
}

// Open expands the folder.
func (f *Folder) Open() { f.open = true }

// Close collapses the folder.
func (f *Folder) Close() { f.open = false }

// IsOpen reports whether the folder is expanded.
func (f *Folder) IsOpen() bool { return f.open }

// Attached reports whether the folder is still part of its panel.
func (f *Folder) Attached() bool { return f.parent != nil || f == f.panel.root }

// Controllers returns the folder's own controllers.
func (f *Folder) Controllers() []*Controller { return slices.Clone(f.controllers) }

// Controller returns the folder's controller called name.
func (f *Folder) Controller(name string) (*Controller, bool) {
	for _, c := range f.controllers {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// AddNumber binds a slider to *v with range [min, max].
func (f *Folder) AddNumber(name string, v *float64, min, max float64) *Controller {
	c := &Controller{folder: f, kind: KindNumber, name: name, value: v, min: min, max: max}
	c.display = *v
	f.controllers = append(f.controllers, c)
	return c
}

// AddButton adds a button that runs fn when pressed.
func (f *Folder) AddButton(name string, fn func()) *Controller {
	c := &Controller{folder: f, kind: KindButton, name: name, action: fn}
	f.controllers = append(f.controllers, c)
	return c
}

func (f *Folder) walk(fn func(*Folder)) {
	fn(f)
	for _, sub := range f.folders {
		sub.walk(fn)
	}
}
