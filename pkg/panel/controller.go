package panel

import "math"

// Controller is a slider or button.
type Controller struct {
	folder   *Folder
	kind     Kind
	name     string
	value    *float64
	min, max float64
	display  float64
	onChange func(float64)
	action   func()
}

// Name returns the label.
func (c *Controller) Name() string { return c.name }

// Kind returns the controller type.
func (c *Controller) Kind() Kind { return c.kind }

// Folder returns the folder holding c.
func (c *Controller) Folder() *Folder { return c.folder }

// Path returns "Folder/name", or just name for root controllers.
func (c *Controller) Path() string {
	if c.folder == nil || c.folder.name == "" {
		return c.name
	}
	return c.folder.name + "/" + c.name
}

// Range returns the slider bounds.
func (c *Controller) Range() (min, max float64) { return c.min, c.max }

// OnChange registers fn to run after every SetValue.
func (c *Controller) OnChange(fn func(float64)) *Controller {
	c.onChange = fn
	return c
}

// Value returns the bound value.
func (c *Controller) Value() float64 {
	if c.value == nil {
		return 0
	}
	return *c.value
}

// Display returns the value last shown, which lags Value until UpdateDisplay.
func (c *Controller) Display() float64 { return c.display }

// SetValue clamps v to range, stores it and fires the change callback.
// It returns the stored value. Buttons ignore it.
func (c *Controller) SetValue(v float64) float64 {
	if c.kind != KindNumber || math.IsNaN(v) {
		return c.Value()
	}
	v = math.Max(c.min, math.Min(c.max, v))
	*c.value = v
	c.display = v
	if c.onChange != nil {
		c.onChange(v)
	}
	return v
}

// Nudge moves a slider by steps hundredths of its range.
func (c *Controller) Nudge(steps int) float64 {
	return c.SetValue(c.Value() + float64(steps)*(c.max-c.min)/100)
}

// Fraction returns the value's position within range as 0..1.
func (c *Controller) Fraction() float64 {
	if c.max == c.min {
		return 0
	}
	return (c.display - c.min) / (c.max - c.min)
}

// UpdateDisplay re-reads the bound value.
func (c *Controller) UpdateDisplay() {
	if c.value != nil {
		c.display = *c.value
	}
}

// Press runs a button's action.
func (c *Controller) Press() {
	if c.kind == KindButton && c.action != nil {
		c.action()
	}
}
