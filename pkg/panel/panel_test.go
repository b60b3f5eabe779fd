package panel

import "testing"

func TestSetValueClamps(t *testing.T) {
	p := New()
	v := 0.5
	var got []float64
	c := p.AddFolder("Light").AddNumber("ambient", &v, 0, 1).OnChange(func(x float64) {
		got = append(got, x)
	})

	tests := []struct {
		in, want float64
	}{
		{0.25, 0.25},
		{2, 1},
		{-3, 0},
	}
	for _, tt := range tests {
		if stored := c.SetValue(tt.in); stored != tt.want {
			t.Errorf("SetValue(%v) = %v, want %v", tt.in, stored, tt.want)
		}
		if v != tt.want {
			t.Errorf("bound value = %v, want %v", v, tt.want)
		}
	}
	if len(got) != 3 || got[1] != 1 {
		t.Errorf("callbacks = %v", got)
	}
}

func TestRefreshAll(t *testing.T) {
	p := New()
	a, b := 1.0, 2.0
	ca := p.AddFolder("A").AddNumber("a", &a, 0, 10)
	cb := p.Root().AddNumber("b", &b, 0, 10)

	a, b = 7, 8
	if ca.Display() != 1 || cb.Display() != 2 {
		t.Fatal("display should lag until refresh")
	}
	p.RefreshAll()
	if ca.Display() != 7 || cb.Display() != 8 {
		t.Errorf("after RefreshAll displays = %v, %v", ca.Display(), cb.Display())
	}
}

func TestRemoveFolder(t *testing.T) {
	p := New()
	v := 1.0
	f := p.AddFolder("Colorhalftone")
	f.AddNumber("dot_frequency", &v, 0, 10)
	f.Open()

	if _, ok := p.Find("Colorhalftone/dot_frequency"); !ok {
		t.Fatal("Find() should locate folder controller")
	}
	p.RemoveFolder(f)
	if f.Attached() {
		t.Error("removed folder still attached")
	}
	if _, ok := p.Folder("Colorhalftone"); ok {
		t.Error("Folder() found removed folder")
	}
	if n := len(p.Controllers()); n != 0 {
		t.Errorf("Controllers() = %d after removal, want 0", n)
	}
	p.RemoveFolder(f)
}

func TestButton(t *testing.T) {
	p := New()
	pressed := 0
	c := p.Root().AddButton("Default", func() { pressed++ })
	c.Press()
	if pressed != 1 {
		t.Errorf("pressed = %d", pressed)
	}
	if c.SetValue(3) != 0 {
		t.Error("SetValue on a button should be ignored")
	}
	if c.Path() != "Default" {
		t.Errorf("Path() = %q", c.Path())
	}
	if found, ok := p.Find("Default"); !ok || found != c {
		t.Error("Find(Default) failed")
	}
}

func TestNudgeAndFraction(t *testing.T) {
	v := 0.0
	c := New().AddFolder("Light").AddNumber("x position", &v, -1, 1)
	if got := c.Nudge(5); got != 0.1 {
		t.Errorf("Nudge(5) = %v, want 0.1", got)
	}
	if got := c.Fraction(); got < 0.549 || got > 0.551 {
		t.Errorf("Fraction() = %v, want 0.55", got)
	}
	if c.Path() != "Light/x position" {
		t.Errorf("Path() = %q", c.Path())
	}
}
