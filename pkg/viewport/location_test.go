package viewport

import (
	"math"
	"testing"

	"github.com/matzehuels/mapstyle/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		hash    string
		want    Location
		wantErr bool
	}{
		{"with hash", "#15/40.7053/-74.0098", Location{Lat: 40.7053, Lng: -74.0098, Zoom: 15}, false},
		{"without hash", "3/51.508/-0.105", Location{Lat: 51.508, Lng: -0.105, Zoom: 3}, false},
		{"fractional zoom", "#12.5/0/0", Location{Zoom: 12.5}, false},

		{"empty", "", Location{}, true},
		{"two parts", "#15/40.7", Location{}, true},
		{"four parts", "#15/40.7/-74/1", Location{}, true},
		{"not a number", "#15/abc/-74", Location{}, true},
		{"lat out of range", "#15/91/0", Location{}, true},
		{"lng out of range", "#15/0/181", Location{}, true},
		{"zoom out of range", "#30/0/0", Location{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.hash)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.hash, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidViewport) {
					t.Errorf("Parse(%q) returned wrong error code: %v", tt.hash, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.hash, got, tt.want)
			}
		})
	}
}

func TestHash(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{Lat: 40.70531887544228, Lng: -74.00976419448853, Zoom: 15}, "#15/40.7053/-74.0098"},
		{Location{Lat: 51.508, Lng: -0.105, Zoom: 1}, "#1/52/-0"},
		{Location{Lat: 47.609722, Lng: -122.333056, Zoom: 4}, "#4/47.61/-122.33"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.loc.Hash(); got != tt.want {
				t.Errorf("Hash() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHashRoundTrip(t *testing.T) {
	loc := Location{Lat: 40.7053, Lng: -74.0098, Zoom: 15}
	got, err := Parse(loc.Hash())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != loc {
		t.Errorf("round trip = %+v, want %+v", got, loc)
	}
}

func TestResolve(t *testing.T) {
	london, _ := Named("london")

	tests := []struct {
		name string
		hash string
		loc  string
		want Location
	}{
		{"hash wins", "#10/1/2", "London", Location{Lat: 1, Lng: 2, Zoom: 10}},
		{"bad hash falls to name", "#10/x/2", "London", london},
		{"unknown name falls to default", "", "Atlantis", Default()},
		{"nothing", "", "", Default()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.hash, tt.loc); got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()
	want := []string{"London", "New York", "Seattle"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if Default().Zoom != 15 || math.Abs(Default().Lat-40.7053) > 1e-3 {
		t.Errorf("Default() = %+v", Default())
	}
}
