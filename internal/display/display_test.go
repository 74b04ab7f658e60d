package display

import (
	"io"
	"log/slog"
	"math"
	"testing"
)

func TestPages(t *testing.T) {
	tests := []struct {
		name      string
		page      Page
		top, bott string
	}{
		{name: "normal", page: Normal(23.45, 51.4, 120.2, 640), top: "T:23.4C H:51%", bott: "D:120 G:640"},
		{name: "normal unknown climate", page: Normal(math.NaN(), 50, 8, 700), top: "T:--C H:--%", bott: "D:8 G:700"},
		{name: "normal unknown distance", page: Normal(20, 40, math.NaN(), 100), top: "T:20.0C H:40%", bott: "D:-- G:100"},
		{name: "obstacle", page: Obstacle(7.25), top: "Obstacle Alert!", bott: "Dist: 7.2cm"},
		{name: "gas", page: GasLeak(1033), top: "Gas Leak Alert!", bott: "Val: 1033"},
		{name: "overheat", page: Overheat(46.04), top: "High Temp Alert!", bott: "46.0C"},
		{name: "seismic", page: Seismic(2.56), top: "Earthquake!", bott: "Mag: 2.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if want := fit(tt.top); tt.page[0] != want {
				t.Errorf("row0 = %q; want %q", tt.page[0], want)
			}
			if want := fit(tt.bott); tt.page[1] != want {
				t.Errorf("row1 = %q; want %q", tt.page[1], want)
			}
		})
	}
}

func TestNewPage_FitsPanel(t *testing.T) {
	p := NewPage("this line is far too long", "")
	if len(p[0]) != Cols || len(p[1]) != Cols {
		t.Fatalf("row widths = %d, %d; want %d", len(p[0]), len(p[1]), Cols)
	}
	if p[0] != "this line is far" {
		t.Errorf("row0 = %q", p[0])
	}
}

func TestConsole_RemembersLastPage(t *testing.T) {
	c := NewConsole(slog.New(slog.NewTextHandler(io.Discard, nil)))
	p := GasLeak(900)
	if err := c.Show(p); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if c.Last() != p {
		t.Errorf("Last() = %v; want %v", c.Last(), p)
	}
}
