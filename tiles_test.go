package mandel

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitGrid(t *testing.T) {
	tests := []struct {
		name string
		rect image.Rectangle
		grid image.Point
		want []image.Rectangle
	}{
		{
			name: "single",
			rect: image.Rect(0, 0, 10, 7),
			grid: image.Pt(1, 1),
			want: []image.Rectangle{image.Rect(0, 0, 10, 7)},
		},
		{
			name: "columns_round_up",
			rect: image.Rect(0, 0, 10, 7),
			grid: image.Pt(4, 1),
			want: []image.Rectangle{
				image.Rect(0, 0, 3, 7),
				image.Rect(3, 0, 6, 7),
				image.Rect(6, 0, 9, 7),
				image.Rect(9, 0, 10, 7),
			},
		},
		{
			name: "offset_origin",
			rect: image.Rect(5, 10, 15, 17),
			grid: image.Pt(2, 2),
			want: []image.Rectangle{
				image.Rect(5, 10, 10, 14),
				image.Rect(10, 10, 15, 14),
				image.Rect(5, 14, 10, 17),
				image.Rect(10, 14, 15, 17),
			},
		},
		{
			name: "more_tiles_than_pixels",
			rect: image.Rect(0, 0, 2, 1),
			grid: image.Pt(6, 1),
			want: []image.Rectangle{image.Rect(0, 0, 2, 1)},
		},
		{
			name: "empty_rect",
			rect: image.Rect(3, 3, 3, 9),
			grid: image.Pt(2, 2),
		},
		{
			name: "no_columns",
			rect: image.Rect(0, 0, 10, 10),
			grid: image.Pt(0, 2),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitGrid(tc.rect, tc.grid.X, tc.grid.Y)
			if d := cmp.Diff(tc.want, got); d != "" {
				t.Errorf("tiles mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestSplitGridCovers(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(0, 0, 301, 157),
		image.Rect(-20, 7, 13, 40),
		image.Rect(0, 0, 5, 3),
	}
	grids := []image.Point{{1, 1}, {2, 2}, {4, 1}, {3, 5}, {6, 1}, {7, 7}, {16, 16}}
	for _, r := range rects {
		for _, g := range grids {
			count := make(map[image.Point]int)
			for _, tile := range SplitGrid(r, g.X, g.Y) {
				if tile.Empty() || !tile.In(r) {
					t.Errorf("%v split %v: bad tile %v", r, g, tile)
				}
				for y := tile.Min.Y; y < tile.Max.Y; y++ {
					for x := tile.Min.X; x < tile.Max.X; x++ {
						count[image.Pt(x, y)]++
					}
				}
			}
			if len(count) != r.Dx()*r.Dy() {
				t.Errorf("%v split %v: covers %d of %d pixels", r, g, len(count), r.Dx()*r.Dy())
			}
			for p, n := range count {
				if n != 1 {
					t.Errorf("%v split %v: pixel %v covered %d times", r, g, p, n)
					break
				}
			}
		}
	}
}

func TestParseGrid(t *testing.T) {
	got, err := ParseGrid("4x2")
	if err != nil {
		t.Fatal(err)
	}
	if got != image.Pt(4, 2) {
		t.Errorf("ParseGrid(4x2) = %v", got)
	}
	if got, err := ParseGrid("16X9"); err != nil || got != image.Pt(16, 9) {
		t.Errorf("ParseGrid(16X9) = %v, %v", got, err)
	}
	for _, s := range []string{"", "4", "0x1", "2x-1", "ax2", "2xb"} {
		if _, err := ParseGrid(s); !errors.Is(err, ErrInvalidGrid) {
			t.Errorf("ParseGrid(%q): got %v", s, err)
		}
	}
}
