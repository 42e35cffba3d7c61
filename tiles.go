package mandel

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// SplitGrid cuts rect into at most nx×ny tiles. Every tile but the last in a
// row or column is round(span/n) pixels wide; the last one takes what is
// left. The tiles are disjoint, cover rect exactly and are listed row by row.
// Tiles that would be empty are left out, so fewer than nx×ny tiles come back
// when rect is small.
func SplitGrid(rect image.Rectangle, nx, ny int) []image.Rectangle {
	if nx < 1 || ny < 1 || rect.Empty() {
		return nil
	}
	cols := splitSpan(rect.Min.X, rect.Max.X, nx)
	rows := splitSpan(rect.Min.Y, rect.Max.Y, ny)
	tiles := make([]image.Rectangle, 0, len(cols)*len(rows))
	for _, r := range rows {
		for _, c := range cols {
			tiles = append(tiles, image.Rect(c[0], r[0], c[1], r[1]))
		}
	}
	return tiles
}

// splitSpan returns the non-empty [start, end) pieces of [lo, hi).
func splitSpan(lo, hi, n int) [][2]int {
	dist := int(math.Round(float64(hi-lo) / float64(n)))
	spans := make([][2]int, 0, n)
	for i := range n {
		start := min(lo+i*dist, hi)
		end := min(lo+(i+1)*dist, hi)
		if i == n-1 {
			end = hi
		}
		if end > start {
			spans = append(spans, [2]int{start, end})
		}
	}
	return spans
}

// ParseGrid reads a grid or image size written as "WxH", e.g. "4x2".
func ParseGrid(s string) (image.Point, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return image.Point{}, fmt.Errorf("%w: %q: want WxH", ErrInvalidGrid, s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(ws))
	if err != nil {
		return image.Point{}, fmt.Errorf("%w: %q: %v", ErrInvalidGrid, s, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil {
		return image.Point{}, fmt.Errorf("%w: %q: %v", ErrInvalidGrid, s, err)
	}
	if w < 1 || h < 1 {
		return image.Point{}, fmt.Errorf("%w: %q", ErrInvalidGrid, s)
	}
	return image.Pt(w, h), nil
}
