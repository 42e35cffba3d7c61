package mandel

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"time"
)

// Defaults for a full view of the set.
const (
	DefaultMaxIterations = 1000
	DefaultBailout       = 1e10
	DefaultNumColors     = 768
	DefaultPaletteScale  = 256
)

// Request describes one render. A Request is a plain value; nothing about a
// render is kept in package state.
type Request struct {
	// Grid is the number of tiles along x and y, each rendered on its own
	// goroutine. The output does not depend on it.
	Grid image.Point
	// Size is the width and height of the whole image that Region is mapped
	// onto.
	Size image.Point
	// Rect is the part of the image to produce. The zero Rect means the
	// whole image. It is only used by Render.
	Rect image.Rectangle

	Region        Region
	MaxIterations int
	Bailout       float64
	Palette       Palette
	Gradient      Gradient
}

// Validate reports the first problem with r, wrapped around one of the
// package's sentinel errors.
func (r Request) Validate() error {
	if r.Size.X <= 0 || r.Size.Y <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimension, r.Size.X, r.Size.Y)
	}
	if r.Grid.X < 1 || r.Grid.Y < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGrid, r.Grid.X, r.Grid.Y)
	}
	if r.MaxIterations < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidIteration, r.MaxIterations)
	}
	if !(r.Bailout > 0) || math.IsInf(r.Bailout, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidBailout, r.Bailout)
	}
	if len(r.Palette) == 0 {
		return ErrEmptyPalette
	}
	if !r.Gradient.Valid() {
		return fmt.Errorf("%w: not built by NewGradient", ErrInvalidGradient)
	}
	return nil
}

// Bounds returns the pixel rectangle Render produces.
func (r Request) Bounds() image.Rectangle {
	if r.Rect == (image.Rectangle{}) {
		return image.Rectangle{Max: r.Size}
	}
	return r.Rect
}

// Render allocates an image covering req.Bounds() and renders into it.
func Render(req Request) (*BGR, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rect := req.Bounds()
	if rect.Empty() {
		return nil, fmt.Errorf("%w: empty rect %v", ErrInvalidDimension, rect)
	}
	dst := NewBGR(rect)
	if err := RenderInto(dst, req); err != nil {
		return nil, err
	}
	return dst, nil
}

// LocalRenderer renders tiles in this process. A non-zero Grid overrides
// req.Grid.
type LocalRenderer struct {
	Grid image.Point
}

func (l LocalRenderer) RenderTile(ctx context.Context, req Request, tile image.Rectangle) (*BGR, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Grid != (image.Point{}) {
		req.Grid = l.Grid
	}
	if tile.Empty() {
		return nil, fmt.Errorf("%w: empty tile %v", ErrInvalidDimension, tile)
	}
	req.Rect = tile
	return Render(req)
}

var _ Renderer = LocalRenderer{}

// RenderInto renders the pixels of dst.Rect, given in coordinates of the
// whole req.Size image, into dst. dst may be a sub-image of a larger mosaic.
// Every tile of the req.Grid split of dst.Rect runs on its own goroutine and
// RenderInto returns once all of them are done. Nothing is written when req
// is invalid.
func RenderInto(dst *BGR, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if dst == nil {
		return fmt.Errorf("%w: nil destination", ErrInvalidDimension)
	}
	rect := dst.Rect
	if rect.Empty() {
		return nil
	}
	if need := (rect.Dy()-1)*dst.Stride + rect.Dx()*BytesPerPixel; dst.Stride < rect.Dx()*BytesPerPixel || len(dst.Pix) < need {
		return fmt.Errorf("%w: buffer of %d bytes with stride %d cannot hold %v", ErrInvalidDimension, len(dst.Pix), dst.Stride, rect)
	}
	m, err := NewMapper(req.Size.X, req.Size.Y, req.Region)
	if err != nil {
		return err
	}
	s := newShader(req.Palette, req.Gradient, req.MaxIterations, req.Bailout)
	tiles := SplitGrid(rect, req.Grid.X, req.Grid.Y)

	log := Logger()
	log.Debug("render started", "rect", rect, "size", req.Size, "region", req.Region, "tiles", len(tiles))
	start := time.Now()

	var wg sync.WaitGroup
	for _, tile := range tiles {
		wg.Go(func() { s.fill(dst, tile, m) })
	}
	wg.Wait()

	log.Debug("render finished", "rect", rect, "elapsed", time.Since(start))
	return nil
}

// fill renders tile into dst. Pixel coordinates are absolute, so a pixel
// comes out the same whichever tile it falls in.
func (s *shader) fill(dst *BGR, tile image.Rectangle, m Mapper) {
	for y := tile.Min.Y; y < tile.Max.Y; y++ {
		for x := tile.Min.X; x < tile.Max.X; x++ {
			o := Escape(m.ToPlane(x, y), s.bailoutSquared, s.maxIter)
			dst.SetBGR(x, y, s.shade(o))
		}
	}
}
