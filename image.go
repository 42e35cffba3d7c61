package mandel

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"github.com/marben/smooth_mandel/internal/wire"
)

// BytesPerPixel is the size of one BGR pixel in Pix.
const BytesPerPixel = 3

// BGR is an in-memory image whose pixels are stored as B, G, R bytes,
// row-major. It is the output buffer of the renderer.
type BGR struct {
	// Pix holds the pixels. The pixel at (x, y) starts at
	// Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8
	// Stride is the distance in bytes between vertically adjacent pixels.
	// A sub-image of a larger mosaic has a Stride wider than 3*Rect.Dx().
	Stride int
	Rect   image.Rectangle
}

// NewBGR returns a black image covering r.
func NewBGR(r image.Rectangle) *BGR {
	w, h := r.Dx(), r.Dy()
	return &BGR{
		Pix:    make([]uint8, w*h*BytesPerPixel),
		Stride: w * BytesPerPixel,
		Rect:   r,
	}
}

func (p *BGR) ColorModel() color.Model { return color.RGBAModel }

func (p *BGR) Bounds() image.Rectangle { return p.Rect }

func (p *BGR) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	c := p.BGRAt(x, y)
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// BGRAt returns the colour at (x, y), which must lie in p.Rect.
func (p *BGR) BGRAt(x, y int) Color {
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	return Color{R: s[2], G: s[1], B: s[0]}
}

// PixOffset returns the index of the first byte of pixel (x, y) in Pix.
func (p *BGR) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*BytesPerPixel
}

func (p *BGR) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	p.SetBGR(x, y, ColorOf(c))
}

// SetBGR writes c at (x, y), which must lie in p.Rect.
func (p *BGR) SetBGR(x, y int, c Color) {
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	s[0], s[1], s[2] = c.B, c.G, c.R
}

// SubImage returns the part of p visible through r. The result shares
// pixels with p.
func (p *BGR) SubImage(r image.Rectangle) *BGR {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &BGR{}
	}
	i := p.PixOffset(r.Min.X, r.Min.Y)
	return &BGR{
		Pix:    p.Pix[i:],
		Stride: p.Stride,
		Rect:   r,
	}
}

// Compose copies src into p at src.Rect. Pixels of src outside p are
// dropped.
func (p *BGR) Compose(src *BGR) {
	r := src.Rect.Intersect(p.Rect)
	if r.Empty() {
		return
	}
	n := r.Dx() * BytesPerPixel
	for y := r.Min.Y; y < r.Max.Y; y++ {
		d := p.PixOffset(r.Min.X, y)
		s := src.PixOffset(r.Min.X, y)
		copy(p.Pix[d:d+n], src.Pix[s:s+n])
	}
}

// Rows returns the pixels of p packed without padding, i.e. with a stride of
// 3*Rect.Dx().
func (p *BGR) Rows() []byte {
	n := p.Rect.Dx() * BytesPerPixel
	if p.Stride == n && len(p.Pix) == n*p.Rect.Dy() {
		return p.Pix
	}
	out := make([]byte, 0, n*p.Rect.Dy())
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		i := p.PixOffset(p.Rect.Min.X, y)
		out = append(out, p.Pix[i:i+n]...)
	}
	return out
}

// MarshalBinary encodes the bounds as four varints followed by the zstd
// compressed Rows.
func (p BGR) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 4*binary.MaxVarintLen64)
	for _, v := range []int{p.Rect.Min.X, p.Rect.Min.Y, p.Rect.Max.X, p.Rect.Max.Y} {
		b = binary.AppendVarint(b, int64(v))
	}
	b, err := wire.Compress(b, p.Rows())
	if err != nil {
		return nil, fmt.Errorf("image %v: %w", p.Rect, err)
	}
	return b, nil
}

// UnmarshalBinary is the inverse of MarshalBinary. The decoded image is
// packed, with Stride 3*Rect.Dx().
func (p *BGR) UnmarshalBinary(data []byte) error {
	var v [4]int
	for i := range v {
		x, n := binary.Varint(data)
		if n <= 0 {
			return fmt.Errorf("%w: truncated bounds", ErrCorruptImage)
		}
		v[i], data = int(x), data[n:]
	}
	r := image.Rect(v[0], v[1], v[2], v[3])
	if r != (image.Rectangle{Min: image.Pt(v[0], v[1]), Max: image.Pt(v[2], v[3])}) {
		return fmt.Errorf("%w: bounds %v not canonical", ErrCorruptImage, r)
	}
	if r.Dx() > wire.MaxPayload || r.Dy() > wire.MaxPayload || r.Dx()*r.Dy()*BytesPerPixel > wire.MaxPayload {
		return fmt.Errorf("%w: %v too large", ErrCorruptImage, r)
	}
	stride := r.Dx() * BytesPerPixel
	pix, err := wire.Decompress(data)
	if err != nil {
		return fmt.Errorf("%w: %v: %v", ErrCorruptImage, r, err)
	}
	if want := stride * r.Dy(); len(pix) != want {
		return fmt.Errorf("%w: %v has %d bytes, want %d", ErrCorruptImage, r, len(pix), want)
	}
	*p = BGR{Pix: pix, Stride: stride, Rect: r}
	return nil
}
