package mandel

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/marben/smooth_mandel/internal/spline"
)

// Color is an opaque 8-bit RGB colour.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// Hex formats c as "#rrggbb".
func (c Color) Hex() string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

// ParseHex reads "#rrggbb" or "#rgb".
func ParseHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, err
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// ColorOf converts any color.Color to Color, dropping alpha.
func ColorOf(c color.Color) Color {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return Color{R: rgba.R, G: rgba.G, B: rgba.B}
}

// ControlPoint pins a colour at a position in [0, 1] of the palette.
type ControlPoint struct {
	Position float64 `json:"position"`
	Color    Color   `json:"color"`
}

// Extrapolation selects how the palette is continued outside the range of
// the control points.
type Extrapolation = spline.Extrapolation

// Extrapolation policies.
const (
	ExtrapolateLinear   = spline.Linear
	ExtrapolateConstant = spline.Constant
	ExtrapolateNone     = spline.None
)

// DefaultControls is a blue/white/orange palette that wraps around.
var DefaultControls = []ControlPoint{
	{0.0, Color{0, 7, 100}},
	{0.16, Color{32, 107, 203}},
	{0.42, Color{237, 255, 255}},
	{0.6425, Color{255, 170, 0}},
	{0.8575, Color{0, 2, 0}},
	{1.0, Color{0, 7, 100}},
}

// Palette is a dense, cyclic list of colours.
type Palette []Color

// BuildPalette interpolates each channel of controls with a monotone cubic
// and samples it at i/numColors for i in [0, numColors).
func BuildPalette(controls []ControlPoint, numColors int, ext Extrapolation) (Palette, error) {
	if numColors < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPaletteSize, numColors)
	}
	xs := make([]float64, len(controls))
	channels := [3][]float64{}
	for c := range channels {
		channels[c] = make([]float64, len(controls))
	}
	for i, cp := range controls {
		xs[i] = cp.Position
		channels[0][i] = float64(cp.Color.R)
		channels[1][i] = float64(cp.Color.G)
		channels[2][i] = float64(cp.Color.B)
	}
	var splines [3]*spline.Interpolant
	for c, ys := range channels {
		s, err := spline.New(xs, ys, ext)
		if err != nil {
			return nil, err
		}
		splines[c] = s
	}

	p := make(Palette, numColors)
	step := 1 / float64(numColors)
	for i := range p {
		x := float64(i) * step
		p[i] = Color{
			R: channelByte(splines[0].At(x)),
			G: channelByte(splines[1].At(x)),
			B: channelByte(splines[2].At(x)),
		}
	}
	return p, nil
}

// channelByte truncates v toward zero and clamps it to a byte.
func channelByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// PaletteSpec bundles everything needed to build a palette.
type PaletteSpec struct {
	Controls      []ControlPoint `json:"controls"`
	NumColors     int            `json:"numColors"`
	Extrapolation Extrapolation  `json:"extrapolation"`
}

// Build calls BuildPalette with the fields of s.
func (s PaletteSpec) Build() (Palette, error) {
	return BuildPalette(s.Controls, s.NumColors, s.Extrapolation)
}

// Lerp blends from towards to. A NaN bias counts as 0 and an infinite one
// as 1; channels are truncated.
func Lerp(from, to Color, bias float64) Color {
	switch {
	case math.IsNaN(bias):
		bias = 0
	case math.IsInf(bias, 0):
		bias = 1
	}
	mix := func(a, b uint8) uint8 {
		return channelByte(float64(a) + (float64(b)-float64(a))*bias)
	}
	return Color{R: mix(from.R, to.R), G: mix(from.G, to.G), B: mix(from.B, to.B)}
}

// Locate returns the relative position in [0, 1) of the palette entry
// closest to c in RGB space. The search stops at the first exact match.
func (p Palette) Locate(c Color) float64 {
	if len(p) == 0 {
		return 0
	}
	dist := func(a Color) float64 {
		dr := float64(a.R) - float64(c.R)
		dg := float64(a.G) - float64(c.G)
		db := float64(a.B) - float64(c.B)
		return math.Sqrt(dr*dr + dg*dg + db*db)
	}
	best, bestDist := 0, dist(p[0])
	for i := 1; i < len(p) && bestDist >= Tolerance; i++ {
		if d := dist(p[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return float64(best) / float64(len(p))
}

// ScaleDownFactor is the fraction of the palette before the location
// returned by Locate, padded by Tolerance. With a linear index it keeps the
// highest iteration counts away from the colour at that location.
func ScaleDownFactor(location float64) float64 {
	return 1 - location + Tolerance
}

// RecommendedGradientScale suggests a PaletteScale for a palette of
// numColors entries.
func RecommendedGradientScale(numColors int, logIndex bool, scaleDownFactor float64) float64 {
	if logIndex {
		return float64(numColors - 1)
	}
	return float64(numColors) * math.Max(0, math.Min(1, scaleDownFactor))
}
