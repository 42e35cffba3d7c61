package mandel

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
)

// Tolerance is used for approximate float comparisons: gradient equality,
// the root≈1 and root≈2 checks, and (squared) the periodicity test of Escape.
const Tolerance = 1e-10

// GradientConfig is the flat, serialisable description of a Gradient.
// Use DefaultGradientConfig for the usual starting point.
type GradientConfig struct {
	PaletteScale float64 `json:"paletteScale"`
	Shift        float64 `json:"shift"`

	// RootIndex applies index^(1/Root). It has no effect when Root is 1.
	RootIndex bool    `json:"rootIndex"`
	Root      float64 `json:"root"`

	// LogIndex additionally takes a logarithm of the index; it requires
	// MinIterations >= 1.
	LogIndex      bool `json:"logIndex"`
	MinIterations int  `json:"minIterations"`

	// AlternateSmoothing multiplies log|z|² by 0.5*log(B) instead of
	// 0.5/log(B).
	AlternateSmoothing bool `json:"alternateSmoothing"`

	// BlendFromSmoothed blends adjacent palette entries by the fractional
	// part of the smoothed iteration instead of the palette index.
	BlendFromSmoothed bool `json:"blendFromSmoothed,omitempty"`

	IndexScale float64 `json:"indexScale"`
	Weight     float64 `json:"weight"`

	// PaletteBailout replaces the escape bailout in the smoothing constant
	// when non-zero.
	PaletteBailout float64 `json:"paletteBailout,omitempty"`

	// MaxIterationColor paints points that never escape. When nil they are
	// coloured through the palette like everything else.
	MaxIterationColor *Color `json:"maxIterationColor,omitempty"`
}

// DefaultGradientConfig returns a square-root gradient with the given palette
// scale and shift.
func DefaultGradientConfig(paletteScale, shift float64) GradientConfig {
	return GradientConfig{
		PaletteScale:  paletteScale,
		Shift:         shift,
		RootIndex:     true,
		Root:          2,
		MinIterations: 1,
		IndexScale:    1,
		Weight:        1,
	}
}

// Gradient maps smoothed iteration counts to palette indices. It is an
// immutable value built by NewGradient; the zero Gradient is invalid.
type Gradient struct {
	cfg       GradientConfig
	exponent  float64
	rootIndex bool
	interior  Color
	hasColor  bool
	valid     bool
}

// NewGradient validates cfg and returns the corresponding Gradient.
func NewGradient(cfg GradientConfig) (Gradient, error) {
	if cfg.LogIndex && cfg.MinIterations < 1 {
		return Gradient{}, fmt.Errorf("%w: must be >= 1 with a log index, is %d", ErrInvalidMinIterations, cfg.MinIterations)
	}
	if cfg.MinIterations < 0 {
		return Gradient{}, fmt.Errorf("%w: must be >= 0, is %d", ErrInvalidMinIterations, cfg.MinIterations)
	}
	if cfg.Root == 0 || math.IsNaN(cfg.Root) || math.IsInf(cfg.Root, 0) {
		return Gradient{}, fmt.Errorf("%w: root must be finite and non-zero, is %g", ErrInvalidGradient, cfg.Root)
	}
	if cfg.PaletteBailout < 0 || math.IsNaN(cfg.PaletteBailout) {
		return Gradient{}, fmt.Errorf("%w: palette bailout must be >= 0, is %g", ErrInvalidGradient, cfg.PaletteBailout)
	}
	g := Gradient{
		cfg:       cfg,
		exponent:  1 / cfg.Root,
		rootIndex: cfg.RootIndex && math.Abs(cfg.Root-1) >= Tolerance,
		valid:     true,
	}
	if cfg.MaxIterationColor != nil {
		g.interior, g.hasColor = *cfg.MaxIterationColor, true
		c := g.interior
		g.cfg.MaxIterationColor = &c
	}
	return g, nil
}

// MustGradient is like NewGradient but panics on error. It is meant for
// package-level configuration.
func MustGradient(cfg GradientConfig) Gradient {
	g, err := NewGradient(cfg)
	if err != nil {
		panic(err)
	}
	return g
}

// Config returns a copy of the configuration the gradient was built from.
func (g Gradient) Config() GradientConfig {
	cfg := g.cfg
	if g.hasColor {
		c := g.interior
		cfg.MaxIterationColor = &c
	}
	return cfg
}

// Exponent is 1/Root.
func (g Gradient) Exponent() float64 { return g.exponent }

// RootIndex reports whether the root transform is applied.
func (g Gradient) RootIndex() bool { return g.rootIndex }

// MaxIterationColor returns the interior colour, if one is configured.
func (g Gradient) MaxIterationColor() (Color, bool) { return g.interior, g.hasColor }

// Valid reports whether g came from NewGradient.
func (g Gradient) Valid() bool { return g.valid }

// Equal compares float fields within Tolerance and everything else exactly.
func (g Gradient) Equal(o Gradient) bool {
	a, b := g.cfg, o.cfg
	near := func(x, y float64) bool { return math.Abs(x-y) < Tolerance }
	return near(a.PaletteScale, b.PaletteScale) &&
		near(a.Shift, b.Shift) &&
		near(a.Root, b.Root) &&
		near(a.IndexScale, b.IndexScale) &&
		near(a.Weight, b.Weight) &&
		near(a.PaletteBailout, b.PaletteBailout) &&
		a.MinIterations == b.MinIterations &&
		a.LogIndex == b.LogIndex &&
		g.rootIndex == o.rootIndex &&
		a.AlternateSmoothing == b.AlternateSmoothing &&
		a.BlendFromSmoothed == b.BlendFromSmoothed &&
		g.hasColor == o.hasColor &&
		g.interior == o.interior &&
		g.valid == o.valid
}

// Hash returns a key for deduplicating gradients. Only the exactly compared
// fields contribute, so g.Equal(o) implies g.Hash() == o.Hash().
func (g Gradient) Hash() uint64 {
	h := fnv.New64a()
	b := func(v bool) byte {
		if v {
			return 1
		}
		return 0
	}
	m := uint32(g.cfg.MinIterations)
	h.Write([]byte{
		b(g.valid), b(g.rootIndex), b(g.cfg.LogIndex),
		b(g.cfg.AlternateSmoothing), b(g.cfg.BlendFromSmoothed), b(g.hasColor),
		g.interior.R, g.interior.G, g.interior.B,
		byte(m), byte(m >> 8), byte(m >> 16), byte(m >> 24),
	})
	return h.Sum64()
}

// String formats the gradient in the whitespace separated form read by
// ParseGradient:
//
//	paletteScale shift logIndex rootIndex alternateSmoothing root minIterations indexScale weight paletteBailout blendFromSmoothed interior
//
// interior is the MaxIterationColor as "#rrggbb", or "-" when there is none.
func (g Gradient) String() string {
	c := g.cfg
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	interior := "-"
	if g.hasColor {
		interior = g.interior.Hex()
	}
	return strings.Join([]string{
		f(c.PaletteScale), f(c.Shift),
		strconv.FormatBool(c.LogIndex), strconv.FormatBool(c.RootIndex),
		strconv.FormatBool(c.AlternateSmoothing),
		f(c.Root), strconv.Itoa(c.MinIterations), f(c.IndexScale), f(c.Weight),
		f(c.PaletteBailout), strconv.FormatBool(c.BlendFromSmoothed), interior,
	}, " ")
}

// ParseGradient reads the form written by Gradient.String. Trailing fields
// may be omitted and take the values of DefaultGradientConfig.
func ParseGradient(s string) (Gradient, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 || len(fields) > 12 {
		return Gradient{}, fmt.Errorf("%w: %q: want 2 to 12 fields", ErrInvalidGradient, s)
	}
	cfg := DefaultGradientConfig(0, 0)
	var errs []error
	float := func(i int, dst *float64) {
		if i < len(fields) {
			v, err := strconv.ParseFloat(fields[i], 64)
			errs = append(errs, err)
			*dst = v
		}
	}
	boolean := func(i int, dst *bool) {
		if i < len(fields) {
			v, err := strconv.ParseBool(fields[i])
			errs = append(errs, err)
			*dst = v
		}
	}
	float(0, &cfg.PaletteScale)
	float(1, &cfg.Shift)
	boolean(2, &cfg.LogIndex)
	boolean(3, &cfg.RootIndex)
	boolean(4, &cfg.AlternateSmoothing)
	float(5, &cfg.Root)
	if len(fields) > 6 {
		v, err := strconv.Atoi(fields[6])
		errs = append(errs, err)
		cfg.MinIterations = v
	}
	float(7, &cfg.IndexScale)
	float(8, &cfg.Weight)
	float(9, &cfg.PaletteBailout)
	boolean(10, &cfg.BlendFromSmoothed)
	if len(fields) > 11 && fields[11] != "-" {
		c, err := ParseHex(fields[11])
		errs = append(errs, err)
		cfg.MaxIterationColor = &c
	}
	for _, err := range errs {
		if err != nil {
			return Gradient{}, fmt.Errorf("%w: %q: %v", ErrInvalidGradient, s, err)
		}
	}
	return NewGradient(cfg)
}

// MarshalBinary encodes g in the text form of String. The zero Gradient
// cannot be encoded.
func (g Gradient) MarshalBinary() ([]byte, error) {
	if !g.valid {
		return nil, fmt.Errorf("%w: not built by NewGradient", ErrInvalidGradient)
	}
	return []byte(g.String()), nil
}

// UnmarshalBinary is the inverse of MarshalBinary. The decoded gradient is
// validated like one from NewGradient.
func (g *Gradient) UnmarshalBinary(data []byte) error {
	v, err := ParseGradient(string(data))
	if err != nil {
		return err
	}
	*g = v
	return nil
}
