package mandel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Region within the complex plane. Min and Max are opposite corners; they
// are not required to be ordered. With OriginAndWidth set, Min is the centre
// and Max holds the full width (real part) and height (imaginary part).
type Region struct {
	Min, Max       complex128
	OriginAndWidth bool
}

// Normalize resolves the origin+width form into absolute corners.
func (r Region) Normalize() Region {
	if !r.OriginAndWidth {
		return r
	}
	half := complex(real(r.Max)/2, imag(r.Max)/2)
	return Region{Min: r.Min - half, Max: r.Min + half}
}

// Bounds returns the corners of the normalized region as plain floats.
func (r Region) Bounds() (rMin, rMax, iMin, iMax float64) {
	n := r.Normalize()
	return real(n.Min), real(n.Max), imag(n.Min), imag(n.Max)
}

// RegionFromBounds packs real and imaginary bounds into a Region.
func RegionFromBounds(rMin, rMax, iMin, iMax float64) Region {
	return Region{Min: complex(rMin, iMin), Max: complex(rMax, iMax)}
}

// String formats the region as "minRe,minIm maxRe,maxIm originAndWidth",
// the form accepted by ParseRegion.
func (r Region) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return fmt.Sprintf("%s,%s %s,%s %t",
		f(real(r.Min)), f(imag(r.Min)), f(real(r.Max)), f(imag(r.Max)), r.OriginAndWidth)
}

// ParseRegion reads the form written by Region.String. The trailing flag is
// optional and defaults to false.
func ParseRegion(s string) (Region, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 && len(fields) != 3 {
		return Region{}, fmt.Errorf("region %q: want \"re,im re,im [originAndWidth]\"", s)
	}
	lo, err := parsePoint(fields[0])
	if err != nil {
		return Region{}, fmt.Errorf("region min: %w", err)
	}
	hi, err := parsePoint(fields[1])
	if err != nil {
		return Region{}, fmt.Errorf("region max: %w", err)
	}
	r := Region{Min: lo, Max: hi}
	if len(fields) == 3 {
		if r.OriginAndWidth, err = strconv.ParseBool(fields[2]); err != nil {
			return Region{}, fmt.Errorf("region flag: %w", err)
		}
	}
	return r, nil
}

func parsePoint(s string) (complex128, error) {
	re, im, ok := strings.Cut(s, ",")
	if !ok {
		return 0, fmt.Errorf("point %q: missing comma", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(re), 64)
	if err != nil {
		return 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(im), 64)
	if err != nil {
		return 0, err
	}
	return complex(x, y), nil
}

// MarshalBinary encodes r in the text form of String, which keeps every
// float exactly.
func (r Region) MarshalBinary() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (r *Region) UnmarshalBinary(data []byte) error {
	v, err := ParseRegion(string(data))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

type regionJSON struct {
	Min            [2]float64 `json:"min"`
	Max            [2]float64 `json:"max"`
	OriginAndWidth bool       `json:"originAndWidth,omitempty"`
}

// MarshalJSON encodes the corners as [re, im] pairs.
func (r Region) MarshalJSON() ([]byte, error) {
	return json.Marshal(regionJSON{
		Min:            [2]float64{real(r.Min), imag(r.Min)},
		Max:            [2]float64{real(r.Max), imag(r.Max)},
		OriginAndWidth: r.OriginAndWidth,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *Region) UnmarshalJSON(data []byte) error {
	var v regionJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Region{
		Min:            complex(v.Min[0], v.Min[1]),
		Max:            complex(v.Max[0], v.Max[1]),
		OriginAndWidth: v.OriginAndWidth,
	}
	return nil
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Whole set, the default view
	FullSet = RegionFromBounds(-2.5, 1, -1, 1)

	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = RegionFromBounds(-0.8, -0.7, 0.05, 0.15)

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = RegionFromBounds(-1.85, -1.75, -0.10, -0.02)

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = RegionFromBounds(-0.7435, -0.7420, 0.1310, 0.1325)

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = RegionFromBounds(-0.7480, -0.7450, 0.0950, 0.0980)

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = RegionFromBounds(-0.7400, -0.7350, 0.1800, 0.1850)

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = RegionFromBounds(-1.7390, -1.7375, -0.0235, -0.0220)
)

// Landmarks maps names usable on the command line to regions.
var Landmarks = map[string]Region{
	"full":     FullSet,
	"seahorse": SeahorseValley,
	"elephant": ElephantValley,
	"spiral":   SpiralMinibrot,
	"triple":   TripleSpiral,
	"dragon":   ValleyOfTheDragon,
	"minibrot": MinibrotInMiniSpiral,
}
