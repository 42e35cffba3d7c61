// Package spline implements monotone piecewise cubic Hermite interpolation
// over scattered samples, as used to turn a handful of colour control points
// into a dense palette.
package spline

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Tolerance is the distance within which a query at the rightmost sample
// returns the stored value exactly.
const Tolerance = 1e-10

// ErrLengthMismatch is returned when xs and ys differ in length.
var ErrLengthMismatch = errors.New("spline: xs and ys lengths differ")

// Extrapolation selects what happens outside the sampled domain.
type Extrapolation int

const (
	// None keeps evaluating the nearest segment's cubic.
	None Extrapolation = iota
	// Linear scales the largest value by the position of x relative to
	// the sampled extent. The extent and the value range both include zero.
	Linear
	// Constant clamps to the value of the nearest sample.
	Constant
)

func (e Extrapolation) String() string {
	switch e {
	case Linear:
		return "linear"
	case Constant:
		return "constant"
	case None:
		return "none"
	}
	return fmt.Sprintf("Extrapolation(%d)", int(e))
}

// ParseExtrapolation is the inverse of Extrapolation.String.
func ParseExtrapolation(s string) (Extrapolation, error) {
	switch s {
	case "linear":
		return Linear, nil
	case "constant":
		return Constant, nil
	case "none", "":
		return None, nil
	}
	return None, fmt.Errorf("spline: unknown extrapolation %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (e Extrapolation) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Extrapolation) UnmarshalText(text []byte) error {
	v, err := ParseExtrapolation(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Interpolant is an immutable monotone cubic through a set of samples.
// It is safe for concurrent use.
type Interpolant struct {
	xs, ys     []float64
	c1, c2, c3 []float64

	// extent of xs and ys widened to include zero, used by Linear
	xLo, xHi float64
	yLo, yHi float64
	ext      Extrapolation
}

// New builds the interpolant through (xs[i], ys[i]). The samples need not be
// sorted. With no samples the interpolant is constant zero, with one sample
// it is constant ys[0].
func New(xs, ys []float64, ext Extrapolation) (*Interpolant, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(xs), len(ys))
	}
	n := len(xs)
	p := &Interpolant{ext: ext}
	switch n {
	case 0:
		return p, nil
	case 1:
		p.xs = []float64{xs[0]}
		p.ys = []float64{ys[0]}
		return p, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return xs[order[a]] < xs[order[b]] })

	p.xs = make([]float64, n)
	p.ys = make([]float64, n)
	for i, k := range order {
		p.xs[i] = xs[k]
		p.ys[i] = ys[k]
	}
	p.xLo, p.xHi = min(0, p.xs[0]), max(0, p.xs[n-1])
	for _, y := range p.ys {
		p.yLo = math.Min(p.yLo, y)
		p.yHi = math.Max(p.yHi, y)
	}

	// secants
	dxs := make([]float64, n-1)
	ms := make([]float64, n-1)
	for i := range n - 1 {
		dx := p.xs[i+1] - p.xs[i]
		dxs[i] = dx
		ms[i] = (p.ys[i+1] - p.ys[i]) / dx
	}

	// tangents: zero where the secant changes sign, weighted harmonic
	// mean elsewhere, the end secants at both ends
	p.c1 = make([]float64, n)
	p.c1[0] = ms[0]
	for i := range len(dxs) - 1 {
		m, mNext := ms[i], ms[i+1]
		if m*mNext <= 0 {
			continue
		}
		dx, dxNext := dxs[i], dxs[i+1]
		common := dx + dxNext
		p.c1[i+1] = 3 * common / ((common+dxNext)/m + (common+dx)/mNext)
	}
	p.c1[n-1] = ms[n-2]

	p.c2 = make([]float64, n-1)
	p.c3 = make([]float64, n-1)
	for i := range n - 1 {
		c1, m, invDx := p.c1[i], ms[i], 1/dxs[i]
		common := c1 + p.c1[i+1] - m - m
		p.c2[i] = (m - c1 - common) * invDx
		p.c3[i] = common * invDx * invDx
	}
	return p, nil
}

// At evaluates the interpolant at x, applying the extrapolation policy
// outside [min(xs), max(xs)].
func (p *Interpolant) At(x float64) float64 {
	last := len(p.xs) - 1
	switch last {
	case -1:
		return 0
	case 0:
		return p.ys[0]
	}
	if x >= p.xs[0] && x <= p.xs[last] {
		return p.eval(x)
	}
	switch p.ext {
	case Linear:
		if p.xHi == p.xLo {
			return p.yHi
		}
		return p.yLo + (x-p.xLo)/(p.xHi-p.xLo)*p.yHi
	case Constant:
		if x < p.xs[0] {
			return p.ys[0]
		}
		return p.ys[last]
	default:
		return p.eval(x)
	}
}

func (p *Interpolant) eval(x float64) float64 {
	last := len(p.xs) - 1
	if math.Abs(x-p.xs[last]) < Tolerance {
		return p.ys[last]
	}

	low, high := 0, len(p.c3)-1
	for low <= high {
		mid := low + (high-low)/2
		switch xHere := p.xs[mid]; {
		case xHere < x:
			low = mid + 1
		case xHere > x:
			high = mid - 1
		default:
			return p.ys[mid]
		}
	}
	i := max(0, high)

	diff := x - p.xs[i]
	diffSq := diff * diff
	return p.ys[i] + p.c1[i]*diff + p.c2[i]*diffSq + p.c3[i]*diff*diffSq
}
