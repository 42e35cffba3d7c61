package mandel

import "math"

var oneOverLog2 = 1 / math.Ln2

// NormalizeIndex folds a palette index into [0, n). NaN maps to 0, +Inf to
// exactly n and -Inf to 0; finite values are wrapped modulo n.
func NormalizeIndex(index float64, n int) float64 {
	size := float64(n)
	switch {
	case math.IsNaN(index), math.IsInf(index, -1):
		return 0
	case math.IsInf(index, 1):
		return size
	}
	r := math.Mod(index, size)
	if r < 0 {
		r += size
	}
	if r >= size {
		// -tiny + size rounds up to size
		r = 0
	}
	return r
}

// shader holds everything derived once per render that turns an Orbit into
// a colour. It is read-only and shared by all tiles.
type shader struct {
	palette  Palette
	gradient Gradient
	maxIter  int

	bailoutSquared  float64
	smoothingFactor float64 // multiplies log|z|²

	indexScale, weight float64
	useSqrt            bool
	exponent           float64
	rootMinIterations  float64
	logIndex           bool
	logBase            float64 // natural log of the log base
	logMinIterations   float64

	interior    Color
	hasInterior bool
}

func newShader(p Palette, g Gradient, maxIterations int, bailout float64) *shader {
	cfg := g.cfg
	s := &shader{
		palette:        p,
		gradient:       g,
		maxIter:        maxIterations,
		bailoutSquared: bailout * bailout,
		indexScale:     cfg.IndexScale,
		weight:         cfg.Weight,
		exponent:       g.exponent,
		logIndex:       cfg.LogIndex,
	}
	s.interior, s.hasInterior = g.MaxIterationColor()

	paletteBailout := cfg.PaletteBailout
	if paletteBailout == 0 {
		paletteBailout = bailout
	}
	if cfg.AlternateSmoothing {
		s.smoothingFactor = 0.5 * math.Log(paletteBailout)
	} else {
		s.smoothingFactor = 0.5 / math.Log(paletteBailout)
	}

	scaledMin := cfg.IndexScale * float64(cfg.MinIterations)
	scaledMax := cfg.IndexScale * float64(maxIterations)
	if g.rootIndex {
		s.useSqrt = math.Abs(cfg.Root-2) < Tolerance
		s.rootMinIterations = math.Pow(scaledMin, g.exponent)
	}
	if cfg.LogIndex {
		s.logBase = math.Log(math.Log(scaledMax / scaledMin))
		s.logMinIterations = math.Log(scaledMin) / s.logBase
	}
	return s
}

// smooth returns the fractional escape refinement for a final |z|².
func (s *shader) smooth(modulusSquared float64) float64 {
	return math.Log(math.Log(modulusSquared)*s.smoothingFactor) * oneOverLog2
}

// index returns the normalized palette index of o and its smoothed value.
func (s *shader) index(o Orbit) (index, smoothed float64) {
	smoothed = s.smooth(o.ModulusSquared)
	index = s.indexScale * (float64(o.Iterations) + 1 - s.weight*smoothed)
	switch {
	case s.useSqrt:
		index = math.Sqrt(index) - s.rootMinIterations
	case s.gradient.rootIndex:
		index = math.Pow(index, s.exponent) - s.rootMinIterations
	}
	if s.logIndex {
		index = math.Log(index)/s.logBase - s.logMinIterations
	}
	index = index*s.gradient.cfg.PaletteScale + s.gradient.cfg.Shift
	return NormalizeIndex(index, len(s.palette)), smoothed
}

// shade colours one orbit.
func (s *shader) shade(o Orbit) Color {
	if s.hasInterior && o.Iterations >= s.maxIter {
		return s.interior
	}
	index, smoothed := s.index(o)
	n := len(s.palette)
	fi := math.Floor(index)
	i := int(fi) % n
	bias := index - fi
	if s.gradient.cfg.BlendFromSmoothed {
		bias = smoothed - math.Trunc(smoothed)
	}
	return Lerp(s.palette[i], s.palette[(i+1)%n], bias)
}
