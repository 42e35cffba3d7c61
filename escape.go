package mandel

// epsilon is the squared distance below which two successive iterates are
// treated as the same point.
const epsilon = Tolerance * Tolerance

// Orbit is the result of iterating a single point.
type Orbit struct {
	// Iterations is the escape iteration, or maxIterations for points that
	// did not escape or were caught in a cycle.
	Iterations int
	// ModulusSquared is |z|² of the last iterate.
	ModulusSquared float64
	// Steps counts how often the recurrence was applied. It is smaller than
	// Iterations when a cycle cut the loop short.
	Steps int
}

// Escaped reports whether the point left the bailout circle.
func (o Orbit) Escaped(maxIterations int) bool { return o.Iterations < maxIterations }

// Escape iterates z ← z² + c from z = 0 until |z|² reaches bailoutSquared or
// maxIterations steps have been taken.
//
// When a new iterate comes within Tolerance of either of the two previous
// ones the orbit is taken to be periodic and the point is reported as
// interior straight away. Near-periodic points on the boundary can be
// misclassified this way.
func Escape(c complex128, bailoutSquared float64, maxIterations int) Orbit {
	x0, y0 := real(c), imag(c)
	var (
		x, y   float64 // z
		xp, yp float64 // previous z
		modSq  float64
		iter   int
		steps  int
	)
	for modSq < bailoutSquared && iter < maxIterations {
		xt := x*x - y*y + x0
		yt := 2*x*y + y0
		dx, dy := xt-x, yt-y
		dxp, dyp := xt-xp, yt-yp
		if (dx*dx < epsilon && dy*dy < epsilon) || (dxp*dxp < epsilon && dyp*dyp < epsilon) {
			iter = maxIterations
			break
		}
		xp, yp = x, y
		x, y = xt, yt
		modSq = x*x + y*y
		iter++
		steps++
	}
	return Orbit{Iterations: iter, ModulusSquared: modSq, Steps: steps}
}
