package mandel

import (
	"errors"

	"github.com/marben/smooth_mandel/internal/spline"
)

// Configuration errors. Render and the constructors wrap these with the
// offending value; test with errors.Is.
var (
	ErrInvalidDimension     = errors.New("mandel: image dimensions must be positive")
	ErrInvalidIteration     = errors.New("mandel: max iterations must be >= 1")
	ErrInvalidMinIterations = errors.New("mandel: invalid min iterations cutoff")
	ErrInvalidGradient      = errors.New("mandel: invalid gradient")
	ErrInvalidGrid          = errors.New("mandel: worker grid must be at least 1x1")
	ErrInvalidBailout       = errors.New("mandel: bailout must be positive")
	ErrEmptyPalette         = errors.New("mandel: palette has no colors")
	ErrInvalidPaletteSize   = errors.New("mandel: palette size must be >= 1")
	ErrCorruptImage         = errors.New("mandel: corrupt image encoding")

	// ErrLengthMismatch is reported when control point slices disagree in length.
	ErrLengthMismatch = spline.ErrLengthMismatch
)
