package mandel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name      string
		c         complex128
		bailoutSq float64
		max       int
		want      Orbit
	}{
		{
			name:      "origin_is_fixed",
			c:         0,
			bailoutSq: 4,
			max:       1000,
			want:      Orbit{Iterations: 1000},
		},
		{
			name:      "period_two",
			c:         -1,
			bailoutSq: 4,
			max:       1000,
			want:      Orbit{Iterations: 1000, ModulusSquared: 1, Steps: 1},
		},
		{
			name:      "escapes_at_once",
			c:         2,
			bailoutSq: 4,
			max:       1000,
			want:      Orbit{Iterations: 1, ModulusSquared: 4, Steps: 1},
		},
		{
			name:      "escapes_later",
			c:         1,
			bailoutSq: 100,
			max:       1000,
			// 1, 2, 5, 26
			want: Orbit{Iterations: 4, ModulusSquared: 676, Steps: 4},
		},
		{
			name:      "max_iterations_cap",
			c:         1,
			bailoutSq: 100,
			max:       2,
			want:      Orbit{Iterations: 2, ModulusSquared: 4, Steps: 2},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Escape(tc.c, tc.bailoutSq, tc.max)
			if d := cmp.Diff(tc.want, got); d != "" {
				t.Errorf("orbit mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestEscapeCycleExitsEarly(t *testing.T) {
	// -0.5 is attracted to a fixed point with multiplier ≈ -0.73.
	const maxIter = 100000
	o := Escape(-0.5, DefaultBailout*DefaultBailout, maxIter)
	if o.Escaped(maxIter) {
		t.Fatalf("interior point escaped: %+v", o)
	}
	if o.Steps >= 1000 {
		t.Errorf("cycle detected after %d steps", o.Steps)
	}
}

func TestEscapeRepeatable(t *testing.T) {
	m, err := NewMapper(800, 450, FullSet)
	if err != nil {
		t.Fatal(err)
	}
	c := m.ToPlane(0, 0)
	a := Escape(c, DefaultBailout*DefaultBailout, DefaultMaxIterations)
	b := Escape(c, DefaultBailout*DefaultBailout, DefaultMaxIterations)
	if a != b {
		t.Errorf("%+v != %+v", a, b)
	}
	if !a.Escaped(DefaultMaxIterations) {
		t.Errorf("corner of the full view did not escape: %+v", a)
	}
}
