package spline

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestDegenerate(t *testing.T) {
	empty, err := New(nil, nil, None)
	if err != nil {
		t.Fatal(err)
	}
	single, err := New([]float64{0.3}, []float64{42}, Linear)
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range []float64{-1, 0, 0.3, 0.5, 2} {
		if got := empty.At(x); got != 0 {
			t.Errorf("empty.At(%g) = %g, want 0", x, got)
		}
		if got := single.At(x); got != 42 {
			t.Errorf("single.At(%g) = %g, want 42", x, got)
		}
	}
}

func TestLengthMismatch(t *testing.T) {
	_, err := New([]float64{0, 1}, []float64{1}, None)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestExactAtKnots(t *testing.T) {
	xs := []float64{0.8575, 0, 0.42, 0.16, 1, 0.6425}
	ys := []float64{0, 0, 237, 32, 0, 255}
	p, err := New(xs, ys, None)
	if err != nil {
		t.Fatal(err)
	}
	for i := range xs {
		if got := p.At(xs[i]); math.Abs(got-ys[i]) > 1e-9 {
			t.Errorf("At(%g) = %g, want %g", xs[i], got, ys[i])
		}
	}
}

func TestMonotone(t *testing.T) {
	cases := []struct {
		name   string
		xs, ys []float64
	}{
		{"increasing", []float64{0, 0.1, 0.5, 0.55, 1}, []float64{0, 10, 11, 200, 255}},
		{"decreasing", []float64{0, 0.3, 0.4, 1}, []float64{255, 254, 20, 0}},
		{"plateau", []float64{0, 0.2, 0.7, 1}, []float64{5, 100, 100, 180}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := New(c.xs, c.ys, None)
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i+2 < len(c.xs); i++ {
				lo := math.Min(c.ys[i], math.Min(c.ys[i+1], c.ys[i+2]))
				hi := math.Max(c.ys[i], math.Max(c.ys[i+1], c.ys[i+2]))
				for k := 0; k <= 200; k++ {
					x := c.xs[i] + (c.xs[i+2]-c.xs[i])*float64(k)/200
					y := p.At(x)
					if y < lo-1e-9 || y > hi+1e-9 {
						t.Fatalf("At(%g) = %g outside [%g, %g]", x, y, lo, hi)
					}
				}
			}
		})
	}
}

func TestNoOvershootAtExtremum(t *testing.T) {
	// y rises then falls: the tangent at the peak is zero, so the curve
	// must not go above the peak value.
	p, err := New([]float64{0, 0.5, 1}, []float64{0, 100, 0}, None)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k <= 100; k++ {
		if y := p.At(float64(k) / 100); y > 100+1e-9 {
			t.Fatalf("At(%g) = %g overshoots 100", float64(k)/100, y)
		}
	}
}

func TestExtrapolation(t *testing.T) {
	xs := []float64{0.2, 0.6}
	ys := []float64{10, 50}

	constant, _ := New(xs, ys, Constant)
	if got := constant.At(0); got != 10 {
		t.Errorf("constant.At(0) = %g, want 10", got)
	}
	if got := constant.At(1); got != 50 {
		t.Errorf("constant.At(1) = %g, want 50", got)
	}

	linear, _ := New(xs, ys, Linear)
	// yLo + (x-xLo)/(xHi-xLo)*yHi with the extent widened to zero
	if got, want := linear.At(1), (1-0.0)/(0.6-0.0)*50; math.Abs(got-want) > 1e-12 {
		t.Errorf("linear.At(1) = %g, want %g", got, want)
	}
	if got, want := linear.At(0.1), 0.1/0.6*50; math.Abs(got-want) > 1e-12 {
		t.Errorf("linear.At(0.1) = %g, want %g", got, want)
	}

	none, _ := New(xs, ys, None)
	// a straight segment keeps going
	if got := none.At(1); math.Abs(got-90) > 1e-9 {
		t.Errorf("none.At(1) = %g, want 90", got)
	}
}

func TestConstantExtrapolationNonMonotone(t *testing.T) {
	// the boundary samples are neither the smallest nor the largest value
	p, err := New([]float64{0.9, 0.5, 0.7}, []float64{100, 200, 10}, Constant)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		x, want float64
	}{
		{0, 200},
		{0.1, 200},
		{0.49, 200},
		{0.5, 200},
		{0.7, 10},
		{0.9, 100},
		{0.95, 100},
		{1, 100},
	} {
		if got := p.At(tc.x); got != tc.want {
			t.Errorf("At(%g) = %g, want %g", tc.x, got, tc.want)
		}
	}
}

func TestParseExtrapolation(t *testing.T) {
	for _, e := range []Extrapolation{Linear, Constant, None} {
		got, err := ParseExtrapolation(e.String())
		if err != nil || got != e {
			t.Errorf("ParseExtrapolation(%q) = %v, %v", e.String(), got, err)
		}
	}
	if _, err := ParseExtrapolation("cubic"); err == nil {
		t.Error("expected error for unknown extrapolation")
	}
}

func TestExtrapolationJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Extrapolation{"ext": Constant})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"ext":"constant"}` {
		t.Errorf("json = %s", data)
	}
	var v struct{ Ext Extrapolation }
	if err := json.Unmarshal([]byte(`{"Ext":"linear"}`), &v); err != nil || v.Ext != Linear {
		t.Errorf("decoded %v, %v", v.Ext, err)
	}
	if err := json.Unmarshal([]byte(`{"Ext":"cubic"}`), &v); err == nil {
		t.Error("decoded an unknown policy")
	}
}
