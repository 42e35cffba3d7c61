// Package palettefile reads and writes palette descriptions.
//
// A palette file starts with the number of colours to generate, optionally
// followed by the extrapolation policy, and then lists one control point
// per line as "position: r, g, b" or "position: #rrggbb":
//
//	768 linear
//	0:      0, 7, 100
//	0.16:   #206bcb
//	0.42:   237, 255, 255
//
// Blank lines are ignored.
package palettefile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	mandel "github.com/marben/smooth_mandel"
)

// ErrSyntax is wrapped by all parse errors of Load.
var ErrSyntax = errors.New("palettefile: syntax error")

// LoadFile reads the palette file name.
func LoadFile(name string) (mandel.PaletteSpec, error) {
	f, err := os.Open(name)
	if err != nil {
		return mandel.PaletteSpec{}, err
	}
	defer f.Close()
	spec, err := Load(f)
	if err != nil {
		return mandel.PaletteSpec{}, fmt.Errorf("%s: %w", name, err)
	}
	return spec, nil
}

// Load parses a palette file.
func Load(r io.Reader) (mandel.PaletteSpec, error) {
	var spec mandel.PaletteSpec
	sc := bufio.NewScanner(r)
	line := 0
	header := false
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if !header {
			if err := parseHeader(text, &spec); err != nil {
				return mandel.PaletteSpec{}, fmt.Errorf("%w: line %d: %v", ErrSyntax, line, err)
			}
			header = true
			continue
		}
		cp, err := parseControl(text)
		if err != nil {
			return mandel.PaletteSpec{}, fmt.Errorf("%w: line %d: %v", ErrSyntax, line, err)
		}
		spec.Controls = append(spec.Controls, cp)
	}
	if err := sc.Err(); err != nil {
		return mandel.PaletteSpec{}, err
	}
	if !header {
		return mandel.PaletteSpec{}, fmt.Errorf("%w: number of colors not specified", ErrSyntax)
	}
	return spec, nil
}

func parseHeader(text string, spec *mandel.PaletteSpec) error {
	fields := strings.Fields(text)
	if len(fields) > 2 {
		return fmt.Errorf("header %q: want \"numColors [extrapolation]\"", text)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("number of colors: %v", err)
	}
	if n <= 0 {
		return fmt.Errorf("number of colors must be positive, got %d", n)
	}
	spec.NumColors = n
	if len(fields) == 2 {
		return spec.Extrapolation.UnmarshalText([]byte(fields[1]))
	}
	return nil
}

func parseControl(text string) (mandel.ControlPoint, error) {
	pos, col, ok := strings.Cut(text, ":")
	if !ok {
		return mandel.ControlPoint{}, fmt.Errorf("%q: missing ':'", text)
	}
	position, err := strconv.ParseFloat(strings.TrimSpace(pos), 64)
	if err != nil {
		return mandel.ControlPoint{}, fmt.Errorf("position: %v", err)
	}
	c, err := ParseColor(strings.TrimSpace(col))
	if err != nil {
		return mandel.ControlPoint{}, err
	}
	return mandel.ControlPoint{Position: position, Color: c}, nil
}

// ParseColor reads "#rrggbb", "#rgb" or "r, g, b".
func ParseColor(s string) (mandel.Color, error) {
	if strings.HasPrefix(s, "#") {
		return mandel.ParseHex(s)
	}
	parts := strings.Split(s, ",")
	if len(parts) < 3 {
		return mandel.Color{}, fmt.Errorf("color %q has less than three components", s)
	}
	var ch [3]uint8
	for i := range ch {
		v, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 8)
		if err != nil {
			return mandel.Color{}, fmt.Errorf("color %q: %v", s, err)
		}
		ch[i] = uint8(v)
	}
	return mandel.Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// Write writes spec in the form read by Load, colours as hex.
func Write(w io.Writer, spec mandel.PaletteSpec) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %s\n", spec.NumColors, spec.Extrapolation)
	for _, cp := range spec.Controls {
		fmt.Fprintf(bw, "%s: %s\n", strconv.FormatFloat(cp.Position, 'g', -1, 64), cp.Color.Hex())
	}
	return bw.Flush()
}

// Format writes one "r,g,b" line per palette entry.
func Format(w io.Writer, p mandel.Palette) error {
	bw := bufio.NewWriter(w)
	for _, c := range p {
		fmt.Fprintf(bw, "%d,%d,%d\n", c.R, c.G, c.B)
	}
	return bw.Flush()
}

// WriteMSPal writes p as a Microsoft RIFF palette (.pal).
func WriteMSPal(w io.Writer, p mandel.Palette) error {
	if len(p) > 0xffff {
		return fmt.Errorf("palettefile: %d colors do not fit a RIFF palette", len(p))
	}
	dataLen := 4 + 4*len(p)
	buf := make([]byte, 0, 20+dataLen)
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(12+dataLen))
	buf = append(buf, "PAL data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataLen))
	buf = binary.LittleEndian.AppendUint16(buf, 0x0300)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(p)))
	for _, c := range p {
		buf = append(buf, c.R, c.G, c.B, 0)
	}
	_, err := w.Write(buf)
	return err
}

// Random returns n evenly spaced control points with random colours of
// moderate chroma in HCL space, plus a closing point at 1 repeating the
// first so the palette wraps without a seam.
func Random(rng *rand.Rand, n int) []mandel.ControlPoint {
	if n < 1 {
		return nil
	}
	cps := make([]mandel.ControlPoint, 0, n+1)
	for i := range n {
		c := colorful.Hcl(rng.Float64()*360, 0.2+rng.Float64()*0.6, 0.1+rng.Float64()*0.8).Clamped()
		r, g, b := c.RGB255()
		cps = append(cps, mandel.ControlPoint{
			Position: float64(i) / float64(n),
			Color:    mandel.Color{R: r, G: g, B: b},
		})
	}
	return append(cps, mandel.ControlPoint{Position: 1, Color: cps[0].Color})
}
