// Package cli holds the flag parsing and logging setup shared by the
// commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"golang.org/x/term"

	mandel "github.com/marben/smooth_mandel"
)

// SetupLogging installs a slog handler as the default logger and as the
// renderer's logger. Terminals get text, anything else JSON lines.
func SetupLogging(w *os.File, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	l := slog.New(newHandler(w, term.IsTerminal(int(w.Fd())), level))
	slog.SetDefault(l)
	mandel.SetLogger(l)
	return l
}

func newHandler(w io.Writer, text bool, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if text {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// ParseRegion accepts a landmark name or the text form of mandel.ParseRegion.
func ParseRegion(s string) (mandel.Region, error) {
	if r, ok := mandel.Landmarks[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	r, err := mandel.ParseRegion(s)
	if err != nil {
		return mandel.Region{}, fmt.Errorf("%w (or one of %s)", err, strings.Join(LandmarkNames(), ", "))
	}
	return r, nil
}

// LandmarkNames lists the names ParseRegion knows, sorted.
func LandmarkNames() []string {
	names := make([]string, 0, len(mandel.Landmarks))
	for name := range mandel.Landmarks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
