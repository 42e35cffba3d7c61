// Command mandel renders the Mandelbrot set to a PNG or BMP file.
//
// It renders locally, or with -from fetches the finished image from a
// running mosaic server, helping it render in the meantime.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/pkg/profile"

	mandel "github.com/marben/smooth_mandel"
	"github.com/marben/smooth_mandel/internal/cli"
	"github.com/marben/smooth_mandel/internal/palettefile"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

type options struct {
	output      string
	from        string
	dumpPalette string
	profile     string
	supersample int
	req         mandel.Request
	paletteSpec mandel.PaletteSpec
	crop        *mandel.Region
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("mandel", flag.ContinueOnError)
	var opts options
	var (
		size          = fs.String("size", "1840x1000", "image size `WxH`")
		grid          = fs.String("grid", fmt.Sprintf("%dx%d", runtime.NumCPU(), 1), "tile grid `WxH`, one goroutine per tile")
		region        = fs.String("region", "full", "landmark name or \"re,im re,im [originAndWidth]\"")
		crop          = fs.String("crop", "", "only render the part of the image showing this region")
		gradient      = fs.String("gradient", "256 0", "gradient: paletteScale shift [logIndex rootIndex alternate root minIter indexScale weight paletteBailout blendFromSmoothed interior]")
		interior      = fs.String("interior", "", "colour of points that never escape, e.g. #000000")
		paletteFile   = fs.String("palette", "", "palette file (default built-in palette)")
		numColors     = fs.Int("colors", 0, "palette size (default from the palette file, or 768)")
		randomPalette = fs.Int("random-palette", 0, "use this many random control points")
		seed          = fs.Uint64("seed", 0, "seed for -random-palette (default time based)")
		verbose       = fs.Bool("v", false, "debug logging")
	)
	fs.StringVar(&opts.output, "o", "mandel.png", "output file, .png or .bmp")
	fs.StringVar(&opts.from, "from", "", "fetch the image from the mosaic server's tcp address `host:port` instead of rendering")
	fs.StringVar(&opts.dumpPalette, "dump-palette", "", "also write the palette to this file, .pal for RIFF, anything else as text")
	fs.StringVar(&opts.profile, "profile", "", "write a cpu, mem or trace profile to the current directory")
	fs.IntVar(&opts.supersample, "supersample", 1, "render at this multiple of -size and downscale")
	fs.IntVar(&opts.req.MaxIterations, "iterations", mandel.DefaultMaxIterations, "maximum iterations")
	fs.Float64Var(&opts.req.Bailout, "bailout", mandel.DefaultBailout, "escape radius")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	cli.SetupLogging(os.Stderr, *verbose)

	var err error
	if opts.req.Size, err = mandel.ParseGrid(*size); err != nil {
		return options{}, fmt.Errorf("-size: %w", err)
	}
	if opts.req.Grid, err = mandel.ParseGrid(*grid); err != nil {
		return options{}, fmt.Errorf("-grid: %w", err)
	}
	if opts.req.Region, err = cli.ParseRegion(*region); err != nil {
		return options{}, fmt.Errorf("-region: %w", err)
	}
	if *crop != "" {
		r, err := cli.ParseRegion(*crop)
		if err != nil {
			return options{}, fmt.Errorf("-crop: %w", err)
		}
		opts.crop = &r
	}
	if opts.supersample < 1 {
		return options{}, fmt.Errorf("-supersample: must be >= 1, got %d", opts.supersample)
	}

	g, err := mandel.ParseGradient(*gradient)
	if err != nil {
		return options{}, fmt.Errorf("-gradient: %w", err)
	}
	if *interior != "" {
		c, err := palettefile.ParseColor(*interior)
		if err != nil {
			return options{}, fmt.Errorf("-interior: %w", err)
		}
		cfg := g.Config()
		cfg.MaxIterationColor = &c
		if g, err = mandel.NewGradient(cfg); err != nil {
			return options{}, err
		}
	}
	opts.req.Gradient = g

	opts.paletteSpec = mandel.PaletteSpec{Controls: mandel.DefaultControls, NumColors: mandel.DefaultNumColors}
	switch {
	case *paletteFile != "" && *randomPalette > 0:
		return options{}, fmt.Errorf("-palette and -random-palette are exclusive")
	case *paletteFile != "":
		if opts.paletteSpec, err = palettefile.LoadFile(*paletteFile); err != nil {
			return options{}, err
		}
	case *randomPalette > 0:
		s := *seed
		if s == 0 {
			s = uint64(time.Now().UnixNano())
		}
		log.Printf("random palette seed %d", s)
		opts.paletteSpec.Controls = palettefile.Random(rand.New(rand.NewPCG(s, s)), *randomPalette)
	}
	if *numColors != 0 {
		opts.paletteSpec.NumColors = *numColors
	}
	if opts.req.Palette, err = opts.paletteSpec.Build(); err != nil {
		return options{}, err
	}

	if err := opts.req.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.profile != "" {
		mode, err := profileMode(opts.profile)
		if err != nil {
			return err
		}
		defer profile.Start(mode, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	var img image.Image
	if opts.from != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		log.Printf("asking %s for the rendered image", opts.from)
		if img, err = fetch(ctx, opts.from, opts.req.Grid); err != nil {
			return err
		}
	} else {
		start := time.Now()
		if img, err = render(opts); err != nil {
			return err
		}
		log.Printf("rendered %v in %v", img.Bounds(), time.Since(start))
	}

	if opts.dumpPalette != "" {
		if err := dumpPalette(opts.dumpPalette, opts.req.Palette); err != nil {
			return err
		}
	}
	if err := save(opts.output, img); err != nil {
		return err
	}
	log.Printf("image saved to %q", opts.output)
	return nil
}

func profileMode(name string) (func(*profile.Profile), error) {
	switch name {
	case "cpu":
		return profile.CPUProfile, nil
	case "mem":
		return profile.MemProfile, nil
	case "trace":
		return profile.TraceProfile, nil
	}
	return nil, fmt.Errorf("-profile: unknown profile %q, want cpu, mem or trace", name)
}

// render renders opts.req, cropped and supersampled as requested.
func render(opts options) (image.Image, error) {
	req := opts.req
	k := opts.supersample
	req.Size = req.Size.Mul(k)

	if opts.crop != nil {
		m, err := mandel.NewMapper(req.Size.X, req.Size.Y, req.Region)
		if err != nil {
			return nil, err
		}
		req.Rect = m.PixelRect(*opts.crop).Intersect(image.Rectangle{Max: req.Size})
		if req.Rect.Empty() {
			return nil, fmt.Errorf("-crop %v lies outside %v", *opts.crop, req.Region)
		}
	}

	img, err := mandel.Render(req)
	if err != nil {
		return nil, err
	}
	if k == 1 {
		return img, nil
	}
	return downscale(img, k), nil
}
