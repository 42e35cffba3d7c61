package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/marben/irpc"

	mandel "github.com/marben/smooth_mandel"
	"github.com/marben/smooth_mandel/internal/cli"
	"github.com/marben/smooth_mandel/internal/palettefile"
	"github.com/marben/smooth_mandel/internal/wire"
)

// main is the entry point for the Mandelbrot server.
// The server splits the image into tiles and hands them to connected workers;
// with -local it renders tiles itself as well.
func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

type config struct {
	tcpAddr, httpAddr string
	tileSize          int
	local             int
	req               mandel.Request
}

func parseFlags(args []string) (config, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	var cfg config
	var (
		size     = fs.String("size", "1920x1080", "image size `WxH`")
		region   = fs.String("region", "seahorse", "landmark name or \"re,im re,im [originAndWidth]\"")
		gradient = fs.String("gradient", "256 0", "gradient in text form")
		interior = fs.String("interior", "", "`#rrggbb` colour of points that never escape (default from -gradient)")
		palette  = fs.String("palette", "", "palette file (default built-in palette)")
		verbose  = fs.Bool("v", false, "debug logging")
	)
	fs.StringVar(&cfg.tcpAddr, "tcp", ":8081", "tcp listen address for workers")
	fs.StringVar(&cfg.httpAddr, "http", ":8080", "http listen address for /ws, /image.png and /status")
	fs.IntVar(&cfg.tileSize, "tile", 64, "tile edge in pixels")
	fs.IntVar(&cfg.local, "local", 0, "number of in-process workers")
	fs.IntVar(&cfg.req.MaxIterations, "iterations", mandel.DefaultMaxIterations, "maximum iterations")
	fs.Float64Var(&cfg.req.Bailout, "bailout", mandel.DefaultBailout, "escape radius")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	cli.SetupLogging(os.Stderr, *verbose)

	var err error
	if cfg.req.Size, err = mandel.ParseGrid(*size); err != nil {
		return config{}, fmt.Errorf("-size: %w", err)
	}
	// the finished image goes to clients in one piece
	if sz := cfg.req.Size; sz.X > wire.MaxPayload || sz.Y > wire.MaxPayload || sz.X*sz.Y*mandel.BytesPerPixel > wire.MaxPayload {
		return config{}, fmt.Errorf("-size: %v exceeds the %d byte image limit", sz, wire.MaxPayload)
	}
	if cfg.req.Region, err = cli.ParseRegion(*region); err != nil {
		return config{}, fmt.Errorf("-region: %w", err)
	}
	if cfg.req.Gradient, err = mandel.ParseGradient(*gradient); err != nil {
		return config{}, fmt.Errorf("-gradient: %w", err)
	}
	if *interior != "" {
		c, err := mandel.ParseHex(*interior)
		if err != nil {
			return config{}, fmt.Errorf("-interior: %w", err)
		}
		gc := cfg.req.Gradient.Config()
		gc.MaxIterationColor = &c
		if cfg.req.Gradient, err = mandel.NewGradient(gc); err != nil {
			return config{}, fmt.Errorf("-interior: %w", err)
		}
	}
	spec := mandel.PaletteSpec{Controls: mandel.DefaultControls, NumColors: mandel.DefaultNumColors}
	if *palette != "" {
		if spec, err = palettefile.LoadFile(*palette); err != nil {
			return config{}, err
		}
	}
	if cfg.req.Palette, err = spec.Build(); err != nil {
		return config{}, fmt.Errorf("palette: %w", err)
	}
	if cfg.tileSize < 1 {
		return config{}, fmt.Errorf("-tile: must be positive, got %d", cfg.tileSize)
	}

	// workers split tiles over their own grid
	cfg.req.Grid = image.Pt(1, 1)
	if err := cfg.req.Validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func run() error {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	imgWorkScheduler := newImgWorkScheduler(cfg.req, cfg.tileSize)
	log.Printf("rendering %v of %v", cfg.req.Size, cfg.req.Region)

	for i := range cfg.local {
		go func() {
			if err := imgWorkScheduler.render(mandel.LocalRenderer{}); err != nil {
				log.Printf("local worker %d: %v", i, err)
			}
		}()
	}

	// imgProviderIrpcService hands the finished image to cli clients.
	// ImgProvider is implemented by imgWorkScheduler itself.
	imgProviderIrpcService := mandel.NewImgProviderIrpcService(imgWorkScheduler)

	irpcServer := newIrpcServer(imgWorkScheduler)
	irpcServer.AddService(imgProviderIrpcService)
	defer irpcServer.Close()

	// TCP
	log.Printf("tcp listening on %s", cfg.tcpAddr)
	tcpListener, err := net.Listen("tcp", cfg.tcpAddr)
	if err != nil {
		return fmt.Errorf("net.Listen: %w", err)
	}

	// WEBSOCKET
	websocketListener, httpServer := webServer(ctx, cfg.httpAddr, imgWorkScheduler, imgWorkScheduler.status)

	errc := make(chan error, 3)
	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("httpServer: %w", err)
		}
	}()

	// irpcServer serves both tcp and websocket workers
	go func() {
		if err := irpcServer.Serve(tcpListener); !errors.Is(err, irpc.ErrServerClosed) {
			errc <- fmt.Errorf("server.Serve tcp: %w", err)
		}
	}()
	go func() {
		if err := irpcServer.Serve(websocketListener); !errors.Is(err, irpc.ErrServerClosed) {
			errc <- fmt.Errorf("server.Serve ws: %w", err)
		}
	}()

	log.Printf("mb server waiting for tcp and websocket connections")
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Printf("shutting down")
		return httpServer.Shutdown(context.Background())
	}
}

// newIrpcServer returns a server that plugs every connected client into
// iws as a worker. Each client has to provide a mandel.Renderer.
func newIrpcServer(iws *imgWorkScheduler) *irpc.Server {
	return irpc.NewServer(irpc.WithOnConnect(func(ep *irpc.Endpoint) {
		go func() {
			log.Printf("got connection from: %s", ep.RemoteAddr())

			rendererIrpcClient, err := mandel.NewRendererIrpcClient(ep)
			if err != nil {
				log.Printf("err: new Rendering client: %v", err)
				return
			}

			// Each connected client renders tiles until the image is done
			if err := iws.render(rendererIrpcClient); err != nil {
				log.Printf("err: render on client %q: %v", ep.RemoteAddr(), err)
				return
			}
			log.Printf("client %s done", ep.RemoteAddr())
		}()
	}))
}
