// Command worker connects to the mosaic server and renders the tiles it is
// asked for until the server closes the connection.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/coder/websocket"
	"github.com/marben/irpc"

	mandel "github.com/marben/smooth_mandel"
	"github.com/marben/smooth_mandel/internal/cli"
)

// maxMessageSize bounds one websocket message.
const maxMessageSize = 64 << 20

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	var (
		addr    = flag.String("addr", "localhost:8081", "server address, host:port for tcp or ws://host:port/ws")
		grid    = flag.String("grid", fmt.Sprintf("%dx1", runtime.NumCPU()), "tile grid `WxH` each tile is split into")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()
	cli.SetupLogging(os.Stderr, *verbose)

	g, err := mandel.ParseGrid(*grid)
	if err != nil {
		return fmt.Errorf("-grid: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Step 1: Connect to Mandelbrot server
	log.Printf("connecting to %s", *addr)
	conn, err := dial(ctx, *addr)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	// Step 2: Provide the renderer service, the server calls it for every tile
	r := tileLogger{
		Renderer:     mandel.LocalRenderer{Grid: g},
		onTileRender: func(tile image.Rectangle) { log.Printf("rendering tile: %s", tile) },
	}
	ep := irpc.NewEndpoint(conn, irpc.WithEndpointServices(mandel.NewRendererIrpcService(r)))

	// Step 3: Render until the server hangs up
	return wait(ctx, ep)
}

// wait blocks until ep is closed by the server or ctx is done.
func wait(ctx context.Context, ep *irpc.Endpoint) error {
	select {
	case <-ctx.Done():
		return ep.Close()
	case <-ep.Context().Done():
	}
	if err := context.Cause(ep.Context()); !errors.Is(err, irpc.ErrEndpointClosedByCounterpart) {
		return err
	}
	log.Printf("server closed the connection")
	return nil
}

func dial(ctx context.Context, addr string) (net.Conn, error) {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		c, _, err := websocket.Dial(ctx, addr, nil)
		if err != nil {
			return nil, err
		}
		c.SetReadLimit(maxMessageSize)
		return websocket.NetConn(context.WithoutCancel(ctx), c, websocket.MessageBinary), nil
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}
