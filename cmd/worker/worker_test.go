package main

import (
	"bytes"
	"context"
	"image"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/marben/irpc"

	mandel "github.com/marben/smooth_mandel"
)

func TestWorker(t *testing.T) {
	server, worker := net.Pipe()

	var (
		mu       sync.Mutex
		rendered []image.Rectangle
	)
	r := tileLogger{
		Renderer: mandel.LocalRenderer{Grid: image.Pt(2, 2)},
		onTileRender: func(tile image.Rectangle) {
			mu.Lock()
			defer mu.Unlock()
			rendered = append(rendered, tile)
		},
	}
	workerEp := irpc.NewEndpoint(worker, irpc.WithEndpointServices(mandel.NewRendererIrpcService(r)))
	waitErr := make(chan error, 1)
	go func() { waitErr <- wait(context.Background(), workerEp) }()

	serverEp := irpc.NewEndpoint(server)
	client, err := mandel.NewRendererIrpcClient(serverEp)
	if err != nil {
		t.Fatal(err)
	}

	p, err := mandel.PaletteSpec{Controls: mandel.DefaultControls, NumColors: 64}.Build()
	if err != nil {
		t.Fatal(err)
	}
	req := mandel.Request{
		Grid:          image.Pt(1, 1),
		Size:          image.Pt(32, 16),
		Region:        mandel.FullSet,
		MaxIterations: 50,
		Bailout:       mandel.DefaultBailout,
		Palette:       p,
		Gradient:      mandel.MustGradient(mandel.DefaultGradientConfig(64, 0)),
	}
	tile := image.Rect(8, 4, 24, 12)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got, err := client.RenderTile(ctx, req, tile)
	if err != nil {
		t.Fatal(err)
	}
	want, err := mandel.LocalRenderer{}.RenderTile(ctx, req, tile)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rect != tile || !bytes.Equal(want.Pix, got.Pix) {
		t.Errorf("tile %v does not match a local render", got.Rect)
	}

	bad := req
	bad.MaxIterations = 0
	if _, err := client.RenderTile(ctx, bad, tile); err == nil || !strings.Contains(err.Error(), "max iterations") {
		t.Errorf("invalid request: got %v, want the worker's validation error", err)
	}

	serverEp.Close()
	if err := <-waitErr; err != nil {
		t.Errorf("wait returned %v after the server closed", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if d := cmp.Diff([]image.Rectangle{tile, tile}, rendered); d != "" {
		t.Errorf("rendered tiles (-want +got):\n%s", d)
	}
}

func TestWaitInterrupted(t *testing.T) {
	_, worker := net.Pipe()
	ep := irpc.NewEndpoint(worker)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := wait(ctx, ep); err != nil {
		t.Errorf("wait = %v", err)
	}
	<-ep.Context().Done()
}
