package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/marben/irpc"

	mandel "github.com/marben/smooth_mandel"
)

func TestSplitRectNoClip(t *testing.T) {
	got := splitRectNoClip(image.Rect(10, 10, 150, 80), 64, 64)
	want := []image.Rectangle{
		image.Rect(10, 10, 74, 74),
		image.Rect(74, 10, 138, 74),
		image.Rect(138, 10, 150, 74),
		image.Rect(10, 74, 74, 80),
		image.Rect(74, 74, 138, 80),
		image.Rect(138, 74, 150, 80),
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("tiles mismatch (-want +got):\n%s", d)
	}
}

func testRequest(t *testing.T) mandel.Request {
	t.Helper()
	p, err := mandel.PaletteSpec{Controls: mandel.DefaultControls, NumColors: 128}.Build()
	if err != nil {
		t.Fatal(err)
	}
	return mandel.Request{
		Grid:          image.Pt(1, 1),
		Size:          image.Pt(100, 60),
		Region:        mandel.FullSet,
		MaxIterations: 100,
		Bailout:       mandel.DefaultBailout,
		Palette:       p,
		Gradient:      mandel.MustGradient(mandel.DefaultGradientConfig(128, 0)),
	}
}

// wantImage renders the whole of req in one go.
func wantImage(t *testing.T, req mandel.Request) *mandel.BGR {
	t.Helper()
	img, err := mandel.Render(req)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func waitImage(t *testing.T, images mandel.ImgProvider) *mandel.BGR {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	img, err := images.GetImage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

type failingRenderer struct{}

func (failingRenderer) RenderTile(context.Context, mandel.Request, image.Rectangle) (*mandel.BGR, error) {
	return nil, errors.New("worker gone")
}

// wrongTileRenderer answers every tile with the image's corner.
type wrongTileRenderer struct{}

func (wrongTileRenderer) RenderTile(ctx context.Context, req mandel.Request, _ image.Rectangle) (*mandel.BGR, error) {
	return mandel.LocalRenderer{}.RenderTile(ctx, req, image.Rect(0, 0, 1, 1))
}

func TestSchedulerLocal(t *testing.T) {
	req := testRequest(t)
	iws := newImgWorkScheduler(req, 16)

	// A failing worker leaves its tile in process; the others pick it up.
	if err := iws.render(failingRenderer{}); err == nil {
		t.Fatal("failing renderer reported success")
	}
	if err := iws.render(wrongTileRenderer{}); err == nil {
		t.Fatal("renderer answering the wrong tile reported success")
	}

	var wg sync.WaitGroup
	for range 3 {
		wg.Go(func() {
			if err := iws.render(mandel.LocalRenderer{Grid: image.Pt(2, 1)}); err != nil {
				t.Error(err)
			}
		})
	}
	got := waitImage(t, iws)
	wg.Wait()

	if !bytes.Equal(wantImage(t, req).Pix, got.Pix) {
		t.Error("scheduled image differs from a direct render")
	}
	st := iws.status()
	if !st.Done || st.Finished != 1 || st.Workers != 0 {
		t.Errorf("status = %+v", st)
	}
}

func TestSchedulerGetImageCancel(t *testing.T) {
	iws := newImgWorkScheduler(testRequest(t), 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := iws.GetImage(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

// TestSchedulerRemote connects a worker the way cmd/worker does and fetches
// the image the way cmd/mandel -from does, both over irpc.
func TestSchedulerRemote(t *testing.T) {
	req := testRequest(t)
	iws := newImgWorkScheduler(req, 32)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	irpcServer := newIrpcServer(iws)
	irpcServer.AddService(mandel.NewImgProviderIrpcService(iws))
	serveErr := make(chan error, 1)
	go func() { serveErr <- irpcServer.Serve(l) }()

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	ep := irpc.NewEndpoint(conn, irpc.WithEndpointServices(mandel.NewRendererIrpcService(mandel.LocalRenderer{Grid: image.Pt(2, 2)})))
	defer ep.Close()
	client, err := mandel.NewImgProviderIrpcClient(ep)
	if err != nil {
		t.Fatal(err)
	}

	got := waitImage(t, client)
	if !bytes.Equal(wantImage(t, req).Pix, got.Pix) {
		t.Error("remote image differs from a direct render")
	}

	if err := irpcServer.Close(); err != nil {
		t.Errorf("irpcServer.Close: %v", err)
	}
	if err := <-serveErr; !errors.Is(err, irpc.ErrServerClosed) {
		t.Errorf("Serve returned %v, want ErrServerClosed", err)
	}
	<-ep.Context().Done()
}

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-size", "320x200", "-region", "elephant", "-tile", "32", "-gradient", "100 5", "-interior", "#102030"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.req.Size != image.Pt(320, 200) || cfg.req.Region != mandel.ElephantValley || cfg.tileSize != 32 {
		t.Errorf("config = %+v", cfg)
	}
	gc := cfg.req.Gradient.Config()
	if gc.PaletteScale != 100 || gc.Shift != 5 {
		t.Errorf("gradient = %+v", gc)
	}
	if c, ok := cfg.req.Gradient.MaxIterationColor(); !ok || c != (mandel.Color{R: 0x10, G: 0x20, B: 0x30}) {
		t.Errorf("interior = %v, %t", c, ok)
	}
	if len(cfg.req.Palette) != mandel.DefaultNumColors {
		t.Errorf("palette has %d colors", len(cfg.req.Palette))
	}
	if err := cfg.req.Validate(); err != nil {
		t.Errorf("template request: %v", err)
	}

	for _, args := range [][]string{
		{"-size", "0x10"},
		{"-size", "5000x5000"},
		{"-region", "nowhere"},
		{"-gradient", "x"},
		{"-interior", "blue"},
		{"-tile", "0"},
		{"-iterations", "0"},
		{"-palette", "/does/not/exist"},
	} {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("parseFlags(%q) succeeded", args)
		}
	}
}
