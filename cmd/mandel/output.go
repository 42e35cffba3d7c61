package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/marben/irpc"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"

	mandel "github.com/marben/smooth_mandel"
	"github.com/marben/smooth_mandel/internal/palettefile"
)

// downscale shrinks img by k in both directions with a Lanczos filter.
func downscale(img *mandel.BGR, k int) image.Image {
	b := img.Bounds()
	return resize.Resize(uint(b.Dx()/k), uint(b.Dy()/k), img, resize.Lanczos3)
}

// encode writes img in the format matching name's extension.
func encode(w io.Writer, name string, img image.Image) error {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}
}

func save(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := encode(f, name, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return f.Close()
}

func dumpPalette(name string, p mandel.Palette) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(name), ".pal") {
		err = palettefile.WriteMSPal(f, p)
	} else {
		err = palettefile.Format(f, p)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("write palette: %w", err)
	}
	return f.Close()
}

// fetch asks the mosaic server at addr for the finished image. The server
// answers once the last tile is in; until then it renders tiles on this
// process like on any other worker.
func fetch(ctx context.Context, addr string, grid image.Point) (*mandel.BGR, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// the server needs a renderer from every client
	rendererService := mandel.NewRendererIrpcService(mandel.LocalRenderer{Grid: grid})
	ep := irpc.NewEndpoint(conn, irpc.WithEndpointServices(rendererService))
	defer ep.Close()

	client, err := mandel.NewImgProviderIrpcClient(ep)
	if err != nil {
		return nil, err
	}
	img, err := client.GetImage(ctx)
	if err != nil {
		return nil, fmt.Errorf("client.GetImage: %w", err)
	}
	if img == nil {
		return nil, fmt.Errorf("client.GetImage: no image")
	}
	return img, nil
}
