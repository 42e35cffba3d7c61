package main

import (
	"context"
	"image"
	"log"

	mandel "github.com/marben/smooth_mandel"
)

// tileLogger reports every tile before rendering it and logs failures, which
// are also returned to the server.
type tileLogger struct {
	mandel.Renderer
	onTileRender func(tile image.Rectangle)
}

func (tl tileLogger) RenderTile(ctx context.Context, req mandel.Request, tile image.Rectangle) (*mandel.BGR, error) {
	if tl.onTileRender != nil {
		tl.onTileRender(tile)
	}
	img, err := tl.Renderer.RenderTile(ctx, req, tile)
	if err != nil {
		log.Printf("tile %s: %v", tile, err)
		return nil, err
	}
	return img, nil
}
