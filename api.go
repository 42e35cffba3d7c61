package mandel

import (
	"context"
	"image"
)

//go:generate irpc $GOFILE

// ImgProvider hands out a finished image. GetImage blocks until the image is
// complete or ctx is done.
type ImgProvider interface {
	GetImage(ctx context.Context) (*BGR, error)
}

// Renderer renders one tile of the image described by a Request. The
// returned image covers exactly tile, in coordinates of the whole image.
type Renderer interface {
	RenderTile(ctx context.Context, req Request, tile image.Rectangle) (*BGR, error)
}
