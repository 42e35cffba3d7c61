package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	mandel "github.com/marben/smooth_mandel"
)

type imgWorkScheduler struct {
	workers int
	req     mandel.Request // every tile is rendered from it
	img     *mandel.BGR

	ctx       context.Context
	ctxCancel context.CancelFunc

	totalPixels    int
	finishedPixels int

	unstarted map[image.Rectangle]struct{}
	inProcess map[image.Rectangle]struct{}
	m         sync.Mutex
}

func newImgWorkScheduler(req mandel.Request, tileSize int) *imgWorkScheduler {
	req.Rect = image.Rectangle{}
	img := mandel.NewBGR(req.Bounds())
	allTilesSlice := splitRectNoClip(img.Bounds(), tileSize, tileSize)
	allTiles := make(map[image.Rectangle]struct{}, len(allTilesSlice))
	for _, t := range allTilesSlice {
		allTiles[t] = struct{}{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &imgWorkScheduler{
		req:         req,
		img:         img,
		unstarted:   allTiles,
		inProcess:   make(map[image.Rectangle]struct{}),
		totalPixels: req.Size.X * req.Size.Y,
		ctx:         ctx,
		ctxCancel:   cancel,
	}
}

func (iws *imgWorkScheduler) popTile() (tile image.Rectangle, found bool) {
	iws.m.Lock()
	defer iws.m.Unlock()

	switch {
	case len(iws.unstarted) > 0:
		// Get unstarted tile
		for tile = range iws.unstarted {
			break
		}
		delete(iws.unstarted, tile)

		// Move popped tile to currently processed tiles
		iws.inProcess[tile] = struct{}{}
	case len(iws.inProcess) > 0:
		// If there is no unstarted tile, we work again on a started one
		for tile = range iws.inProcess {
			break
		}
	default:
		return image.Rectangle{}, false
	}
	return tile, true
}

// GetImage implements mandel.ImgProvider. It returns a copy, since
// re-issued tiles may still be written after the image is complete.
func (iws *imgWorkScheduler) GetImage(ctx context.Context) (*mandel.BGR, error) {
	select {
	case <-iws.ctx.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	iws.m.Lock()
	defer iws.m.Unlock()
	img := mandel.NewBGR(iws.img.Rect)
	img.Compose(iws.img)
	return img, nil
}

var _ mandel.ImgProvider = (*imgWorkScheduler)(nil)

type status struct {
	Workers  int           `json:"workers"`
	Finished float64       `json:"finished"`
	Done     bool          `json:"done"`
	Size     image.Point   `json:"size"`
	Region   mandel.Region `json:"region"`
}

func (iws *imgWorkScheduler) status() status {
	iws.m.Lock()
	defer iws.m.Unlock()
	return status{
		Workers:  iws.workers,
		Finished: float64(iws.finishedPixels) / float64(iws.totalPixels),
		Done:     len(iws.unstarted) == 0 && len(iws.inProcess) == 0,
		Size:     iws.req.Size,
		Region:   iws.req.Region,
	}
}

func (iws *imgWorkScheduler) tileFinished(tileImg *mandel.BGR) {
	rect := tileImg.Bounds()
	iws.m.Lock()
	defer iws.m.Unlock()

	iws.img.Compose(tileImg)

	// a re-issued tile may come back twice
	if _, found := iws.inProcess[rect]; found {
		iws.finishedPixels += rect.Dx() * rect.Dy()
		delete(iws.inProcess, rect)
		log.Printf("finished: %f", float64(iws.finishedPixels)/float64(iws.totalPixels))
	}

	if len(iws.unstarted) == 0 && len(iws.inProcess) == 0 {
		iws.ctxCancel()
	}
}

func (iws *imgWorkScheduler) incActiveWorker() {
	iws.m.Lock()
	iws.workers++
	w := iws.workers
	iws.m.Unlock()

	log.Printf("workers: %d", w)
}

func (iws *imgWorkScheduler) decActiveWorkers() {
	iws.m.Lock()
	iws.workers--
	w := iws.workers
	iws.m.Unlock()

	log.Printf("workers: %d", w)
}

// render renders unfinished tiles on renderer until none are left.
// It can be called from multiple goroutines in parallel. Calls still
// running when the image completes are canceled.
func (iws *imgWorkScheduler) render(renderer mandel.Renderer) error {
	iws.incActiveWorker()
	defer iws.decActiveWorkers()

	for {
		tile, found := iws.popTile()
		if !found {
			return nil
		}
		tileImg, err := renderer.RenderTile(iws.ctx, iws.req, tile)
		if err != nil {
			if iws.ctx.Err() != nil {
				// another worker finished the image
				return nil
			}
			// the tile stays in process and is handed to another worker
			return fmt.Errorf("render of tile %s: %w", tile, err)
		}
		if tileImg == nil {
			return fmt.Errorf("render of tile %s: no image", tile)
		}
		if tileImg.Rect != tile {
			return fmt.Errorf("asked for tile %s, got %s", tile, tileImg.Rect)
		}
		iws.tileFinished(tileImg)
	}
}

// splitRectNoClip splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
func splitRectNoClip(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle

	for oy := 0; oy < h; oy += tileH {
		th := min(tileH, h-oy)
		for ox := 0; ox < w; ox += tileW {
			tw := min(tileW, w-ox)
			tiles = append(tiles, image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			))
		}
	}

	return tiles
}
