package main

import (
	"context"
	"encoding/json"
	"image/png"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/image/bmp"

	mandel "github.com/marben/smooth_mandel"
)

// maxMessageSize bounds one websocket message, which carries at most one
// irpc write.
const maxMessageSize = 64 << 20

// webServer serves the finished image and the render status and
// initializes the websocket endpoint. It returns a net.Listener accepting
// websocket connections.
func webServer(ctx context.Context, addr string, images mandel.ImgProvider, st func() status) (net.Listener, *http.Server) {
	l := NewWSListener(ctx, addr+"/ws")
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", websocketHandler(l))
	mux.HandleFunc("/image.png", imageHandler(images, func(w http.ResponseWriter, img *mandel.BGR) error {
		w.Header().Set("Content-Type", "image/png")
		return png.Encode(w, img)
	}))
	mux.HandleFunc("/image.bmp", imageHandler(images, func(w http.ResponseWriter, img *mandel.BGR) error {
		w.Header().Set("Content-Type", "image/bmp")
		return bmp.Encode(w, img)
	}))
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st()); err != nil {
			log.Printf("status: %v", err)
		}
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("listening on http://%s", addr)
	return l, srv
}

// imageHandler blocks until the image is complete or the client goes away.
func imageHandler(images mandel.ImgProvider, encode func(http.ResponseWriter, *mandel.BGR) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := images.GetImage(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err := encode(w, img); err != nil {
			log.Printf("%s: %v", r.URL.Path, err)
		}
	}
}

// websocketHandler handles the http ws endpoint
// if websocket is succesfully initialized it is passed to WebsocketListener so it can be accepted
func websocketHandler(l *WebsocketListener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Println(err)
			return
		}
		c.SetReadLimit(maxMessageSize)

		select {
		case l.ch <- c:
		case <-l.ctx.Done():
			c.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

// WebsocketListener implements net.Listener
// it's a wrapper around websocket.Conn
type WebsocketListener struct {
	ch     chan *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	addr   wsAddr
}

func NewWSListener(ctx context.Context, addr string) *WebsocketListener {
	ctx, cancel := context.WithCancel(ctx)
	return &WebsocketListener{
		ch:     make(chan *websocket.Conn),
		ctx:    ctx,
		cancel: cancel,
		addr:   wsAddr{addr: addr},
	}
}

func (l *WebsocketListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return websocket.NetConn(l.ctx, c, websocket.MessageBinary), nil
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *WebsocketListener) Addr() net.Addr {
	return l.addr
}

func (l *WebsocketListener) Close() error {
	l.cancel()
	return nil
}

// wsAddr implements net.Addr
type wsAddr struct {
	addr string
}

func (a wsAddr) Network() string {
	return "ws"
}

func (a wsAddr) String() string {
	return a.addr
}

var _ net.Listener = (*WebsocketListener)(nil)
