package websocket

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/esimov/ascii-video/frameloop"
	"github.com/esimov/ascii-video/playback"
	"github.com/esimov/ascii-video/statsview"
	"github.com/esimov/ascii-video/web"
)

// HttpParams configures the http server.
type HttpParams struct {
	Address string
	Prefix  string
	// Root is served as static files. The embedded page is served when empty.
	Root string
	// Refresh is the display refresh emulated for every connection.
	Refresh time.Duration
	// Origins allowed for cross-origin requests and websocket connections,
	// none when empty.
	Origins []string
	// Proxy enables the /proxy endpoint used by the wasm page.
	Proxy bool
	// Totals, when set, collects the stats of every connection and is
	// served on /debug/playback.
	Totals *statsview.Totals

	newVideo func(*frameloop.Loop) playback.Video
	upgrader *websocket.Upgrader
}

// Handler returns the http handler serving the page, the websocket endpoint
// and optionally the proxy.
func (p *HttpParams) Handler() (http.Handler, error) {
	static, err := p.static()
	if err != nil {
		return nil, err
	}

	p.upgrader = newUpgrader(p.Origins)

	mux := http.NewServeMux()
	mux.Handle(p.Prefix, http.StripPrefix(p.Prefix, static))
	mux.HandleFunc("/ws", p.wsHandler)
	if p.Proxy {
		mux.Handle("/proxy", NewProxy(nil))
	}
	if p.Totals != nil {
		mux.Handle("/debug/playback", p.Totals)
	}

	handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.Debug(r.RemoteAddr + " " + r.Method + " " + r.URL.String())
		mux.ServeHTTP(w, r)
	}))
	if len(p.Origins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: p.Origins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
			AllowedHeaders: []string{"Range"},
		})
		handler = c.Handler(handler)
	}
	return handler, nil
}

func (p *HttpParams) static() (http.Handler, error) {
	if p.Root == "" {
		return http.FileServer(http.FS(web.Files)), nil
	}
	root, err := filepath.Abs(p.Root)
	if err != nil {
		return nil, err
	}
	p.Root = root
	return http.FileServer(http.Dir(p.Root)), nil
}

// Serve listens on p.Address until ctx is cancelled.
func Serve(ctx context.Context, p *HttpParams) error {
	handler, err := p.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:    p.Address,
		Handler: handler,
	}

	logrus.WithFields(logrus.Fields{
		"function": "Serve",
		"root":     p.Root,
		"prefix":   p.Prefix,
		"address":  p.Address,
		"proxy":    p.Proxy,
	}).Info("Serving")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
