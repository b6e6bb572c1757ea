// Package http binds the command line flags of the websocket server.
package http

import (
	"flag"
	"strings"

	"github.com/esimov/ascii-video/frameloop"
	"github.com/esimov/ascii-video/websocket"
)

// Defaults of the server flags.
const (
	DefaultAddress = "localhost:5000"
	DefaultPrefix  = "/"
)

// Bind registers the server flags on fs and returns the params they fill.
// Origins are given as a comma separated list.
func Bind(fs *flag.FlagSet) *websocket.HttpParams {
	ws := &websocket.HttpParams{}
	fs.StringVar(&ws.Address, "a", DefaultAddress, "address to serve(host:port)")
	fs.StringVar(&ws.Prefix, "p", DefaultPrefix, "prefix path under")
	fs.StringVar(&ws.Root, "r", "", "root path to serve, the embedded page when empty")
	fs.DurationVar(&ws.Refresh, "refresh", frameloop.DefaultRefresh, "display refresh interval")
	fs.BoolVar(&ws.Proxy, "proxy", false, "enable the /proxy endpoint for the wasm page")
	fs.Func("origins", "comma separated list of allowed cross-origin origins", func(s string) error {
		ws.Origins = nil
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				ws.Origins = append(ws.Origins, o)
			}
		}
		return nil
	})
	return ws
}
