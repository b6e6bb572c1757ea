package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/esimov/ascii-video/frameloop"
	"github.com/esimov/ascii-video/http"
	"github.com/esimov/ascii-video/statsview"
	"github.com/esimov/ascii-video/terminal"
	"github.com/esimov/ascii-video/websocket"
)

const (
	modeTerminal = "terminal"
	modeServer   = "server"
)

type options struct {
	mode      string
	url       string
	debug     bool
	statsview bool
	server    *websocket.HttpParams
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("ascii-video", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.mode, "mode", modeTerminal, "terminal or server")
	fs.StringVar(&opts.url, "url", "", "video file or URL to play in terminal mode")
	fs.BoolVar(&opts.debug, "debug", false, "verbose logging")
	fs.BoolVar(&opts.statsview, "statsview", false, "launch the runtime stats server (statsview build only)")
	opts.server = http.Bind(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch opts.mode {
	case modeTerminal:
		if opts.url == "" {
			return nil, fmt.Errorf("-url is required in %s mode", modeTerminal)
		}
	case modeServer:
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.mode)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err == flag.ErrHelp {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if opts.debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if opts.statsview {
		opts.server.Totals = &statsview.Totals{}
		if !statsview.Available() {
			logrus.Warn("runtime charts not available in this build, use -tags statsview")
		}
		stopStats := statsview.Launch(statsview.Address)
		defer stopStats()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch opts.mode {
	case modeServer:
		err = websocket.Serve(ctx, opts.server)
	default:
		term := terminal.New()
		err = term.Render(ctx, opts.url, frameloop.New(opts.server.Refresh))
	}
	if err != nil {
		logrus.WithField("mode", opts.mode).Fatal(err)
	}
}
