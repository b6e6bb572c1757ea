package websocket

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/esimov/ascii-video/frameloop"
	"github.com/esimov/ascii-video/playback"
	"github.com/esimov/ascii-video/video"
)

const (
	writeWait    = 5 * time.Second
	fetchTimeout = 5 * time.Minute
)

// newUpgrader returns the upgrader used by the websocket endpoint. Pages
// served by this server are always accepted, other pages only when their
// origin is listed.
func newUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     checkOrigin(origins),
	}
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Command is a control message sent by the page.
type Command struct {
	Cmd string `json:"cmd"`
	URL string `json:"url,omitempty"`
}

// List of commands understood by the websocket endpoint.
const (
	CmdPlay   = "play"
	CmdToggle = "toggle"
)

// newSource plays remote URLs only: clients must not reach files or hosts
// private to the server.
func newSource(loop *frameloop.Loop) playback.Video {
	return newSourceWith(loop, video.OpenVidio)
}

func newSourceWith(loop *frameloop.Loop, open video.Opener) playback.Video {
	fetcher := video.NewFetcher(video.PublicClient(fetchTimeout), video.RemoteOnly())
	return video.NewSourceWith(loop.Post, open, fetcher)
}

// wsHandler defines the websocket connection endpoint
func (p *HttpParams) wsHandler(w http.ResponseWriter, r *http.Request) {
	// Upgrade the http connection to a WebSocket connection
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			logrus.WithField("function", "wsHandler").Error(err)
		}
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newVideo := p.newVideo
	if newVideo == nil {
		newVideo = newSource
	}
	loop := frameloop.New(p.Refresh)
	out := newFrameWriter()
	player := playback.NewPlayer(newVideo(loop), loop, out)

	go out.run(ctx, conn, cancel)
	go reader(ctx, conn, loop, player, cancel)

	logrus.WithFields(logrus.Fields{
		"function": "wsHandler",
		"remote":   r.RemoteAddr,
	}).Info("Client connected")
	if p.Totals != nil {
		p.Totals.Connect()
	}

	loop.Run(ctx)
	player.Close()
	if p.Totals != nil {
		p.Totals.Disconnect(player.Stats())
	}

	logrus.WithFields(logrus.Fields{
		"function": "wsHandler",
		"remote":   r.RemoteAddr,
		"stats":    player.Stats(),
	}).Info("Client disconnected")
}

// reader listen for new commands being sent to the websocket and hands them
// over to the connection's frame loop.
func reader(ctx context.Context, conn *websocket.Conn, loop *frameloop.Loop, player *playback.Player, cancel context.CancelFunc) {
	defer cancel()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithField("function", "reader").Warn(err)
			}
			return
		}

		switch cmd.Cmd {
		case CmdPlay:
			target := cmd.URL
			loop.Post(func() { player.Play(target) })
		case CmdToggle:
			loop.Post(player.Toggle)
		default:
			logrus.WithFields(logrus.Fields{
				"function": "reader",
				"cmd":      cmd.Cmd,
			}).Warn("Unknown command")
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// frameWriter is the output surface of a connection. Only the most recent
// frame is kept, so a slow client drops frames instead of stalling the loop.
type frameWriter struct {
	frames chan string
}

func newFrameWriter() *frameWriter {
	return &frameWriter{frames: make(chan string, 1)}
}

// SetText implements playback.Output.
func (f *frameWriter) SetText(text string) {
	for {
		select {
		case f.frames <- text:
			return
		default:
		}
		select {
		case <-f.frames:
		default:
		}
	}
}

func (f *frameWriter) run(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case text := <-f.frames:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				logrus.WithField("function", "run").Debug(err)
				return
			}
		}
	}
}
