package websocket

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimov/ascii-video/frameloop"
	"github.com/esimov/ascii-video/playback"
	"github.com/esimov/ascii-video/sampler"
	"github.com/esimov/ascii-video/statsview"
	"github.com/esimov/ascii-video/video"
)

// staticVideo becomes ready as soon as it is loaded and always shows a
// white 3x2 frame.
type staticVideo struct {
	loop *frameloop.Loop
}

func (v *staticVideo) Load(url string, ready func(), failed func(error)) {
	if url == "bad" {
		v.loop.Post(func() { failed(playback.ErrDecodeFailure) })
		return
	}
	v.loop.Post(ready)
}
func (v *staticVideo) Play()        {}
func (v *staticVideo) Pause()       {}
func (v *staticVideo) Close() error { return nil }
func (v *staticVideo) Sample() (*sampler.Raster, error) {
	pix := make([]uint8, 3*2*4)
	for i := range pix {
		pix[i] = 255
	}
	return sampler.NewRaster(3, 2, pix), nil
}

func newTestServer(t *testing.T, p *HttpParams) *httptest.Server {
	t.Helper()
	if p.Prefix == "" {
		p.Prefix = "/"
	}
	p.Refresh = time.Millisecond
	if p.newVideo == nil {
		p.newVideo = func(loop *frameloop.Loop) playback.Video { return &staticVideo{loop: loop} }
	}
	h, err := p.Handler()
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := dialOrigin(srv, "")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func dialOrigin(srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(u, header)
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	typ, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, typ)
	return string(msg)
}

func TestWebsocketStreamsFrames(t *testing.T) {
	srv := newTestServer(t, &HttpParams{})
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(Command{Cmd: CmdPlay, URL: "clip.mp4"}))
	for i := 0; i < 3; i++ {
		assert.Equal(t, "@@@\n@@@\n", readFrame(t, conn))
	}
}

func TestWebsocketTogglePauses(t *testing.T) {
	srv := newTestServer(t, &HttpParams{})
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(Command{Cmd: CmdPlay, URL: "clip.mp4"}))
	readFrame(t, conn)
	require.NoError(t, conn.WriteJSON(Command{Cmd: CmdToggle}))

	// drain whatever was rendered before the toggle arrived
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		require.True(t, time.Now().Before(deadline), "frames kept coming after pause")
	}
}

func TestWebsocketDecodeFailureSendsNothing(t *testing.T) {
	srv := newTestServer(t, &HttpParams{})
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(Command{Cmd: CmdPlay, URL: "bad"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestServesEmbeddedPage(t *testing.T) {
	srv := newTestServer(t, &HttpParams{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `id="asciiOutput"`)

	resp, err = http.Get(srv.URL + "/proxy?url=http://example.com/a.mp4")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "proxy disabled by default")
}

func TestProxy(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("X-Secret", "dropped")
		if r.Header.Get("Range") != "" {
			w.Header().Set("Content-Range", "bytes 0-3/10")
			w.WriteHeader(http.StatusPartialContent)
		}
		w.Write([]byte("mp4!"))
	}))
	defer remote.Close()

	srv := newTestServer(t, &HttpParams{Proxy: true})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/proxy?url="+remote.URL+"/clip.mp4", nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=0-3")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "mp4!", string(body))
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	assert.Equal(t, "bytes 0-3/10", resp.Header.Get("Content-Range"))
	assert.Empty(t, resp.Header.Get("X-Secret"))

	for _, bad := range []string{"", "ftp://host/a.mp4", "relative/path"} {
		resp, err := http.Get(srv.URL + "/proxy?url=" + bad)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestFrameWriterKeepsLatest(t *testing.T) {
	f := newFrameWriter()
	f.SetText("first")
	f.SetText("second")
	assert.Equal(t, "second", <-f.frames)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &HttpParams{Origins: []string{"http://player.example"}})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://player.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://player.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://elsewhere.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebsocketOrigin(t *testing.T) {
	srv := newTestServer(t, &HttpParams{})

	conn, _, err := dialOrigin(srv, srv.URL)
	require.NoError(t, err, "same origin")
	conn.Close()

	_, resp, err := dialOrigin(srv, "http://elsewhere.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	srv = newTestServer(t, &HttpParams{Origins: []string{"http://player.example"}})

	conn, _, err = dialOrigin(srv, "http://player.example")
	require.NoError(t, err, "listed origin")
	conn.Close()

	_, resp, err = dialOrigin(srv, "http://elsewhere.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebsocketRefusesLocalPath(t *testing.T) {
	opened := make(chan string, 1)
	open := func(path string) (video.Decoder, error) {
		opened <- path
		return nil, io.EOF
	}
	srv := newTestServer(t, &HttpParams{
		newVideo: func(loop *frameloop.Loop) playback.Video { return newSourceWith(loop, open) },
	})
	conn := dial(t, srv)

	for _, path := range []string{"/etc/hostname", "file:///etc/hostname", "http://127.0.0.1:1/clip.mp4"} {
		require.NoError(t, conn.WriteJSON(Command{Cmd: CmdPlay, URL: path}))
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "no frame is rendered")
	assert.Empty(t, opened, "nothing reaches the decoder")
}

func TestProxyLogsCopyFailure(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the body is cut short of the declared length
		w.Header().Set("Content-Length", "10")
		w.Write([]byte("mp4!"))
	}))
	defer remote.Close()

	hook := test.NewGlobal()
	defer hook.Reset()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(level)

	proxy := httptest.NewServer(NewProxy(remote.Client()))
	defer proxy.Close()

	resp, err := http.Get(proxy.URL + "/?url=" + remote.URL + "/clip.mp4")
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "Proxy copy failed" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPlaybackTotals(t *testing.T) {
	totals := &statsview.Totals{}
	srv := newTestServer(t, &HttpParams{Totals: totals})
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(Command{Cmd: CmdPlay, URL: "clip.mp4"}))
	readFrame(t, conn)
	assert.Equal(t, 1, totals.Snapshot().Active)
	conn.Close()

	require.Eventually(t, func() bool {
		s := totals.Snapshot()
		return s.Active == 0 && s.Finished == 1 && s.Rendered > 0
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(srv.URL + "/debug/playback")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
