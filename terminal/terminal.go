package terminal

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/nsf/termbox-go"
	"github.com/sirupsen/logrus"

	"github.com/esimov/ascii-video/frameloop"
	"github.com/esimov/ascii-video/playback"
	"github.com/esimov/ascii-video/video"
)

// Terminal plays a video as ASCII art inside the terminal.
type Terminal struct {
	backbuf  []termbox.Cell
	bbw, bbh int
	logfile  *os.File
	logerr   error
	fn       string
}

// New returns a terminal host. Logs are redirected to debug.log while
// termbox owns the screen.
func New() *Terminal {
	return newTerminal("debug.log")
}

func newTerminal(fn string) *Terminal {
	t := &Terminal{fn: fn}
	t.logfile, t.logerr = os.OpenFile(t.fn, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)

	return t
}

// redirectLogs sends the logs to the log file, or drops them when it could
// not be opened, and returns the function restoring stderr. It must run
// before termbox takes over the screen.
func (t *Terminal) redirectLogs() (restore func()) {
	if t.logerr != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Render",
			"file":     t.fn,
		}).Warnf("Logs are disabled while playing: %v", t.logerr)
		logrus.SetOutput(io.Discard)
		return func() { logrus.SetOutput(os.Stderr) }
	}
	logrus.SetOutput(t.logfile)
	return func() {
		logrus.SetOutput(os.Stderr)
		t.logfile.Close()
	}
}

// Render plays url until Esc or Ctrl-C. Space or p toggles pause.
func (t *Terminal) Render(ctx context.Context, url string, loop *frameloop.Loop) error {
	defer t.redirectLogs()()

	err := termbox.Init()
	if err != nil {
		return err
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc)
	t.reallocBackBuffer(termbox.Size())
	t.redraw()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	player := playback.NewPlayer(video.NewSource(loop.Post), loop, t)
	defer player.Close()

	go t.pollEvents(ctx, cancel, loop, player)
	loop.Post(func() { player.Play(url) })

	err = loop.Run(ctx)
	termbox.Interrupt()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (t *Terminal) pollEvents(ctx context.Context, cancel context.CancelFunc, loop *frameloop.Loop, player *playback.Player) {
mainloop:
	for {
		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			switch {
			case ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC:
				break mainloop
			case ev.Key == termbox.KeySpace || ev.Ch == 'p':
				loop.Post(player.Toggle)
			}
		case termbox.EventResize:
			w, h := ev.Width, ev.Height
			loop.Post(func() {
				t.reallocBackBuffer(w, h)
				t.redraw()
			})
		case termbox.EventInterrupt, termbox.EventError:
			break mainloop
		}
		if ctx.Err() != nil {
			break mainloop
		}
	}
	cancel()
}

// SetText implements playback.Output. Lines beyond the terminal size are clipped.
func (t *Terminal) SetText(text string) {
	t.fill(text)
	t.redraw()
}

func (t *Terminal) fill(text string) {
	for i := range t.backbuf {
		t.backbuf[i] = termbox.Cell{Ch: ' '}
	}
	for y, line := range strings.Split(text, "\n") {
		if y >= t.bbh {
			break
		}
		for x := 0; x < len(line) && x < t.bbw; x++ {
			t.backbuf[t.bbw*y+x] = termbox.Cell{Ch: rune(line[x]), Fg: termbox.ColorWhite, Bg: termbox.ColorBlack}
		}
	}
}

func (t *Terminal) reallocBackBuffer(w, h int) {
	t.bbw, t.bbh = w, h
	t.backbuf = make([]termbox.Cell, w*h)
}

func (t *Terminal) redraw() {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	copy(termbox.CellBuffer(), t.backbuf)
	termbox.Flush()
}
