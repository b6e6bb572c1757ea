// Package video implements the playback.Video capability outside the browser,
// decoding files or remote URLs through ffmpeg.
package video

import (
	"context"
	"image"
	"sync"
	"time"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/esimov/ascii-video/playback"
	"github.com/esimov/ascii-video/sampler"
)

// Decoder reads consecutive RGBA frames into a caller provided buffer.
// *vidio.Video satisfies it.
type Decoder interface {
	Width() int
	Height() int
	FPS() float64
	SetFrameBuffer(buffer []byte) error
	Read() bool
	Close()
}

// Opener opens a decoder for a local file.
type Opener func(path string) (Decoder, error)

// OpenVidio opens path with ffmpeg through Vidio.
func OpenVidio(path string) (Decoder, error) {
	v, err := vidio.NewVideo(path)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Dispatcher delivers callbacks onto the player's execution context,
// usually frameloop.Loop.Post.
type Dispatcher func(fn func()) bool

const defaultFPS = 30

// Source is a playback.Video backed by a Decoder. Load runs in the
// background; ready and failed are delivered through the Dispatcher.
type Source struct {
	dispatch Dispatcher
	open     Opener
	fetcher  *Fetcher

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	gen     int
	dec     Decoder
	buf     []byte
	frame   *image.RGBA
	cleanup func()

	stop chan struct{}
	done chan struct{}
}

// NewSource returns a Source using Vidio and the default Fetcher.
func NewSource(dispatch Dispatcher) *Source {
	return NewSourceWith(dispatch, OpenVidio, NewFetcher(nil))
}

// NewSourceWith returns a Source with an explicit decoder opener and fetcher.
func NewSourceWith(dispatch Dispatcher, open Opener, fetcher *Fetcher) *Source {
	ctx, cancel := context.WithCancel(context.Background())
	return &Source{
		dispatch: dispatch,
		open:     open,
		fetcher:  fetcher,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Load implements playback.Video.
func (s *Source) Load(url string, ready func(), failed func(error)) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.stopLocked()
	s.releaseLocked()
	s.mu.Unlock()

	go func() {
		err := s.load(gen, url)
		if err == errStale {
			return
		}
		if err != nil {
			s.dispatch(func() { failed(errors.Wrapf(playback.ErrDecodeFailure, "%s: %v", url, err)) })
			return
		}
		s.dispatch(ready)
	}()
}

var errStale = errors.New("stale load")

func (s *Source) load(gen int, url string) error {
	path, cleanup, err := s.fetcher.Fetch(s.ctx, url)
	if err != nil {
		return err
	}
	dec, err := s.open(path)
	if err != nil {
		cleanup()
		return err
	}
	w, h := dec.Width(), dec.Height()
	if w <= 0 || h <= 0 {
		dec.Close()
		cleanup()
		return errors.Wrapf(sampler.ErrSourceNotReady, "natural size %dx%d", w, h)
	}
	buf := make([]byte, w*h*4)
	if err := dec.SetFrameBuffer(buf); err != nil {
		dec.Close()
		cleanup()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		dec.Close()
		cleanup()
		return errStale
	}
	s.dec = dec
	s.buf = buf
	s.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	s.cleanup = cleanup

	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"url":      url,
		"width":    w,
		"height":   h,
		"fps":      dec.FPS(),
	}).Info("Video metadata ready")
	return nil
}

// Play implements playback.Video. It starts the decode goroutine if it is
// not running already.
func (s *Source) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dec == nil || s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.decode(s.dec, s.buf, s.stop, s.done)
}

// Pause implements playback.Video. The decoder keeps its position.
func (s *Source) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Sample implements playback.Video.
func (s *Source) Sample() (*sampler.Raster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, errors.Wrap(sampler.ErrSourceNotReady, "no metadata")
	}
	return sampler.Sample(s.frame)
}

// Close implements playback.Video.
func (s *Source) Close() error {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.stopLocked()
	s.releaseLocked()
	return nil
}

// decode reads frames at the stream rate until stopped or the stream ends.
// The last frame stays available after the end.
func (s *Source) decode(dec Decoder, buf []byte, stop, done chan struct{}) {
	defer close(done)

	fps := dec.FPS()
	if fps <= 0 {
		fps = defaultFPS
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !dec.Read() {
				logrus.WithField("function", "decode").Debug("End of stream")
				return
			}
			s.mu.Lock()
			if s.frame != nil && s.dec == dec {
				copy(s.frame.Pix, buf)
			}
			s.mu.Unlock()
		}
	}
}

// stopLocked stops the decode goroutine and waits for it. The goroutine
// takes s.mu to publish frames, so the lock is released while waiting.
func (s *Source) stopLocked() {
	if s.stop == nil {
		return
	}
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	close(stop)
	s.mu.Unlock()
	<-done
	s.mu.Lock()
}

func (s *Source) releaseLocked() {
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	s.buf = nil
	s.frame = nil
}
