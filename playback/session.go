package playback

import (
	"github.com/sirupsen/logrus"

	"github.com/esimov/ascii-video/ascii"
)

// Session is the lifetime of one play request: it owns the playing flag and
// the single pending tick handle.
type Session struct {
	url   string
	video Video
	sched Scheduler
	out   Output

	state   State
	pending Handle
	queued  bool
	// startPaused records a toggle received while still loading.
	startPaused bool
	closed      bool

	stats Stats
	log   *logrus.Entry
}

// NewSession returns an idle session. Nothing happens until Start.
func NewSession(video Video, sched Scheduler, out Output) *Session {
	return &Session{
		video: video,
		sched: sched,
		out:   out,
		state: Idle,
		log:   logrus.WithField("component", "session"),
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Stats returns the tick counters.
func (s *Session) Stats() Stats {
	return s.stats
}

// Start moves an idle session to Loading and hands the url to the video.
func (s *Session) Start(url string) {
	if s.closed || s.state != Idle {
		return
	}
	s.url = url
	s.setState(Loading)
	s.video.Load(url, s.onReady, s.onFailed)
}

// Toggle flips between Playing and Paused. While loading it decides whether
// playback begins paused.
func (s *Session) Toggle() {
	switch s.state {
	case Playing:
		s.Pause()
	case Paused:
		s.Resume()
	case Loading:
		s.startPaused = !s.startPaused
		s.log.WithFields(logrus.Fields{
			"function":    "Toggle",
			"startPaused": s.startPaused,
		}).Debug("Toggle while loading")
	}
}

// Pause stops the video and cancels the pending tick.
func (s *Session) Pause() {
	if s.state != Playing {
		return
	}
	s.setState(Paused)
	s.video.Pause()
	s.cancelPending()
}

// Resume restarts the video and issues a new tick immediately.
func (s *Session) Resume() {
	if s.state != Paused {
		return
	}
	s.setState(Playing)
	s.video.Play()
	s.cancelPending()
	s.tick()
}

// Close tears the session down. Callbacks that arrive afterwards are ignored.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.cancelPending()
	if s.state == Playing {
		s.video.Pause()
	}
	s.closed = true
	s.setState(Idle)
}

func (s *Session) onReady() {
	if s.closed || s.state != Loading {
		return
	}
	if s.startPaused {
		s.setState(Paused)
		return
	}
	s.setState(Playing)
	s.video.Play()
	s.tick()
}

func (s *Session) onFailed(err error) {
	if s.closed {
		return
	}
	s.log.WithFields(logrus.Fields{
		"function": "onFailed",
		"url":      s.url,
		"error":    err,
	}).Warn("Video source failed, playback stopped")

	s.cancelPending()
	s.setState(Idle)
}

// tick does one sample and render pass and reschedules itself while playing.
// A failed sample skips the output update only.
func (s *Session) tick() {
	s.queued = false
	if s.closed || s.state != Playing {
		return
	}
	s.stats.Ticks++

	raster, err := s.video.Sample()
	if err != nil {
		s.stats.Skipped++
		s.log.WithFields(logrus.Fields{
			"function": "tick",
			"error":    err,
		}).Debug("Frame skipped")
	} else {
		s.out.SetText(ascii.Render(raster))
		s.stats.Rendered++
	}

	if s.state == Playing && !s.queued {
		s.pending = s.sched.ScheduleNextFrame(s.tick)
		s.queued = true
	}
}

func (s *Session) cancelPending() {
	if !s.queued {
		return
	}
	s.sched.Cancel(s.pending)
	s.queued = false
}

func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	s.log.WithFields(logrus.Fields{
		"from": s.state,
		"to":   state,
	}).Info("Playback state changed")
	s.state = state
}
