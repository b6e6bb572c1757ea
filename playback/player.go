package playback

import (
	"github.com/sirupsen/logrus"
)

// Player owns the single video and the current session. A new play request
// always replaces the running session.
type Player struct {
	video   Video
	sched   Scheduler
	out     Output
	session *Session
}

// NewPlayer returns a player with no session.
func NewPlayer(video Video, sched Scheduler, out Output) *Player {
	return &Player{
		video: video,
		sched: sched,
		out:   out,
	}
}

// Play starts a new session for url, closing the current one first.
func (p *Player) Play(url string) {
	if p.session != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Play",
			"previous": p.session.url,
			"url":      url,
		}).Info("Replacing active session")
		p.session.Close()
	}
	p.session = NewSession(p.video, p.sched, p.out)
	p.session.Start(url)
}

// Toggle pauses or resumes the current session.
func (p *Player) Toggle() {
	if p.session == nil {
		return
	}
	p.session.Toggle()
}

// State returns the state of the current session.
func (p *Player) State() State {
	if p.session == nil {
		return Idle
	}
	return p.session.State()
}

// Stats returns the counters of the current session.
func (p *Player) Stats() Stats {
	if p.session == nil {
		return Stats{}
	}
	return p.session.Stats()
}

// Close ends the current session and releases the video.
func (p *Player) Close() error {
	if p.session != nil {
		p.session.Close()
		p.session = nil
	}
	return p.video.Close()
}
