// Package playback drives the sample, render and display loop of a video
// session. Nothing in this package blocks: every tick does one synchronous
// pass and, while playing, asks the injected Scheduler for exactly one more.
//
// Sessions and players are not safe for concurrent use. All calls, including
// the callbacks handed to Scheduler and Video, must happen on the single
// execution context owned by the host (the browser event loop, or a
// frameloop.Loop).
package playback

import (
	"github.com/pkg/errors"

	"github.com/esimov/ascii-video/sampler"
)

// ErrDecodeFailure is reported by a Video when the source cannot be fetched
// or decoded. Empty or malformed URLs surface as this error too.
var ErrDecodeFailure = errors.New("decode failure")

// Handle identifies a pending frame callback.
type Handle uint64

// Scheduler runs callbacks aligned to the host's display refresh.
type Scheduler interface {
	// ScheduleNextFrame arranges for cb to run once on the next refresh.
	ScheduleNextFrame(cb func()) Handle
	// Cancel drops a pending callback. Cancelling a handle that already ran
	// is a no-op.
	Cancel(h Handle)
}

// Video is the host's decode and playback capability.
type Video interface {
	// Load sets the source. Exactly one of ready or failed is invoked later,
	// on the scheduler's execution context, unless Load is called again or the
	// video is closed first.
	Load(url string, ready func(), failed func(error))
	Play()
	Pause()
	// Sample returns the current frame downsampled to the raster size.
	Sample() (*sampler.Raster, error)
	Close() error
}

// Output receives every rendered frame, replacing the previous one.
type Output interface {
	SetText(text string)
}

// OutputFunc adapts a function to the Output interface.
type OutputFunc func(text string)

// SetText implements Output.
func (f OutputFunc) SetText(text string) {
	f(text)
}

// State of a session.
type State int

// List of valid states.
const (
	Idle State = iota
	Loading
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "unknown"
}

// Stats counts what happened to the ticks of a session.
type Stats struct {
	Ticks    int
	Rendered int
	Skipped  int
}
