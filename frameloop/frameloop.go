// Package frameloop provides a single goroutine event loop with a fixed
// refresh cadence, standing in for a browser's animation frame callbacks
// outside the browser.
package frameloop

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/esimov/ascii-video/playback"
)

// DefaultRefresh is the cadence of a 60 Hz display.
const DefaultRefresh = time.Second / 60

const queueSize = 64

// Loop runs posted work and frame callbacks on one goroutine. Only Post is
// safe to call from other goroutines; ScheduleNextFrame and Cancel must be
// called from work already running on the loop.
type Loop struct {
	refresh time.Duration
	events  chan func()
	done    chan struct{}

	next    playback.Handle
	frames  map[playback.Handle]func()
	running map[playback.Handle]func()
}

// New returns a loop refreshing every d. A non-positive d selects DefaultRefresh.
func New(d time.Duration) *Loop {
	if d <= 0 {
		d = DefaultRefresh
	}
	return &Loop{
		refresh: d,
		events:  make(chan func(), queueSize),
		done:    make(chan struct{}),
		frames:  make(map[playback.Handle]func()),
	}
}

// Post queues fn for execution on the loop. It returns false once the loop
// has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.done:
		return false
	}
}

// ScheduleNextFrame implements playback.Scheduler.
func (l *Loop) ScheduleNextFrame(cb func()) playback.Handle {
	l.next++
	l.frames[l.next] = cb
	return l.next
}

// Cancel implements playback.Scheduler.
func (l *Loop) Cancel(h playback.Handle) {
	delete(l.frames, h)
	delete(l.running, h)
}

// Pending returns the number of frame callbacks waiting for the next refresh.
func (l *Loop) Pending() int {
	return len(l.frames)
}

// Run executes posted work and refreshes until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	ticker := time.NewTicker(l.refresh)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"function": "Run",
		"refresh":  l.refresh,
	}).Debug("Frame loop started")

	for {
		select {
		case <-ctx.Done():
			l.drain()
			return ctx.Err()
		case fn := <-l.events:
			fn()
		case <-ticker.C:
			l.Refresh()
		}
	}
}

// Refresh runs every callback scheduled before it was called. Callbacks
// scheduled while it runs wait for the following refresh. A callback
// cancelled by an earlier one in the same batch does not run.
func (l *Loop) Refresh() {
	if len(l.frames) == 0 {
		return
	}
	batch := l.frames
	l.frames = make(map[playback.Handle]func())
	l.running = batch
	defer func() { l.running = nil }()

	handles := make([]playback.Handle, 0, len(batch))
	for h := range batch {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	for _, h := range handles {
		cb, ok := batch[h]
		if !ok {
			continue
		}
		delete(batch, h)
		cb()
	}
}

// drain runs work posted before shutdown so teardown requests are not lost.
func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.events:
			fn()
		default:
			return
		}
	}
}
