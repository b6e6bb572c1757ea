package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerReplacesSession(t *testing.T) {
	video := newFakeVideo()
	sched := newFakeScheduler()
	out := &recorder{}
	p := NewPlayer(video, sched, out)

	p.Play("first.mp4")
	firstReady := video.ready
	firstReady()
	require.Equal(t, Playing, p.State())
	sched.refresh()

	p.Play("second.mp4")
	assert.Equal(t, Loading, p.State())
	assert.Equal(t, "second.mp4", video.url)
	assert.Empty(t, sched.pending, "previous tick cancelled")

	frames := len(out.frames)
	firstReady()
	sched.refresh()
	assert.Len(t, out.frames, frames, "stale ready from the first session is ignored")

	video.ready()
	assert.Equal(t, Playing, p.State())
	assert.Len(t, sched.pending, 1)
	assert.Len(t, out.frames, frames+1)
}

func TestPlayerToggleWithoutSession(t *testing.T) {
	p := NewPlayer(newFakeVideo(), newFakeScheduler(), &recorder{})
	p.Toggle()
	assert.Equal(t, Idle, p.State())
	assert.Equal(t, Stats{}, p.Stats())
}

func TestPlayerClose(t *testing.T) {
	video := newFakeVideo()
	sched := newFakeScheduler()
	p := NewPlayer(video, sched, OutputFunc(func(string) {}))

	p.Play("clip.mp4")
	video.ready()
	require.NoError(t, p.Close())

	assert.True(t, video.closed)
	assert.Empty(t, sched.pending)
	assert.Equal(t, Idle, p.State())
}
