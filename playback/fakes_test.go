package playback

import (
	"sort"

	"github.com/esimov/ascii-video/sampler"
)

// fakeScheduler emulates a display refresh that only advances on refresh().
type fakeScheduler struct {
	next      Handle
	pending   map[Handle]func()
	scheduled int
	cancelled int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[Handle]func())}
}

func (f *fakeScheduler) ScheduleNextFrame(cb func()) Handle {
	f.next++
	f.pending[f.next] = cb
	f.scheduled++
	return f.next
}

func (f *fakeScheduler) Cancel(h Handle) {
	if _, ok := f.pending[h]; ok {
		delete(f.pending, h)
		f.cancelled++
	}
}

// refresh runs the callbacks queued before this refresh began.
func (f *fakeScheduler) refresh() int {
	batch := f.pending
	f.pending = make(map[Handle]func())
	handles := make([]Handle, 0, len(batch))
	for h := range batch {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	for _, h := range handles {
		batch[h]()
	}
	return len(handles)
}

type fakeVideo struct {
	url     string
	loads   int
	ready   func()
	failed  func(error)
	playing bool
	plays   int
	pauses  int
	closed  bool

	raster *sampler.Raster
	err    error
}

func newFakeVideo() *fakeVideo {
	pix := make([]uint8, 4*2*4)
	for i := range pix {
		pix[i] = 255
	}
	return &fakeVideo{raster: sampler.NewRaster(4, 2, pix)}
}

func (v *fakeVideo) Load(url string, ready func(), failed func(error)) {
	v.url = url
	v.loads++
	v.ready = ready
	v.failed = failed
}

func (v *fakeVideo) Play() {
	v.playing = true
	v.plays++
}

func (v *fakeVideo) Pause() {
	v.playing = false
	v.pauses++
}

func (v *fakeVideo) Sample() (*sampler.Raster, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.raster, nil
}

func (v *fakeVideo) Close() error {
	v.closed = true
	return nil
}

type recorder struct {
	frames []string
}

func (r *recorder) SetText(text string) {
	r.frames = append(r.frames, text)
}
