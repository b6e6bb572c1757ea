//go:build js && wasm
// +build js,wasm

package canvas

import (
	"syscall/js"

	"github.com/esimov/ascii-video/playback"
)

// AnimationScheduler implements playback.Scheduler with
// requestAnimationFrame. Every callback is released once it ran or was
// cancelled.
type AnimationScheduler struct {
	window js.Value
	funcs  map[playback.Handle]js.Func
}

// NewAnimationScheduler returns a scheduler bound to the global window.
func NewAnimationScheduler() *AnimationScheduler {
	return &AnimationScheduler{
		window: js.Global(),
		funcs:  make(map[playback.Handle]js.Func),
	}
}

// ScheduleNextFrame implements playback.Scheduler.
func (s *AnimationScheduler) ScheduleNextFrame(cb func()) playback.Handle {
	var h playback.Handle
	var fn js.Func
	fn = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		delete(s.funcs, h)
		fn.Release()
		cb()
		return nil
	})
	h = playback.Handle(s.window.Call("requestAnimationFrame", fn).Int())
	s.funcs[h] = fn
	return h
}

// Cancel implements playback.Scheduler.
func (s *AnimationScheduler) Cancel(h playback.Handle) {
	fn, ok := s.funcs[h]
	if !ok {
		return
	}
	s.window.Call("cancelAnimationFrame", int(h))
	delete(s.funcs, h)
	fn.Release()
}
