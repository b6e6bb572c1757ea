//go:build js && wasm
// +build js,wasm

// Package canvas hosts the player inside a browser page: it builds the page
// markup, exposes the hidden video element as a playback.Video and the
// output <pre> as the playback.Output.
package canvas

import (
	"net/url"
	"sync"
	"syscall/js"

	"github.com/pkg/errors"
)

const markup = `
    <div id="controls">
      <input type="text" id="videoInput" placeholder="Enter Video URL" style="width:60%">
      <button id="playButton">Play</button>
      <button id="pauseButton">Pause</button>
    </div>
    <pre id="asciiOutput" style="font-family: monospace; font-size: 8px; line-height: 8px; background-color: black; color: white; padding: 10px;"></pre>
    <video id="videoOutput" style="display: none;"></video>
`

// Canvas holds the DOM elements used by the player.
type Canvas struct {
	window js.Value
	doc    js.Value

	input  js.Value
	output js.Value
	video  js.Value

	funcs []js.Func
}

// NewCanvas initializes a new constructor function.
func NewCanvas() *Canvas {
	var c Canvas
	c.window = js.Global()
	c.doc = c.window.Get("document")

	return &c
}

// Mount renders the controls, the output and the hidden video element into
// the #app element, creating it when missing.
func (c *Canvas) Mount() error {
	app := c.doc.Call("getElementById", "app")
	if app.IsNull() {
		app = c.doc.Call("createElement", "div")
		app.Set("id", "app")
		c.doc.Get("body").Call("appendChild", app)
	}
	app.Set("innerHTML", markup)

	c.input = c.doc.Call("getElementById", "videoInput")
	c.output = c.doc.Call("getElementById", "asciiOutput")
	c.video = c.doc.Call("getElementById", "videoOutput")
	if c.input.IsNull() || c.output.IsNull() || c.video.IsNull() {
		return errors.New("page markup not mounted")
	}
	return nil
}

// SetText implements playback.Output.
func (c *Canvas) SetText(text string) {
	c.output.Set("textContent", text)
}

// OnPlay calls fn with the entered URL when the play button is clicked.
// Empty input is ignored.
func (c *Canvas) OnPlay(fn func(url string)) {
	c.onClick("playButton", func() {
		if v := c.input.Get("value").String(); v != "" {
			fn(v)
		}
	})
}

// OnToggle calls fn when the pause button is clicked.
func (c *Canvas) OnToggle(fn func()) {
	c.onClick("pauseButton", fn)
}

// OnUnload calls fn once when the page is being left.
func (c *Canvas) OnUnload(fn func()) {
	var once sync.Once
	cb := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		once.Do(fn)
		return nil
	})
	c.funcs = append(c.funcs, cb)
	c.window.Call("addEventListener", "pagehide", cb)
}

func (c *Canvas) onClick(id string, fn func()) {
	cb := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		fn()
		return nil
	})
	c.funcs = append(c.funcs, cb)
	c.doc.Call("getElementById", id).Call("addEventListener", "click", cb)
}

// QueryParam returns a parameter of the page URL.
func (c *Canvas) QueryParam(name string) string {
	u, err := url.Parse(c.window.Get("location").Get("href").String())
	if err != nil {
		return ""
	}
	return u.Query().Get(name)
}

// Alert calls the `alert` Javascript function
func (c *Canvas) Alert(msg string) {
	c.window.Call("alert", msg)
}

// Release frees the event listeners.
func (c *Canvas) Release() {
	for _, f := range c.funcs {
		f.Release()
	}
	c.funcs = nil
}
