//go:build js && wasm
// +build js,wasm

package canvas

import (
	"fmt"
	"net/url"
	"strings"
	"syscall/js"

	"github.com/pkg/errors"

	"github.com/esimov/ascii-video/playback"
	"github.com/esimov/ascii-video/sampler"
)

// Video implements playback.Video on top of the page's <video> element. An
// offscreen canvas sized to the raster performs the resampling draw.
type Video struct {
	el        js.Value
	offscreen js.Value
	ctx       js.Value
	proxy     string

	listeners []js.Func
	catch     js.Func
}

// NewVideo returns the video element wrapper. Sources are prefixed with
// proxy; a proxy ending in '=' receives the URL query-escaped.
func (c *Canvas) NewVideo(proxy string) *Video {
	v := &Video{
		el:    c.video,
		proxy: proxy,
	}
	v.offscreen = c.doc.Call("createElement", "canvas")
	v.ctx = v.offscreen.Call("getContext", "2d", map[string]interface{}{"willReadFrequently": true})
	v.el.Set("width", sampler.Width)
	v.catch = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) > 0 {
			js.Global().Get("console").Call("warn", "play rejected:", args[0])
		}
		return nil
	})
	return v
}

func (v *Video) source(raw string) string {
	if strings.HasSuffix(v.proxy, "=") {
		return v.proxy + url.QueryEscape(raw)
	}
	return v.proxy + raw
}

// Load implements playback.Video.
func (v *Video) Load(raw string, ready func(), failed func(error)) {
	v.releaseListeners()

	onMeta := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		v.releaseListeners()
		ready()
		return nil
	})
	onError := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		code := 0
		if e := v.el.Get("error"); !e.IsNull() {
			code = e.Get("code").Int()
		}
		v.releaseListeners()
		failed(errors.Wrapf(playback.ErrDecodeFailure, "%s: media error %d", raw, code))
		return nil
	})
	v.listeners = append(v.listeners, onMeta, onError)

	v.el.Call("addEventListener", "loadedmetadata", onMeta)
	v.el.Call("addEventListener", "error", onError)
	v.el.Set("crossOrigin", "anonymous")
	v.el.Set("src", v.source(raw))
}

// Play implements playback.Video.
func (v *Video) Play() {
	if p := v.el.Call("play"); p.Truthy() {
		p.Call("catch", v.catch)
	}
}

// Pause implements playback.Video.
func (v *Video) Pause() {
	v.el.Call("pause")
}

// Sample implements playback.Video. A canvas tainted by a cross-origin source
// makes getImageData throw; that is reported as an error for this tick.
func (v *Video) Sample() (r *sampler.Raster, err error) {
	w, h, err := sampler.Dimensions(v.el.Get("videoWidth").Int(), v.el.Get("videoHeight").Int())
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, errors.Wrap(playback.ErrDecodeFailure, fmt.Sprint(rec))
		}
	}()

	if v.offscreen.Get("width").Int() != w || v.offscreen.Get("height").Int() != h {
		v.offscreen.Set("width", w)
		v.offscreen.Set("height", h)
	}
	v.ctx.Call("drawImage", v.el, 0, 0, w, h)
	data := v.ctx.Call("getImageData", 0, 0, w, h).Get("data")

	pix := make([]byte, data.Get("length").Int())
	js.CopyBytesToGo(pix, data)
	return sampler.NewRaster(w, h, pix), nil
}

// Close implements playback.Video.
func (v *Video) Close() error {
	v.releaseListeners()
	v.el.Call("pause")
	v.el.Call("removeAttribute", "src")
	v.el.Call("load")
	v.catch.Release()
	return nil
}

func (v *Video) releaseListeners() {
	for i, f := range v.listeners {
		ev := "loadedmetadata"
		if i%2 == 1 {
			ev = "error"
		}
		v.el.Call("removeEventListener", ev, f)
		f.Release()
	}
	v.listeners = nil
}
