//go:build js && wasm
// +build js,wasm

package main

import (
	"github.com/sirupsen/logrus"

	"github.com/esimov/ascii-video/playback"
	"github.com/esimov/ascii-video/wasm/canvas"
)

func main() {
	c := canvas.NewCanvas()
	if err := c.Mount(); err != nil {
		c.Alert("Unable to build the page!")
		return
	}

	// e.g. wasm.html?proxy=/proxy?url= to go through the server proxy
	proxy := c.QueryParam("proxy")
	logrus.WithField("proxy", proxy).Info("ascii-video ready")

	player := playback.NewPlayer(c.NewVideo(proxy), canvas.NewAnimationScheduler(), c)
	c.OnPlay(player.Play)
	c.OnToggle(player.Toggle)

	unload := make(chan struct{})
	c.OnUnload(func() {
		player.Close()
		close(unload)
	})
	<-unload
	c.Release()
}
