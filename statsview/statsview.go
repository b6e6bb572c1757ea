//go:build statsview
// +build statsview

package statsview

import (
	"net/http"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/sirupsen/logrus"
)

// Address of the runtime charts server.
const Address = "localhost:12600"

// Launch serves the runtime charts on addr in the background. The returned
// function stops the server.
func Launch(addr string) (stop func()) {
	// one sample per second is enough to follow the per frame allocations
	viewer.SetConfiguration(
		viewer.WithAddr(addr),
		viewer.WithInterval(1000),
		viewer.WithTheme(viewer.ThemeWesteros),
	)
	mgr := statsview.New()
	go func() {
		if err := mgr.Start(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("function", "Launch").Error(err)
		}
	}()

	logrus.WithFields(logrus.Fields{
		"function": "Launch",
		"url":      "http://" + addr + "/debug/statsview",
	}).Info("Runtime charts available")
	return mgr.Stop
}

// Available reports whether the runtime charts are linked in.
func Available() bool {
	return true
}
