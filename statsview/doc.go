// Package statsview reports what the server is doing. Totals counts the
// frames rendered and skipped by every websocket session and is always
// built. The runtime charts of github.com/go-echarts/statsview are only
// linked in with the statsview build tag:
//
//	go build -tags statsview .
//	./ascii-video -mode server -statsview
//
// Playback totals are then served as JSON on /debug/playback of the
// player server and the runtime charts on http://localhost:12600/debug/statsview.
package statsview
