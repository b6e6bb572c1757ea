package websocket

import (
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// forwarded request and response headers needed for media playback.
var (
	proxyRequestHeaders  = []string{"Range", "If-Range", "Accept"}
	proxyResponseHeaders = []string{"Content-Type", "Content-Length", "Content-Range", "Accept-Ranges", "Last-Modified", "Etag"}
)

// Proxy streams a remote video so that a page can draw it onto a canvas
// without tainting it. Usage: /proxy?url=<remote url>.
type Proxy struct {
	client *http.Client
}

// NewProxy returns a Proxy using client, or http.DefaultClient when nil.
func NewProxy(client *http.Client) *Proxy {
	if client == nil {
		client = http.DefaultClient
	}
	return &Proxy{client: client}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	target, err := url.Parse(r.URL.Query().Get("url"))
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		http.Error(w, "invalid url", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, h := range proxyRequestHeaders {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ServeHTTP",
			"url":      target.String(),
			"error":    err,
		}).Warn("Proxy request failed")
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for _, h := range proxyResponseHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ServeHTTP",
			"url":      target.String(),
			"error":    err,
		}).Debug("Proxy copy failed")
	}
}
