package video

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultFetchTimeout = 5 * time.Minute
	defaultMaxBytes     = 1 << 30
)

var (
	// ErrLocalSource is returned by a remote only Fetcher for anything
	// other than an http(s) URL.
	ErrLocalSource = errors.New("local sources are not allowed")
	// ErrForbiddenHost is returned when a public only client dials a
	// loopback, private or link-local address.
	ErrForbiddenHost = errors.New("host is not public")
	// ErrTooLarge is returned when a download exceeds the size limit.
	ErrTooLarge = errors.New("video too large")
)

// Fetcher resolves a video URL to a local file ffmpeg can open. Remote
// sources are downloaded once, without retries.
type Fetcher struct {
	client     *http.Client
	remoteOnly bool
	maxBytes   int64
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher)

// RemoteOnly rejects local paths, leaving only http(s) URLs.
func RemoteOnly() FetchOption {
	return func(f *Fetcher) { f.remoteOnly = true }
}

// MaxBytes caps the size of a download.
func MaxBytes(n int64) FetchOption {
	return func(f *Fetcher) { f.maxBytes = n }
}

// NewFetcher returns a Fetcher using client, or a client with a five minute
// timeout when nil. Downloads are capped at 1GiB unless MaxBytes says otherwise.
func NewFetcher(client *http.Client, opts ...FetchOption) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	f := &Fetcher{client: client, maxBytes: defaultMaxBytes}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PublicClient returns an http client which refuses to connect to loopback,
// private, link-local or unspecified addresses. Environment proxies are not
// used since they would hide the final address.
func PublicClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: 30 * time.Second,
		Control: dialPublic,
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = nil
	tr.DialContext = dialer.DialContext
	return &http.Client{Timeout: timeout, Transport: tr}
}

// dialPublic runs after name resolution, so address is always an ip:port.
func dialPublic(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return errors.Wrap(ErrForbiddenHost, host)
	}
	return nil
}

// Fetch returns a local path for rawurl and a function removing any
// temporary file created for it.
func (f *Fetcher) Fetch(ctx context.Context, rawurl string) (string, func(), error) {
	noop := func() {}
	if rawurl == "" {
		return "", noop, errors.New("empty url")
	}

	u, err := url.Parse(rawurl)
	if err != nil {
		return "", noop, errors.Wrap(err, "invalid url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		if f.remoteOnly {
			return "", noop, errors.Wrap(ErrLocalSource, rawurl)
		}
		if _, err := os.Stat(rawurl); err != nil {
			return "", noop, err
		}
		return rawurl, noop, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return "", noop, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", noop, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", noop, errors.Errorf("unexpected status %s", resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return "", noop, errors.Wrapf(ErrTooLarge, "%d bytes", resp.ContentLength)
	}

	tmp, err := os.CreateTemp("", "ascii-video-*"+path.Ext(u.Path))
	if err != nil {
		return "", noop, err
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, f.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > f.maxBytes {
		err = errors.Wrapf(ErrTooLarge, "over %d bytes", f.maxBytes)
	}
	if err != nil {
		cleanup()
		return "", noop, errors.Wrap(err, "download")
	}

	logrus.WithFields(logrus.Fields{
		"function": "Fetch",
		"url":      rawurl,
		"bytes":    n,
		"path":     tmp.Name(),
	}).Debug("Video downloaded")
	return tmp.Name(), cleanup, nil
}
