package http

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimov/ascii-video/frameloop"
)

func TestBindDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	ws := Bind(fs)
	require.NoError(t, fs.Parse(nil))

	assert.Equal(t, DefaultAddress, ws.Address)
	assert.Equal(t, DefaultPrefix, ws.Prefix)
	assert.Empty(t, ws.Root)
	assert.Equal(t, frameloop.DefaultRefresh, ws.Refresh)
	assert.False(t, ws.Proxy)
	assert.Nil(t, ws.Origins)
}

func TestBindFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	ws := Bind(fs)
	require.NoError(t, fs.Parse([]string{
		"-a", ":8080", "-p", "/ascii/", "-r", "public", "-refresh", "33ms", "-proxy",
		"-origins", "http://a.example, http://b.example,",
	}))

	assert.Equal(t, ":8080", ws.Address)
	assert.Equal(t, "/ascii/", ws.Prefix)
	assert.Equal(t, "public", ws.Root)
	assert.Equal(t, 33*time.Millisecond, ws.Refresh)
	assert.True(t, ws.Proxy)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, ws.Origins)

	assert.Error(t, fs.Parse([]string{"-refresh", "soon"}))
}
