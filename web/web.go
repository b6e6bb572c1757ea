// Package web embeds the pages served when no static root is configured.
package web

import "embed"

// Files holds index.html, the websocket client, and wasm.html, the page
// loading the in-browser build (main.wasm and wasm_exec.js must be placed
// next to it).
//
//go:embed index.html wasm.html
var Files embed.FS
