//go:build !statsview
// +build !statsview

package statsview

// Address of the runtime charts server.
const Address = "localhost:12600"

// Launch does nothing without the statsview build tag.
func Launch(addr string) (stop func()) {
	return func() {}
}

// Available reports whether the runtime charts are linked in.
func Available() bool {
	return false
}
