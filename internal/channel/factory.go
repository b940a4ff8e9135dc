//go:build !debug

package channel

// New creates a subscriber channel holding up to size frames.
// Debug builds return an unbuffered channel instead so slow consumers
// show up as dropped frames immediately.
func New[T any](size int) Channel[T] {
	if size <= 0 {
		size = 1
	}
	return NewBuffered[T](size)
}
