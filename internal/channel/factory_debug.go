//go:build debug

package channel

// New creates an unbuffered channel, ignoring size
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
