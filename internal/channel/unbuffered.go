package channel

// Unbuffered hands each value directly to a waiting receiver
type Unbuffered[T any] struct {
	ch chan T
}

func NewUnbuffered[T any]() *Unbuffered[T] {
	return &Unbuffered[T]{ch: make(chan T)}
}

// Send blocks until the value is received
func (u *Unbuffered[T]) Send(v T) {
	u.ch <- v
}

// TrySend delivers v only if a receiver is already waiting
func (u *Unbuffered[T]) TrySend(v T) bool {
	select {
	case u.ch <- v:
		return true
	default:
		return false
	}
}

func (u *Unbuffered[T]) Receive() <-chan T {
	return u.ch
}

// Len is always 0
func (u *Unbuffered[T]) Len() int {
	return 0
}

func (u *Unbuffered[T]) Close() {
	close(u.ch)
}
