// Package channel provides generic channel interfaces used to fan frames out
// to subscribers without coupling them to the publisher.
package channel

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel.
type Sender[T any] interface {
	Send(T)
	// TrySend delivers v only if it can be done without blocking.
	TrySend(T) bool
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}
