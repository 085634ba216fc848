// Package inbox buffers frames produced by a connection's read pump until the
// owner receives them.
package inbox

import (
	"context"
	"sync"
)

type Inbox struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once
	err    error
}

func New(size int) *Inbox {
	if size <= 0 {
		size = 1
	}
	return &Inbox{
		frames: make(chan []byte, size),
		done:   make(chan struct{}),
	}
}

// Push queues a frame, blocking while the queue is full. It returns false once
// the inbox has failed.
func (in *Inbox) Push(frame []byte) bool {
	select {
	case <-in.done:
		return false
	default:
	}

	select {
	case in.frames <- frame:
		return true
	case <-in.done:
		return false
	}
}

// Fail records the terminal error. Only the first call has an effect.
func (in *Inbox) Fail(err error) {
	in.once.Do(func() {
		in.err = err
		close(in.done)
	})
}

// Done is closed once the inbox has failed
func (in *Inbox) Done() <-chan struct{} {
	return in.done
}

// Err returns the terminal error, or nil while the inbox is healthy
func (in *Inbox) Err() error {
	select {
	case <-in.done:
		return in.err
	default:
		return nil
	}
}

// Receive returns the next frame. Frames queued before a failure are still
// delivered; after that the terminal error is returned.
func (in *Inbox) Receive(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-in.frames:
		return frame, nil
	default:
	}

	select {
	case frame := <-in.frames:
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-in.done:
		select {
		case frame := <-in.frames:
			return frame, nil
		default:
			return nil, in.err
		}
	}
}
