package socket

import (
	"context"
	"sync"
)

var live = &tracker{}

// tracker counts running sessions.
type tracker struct {
	mx   sync.Mutex
	n    int
	idle chan struct{}
}

func (t *tracker) add() {
	t.mx.Lock()
	defer t.mx.Unlock()

	if t.n == 0 {
		t.idle = make(chan struct{})
	}

	t.n++
}

func (t *tracker) done() {
	t.mx.Lock()
	defer t.mx.Unlock()

	t.n--
	if t.n == 0 {
		close(t.idle)
	}
}

func (t *tracker) wait(ctx context.Context) error {
	t.mx.Lock()
	if t.n == 0 {
		t.mx.Unlock()

		return nil
	}

	idle := t.idle
	t.mx.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain waits until every running session has been torn down. Sessions
// close themselves once the server context is cancelled.
func Drain(ctx context.Context) error {
	return live.wait(ctx)
}
