package sound

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Bell es la sirena de último recurso: escribe BEL en la terminal cada
// Interval hasta Stop.
type Bell struct {
	Out      io.Writer
	Interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewBell(out io.Writer) *Bell {
	return &Bell{Out: out, Interval: time.Second}
}

func (b *Bell) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stop != nil {
		return nil
	}
	if b.Out == nil {
		return fmt.Errorf("%w: bell has no output", ErrUnavailable)
	}
	if _, err := b.Out.Write([]byte("\a")); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	interval := b.Interval
	if interval <= 0 {
		interval = time.Second
	}

	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go func(stop, done chan struct{}) {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				b.mu.Lock()
				_, _ = b.Out.Write([]byte("\a"))
				b.mu.Unlock()
			}
		}
	}(b.stop, b.done)
	return nil
}

func (b *Bell) Stop() {
	b.mu.Lock()
	stop, done := b.stop, b.done
	b.stop, b.done = nil, nil
	b.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
