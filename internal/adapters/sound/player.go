// Package sound tiene los reproductores de alarma del dispositivo.
package sound

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ErrUnavailable envuelve toda falla al arrancar un reproductor.
var ErrUnavailable = errors.New("sound unavailable")

// Player reproduce un archivo con un comando externo (mpg123, paplay,
// afplay...) y lo relanza hasta Stop. El asset se pasa como último argumento.
type Player struct {
	Command []string
	Asset   string
	// Pausa entre repeticiones. Default 500ms.
	Gap time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPlayer(command, asset string) *Player {
	return &Player{Command: strings.Fields(command), Asset: asset}
}

// Start valida asset y comando y arranca la reproducción en loop.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return nil
	}
	if len(p.Command) == 0 {
		return fmt.Errorf("%w: no player command configured", ErrUnavailable)
	}
	if _, err := os.Stat(p.Asset); err != nil {
		return fmt.Errorf("%w: asset: %v", ErrUnavailable, err)
	}
	bin, err := exec.LookPath(p.Command[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	gap := p.Gap
	if gap <= 0 {
		gap = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	args := append(append([]string(nil), p.Command[1:]...), p.Asset)
	go func(done chan struct{}) {
		defer close(done)
		for {
			// CommandContext mata el proceso al cancelar
			_ = exec.CommandContext(ctx, bin, args...).Run()
			select {
			case <-ctx.Done():
				return
			case <-time.After(gap):
			}
		}
	}(p.done)
	return nil
}

func (p *Player) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
