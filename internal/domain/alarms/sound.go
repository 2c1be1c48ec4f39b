package alarms

import (
	"errors"
	"sync"
)

// Fallback prueba los reproductores en orden y se queda con el primero que
// arranca. Si ninguno arranca devuelve el error de todos.
func Fallback(players ...Sound) Sound {
	out := make([]Sound, 0, len(players))
	for _, p := range players {
		if p != nil {
			out = append(out, p)
		}
	}
	return &fallbackSound{players: out}
}

type fallbackSound struct {
	mu      sync.Mutex
	players []Sound
	current Sound
}

func (f *fallbackSound) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		return nil
	}
	if len(f.players) == 0 {
		return errors.New("no sound player configured")
	}

	var errs []error
	for _, p := range f.players {
		if err := p.Start(); err != nil {
			errs = append(errs, err)
			continue
		}
		f.current = p
		return nil
	}
	return errors.Join(errs...)
}

func (f *fallbackSound) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		f.current.Stop()
		f.current = nil
	}
}
