package alarms

import (
	"context"
	"strings"
	"sync"
)

// Factory arma el loop de un paciente.
type Factory func(subjectID string) (*Loop, error)

type session struct {
	loop   *Loop
	cancel context.CancelFunc
	done   chan struct{}
}

// Registry mantiene un loop corriendo por paciente con sesión activa.
type Registry struct {
	parent  context.Context
	factory Factory

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRegistry(parent context.Context, factory Factory) *Registry {
	return &Registry{
		parent:   parent,
		factory:  factory,
		sessions: make(map[string]*session),
	}
}

// Ensure devuelve el loop del paciente y lo arranca si no existía.
func (r *Registry) Ensure(subjectID string) (*Loop, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrNoSubject
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[subjectID]; ok {
		return s.loop, nil
	}

	loop, err := r.factory(subjectID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(r.parent)
	s := &session{loop: loop, cancel: cancel, done: make(chan struct{})}
	r.sessions[subjectID] = s

	go func() {
		defer close(s.done)
		_ = loop.Run(ctx)
	}()
	return loop, nil
}

func (r *Registry) Get(subjectID string) (*Loop, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[strings.TrimSpace(subjectID)]
	if !ok {
		return nil, false
	}
	return s.loop, true
}

// Stop termina el loop del paciente (logout). Espera a que salga.
func (r *Registry) Stop(subjectID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[strings.TrimSpace(subjectID)]
	if ok {
		delete(r.sessions, strings.TrimSpace(subjectID))
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.cancel()
	<-s.done
	return true
}

// Shutdown termina todos los loops.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*session)
	r.mu.Unlock()

	for _, s := range all {
		s.cancel()
	}
	for _, s := range all {
		<-s.done
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
