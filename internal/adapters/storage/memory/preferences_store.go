package memory

import (
	"context"
	"sync"
)

// PreferenceStore guarda el opt-in de audio por paciente.
type PreferenceStore struct {
	mu    sync.RWMutex
	audio map[string]bool
}

func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{audio: make(map[string]bool)}
}

func (s *PreferenceStore) AudioEnabled(ctx context.Context, subjectID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audio[subjectID], nil
}

func (s *PreferenceStore) SetAudioEnabled(ctx context.Context, subjectID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio[subjectID] = enabled
	return nil
}
