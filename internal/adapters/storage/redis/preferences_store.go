package redis

import (
	"context"
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "dose-tracker:prefs:"
	fieldAudio       = "audio_enabled"
)

// PreferenceStore guarda las preferencias del paciente en un hash por sujeto,
// compartido entre réplicas y dispositivos.
type PreferenceStore struct {
	rdb    *goredis.Client
	prefix string
}

func NewPreferenceStore(rdb *goredis.Client, prefix string) *PreferenceStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	return &PreferenceStore{rdb: rdb, prefix: prefix}
}

func (s *PreferenceStore) key(subjectID string) string {
	return s.prefix + subjectID
}

// AudioEnabled: sin valor guardado el audio está deshabilitado.
func (s *PreferenceStore) AudioEnabled(ctx context.Context, subjectID string) (bool, error) {
	v, err := s.rdb.HGet(ctx, s.key(subjectID), fieldAudio).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, err
	}
	return v == "1", nil
}

func (s *PreferenceStore) SetAudioEnabled(ctx context.Context, subjectID string, enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	return s.rdb.HSet(ctx, s.key(subjectID), fieldAudio, v).Err()
}
