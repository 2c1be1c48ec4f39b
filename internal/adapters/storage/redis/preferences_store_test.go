package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestPreferenceStore_DefaultsToDisabled(t *testing.T) {
	_, rdb := setupTestRedis(t)
	s := NewPreferenceStore(rdb, "")

	enabled, err := s.AudioEnabled(context.Background(), "u-1")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestPreferenceStore_RoundTrip(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	s := NewPreferenceStore(rdb, "test:prefs:")
	ctx := context.Background()

	require.NoError(t, s.SetAudioEnabled(ctx, "u-1", true))
	assert.Equal(t, "1", mr.HGet("test:prefs:u-1", "audio_enabled"))

	enabled, err := s.AudioEnabled(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, enabled)

	other, err := s.AudioEnabled(ctx, "u-2")
	require.NoError(t, err)
	assert.False(t, other)

	require.NoError(t, s.SetAudioEnabled(ctx, "u-1", false))
	enabled, err = s.AudioEnabled(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestPreferenceStore_ErrorWhenUnavailable(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	s := NewPreferenceStore(rdb, "")
	mr.Close()

	_, err := s.AudioEnabled(context.Background(), "u-1")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := Open(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = rdb.Close()

	_, err = Open(context.Background(), Options{})
	assert.Error(t, err)
}
