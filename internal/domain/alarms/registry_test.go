package alarms

import (
	"context"
	"testing"
	"time"

	"dose-tracker/internal/adapters/storage/memory"
	"dose-tracker/internal/domain/doses"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	store := doses.NewService(memory.NewDoseRepo())
	reg := NewRegistry(context.Background(), func(subjectID string) (*Loop, error) {
		return NewLoop(Options{SubjectID: subjectID, Store: store, PollInterval: 10 * time.Millisecond})
	})
	t.Cleanup(reg.Shutdown)
	return reg
}

func TestRegistry_OneLoopPerSubject(t *testing.T) {
	reg := newTestRegistry(t)

	a, err := reg.Ensure("u-1")
	require.NoError(t, err)
	again, err := reg.Ensure(" u-1 ")
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := reg.Ensure("u-2")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, reg.Len())

	_, err = reg.Ensure("")
	assert.ErrorIs(t, err, ErrNoSubject)
}

func TestRegistry_StopEndsSession(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Ensure("u-1")
	require.NoError(t, err)

	assert.True(t, reg.Stop("u-1"))
	_, ok := reg.Get("u-1")
	assert.False(t, ok)
	assert.False(t, reg.Stop("u-1"))
}

func TestRegistry_Shutdown(t *testing.T) {
	reg := newTestRegistry(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := reg.Ensure(id)
		require.NoError(t, err)
	}
	reg.Shutdown()
	assert.Zero(t, reg.Len())
}
