package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"dose-tracker/internal/adapters/storage/memory"
	"dose-tracker/internal/domain/alarms"
	"dose-tracker/internal/domain/doses"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCommands_DecideAndAudio(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 8, 5, 0, 0, time.UTC)

	repo := memory.NewDoseRepo()
	require.NoError(t, repo.InsertBatch(ctx, []doses.DoseEvent{{
		ID:            "d-1",
		SubjectID:     "p-1",
		MedicationID:  "m-1",
		ScheduledTime: now.Add(-5 * time.Minute),
		Status:        doses.StatusPending,
		CreatedAt:     now.Add(-time.Hour),
	}}))

	var out bytes.Buffer
	loop, err := alarms.NewLoop(alarms.Options{
		SubjectID:   "p-1",
		Store:       doses.NewService(repo),
		Presenter:   &terminal{out: &out},
		Preferences: memory.NewPreferenceStore(),
		Now:         func() time.Time { return now },
	})
	require.NoError(t, err)
	require.NoError(t, loop.Tick(ctx))
	require.Equal(t, alarms.StateActive, loop.Snapshot().State)

	in := strings.NewReader("x\nt\na\nq\nt\n")
	require.NoError(t, readCommands(ctx, loop, in, &out))

	s := out.String()
	assert.Contains(t, s, "t = tomada")
	assert.Contains(t, s, ">>>")
	assert.Contains(t, s, "listo")
	assert.Contains(t, s, "sonido: on")
	assert.Equal(t, alarms.StateIdle, loop.Snapshot().State)
	assert.True(t, loop.Snapshot().AudioEnabled)

	taken, err := repo.Query(ctx, "p-1", doses.Filter{Status: doses.StatusTaken})
	require.NoError(t, err)
	require.Len(t, taken, 1)
	require.NotNil(t, taken[0].TakenAt)
	assert.True(t, taken[0].TakenAt.Equal(now))
}

func TestRun_RequiresSubject(t *testing.T) {
	err := run("  ", strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorIs(t, err, alarms.ErrNoSubject)
}
