package medications

import (
	"testing"
	"time"

	"dose-tracker/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlanDoses_SkipsPastTimesOfToday(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	end := day(2024, 6, 2)

	plan := PlanDoses([]schedule.Clock{{Hour: 8}}, day(2024, 6, 1), &end, now, time.UTC)

	require.Len(t, plan.Times, 1)
	assert.Equal(t, time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC), plan.Times[0])
	assert.False(t, plan.Truncated)
}

func TestPlanDoses_ExcludesExactlyNow(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	end := day(2024, 6, 1)

	plan := PlanDoses([]schedule.Clock{{Hour: 8}, {Hour: 20}}, day(2024, 6, 1), &end, now, time.UTC)

	require.Len(t, plan.Times, 1)
	assert.Equal(t, 20, plan.Times[0].Hour())
}

func TestPlanDoses_EndDateInclusive(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tomorrow := day(2024, 6, 2)

	times := schedule.Generate(schedule.Clock{Hour: 6}, 3)
	plan := PlanDoses(times, tomorrow, &tomorrow, now, time.UTC)

	require.Len(t, plan.Times, 3)
	for _, at := range plan.Times {
		assert.Equal(t, 2, at.Day())
	}
}

func TestPlanDoses_GenerationOrderWithinDay(t *testing.T) {
	// 22:00 cada 8h => 22:00, 06:00, 14:00 del mismo día calendario
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := day(2024, 6, 1)

	times := schedule.Generate(schedule.Clock{Hour: 22}, 3)
	plan := PlanDoses(times, day(2024, 6, 1), &end, now, time.UTC)

	require.Len(t, plan.Times, 3)
	assert.Equal(t, []int{22, 6, 14}, []int{plan.Times[0].Hour(), plan.Times[1].Hour(), plan.Times[2].Hour()})
}

func TestPlanDoses_DefaultHorizonIsOneYear(t *testing.T) {
	now := time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)

	plan := PlanDoses([]schedule.Clock{{Hour: 8}}, day(2024, 1, 1), nil, now, time.UTC)

	// 2024 es bisiesto: 366 días + el 2025-01-01 inclusivo
	require.Len(t, plan.Times, 367)
	assert.Equal(t, time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), plan.Times[len(plan.Times)-1])
}

func TestPlanDoses_CapsAtMaxDoseEvents(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := schedule.Generate(schedule.Clock{Hour: 0, Minute: 30}, 24)

	plan := PlanDoses(times, day(2024, 1, 1), nil, now, time.UTC)

	assert.Len(t, plan.Times, MaxDoseEvents)
	assert.True(t, plan.Truncated)
	// 3200 / 24 = 133 días completos + 8 tomas del día 134
	last := plan.Times[len(plan.Times)-1]
	assert.Equal(t, time.Date(2024, 5, 13, 7, 30, 0, 0, time.UTC), last)
}

func TestPlanDoses_ExactlyCapIsNotTruncated(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// 8 tomas x 400 días = 3200
	end := day(2024, 1, 1).AddDate(0, 0, 399)
	times := schedule.Generate(schedule.Clock{Hour: 1}, 8)

	plan := PlanDoses(times, day(2024, 1, 1), &end, now, time.UTC)

	assert.Len(t, plan.Times, MaxDoseEvents)
	assert.False(t, plan.Truncated)
}

func TestPlanDoses_UsesWallClockOfLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)
	end := day(2024, 6, 1)

	plan := PlanDoses([]schedule.Clock{{Hour: 9}}, day(2024, 6, 1), &end, now, loc)

	require.Len(t, plan.Times, 1)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), plan.Times[0].UTC())
}
