package medications

import (
	"time"

	"dose-tracker/internal/domain/schedule"
)

// Medication es un tratamiento del paciente. IntervalHours y ReminderTimes son
// una proyección de (FirstDoseTime, FrequencyCount) y se recalculan al escribir.
type Medication struct {
	ID        string
	SubjectID string

	Name   string
	Dosage string // texto libre: "500mg", "2 comprimidos"
	Status Status

	FrequencyCount int
	FirstDoseTime  schedule.Clock
	IntervalHours  int
	ReminderTimes  []schedule.Clock

	StartDate time.Time  // solo fecha
	EndDate   *time.Time // solo fecha, inclusiva

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DailyGoal es la cantidad de tomas esperadas por día.
func (m Medication) DailyGoal() int {
	if m.FrequencyCount > 0 {
		return m.FrequencyCount
	}
	if len(m.ReminderTimes) > 0 {
		return len(m.ReminderTimes)
	}
	return 1
}
