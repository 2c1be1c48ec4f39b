package doses

import "time"

// DoseEvent es una toma programada de un medicamento.
type DoseEvent struct {
	ID           string
	MedicationID string
	SubjectID    string

	ScheduledTime time.Time
	Status        Status
	TakenAt       *time.Time // solo cuando Status == taken

	CreatedAt time.Time
}
