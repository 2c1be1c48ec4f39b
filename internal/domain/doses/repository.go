package doses

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("dose event not found")
	// ErrAlreadyResolved: el evento ya salió de pending (otra sesión u otro dispositivo).
	ErrAlreadyResolved = errors.New("dose event already resolved")
)

type Repository interface {
	// InsertBatch es todo-o-nada.
	InsertBatch(ctx context.Context, events []DoseEvent) error
	Query(ctx context.Context, subjectID string, filter Filter) ([]DoseEvent, error)
	// Resolve solo aplica sobre eventos pending; si no, ErrAlreadyResolved.
	Resolve(ctx context.Context, subjectID, id string, status Status, takenAt *time.Time) error
	DeleteByMedication(ctx context.Context, subjectID, medicationID string) error
}

// Filter: From/To son inclusivos sobre scheduled_time.
type Filter struct {
	MedicationID string
	Status       Status
	From         *time.Time
	To           *time.Time
	Order        Order // default asc
	Limit        int   // 0 = sin límite
}
