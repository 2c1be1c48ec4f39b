package medications

import (
	"context"

	"dose-tracker/internal/domain/doses"
)

type Repository interface {
	Create(ctx context.Context, m Medication) error
	GetByID(ctx context.Context, subjectID, id string) (Medication, error)
	ListBySubject(ctx context.Context, subjectID string) ([]Medication, error)
	Update(ctx context.Context, m Medication) error
	Delete(ctx context.Context, subjectID, id string) error
}

// AtomicCreator lo implementan los stores con transacciones reales: el
// medicamento y su lote de dosis se escriben juntos o no se escribe nada.
// Sin él, Service.Create compensa borrando el medicamento.
type AtomicCreator interface {
	CreateWithDoses(ctx context.Context, m Medication, events []doses.DoseEvent) error
}
