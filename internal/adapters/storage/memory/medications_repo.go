package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"dose-tracker/internal/domain/medications"
	"dose-tracker/internal/domain/schedule"
)

type medicationRepo struct {
	mu   sync.RWMutex
	byID map[string]medications.Medication
}

// NewMedicationRepo no implementa medications.AtomicCreator: el servicio
// compensa borrando el medicamento si falla el lote de dosis.
func NewMedicationRepo() medications.Repository {
	return &medicationRepo{
		byID: make(map[string]medications.Medication),
	}
}

func (r *medicationRepo) Create(ctx context.Context, m medications.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == "" {
		return errors.New("medication id required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return errors.New("medication already exists")
	}
	r.byID[m.ID] = cloneMedication(m)
	return nil
}

func (r *medicationRepo) GetByID(ctx context.Context, subjectID, id string) (medications.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok || m.SubjectID != subjectID {
		return medications.Medication{}, medications.ErrNotFound
	}
	return cloneMedication(m), nil
}

func (r *medicationRepo) ListBySubject(ctx context.Context, subjectID string) ([]medications.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medications.Medication, 0)
	for _, m := range r.byID {
		if m.SubjectID == subjectID {
			out = append(out, cloneMedication(m))
		}
	}

	// Más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *medicationRepo) Update(ctx context.Context, m medications.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[m.ID]
	if !ok || cur.SubjectID != m.SubjectID {
		return medications.ErrNotFound
	}
	r.byID[m.ID] = cloneMedication(m)
	return nil
}

func (r *medicationRepo) Delete(ctx context.Context, subjectID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok || m.SubjectID != subjectID {
		return medications.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func cloneMedication(m medications.Medication) medications.Medication {
	m.ReminderTimes = append([]schedule.Clock(nil), m.ReminderTimes...)
	if m.EndDate != nil {
		e := *m.EndDate
		m.EndDate = &e
	}
	return m
}
