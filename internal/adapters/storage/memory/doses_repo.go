package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"dose-tracker/internal/domain/doses"
)

type doseRepo struct {
	mu   sync.RWMutex
	byID map[string]doses.DoseEvent
}

func NewDoseRepo() doses.Repository {
	return &doseRepo{
		byID: make(map[string]doses.DoseEvent),
	}
}

// InsertBatch valida el lote completo antes de escribir para ser todo-o-nada.
func (r *doseRepo) InsertBatch(ctx context.Context, events []doses.DoseEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e.ID == "" {
			return errors.New("dose event id required")
		}
		if _, exists := r.byID[e.ID]; exists {
			return fmt.Errorf("dose event %s already exists", e.ID)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("duplicate dose event %s in batch", e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	for _, e := range events {
		r.byID[e.ID] = e
	}
	return nil
}

func (r *doseRepo) Query(ctx context.Context, subjectID string, filter doses.Filter) ([]doses.DoseEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.DoseEvent, 0)
	for _, e := range r.byID {
		if e.SubjectID != subjectID {
			continue
		}
		if filter.MedicationID != "" && e.MedicationID != filter.MedicationID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		// Rango inclusivo
		if filter.From != nil && e.ScheduledTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.ScheduledTime.After(*filter.To) {
			continue
		}
		out = append(out, cloneDose(e))
	}

	desc := filter.Order == doses.OrderDesc
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ScheduledTime, out[j].ScheduledTime
		if a.Equal(b) {
			return out[i].ID < out[j].ID
		}
		if desc {
			return a.After(b)
		}
		return a.Before(b)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *doseRepo) Resolve(ctx context.Context, subjectID, id string, status doses.Status, takenAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok || e.SubjectID != subjectID {
		return doses.ErrNotFound
	}
	if e.Status != doses.StatusPending {
		return doses.ErrAlreadyResolved
	}

	e.Status = status
	e.TakenAt = nil
	if takenAt != nil {
		t := *takenAt
		e.TakenAt = &t
	}
	r.byID[id] = e
	return nil
}

func (r *doseRepo) DeleteByMedication(ctx context.Context, subjectID, medicationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.byID {
		if e.SubjectID == subjectID && e.MedicationID == medicationID {
			delete(r.byID, id)
		}
	}
	return nil
}

func cloneDose(e doses.DoseEvent) doses.DoseEvent {
	if e.TakenAt != nil {
		t := *e.TakenAt
		e.TakenAt = &t
	}
	return e
}
