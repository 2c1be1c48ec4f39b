package doses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, subjectID string, filter Filter) ([]DoseEvent, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, ErrInvalidInput
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, fmt.Errorf("%w: from after to", ErrInvalidInput)
	}
	return s.repo.Query(ctx, subjectID, filter)
}

// Due devuelve los eventos pending con scheduled_time en [now-window, now],
// del más antiguo al más reciente.
func (s *Service) Due(ctx context.Context, subjectID string, now time.Time, window time.Duration) ([]DoseEvent, error) {
	from := now.Add(-window)
	return s.List(ctx, subjectID, Filter{
		Status: StatusPending,
		From:   &from,
		To:     &now,
		Order:  OrderAsc,
	})
}

// Resolve aplica la única transición permitida: pending -> taken|missed.
// taken_at se fija a `at` solo para taken.
func (s *Service) Resolve(ctx context.Context, subjectID, id string, status Status, at time.Time) error {
	subjectID = strings.TrimSpace(subjectID)
	id = strings.TrimSpace(id)
	if subjectID == "" || id == "" {
		return ErrInvalidInput
	}
	if !status.Terminal() {
		return fmt.Errorf("%w: status must be taken or missed", ErrInvalidInput)
	}

	var takenAt *time.Time
	if status == StatusTaken {
		t := at
		takenAt = &t
	}
	return s.repo.Resolve(ctx, subjectID, id, status, takenAt)
}
