package alarms

import (
	"context"
	"errors"
	"time"

	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/platform/logger"

	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	// Fallas consecutivas antes de abrir. Default 5.
	MaxFailures uint32
	// Tiempo en open antes de probar de nuevo. Default 10s.
	OpenTimeout time.Duration
}

// breakerStore abre tras MaxFailures fallas seguidas. Abierto, Due devuelve
// gobreaker.ErrOpenState y el loop lo trata como un polling fallido.
type breakerStore struct {
	next    Store
	due     *gobreaker.CircuitBreaker[[]doses.DoseEvent]
	resolve *gobreaker.CircuitBreaker[struct{}]
}

func WithBreaker(next Store, name string, cfg BreakerSettings, log logger.Logger) Store {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	settings := func(suffix string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name + "." + suffix,
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= cfg.MaxFailures
			},
			IsSuccessful: func(err error) bool {
				// respuestas de negocio no indican un store caído
				return err == nil ||
					errors.Is(err, doses.ErrAlreadyResolved) ||
					errors.Is(err, doses.ErrNotFound) ||
					errors.Is(err, doses.ErrInvalidInput) ||
					errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("store breaker state changed", map[string]any{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
			},
		}
	}

	return &breakerStore{
		next:    next,
		due:     gobreaker.NewCircuitBreaker[[]doses.DoseEvent](settings("due")),
		resolve: gobreaker.NewCircuitBreaker[struct{}](settings("resolve")),
	}
}

func (b *breakerStore) Due(ctx context.Context, subjectID string, now time.Time, window time.Duration) ([]doses.DoseEvent, error) {
	return b.due.Execute(func() ([]doses.DoseEvent, error) {
		return b.next.Due(ctx, subjectID, now, window)
	})
}

func (b *breakerStore) Resolve(ctx context.Context, subjectID, id string, status doses.Status, at time.Time) error {
	_, err := b.resolve.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Resolve(ctx, subjectID, id, status, at)
	})
	return err
}
