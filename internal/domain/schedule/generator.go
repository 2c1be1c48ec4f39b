package schedule

import (
	"errors"
	"fmt"
)

const (
	MinFrequency = 1
	MaxFrequency = 24
)

var (
	ErrInvalidFrequency = errors.New("frequency must be between 1 and 24")
)

// IntervalHours = floor(24 / count). Para count fuera de rango devuelve 0.
func IntervalHours(count int) int {
	if count < MinFrequency || count > MaxFrequency {
		return 0
	}
	return 24 / count
}

// Validate revisa la entrada antes de generar; Generate en sí no falla.
func Validate(first Clock, count int) error {
	if count < MinFrequency || count > MaxFrequency {
		return fmt.Errorf("%w: got %d", ErrInvalidFrequency, count)
	}
	if !first.Valid() {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidClock, first.Hour, first.Minute)
	}
	return nil
}

// Generate devuelve count horarios: el primero es first y cada siguiente suma
// IntervalHours(count) horas módulo 24. Los minutos se arrastran sin ajustar el
// resto de la división, así que con 24 % count != 0 el espaciado no es uniforme.
func Generate(first Clock, count int) []Clock {
	interval := IntervalHours(count)
	if interval == 0 {
		return []Clock{}
	}

	out := make([]Clock, 0, count)
	h := first.Hour
	for i := 0; i < count; i++ {
		out = append(out, Clock{Hour: h, Minute: first.Minute})
		h = (h + interval) % 24
	}
	return out
}

// Matches indica si times es exactamente la proyección de (first, count).
func Matches(first Clock, count int, times []Clock) bool {
	want := Generate(first, count)
	if len(want) != len(times) {
		return false
	}
	for i := range want {
		if want[i] != times[i] {
			return false
		}
	}
	return true
}
