// Package compliance calcula adherencia a partir de eventos de dosis ya leídos.
package compliance

import (
	"math"
	"time"

	"dose-tracker/internal/domain/doses"
)

// Stats es el resultado para una colección de eventos.
type Stats struct {
	Taken  int `json:"taken"`
	Missed int `json:"missed"`
	Goal   int `json:"goal"` // en Historical es taken+missed
	Rate   int `json:"rate"` // 0..100
}

// Count cuenta tomadas y perdidas; pending no suma a nada.
func Count(events []doses.DoseEvent) (taken, missed int) {
	for _, e := range events {
		switch e.Status {
		case doses.StatusTaken:
			taken++
		case doses.StatusMissed:
			missed++
		}
	}
	return taken, missed
}

// DailyGoal: frequency_count, si no la cantidad de reminder_times, si no 1.
func DailyGoal(frequencyCount, reminderTimes int) int {
	if frequencyCount > 0 {
		return frequencyCount
	}
	if reminderTimes > 0 {
		return reminderTimes
	}
	return 1
}

// Daily es la adherencia del día contra la meta diaria:
// round(100*taken/goal) con tope 100. Meta <= 0 => 100.
func Daily(events []doses.DoseEvent, dailyGoal int) Stats {
	taken, missed := Count(events)
	return Stats{
		Taken:  taken,
		Missed: missed,
		Goal:   dailyGoal,
		Rate:   percent(taken, dailyGoal),
	}
}

// Historical es la adherencia sobre todos los eventos resueltos:
// round(100*taken/(taken+missed)); sin eventos resueltos => 100.
func Historical(events []doses.DoseEvent) Stats {
	taken, missed := Count(events)
	return Stats{
		Taken:  taken,
		Missed: missed,
		Goal:   taken + missed,
		Rate:   percent(taken, taken+missed),
	}
}

// Plan describe un medicamento para el resumen diario de varios medicamentos.
type Plan struct {
	MedicationID string
	DailyGoal    int
	StartDate    time.Time // eventos antes de este día se ignoran
}

// Summary agrega el día de varios medicamentos: la meta es la suma de metas
// diarias y se descartan eventos de medicamentos desconocidos o anteriores a
// su start_date.
func Summary(plans []Plan, events []doses.DoseEvent) Stats {
	byID := make(map[string]Plan, len(plans))
	goal := 0
	for _, p := range plans {
		byID[p.MedicationID] = p
		goal += p.DailyGoal
	}

	kept := make([]doses.DoseEvent, 0, len(events))
	for _, e := range events {
		p, ok := byID[e.MedicationID]
		if !ok {
			continue
		}
		if !p.StartDate.IsZero() && e.ScheduledTime.Before(startOfDay(p.StartDate, e.ScheduledTime.Location())) {
			continue
		}
		kept = append(kept, e)
	}
	return Daily(kept, goal)
}

func percent(num, den int) int {
	if den <= 0 {
		return 100
	}
	r := int(math.Round(100 * float64(num) / float64(den)))
	if r > 100 {
		return 100
	}
	if r < 0 {
		return 0
	}
	return r
}

func startOfDay(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}
