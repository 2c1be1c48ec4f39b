package medications

import (
	"time"

	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/domain/schedule"

	"github.com/google/uuid"
)

const (
	// MaxDoseEvents acota el lote (~400 días a 8 tomas/día). No es un límite de producto.
	MaxDoseEvents = 3200
	// DefaultHorizonYears aplica cuando no hay end_date.
	DefaultHorizonYears = 1
)

// DosePlan es el resultado de expandir un horario sobre un rango de fechas.
type DosePlan struct {
	Times     []time.Time
	Truncated bool // se cortó en MaxDoseEvents
}

// PlanDoses genera un instante por (día del rango x horario), en orden de
// generación, descartando los que no son estrictamente posteriores a now.
// start/end se toman como fechas de calendario en loc; end es inclusiva y por
// defecto start + 1 año.
func PlanDoses(times []schedule.Clock, start time.Time, end *time.Time, now time.Time, loc *time.Location) DosePlan {
	if loc == nil {
		loc = time.Local
	}

	sy, sm, sd := start.Date()
	first := time.Date(sy, sm, sd, 0, 0, 0, 0, loc)

	var last time.Time
	if end != nil {
		ey, em, ed := end.Date()
		last = time.Date(ey, em, ed, 0, 0, 0, 0, loc)
	} else {
		last = time.Date(sy+DefaultHorizonYears, sm, sd, 0, 0, 0, 0, loc)
	}

	plan := DosePlan{Times: make([]time.Time, 0, estimate(first, last, len(times)))}

	for i := 0; ; i++ {
		day := time.Date(sy, sm, sd+i, 0, 0, 0, 0, loc)
		if day.After(last) {
			break
		}
		y, m, d := day.Date()
		for _, c := range times {
			at := time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
			if !at.After(now) {
				continue
			}
			if len(plan.Times) == MaxDoseEvents {
				plan.Truncated = true
				return plan
			}
			plan.Times = append(plan.Times, at)
		}
	}
	return plan
}

// buildDoseEvents arma los eventos pending del lote.
func buildDoseEvents(m Medication, plan DosePlan, now time.Time) []doses.DoseEvent {
	out := make([]doses.DoseEvent, 0, len(plan.Times))
	for _, at := range plan.Times {
		out = append(out, doses.DoseEvent{
			ID:            uuid.NewString(),
			MedicationID:  m.ID,
			SubjectID:     m.SubjectID,
			ScheduledTime: at,
			Status:        doses.StatusPending,
			CreatedAt:     now,
		})
	}
	return out
}

func estimate(first, last time.Time, perDay int) int {
	days := int(last.Sub(first).Hours()/24) + 1
	n := days * perDay
	if n < 0 {
		return 0
	}
	if n > MaxDoseEvents {
		return MaxDoseEvents
	}
	return n
}
