package medications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dose-tracker/internal/domain/compliance"
	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/domain/schedule"
	"dose-tracker/internal/platform/logger"
	"dose-tracker/internal/platform/metrics"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medication not found")
	// ErrNoFutureDoses: el rango no deja ninguna toma posterior a ahora.
	ErrNoFutureDoses = fmt.Errorf("%w: no valid future dose times in range", ErrInvalidInput)
	// ErrDosePersistence: falló el lote de dosis; el medicamento no quedó guardado.
	ErrDosePersistence = errors.New("failed to persist dose events")
)

type Options struct {
	Logger  logger.Logger
	Metrics *metrics.Collector
	// Location es la zona del reloj de pared del paciente. Default time.Local.
	Location *time.Location
	Now      func() time.Time
}

type Service struct {
	repo    Repository
	doses   doses.Repository
	log     logger.Logger
	metrics *metrics.Collector
	loc     *time.Location
	now     func() time.Time
}

func NewService(repo Repository, doseRepo doses.Repository, opts Options) *Service {
	s := &Service{
		repo:    repo,
		doses:   doseRepo,
		log:     opts.Logger,
		metrics: opts.Metrics,
		loc:     opts.Location,
		now:     opts.Now,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type CreateInput struct {
	Name           string
	Dosage         string
	FrequencyCount int
	FirstDoseTime  schedule.Clock
	StartDate      time.Time  // zero => hoy
	EndDate        *time.Time // nil => start + 1 año
	Notes          string
}

// Create valida, genera el horario, materializa las dosis futuras y guarda
// todo junto. Si el lote de dosis falla no queda ningún medicamento guardado.
func (s *Service) Create(ctx context.Context, subjectID string, in CreateInput) (Medication, []doses.DoseEvent, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return Medication{}, nil, ErrInvalidInput
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Medication{}, nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := schedule.Validate(in.FirstDoseTime, in.FrequencyCount); err != nil {
		return Medication{}, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now()
	start := in.StartDate
	if start.IsZero() {
		start = now.In(s.loc)
	}
	start = dateOnly(start, s.loc)

	var end *time.Time
	if in.EndDate != nil {
		e := dateOnly(*in.EndDate, s.loc)
		if e.Before(start) {
			return Medication{}, nil, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
		}
		end = &e
	}

	times := schedule.Generate(in.FirstDoseTime, in.FrequencyCount)
	m := Medication{
		ID:             uuid.NewString(),
		SubjectID:      subjectID,
		Name:           name,
		Dosage:         strings.TrimSpace(in.Dosage),
		Status:         StatusActive,
		FrequencyCount: in.FrequencyCount,
		FirstDoseTime:  in.FirstDoseTime,
		IntervalHours:  schedule.IntervalHours(in.FrequencyCount),
		ReminderTimes:  times,
		StartDate:      start,
		EndDate:        end,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	plan := PlanDoses(times, start, end, now, s.loc)
	if len(plan.Times) == 0 {
		return Medication{}, nil, ErrNoFutureDoses
	}
	events := buildDoseEvents(m, plan, now)

	log := s.log.With(map[string]any{"subject_id": subjectID, "medication_id": m.ID})
	if plan.Truncated {
		log.Warn("dose materialization truncated", map[string]any{"cap": MaxDoseEvents})
		if s.metrics != nil {
			s.metrics.MaterializeTruncations.Inc()
		}
	}

	if err := s.persist(ctx, log, m, events); err != nil {
		return Medication{}, nil, err
	}

	if s.metrics != nil {
		s.metrics.MedicationsCreated.Inc()
		s.metrics.DosesMaterialized.Add(float64(len(events)))
	}
	log.Info("medication created", map[string]any{"doses": len(events)})
	return m, events, nil
}

func (s *Service) persist(ctx context.Context, log logger.Logger, m Medication, events []doses.DoseEvent) error {
	if ac, ok := s.repo.(AtomicCreator); ok {
		if err := ac.CreateWithDoses(ctx, m, events); err != nil {
			return fmt.Errorf("%w: %v", ErrDosePersistence, err)
		}
		return nil
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}
	if err := s.doses.InsertBatch(ctx, events); err != nil {
		// compensación: sacar el medicamento recién creado
		if s.metrics != nil {
			s.metrics.MaterializeRollbacks.Inc()
		}
		if derr := s.repo.Delete(ctx, m.SubjectID, m.ID); derr != nil {
			log.Error("rollback of medication failed", map[string]any{"error": derr})
			return errors.Join(fmt.Errorf("%w: %v", ErrDosePersistence, err), derr)
		}
		log.Warn("dose batch failed, medication rolled back", map[string]any{"error": err})
		return fmt.Errorf("%w: %v", ErrDosePersistence, err)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, subjectID, id string) (Medication, error) {
	if strings.TrimSpace(subjectID) == "" || strings.TrimSpace(id) == "" {
		return Medication{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, subjectID, id)
}

func (s *Service) ListBySubject(ctx context.Context, subjectID string) ([]Medication, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListBySubject(ctx, subjectID)
}

type UpdateInput struct {
	// nil = no tocar
	Name           *string
	Dosage         *string
	Status         *Status
	FrequencyCount *int
	FirstDoseTime  *schedule.Clock
	Notes          *string
}

// Update edita el medicamento. Si cambia el horario se recalculan interval y
// reminder_times desde first_dose_time, pero los eventos ya materializados no
// se tocan.
func (s *Service) Update(ctx context.Context, subjectID, id string, in UpdateInput) (Medication, error) {
	m, err := s.GetByID(ctx, subjectID, id)
	if err != nil {
		return Medication{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Medication{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		m.Name = name
	}
	if in.Dosage != nil {
		m.Dosage = strings.TrimSpace(*in.Dosage)
	}
	if in.Notes != nil {
		m.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return Medication{}, fmt.Errorf("%w: status must be active or inactive", ErrInvalidInput)
		}
		m.Status = *in.Status
	}

	scheduleChanged := false
	if in.FrequencyCount != nil && *in.FrequencyCount != m.FrequencyCount {
		m.FrequencyCount = *in.FrequencyCount
		scheduleChanged = true
	}
	if in.FirstDoseTime != nil && *in.FirstDoseTime != m.FirstDoseTime {
		m.FirstDoseTime = *in.FirstDoseTime
		scheduleChanged = true
	}
	if scheduleChanged {
		if err := schedule.Validate(m.FirstDoseTime, m.FrequencyCount); err != nil {
			return Medication{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		m.IntervalHours = schedule.IntervalHours(m.FrequencyCount)
		m.ReminderTimes = schedule.Generate(m.FirstDoseTime, m.FrequencyCount)
	}

	m.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, m); err != nil {
		return Medication{}, err
	}

	if scheduleChanged {
		s.log.Info("schedule edited, existing dose events kept", map[string]any{
			"subject_id":     subjectID,
			"medication_id":  m.ID,
			"reminder_times": schedule.FormatList(m.ReminderTimes),
		})
	}
	return m, nil
}

// Delete borra las dosis y luego el medicamento.
func (s *Service) Delete(ctx context.Context, subjectID, id string) error {
	if _, err := s.GetByID(ctx, subjectID, id); err != nil {
		return err
	}
	if err := s.doses.DeleteByMedication(ctx, subjectID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, subjectID, id)
}

// Compliance calcula la adherencia de un medicamento.
// today: tomadas hoy (hasta ahora) contra la meta diaria.
// all: histórico sobre todos los eventos ya vencidos.
func (s *Service) Compliance(ctx context.Context, subjectID, id string, scope ComplianceScope) (compliance.Stats, error) {
	m, err := s.GetByID(ctx, subjectID, id)
	if err != nil {
		return compliance.Stats{}, err
	}

	now := s.now()
	filter := doses.Filter{MedicationID: m.ID, To: &now}

	switch scope {
	case ScopeToday, "":
		from := dateOnly(now.In(s.loc), s.loc)
		filter.From = &from
		events, err := s.doses.Query(ctx, subjectID, filter)
		if err != nil {
			return compliance.Stats{}, err
		}
		return compliance.Daily(events, m.DailyGoal()), nil
	case ScopeAll:
		events, err := s.doses.Query(ctx, subjectID, filter)
		if err != nil {
			return compliance.Stats{}, err
		}
		return compliance.Historical(events), nil
	default:
		return compliance.Stats{}, fmt.Errorf("%w: scope must be today or all", ErrInvalidInput)
	}
}

// TodaySummary agrega el día actual de todos los medicamentos del paciente.
func (s *Service) TodaySummary(ctx context.Context, subjectID string) (compliance.Stats, error) {
	meds, err := s.ListBySubject(ctx, subjectID)
	if err != nil {
		return compliance.Stats{}, err
	}

	plans := make([]compliance.Plan, 0, len(meds))
	for _, m := range meds {
		plans = append(plans, compliance.Plan{
			MedicationID: m.ID,
			DailyGoal:    m.DailyGoal(),
			StartDate:    m.StartDate,
		})
	}

	now := s.now()
	from := dateOnly(now.In(s.loc), s.loc)
	events, err := s.doses.Query(ctx, subjectID, doses.Filter{From: &from, To: &now})
	if err != nil {
		return compliance.Stats{}, err
	}
	return compliance.Summary(plans, events), nil
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
