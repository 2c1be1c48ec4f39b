package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/domain/schedule"
	"dose-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, doseSvc *doses.Service) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Post("/", createMedicationHandler(svc))
		mr.Get("/", listMedicationsHandler(svc))

		mr.Get("/{medicationID}", getMedicationHandler(svc))
		mr.Patch("/{medicationID}", updateMedicationHandler(svc))
		mr.Delete("/{medicationID}", deleteMedicationHandler(svc))

		mr.Get("/{medicationID}/compliance", medicationComplianceHandler(svc))
		mr.Get("/{medicationID}/doses", medicationDosesHandler(svc, doseSvc))
	})

	// Resumen de hoy (todas las medicaciones)
	r.Get("/me/compliance", todaySummaryHandler(svc))
}

type createMedicationRequest struct {
	Name           string `json:"name"`
	Dosage         string `json:"dosage"`
	FrequencyCount int    `json:"frequency_count"`
	FirstDoseTime  string `json:"first_dose_time"` // HH:MM
	StartDate      string `json:"start_date"`      // YYYY-MM-DD opcional (default hoy)
	EndDate        string `json:"end_date"`        // YYYY-MM-DD opcional (default +1 año)
	Notes          string `json:"notes"`
}

type updateMedicationRequest struct {
	// nil = no tocar
	Name           *string `json:"name"`
	Dosage         *string `json:"dosage"`
	Status         *string `json:"status"`
	FrequencyCount *int    `json:"frequency_count"`
	FirstDoseTime  *string `json:"first_dose_time"`
	Notes          *string `json:"notes"`
}

type medicationResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Dosage         string           `json:"dosage"`
	Status         Status           `json:"status"`
	FrequencyCount int              `json:"frequency_count"`
	FirstDoseTime  schedule.Clock   `json:"first_dose_time"`
	IntervalHours  int              `json:"interval_hours"`
	ReminderTimes  []schedule.Clock `json:"reminder_times"`
	StartDate      string           `json:"start_date"`
	EndDate        *string          `json:"end_date,omitempty"`
	Notes          string           `json:"notes"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type createMedicationResponse struct {
	Medication   medicationResponse `json:"medication"`
	DosesCreated int                `json:"doses_created"`
	FirstDose    *time.Time         `json:"first_dose,omitempty"`
}

type medicationListItem struct {
	medicationResponse
	ComplianceRate int `json:"compliance_rate"`
}

// createMedicationHandler godoc
// @Summary Crear medicamento
// @Description Crea el medicamento, genera su horario y materializa las tomas futuras. Si las tomas no se pueden guardar, el medicamento tampoco queda.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param body body createMedicationRequest true "Medicamento"
// @Success 201 {object} createMedicationResponse
// @Failure 400 {string} string "datos inválidos o sin tomas futuras"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "error al guardar las tomas"
// @Router /medications [post]
func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := middleware.Subject(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		first, err := schedule.ParseClock(req.FirstDoseTime)
		if err != nil {
			http.Error(w, "first_dose_time must be HH:MM", http.StatusBadRequest)
			return
		}

		var start time.Time
		if strings.TrimSpace(req.StartDate) != "" {
			start, err = time.Parse("2006-01-02", req.StartDate)
			if err != nil {
				http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
		}

		var end *time.Time
		if strings.TrimSpace(req.EndDate) != "" {
			t, err := time.Parse("2006-01-02", req.EndDate)
			if err != nil {
				http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			end = &t
		}

		m, events, err := svc.Create(r.Context(), subjectID, CreateInput{
			Name:           req.Name,
			Dosage:         req.Dosage,
			FrequencyCount: req.FrequencyCount,
			FirstDoseTime:  first,
			StartDate:      start,
			EndDate:        end,
			Notes:          req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := createMedicationResponse{
			Medication:   toMedicationResponse(m),
			DosesCreated: len(events),
		}
		if len(events) > 0 {
			t := events[0].ScheduledTime
			resp.FirstDose = &t
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// listMedicationsHandler godoc
// @Summary Listar medicamentos
// @Description Medicamentos del paciente con su adherencia histórica.
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {array} medicationListItem
// @Failure 401 {string} string "unauthorized"
// @Router /medications [get]
func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := middleware.Subject(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListBySubject(r.Context(), subjectID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]medicationListItem, 0, len(items))
		for _, m := range items {
			st, err := svc.Compliance(r.Context(), subjectID, m.ID, ScopeAll)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			out = append(out, medicationListItem{
				medicationResponse: toMedicationResponse(m),
				ComplianceRate:     st.Rate,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// getMedicationHandler godoc
// @Summary Detalle de medicamento
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param medicationID path string true "ID del medicamento"
// @Success 200 {object} medicationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID} [get]
func getMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := middleware.Subject(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.GetByID(r.Context(), subjectID, chi.URLParam(r, "medicationID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(m))
	}
}

// updateMedicationHandler godoc
// @Summary Editar medicamento
// @Description Edita datos y horario. Un cambio de horario recalcula reminder_times desde first_dose_time; las tomas ya generadas no se modifican.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param medicationID path string true "ID del medicamento"
// @Param body body updateMedicationRequest true "Campos a modificar"
// @Success 200 {object} medicationResponse
// @Failure 400 {string} string "datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID} [patch]
func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := middleware.Subject(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateMedicationRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Name:           req.Name,
			Dosage:         req.Dosage,
			FrequencyCount: req.FrequencyCount,
			Notes:          req.Notes,
		}
		if req.Status != nil {
			st := Status(strings.TrimSpace(*req.Status))
			in.Status = &st
		}
		if req.FirstDoseTime != nil {
			c, err := schedule.ParseClock(*req.FirstDoseTime)
			if err != nil {
				http.Error(w, "first_dose_time must be HH:MM", http.StatusBadRequest)
				return
			}
			in.FirstDoseTime = &c
		}

		updated, err := svc.Update(r.Context(), subjectID, chi.URLParam(r, "medicationID"), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(updated))
	}
}

// deleteMedicationHandler godoc
// @Summary Borrar medicamento
// @Description Borra el medicamento y todas sus tomas.
// @Tags medications
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param medicationID path string true "ID del medicamento"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID} [delete]
func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := middleware.Subject(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), subjectID, chi.URLParam(r, "medicationID")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// medicationComplianceHandler godoc
// @Summary Adherencia de un medicamento
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param medicationID path string true "ID del medicamento"
// @Param scope query string false "today|all (default today)"
// @Success 200 {object} compliance.Stats
// @Failure 400 {string} string "scope inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID}/compliance [get]
func medicationComplianceHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := middleware.Subject(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		scope := ComplianceScope(strings.TrimSpace(r.URL.Query().Get("scope")))
		st, err := svc.Compliance(r.Context(), subjectID, chi.URLParam(r, "medicationID"), scope)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// medicationDosesHandler godoc
// @Summary Tomas de un medicamento
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param medicationID path string true "ID del medicamento"
// @Param from query string false "scheduled_time mínimo (RFC3339)"
// @Param to query string false "scheduled_time máximo (RFC3339)"
// @Param status query string false "pending|taken|missed"
// @Param limit query int false "Máximo de eventos (1-1000)"
// @Success 200 {array} doses.DoseResponse
// @Failure 400 {string} string "filtros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID}/doses [get]
func medicationDosesHandler(svc *Service, doseSvc *doses.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := middleware.Subject(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.GetByID(r.Context(), subjectID, chi.URLParam(r, "medicationID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		filter, err := doses.ParseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.MedicationID = m.ID

		items, err := doseSvc.List(r.Context(), subjectID, filter)
		if err != nil {
			if errors.Is(err, doses.ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, doses.ToResponses(items))
	}
}

// todaySummaryHandler godoc
// @Summary Resumen de adherencia de hoy
// @Description Tomadas hoy contra la suma de metas diarias de todos los medicamentos.
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {object} compliance.Stats
// @Failure 401 {string} string "unauthorized"
// @Router /me/compliance [get]
func todaySummaryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := middleware.Subject(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		st, err := svc.TodaySummary(r.Context(), subjectID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "medication not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrDosePersistence):
		http.Error(w, "could not save dose schedule", http.StatusInternalServerError)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toMedicationResponse(m Medication) medicationResponse {
	resp := medicationResponse{
		ID:             m.ID,
		Name:           m.Name,
		Dosage:         m.Dosage,
		Status:         m.Status,
		FrequencyCount: m.FrequencyCount,
		FirstDoseTime:  m.FirstDoseTime,
		IntervalHours:  m.IntervalHours,
		ReminderTimes:  m.ReminderTimes,
		StartDate:      m.StartDate.Format("2006-01-02"),
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.EndDate != nil {
		s := m.EndDate.Format("2006-01-02")
		resp.EndDate = &s
	}
	return resp
}

// writeJSON duplicado a propósito, igual que en doses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
