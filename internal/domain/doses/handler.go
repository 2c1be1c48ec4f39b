package doses

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dose-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Línea de tiempo del paciente (reportes)
	r.Get("/me/doses", listMyDosesHandler(svc))
}

// DoseResponse es la representación JSON de un evento de dosis.
type DoseResponse struct {
	ID            string     `json:"id"`
	MedicationID  string     `json:"medication_id"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Status        Status     `json:"status"`
	TakenAt       *time.Time `json:"taken_at,omitempty"`
}

// listMyDosesHandler godoc
// @Summary Listar dosis del paciente
// @Description Línea de tiempo de eventos de dosis del usuario autenticado, filtrable por rango, estado y medicamento.
// @Tags doses
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param from query string false "scheduled_time mínimo (RFC3339)"
// @Param to query string false "scheduled_time máximo (RFC3339)"
// @Param status query string false "pending|taken|missed"
// @Param medication_id query string false "ID del medicamento"
// @Param limit query int false "Máximo de eventos (1-1000)"
// @Success 200 {array} DoseResponse
// @Failure 400 {string} string "filtros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /me/doses [get]
func listMyDosesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := middleware.Subject(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := ParseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if v := strings.TrimSpace(r.URL.Query().Get("medication_id")); v != "" {
			filter.MedicationID = v
		}
		if filter.Order == "" {
			filter.Order = OrderDesc
		}

		items, err := svc.List(r.Context(), subjectID, filter)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, ToResponses(items))
	}
}

// ParseFilter lee from/to/status/limit del query string.
func ParseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	filter := Filter{}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			filter.Limit = n
		}
	}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Filter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Filter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		st := Status(v)
		if !st.Valid() {
			return Filter{}, errors.New("status must be pending, taken or missed")
		}
		filter.Status = st
	}
	return filter, nil
}

func ToResponses(items []DoseEvent) []DoseResponse {
	out := make([]DoseResponse, 0, len(items))
	for _, e := range items {
		out = append(out, DoseResponse{
			ID:            e.ID,
			MedicationID:  e.MedicationID,
			ScheduledTime: e.ScheduledTime,
			Status:        e.Status,
			TakenAt:       e.TakenAt,
		})
	}
	return out
}

// writeJSON está duplicado en cada módulo a propósito (ver medications).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
