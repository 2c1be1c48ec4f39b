package alarms

import (
	"encoding/json"
	"errors"
	"net/http"

	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, reg *Registry) {
	r.Route("/me/alarm", func(ar chi.Router) {
		ar.Get("/", getAlarmHandler(reg))
		ar.Post("/decision", decideHandler(reg))
		ar.Put("/audio", setAudioHandler(reg))
	})

	// Logout: corta el loop y el sonido del paciente
	r.Delete("/me/session", endSessionHandler(reg))
}

type decisionRequest struct {
	Status string `json:"status"` // taken|missed
}

type audioRequest struct {
	Enabled bool `json:"enabled"`
}

type activeAlarmResponse struct {
	Dose           doses.DoseResponse `json:"dose"`
	MedicationName string             `json:"medication_name"`
	Dosage         string             `json:"dosage"`
}

type alarmResponse struct {
	State           State                `json:"state"`
	Active          *activeAlarmResponse `json:"active,omitempty"`
	Queue           []doses.DoseResponse `json:"queue"`
	AudioEnabled    bool                 `json:"audio_enabled"`
	ShowAudioBanner bool                 `json:"show_audio_banner"`
	Sound           SoundState           `json:"sound"`
	LastError       string               `json:"last_error,omitempty"`
}

// getAlarmHandler godoc
// @Summary Estado de la alarma
// @Description Arranca el loop del paciente si no corría, hace un polling y devuelve la alarma activa y la cola.
// @Tags alarm
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {object} alarmResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/alarm [get]
func getAlarmHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loop, ok := loopFor(w, r, reg)
		if !ok {
			return
		}
		// un polling fallido deja el estado anterior; se informa igual
		_ = loop.Tick(r.Context())
		writeJSON(w, http.StatusOK, toAlarmResponse(loop.Snapshot()))
	}
}

// decideHandler godoc
// @Summary Registrar decisión
// @Description Marca la alarma activa como tomada o perdida. Si no se puede guardar, la alarma sigue activa.
// @Tags alarm
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param body body decisionRequest true "taken|missed"
// @Success 200 {object} alarmResponse
// @Failure 400 {string} string "decisión inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {string} string "sin alarma activa o ya resuelta"
// @Failure 503 {object} alarmResponse
// @Router /me/alarm/decision [post]
func decideHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loop, ok := loopFor(w, r, reg)
		if !ok {
			return
		}

		var req decisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		_, err := loop.Decide(r.Context(), doses.Status(req.Status))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, toAlarmResponse(loop.Snapshot()))
		case errors.Is(err, ErrInvalidDecision):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrNoActiveAlarm):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, doses.ErrAlreadyResolved), errors.Is(err, doses.ErrNotFound):
			writeJSON(w, http.StatusConflict, toAlarmResponse(loop.Snapshot()))
		case errors.Is(err, ErrPersistence):
			writeJSON(w, http.StatusServiceUnavailable, toAlarmResponse(loop.Snapshot()))
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// setAudioHandler godoc
// @Summary Habilitar o silenciar el sonido
// @Tags alarm
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param body body audioRequest true "opt-in de audio"
// @Success 200 {object} alarmResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 503 {string} string "no se pudo guardar la preferencia"
// @Router /me/alarm/audio [put]
func setAudioHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loop, ok := loopFor(w, r, reg)
		if !ok {
			return
		}

		var req audioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := loop.SetAudio(r.Context(), req.Enabled); err != nil {
			http.Error(w, "could not save audio preference", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, toAlarmResponse(loop.Snapshot()))
	}
}

// endSessionHandler godoc
// @Summary Cerrar sesión de alarmas
// @Description Detiene el polling y el sonido del paciente.
// @Tags alarm
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Router /me/session [delete]
func endSessionHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := middleware.Subject(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		reg.Stop(subjectID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func loopFor(w http.ResponseWriter, r *http.Request, reg *Registry) (*Loop, bool) {
	subjectID, ok := middleware.Subject(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	loop, err := reg.Ensure(subjectID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return loop, true
}

func toAlarmResponse(s Snapshot) alarmResponse {
	resp := alarmResponse{
		State:           s.State,
		Queue:           doses.ToResponses(s.Queue),
		AudioEnabled:    s.AudioEnabled,
		ShowAudioBanner: s.AudioBanner(),
		Sound:           s.Sound,
	}
	if s.Active != nil {
		resp.Active = &activeAlarmResponse{
			Dose:           doses.ToResponses([]doses.DoseEvent{s.Active.Dose})[0],
			MedicationName: s.Active.MedicationName,
			Dosage:         s.Active.Dosage,
		}
	}
	if s.LastError != nil {
		resp.LastError = s.LastError.Error()
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
