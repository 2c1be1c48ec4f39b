// Package alarms entrega las dosis vencidas de un paciente de a una por vez:
// consulta la ventana de vencimiento, activa la más antigua, hace sonar el
// dispositivo si el paciente lo habilitó y registra la decisión.
package alarms

import (
	"context"
	"errors"
	"time"

	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/domain/medications"
)

const (
	DefaultPollInterval = time.Second
	DefaultDueWindow    = time.Hour
)

var (
	ErrNoActiveAlarm   = errors.New("no active alarm")
	ErrInvalidDecision = errors.New("decision must be taken or missed")
	// ErrPersistence: no se pudo guardar la decisión; la alarma sigue activa.
	ErrPersistence = errors.New("failed to record decision")
	ErrNoSubject   = errors.New("no authenticated subject")
)

type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
)

// SoundState describe el audio de la alarma activa.
type SoundState string

const (
	SoundOff     SoundState = "off"     // sin alarma o sin opt-in de audio
	SoundRinging SoundState = "ringing" // sonando (o delegado al cliente)
	SoundFailed  SoundState = "failed"  // no se pudo reproducir; alarma silenciosa
)

// Alarm es la dosis que se está mostrando.
type Alarm struct {
	Dose           doses.DoseEvent
	MedicationName string
	Dosage         string
}

// Store es lo que el loop necesita del almacenamiento de dosis.
// doses.Service lo implementa.
type Store interface {
	Due(ctx context.Context, subjectID string, now time.Time, window time.Duration) ([]doses.DoseEvent, error)
	Resolve(ctx context.Context, subjectID, id string, status doses.Status, at time.Time) error
}

type MedicationLookup interface {
	GetByID(ctx context.Context, subjectID, id string) (medications.Medication, error)
}

// Presenter muestra la alarma al paciente (terminal, push, etc).
type Presenter interface {
	Show(a Alarm)
	Clear(a Alarm)
	Failed(a Alarm, err error)
}

// Sound es un reproductor que suena en loop hasta Stop.
type Sound interface {
	Start() error
	Stop()
}

// Preferences guarda el opt-in de audio por paciente.
type Preferences interface {
	AudioEnabled(ctx context.Context, subjectID string) (bool, error)
	SetAudioEnabled(ctx context.Context, subjectID string, enabled bool) error
}

// Snapshot es el estado observable del loop.
type Snapshot struct {
	State        State
	Active       *Alarm
	Queue        []doses.DoseEvent
	AudioEnabled bool
	Sound        SoundState
	LastError    error
}

// AudioBanner indica si hay que pedir al paciente que habilite el sonido.
func (s Snapshot) AudioBanner() bool {
	return !s.AudioEnabled
}
