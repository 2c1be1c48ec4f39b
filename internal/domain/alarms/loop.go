package alarms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/platform/logger"
	"dose-tracker/internal/platform/metrics"
)

type Options struct {
	SubjectID   string
	Store       Store
	Medications MedicationLookup // opcional, para nombre y dosis
	Presenter   Presenter        // opcional
	Sound       Sound            // nil = el cliente reproduce el sonido
	Preferences Preferences      // nil = opt-in solo en memoria

	Logger  logger.Logger
	Metrics *metrics.Collector

	PollInterval time.Duration
	DueWindow    time.Duration
	Now          func() time.Time
}

// Loop es la máquina idle/active de un paciente. Tick y Decide se serializan;
// Snapshot se puede leer desde otros goroutines.
type Loop struct {
	subjectID string
	store     Store
	meds      MedicationLookup
	presenter Presenter
	sound     Sound
	prefs     Preferences
	log       logger.Logger
	metrics   *metrics.Collector
	interval  time.Duration
	window    time.Duration
	now       func() time.Time

	opMu        sync.Mutex
	prefsLoaded bool

	mu           sync.RWMutex
	active       *Alarm
	queue        []doses.DoseEvent
	audioEnabled bool
	soundState   SoundState
	lastErr      error
}

func NewLoop(opts Options) (*Loop, error) {
	subjectID := strings.TrimSpace(opts.SubjectID)
	if subjectID == "" {
		return nil, ErrNoSubject
	}
	if opts.Store == nil {
		return nil, errors.New("alarm store is required")
	}

	l := &Loop{
		subjectID: subjectID,
		store:     opts.Store,
		meds:      opts.Medications,
		presenter: opts.Presenter,
		sound:     opts.Sound,
		prefs:     opts.Preferences,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		interval:  opts.PollInterval,
		window:    opts.DueWindow,
		now:       opts.Now,

		soundState: SoundOff,
	}
	if l.log == nil {
		l.log = logger.Nop()
	}
	l.log = l.log.With(map[string]any{"subject_id": subjectID})
	if l.interval <= 0 {
		l.interval = DefaultPollInterval
	}
	if l.window <= 0 {
		l.window = DefaultDueWindow
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l, nil
}

func (l *Loop) SubjectID() string { return l.subjectID }

// Run hace polling hasta que ctx termine. Al salir corta el sonido.
func (l *Loop) Run(ctx context.Context) error {
	if l.metrics != nil {
		l.metrics.AlarmSessions.Inc()
		defer l.metrics.AlarmSessions.Dec()
	}
	l.log.Info("alarm loop started", map[string]any{"interval": l.interval.String(), "window": l.window.String()})
	defer l.log.Info("alarm loop stopped", nil)

	_ = l.Tick(ctx)

	t := time.NewTicker(l.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopSoundLocked()
			l.mu.Unlock()
			return nil
		case <-t.C:
			_ = l.Tick(ctx)
		}
	}
}

// Tick es un ciclo de polling. Si falla la consulta el estado no cambia.
func (l *Loop) Tick(ctx context.Context) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	return l.tick(ctx)
}

func (l *Loop) tick(ctx context.Context) error {
	l.loadPreferences(ctx)

	due, err := l.store.Due(ctx, l.subjectID, l.now(), l.window)
	if err != nil {
		if l.metrics != nil {
			l.metrics.AlarmPollErrors.Inc()
		}
		l.log.Warn("due poll failed", map[string]any{"error": err})
		return err
	}

	l.mu.RLock()
	idle := l.active == nil
	l.mu.RUnlock()

	var next *Alarm
	if idle && len(due) > 0 {
		a := l.describe(ctx, due[0])
		next = &a
	}

	l.mu.Lock()
	if next != nil {
		l.active = next
		l.lastErr = nil
	}
	l.queue = withoutID(due, l.activeIDLocked())
	l.mu.Unlock()

	if next != nil {
		l.present(*next)
	}
	return nil
}

// Decide registra taken o missed para la alarma activa. Si no se puede
// guardar, la alarma queda activa con el error visible. Tras guardar se
// vuelve a consultar enseguida para mostrar la siguiente.
func (l *Loop) Decide(ctx context.Context, status doses.Status) (Alarm, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	if !status.Terminal() {
		return Alarm{}, ErrInvalidDecision
	}

	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()
	if active == nil {
		return Alarm{}, ErrNoActiveAlarm
	}
	a := *active
	log := l.log.With(map[string]any{"dose_id": a.Dose.ID, "medication_id": a.Dose.MedicationID})

	err := l.store.Resolve(ctx, l.subjectID, a.Dose.ID, status, l.now())
	switch {
	case err == nil:
		l.observeDecision(string(status))
		log.Info("dose recorded", map[string]any{"status": string(status)})
	case errors.Is(err, doses.ErrAlreadyResolved), errors.Is(err, doses.ErrNotFound):
		// otro dispositivo ya resolvió la dosis
		l.observeDecision("stale")
		log.Info("dose already resolved elsewhere", map[string]any{"error": err})
	default:
		l.observeDecision("error")
		l.mu.Lock()
		l.lastErr = err
		l.mu.Unlock()
		if l.presenter != nil {
			l.presenter.Failed(a, err)
		}
		log.Error("failed to record dose decision", map[string]any{"error": err, "status": string(status)})
		return a, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	l.mu.Lock()
	l.stopSoundLocked()
	l.active = nil
	l.lastErr = nil
	l.mu.Unlock()
	if l.presenter != nil {
		l.presenter.Clear(a)
	}

	if terr := l.tick(ctx); terr != nil {
		log.Warn("re-poll after decision failed", map[string]any{"error": terr})
	}

	return a, err
}

// SetAudio guarda el opt-in de audio. Habilitarlo con una alarma activa la
// hace sonar; deshabilitarlo la silencia.
func (l *Loop) SetAudio(ctx context.Context, enabled bool) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	l.prefsLoaded = true

	var perr error
	if l.prefs != nil {
		if err := l.prefs.SetAudioEnabled(ctx, l.subjectID, enabled); err != nil {
			l.log.Warn("failed to persist audio preference", map[string]any{"error": err})
			perr = err
		}
	}

	l.mu.Lock()
	l.audioEnabled = enabled
	var active *Alarm
	var serr error
	if l.active != nil {
		a := *l.active
		active = &a
		if enabled {
			if l.soundState != SoundRinging {
				serr = l.startSoundLocked()
			}
		} else {
			l.stopSoundLocked()
		}
	}
	l.mu.Unlock()

	if serr != nil {
		l.soundFailed(*active, serr)
	}
	return perr
}

func (l *Loop) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Snapshot{
		State:        StateIdle,
		Queue:        append([]doses.DoseEvent(nil), l.queue...),
		AudioEnabled: l.audioEnabled,
		Sound:        l.soundState,
		LastError:    l.lastErr,
	}
	if l.active != nil {
		a := *l.active
		s.State = StateActive
		s.Active = &a
	}
	return s
}

// Stop corta el sonido (logout/cierre de sesión).
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopSoundLocked()
	l.mu.Unlock()
}

func (l *Loop) loadPreferences(ctx context.Context) {
	if l.prefsLoaded || l.prefs == nil {
		l.prefsLoaded = true
		return
	}
	enabled, err := l.prefs.AudioEnabled(ctx, l.subjectID)
	if err != nil {
		// se reintenta en el próximo tick
		l.log.Warn("failed to load audio preference", map[string]any{"error": err})
		return
	}
	l.prefsLoaded = true
	l.mu.Lock()
	l.audioEnabled = enabled
	l.mu.Unlock()
}

func (l *Loop) describe(ctx context.Context, e doses.DoseEvent) Alarm {
	a := Alarm{Dose: e}
	if l.meds == nil {
		return a
	}
	m, err := l.meds.GetByID(ctx, l.subjectID, e.MedicationID)
	if err != nil {
		l.log.Warn("medication lookup failed", map[string]any{"error": err, "medication_id": e.MedicationID})
		return a
	}
	a.MedicationName = m.Name
	a.Dosage = m.Dosage
	return a
}

// present muestra la alarma y arranca el sonido. Si el sonido falla la
// alarma sigue activa en silencio.
func (l *Loop) present(a Alarm) {
	if l.metrics != nil {
		l.metrics.AlarmsPresented.Inc()
	}
	l.log.Info("alarm active", map[string]any{"dose_id": a.Dose.ID, "scheduled_time": a.Dose.ScheduledTime})

	if l.presenter != nil {
		l.presenter.Show(a)
	}

	l.mu.Lock()
	err := l.startSoundLocked()
	l.mu.Unlock()
	if err != nil {
		l.soundFailed(a, err)
	}
}

func (l *Loop) soundFailed(a Alarm, err error) {
	if l.metrics != nil {
		l.metrics.AlarmSoundFailure.Inc()
	}
	l.log.Warn("alarm sound unavailable, showing silently", map[string]any{"error": err, "dose_id": a.Dose.ID})
}

func (l *Loop) startSoundLocked() error {
	if !l.audioEnabled {
		l.soundState = SoundOff
		return nil
	}
	if l.sound == nil {
		l.soundState = SoundRinging
		return nil
	}
	if err := l.sound.Start(); err != nil {
		l.soundState = SoundFailed
		return err
	}
	l.soundState = SoundRinging
	return nil
}

func (l *Loop) stopSoundLocked() {
	if l.soundState == SoundRinging && l.sound != nil {
		l.sound.Stop()
	}
	l.soundState = SoundOff
}

func (l *Loop) activeIDLocked() string {
	if l.active == nil {
		return ""
	}
	return l.active.Dose.ID
}

func (l *Loop) observeDecision(outcome string) {
	if l.metrics != nil {
		l.metrics.AlarmDecisions.WithLabelValues(outcome).Inc()
	}
}

func withoutID(events []doses.DoseEvent, id string) []doses.DoseEvent {
	out := make([]doses.DoseEvent, 0, len(events))
	for _, e := range events {
		if e.ID == id {
			continue
		}
		out = append(out, e)
	}
	return out
}
