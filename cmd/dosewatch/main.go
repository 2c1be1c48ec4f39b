// dosewatch corre el loop de alarmas de un paciente en la terminal del
// dispositivo: muestra cada toma vencida, suena y registra la decisión.
//
//	t = tomada, m = perdida, a = activar/silenciar sonido, q = salir
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"dose-tracker/internal/adapters/sound"
	mem "dose-tracker/internal/adapters/storage/memory"
	pg "dose-tracker/internal/adapters/storage/postgres"
	rds "dose-tracker/internal/adapters/storage/redis"
	"dose-tracker/internal/config"
	"dose-tracker/internal/domain/alarms"
	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/domain/medications"
	"dose-tracker/internal/platform/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	subject := flag.String("subject", os.Getenv("DOSE_SUBJECT"), "ID del paciente (o DOSE_SUBJECT)")
	flag.Parse()

	if err := run(*subject, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "dosewatch:", err)
		os.Exit(1)
	}
}

func run(subjectID string, in io.Reader, out io.Writer) error {
	// sin paciente no hay sesión: no se consulta nada
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return alarms.ErrNoSubject
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.DBDSN == "" {
		return errors.New("DB_DSN is required")
	}

	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    "dosewatch",
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := pg.Open(ctx, pg.Options{DSN: cfg.DBDSN, MaxOpenConns: 2})
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	var prefs alarms.Preferences = mem.NewPreferenceStore()
	if cfg.RedisAddr != "" {
		rdb, err := rds.Open(ctx, rds.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		prefs = rds.NewPreferenceStore(rdb, "")
	}

	doseRepo := pg.NewDosesRepo(db)
	doseSvc := doses.NewService(doseRepo)
	medSvc := medications.NewService(pg.NewMedicationsRepo(db), doseRepo, medications.Options{
		Logger:   log,
		Location: cfg.Location(),
	})

	loop, err := alarms.NewLoop(alarms.Options{
		SubjectID:   subjectID,
		Store:       alarms.WithBreaker(doseSvc, "dosewatch", alarms.BreakerSettings{}, log),
		Medications: medSvc,
		Presenter:   &terminal{out: out},
		Sound: alarms.Fallback(
			sound.NewPlayer(cfg.AlarmPlayer, cfg.AlarmSoundAsset),
			sound.NewBell(out),
		),
		Preferences:  prefs,
		Logger:       log,
		PollInterval: cfg.AlarmPollInterval,
		DueWindow:    cfg.AlarmDueWindow,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		return readCommands(gctx, loop, in, out)
	})
	return g.Wait()
}

// readCommands aplica los comandos de una letra hasta q o EOF.
func readCommands(ctx context.Context, loop *alarms.Loop, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.ToLower(strings.TrimSpace(sc.Text())):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		switch line {
		case "t", "m":
			status := doses.StatusTaken
			if line == "m" {
				status = doses.StatusMissed
			}
			if _, err := loop.Decide(ctx, status); err != nil {
				fmt.Fprintf(out, "! %v\n", err)
			}
		case "a":
			enabled := !loop.Snapshot().AudioEnabled
			if err := loop.SetAudio(ctx, enabled); err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			fmt.Fprintf(out, "sonido: %v\n", onOff(enabled))
		case "q":
			return nil
		case "":
		default:
			fmt.Fprintln(out, "t = tomada, m = perdida, a = sonido, q = salir")
		}
	}
}

// terminal es el Presenter de consola.
type terminal struct {
	out io.Writer
}

func (t *terminal) Show(a alarms.Alarm) {
	fmt.Fprintf(t.out, "\n>>> %s  %s %s  [t/m]\n",
		a.Dose.ScheduledTime.Local().Format("15:04"), a.MedicationName, a.Dosage)
}

func (t *terminal) Clear(a alarms.Alarm) {
	fmt.Fprintf(t.out, "    %s listo\n", a.MedicationName)
}

func (t *terminal) Failed(a alarms.Alarm, err error) {
	fmt.Fprintf(t.out, "! no se pudo guardar %s: %v (reintentar)\n", a.MedicationName, err)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
