package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "dose-tracker/docs"
	mem "dose-tracker/internal/adapters/storage/memory"
	pg "dose-tracker/internal/adapters/storage/postgres"
	rds "dose-tracker/internal/adapters/storage/redis"
	"dose-tracker/internal/domain/alarms"
	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/domain/medications"
	"dose-tracker/internal/middleware"
	"dose-tracker/internal/platform/logger"
	"dose-tracker/internal/platform/metrics"
	"dose-tracker/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.TokenVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
	// Opcional: preferencias de audio en Redis. Si no, in-memory.
	Redis *goredis.Client

	Logger  logger.Logger
	Metrics *metrics.Collector

	// Context corta los loops de alarma al apagar el server.
	Context  context.Context
	Location *time.Location
	Now      func() time.Time

	PollInterval time.Duration
	DueWindow    time.Duration
	Breaker      alarms.BreakerSettings
}

// Router es el handler HTTP más el registry de loops, que main apaga al salir.
type Router struct {
	http.Handler
	Alarms *alarms.Registry
}

func NewRouter(opts Options) *Router {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(log, opts.Metrics))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		medRepo  medications.Repository
		doseRepo doses.Repository
		prefs    alarms.Preferences
	)
	if opts.DB != nil {
		medRepo = pg.NewMedicationsRepo(opts.DB)
		doseRepo = pg.NewDosesRepo(opts.DB)
	} else {
		medRepo = mem.NewMedicationRepo()
		doseRepo = mem.NewDoseRepo()
	}
	if opts.Redis != nil {
		prefs = rds.NewPreferenceStore(opts.Redis, "")
	} else {
		prefs = mem.NewPreferenceStore()
	}

	// Services por módulo
	doseSvc := doses.NewService(doseRepo)
	medSvc := medications.NewService(medRepo, doseRepo, medications.Options{
		Logger:   log,
		Metrics:  opts.Metrics,
		Location: opts.Location,
		Now:      opts.Now,
	})

	store := alarms.WithBreaker(doseSvc, "dose-store", opts.Breaker, log)
	registry := alarms.NewRegistry(ctx, func(subjectID string) (*alarms.Loop, error) {
		return alarms.NewLoop(alarms.Options{
			SubjectID:    subjectID,
			Store:        store,
			Medications:  medSvc,
			Preferences:  prefs,
			Logger:       log,
			Metrics:      opts.Metrics,
			PollInterval: opts.PollInterval,
			DueWindow:    opts.DueWindow,
			Now:          opts.Now,
		})
	})

	// Rutas por módulo
	doses.RegisterRoutes(r, doseSvc)
	medications.RegisterRoutes(r, medSvc, doseSvc)
	alarms.RegisterRoutes(r, registry)

	return &Router{Handler: r, Alarms: registry}
}
