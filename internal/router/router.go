package router

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	mem "farm-traceability/internal/adapters/storage/memory"
	pg "farm-traceability/internal/adapters/storage/postgres"
	"farm-traceability/internal/config"
	"farm-traceability/internal/domain/animals"
	"farm-traceability/internal/domain/auth"
	"farm-traceability/internal/domain/breeds"
	"farm-traceability/internal/domain/dashboard"
	"farm-traceability/internal/domain/documents"
	"farm-traceability/internal/domain/events"
	"farm-traceability/internal/domain/facilities"
	"farm-traceability/internal/domain/reports"
	"farm-traceability/internal/domain/users"
	"farm-traceability/internal/middleware"
	"farm-traceability/internal/platform/logger"
	"farm-traceability/internal/ports/alerts"
	portsauth "farm-traceability/internal/ports/auth"
	"farm-traceability/internal/ports/files"
	"farm-traceability/internal/ports/mail"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config config.Config
	Log    logger.Logger

	// AuthVerifier puede ser nil (modo dev: headers X-Debug-*).
	AuthVerifier portsauth.AuthVerifier
	TokenIssuer  portsauth.TokenIssuer

	// DB opcional: si viene (o hay DSN en config), usa Postgres; si no,
	// repos in-memory.
	DB *sql.DB

	Mailer    mail.Sender
	FileStore files.Store

	// Alerts opcional: webhook de anomalías.
	Alerts alerts.Notifier
}

func NewRouter(opts Options) (http.Handler, error) {
	cfg := opts.Config
	log := opts.Log
	if log == nil {
		log = logger.New(logger.Options{})
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		animalRepo   animals.Repository
		eventRepo    events.Repository
		facilityRepo facilities.Repository
		userRepo     users.Repository
		documentRepo documents.Repository
		breedRepo    breeds.Repository
	)

	db := opts.DB
	if db == nil && cfg.DBDSN != "" {
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		db = opened
	}

	if db != nil {
		animalRepo = pg.NewAnimalsRepo(db)
		eventRepo = pg.NewEventsRepo(db)
		facilityRepo = pg.NewFacilitiesRepo(db)
		userRepo = pg.NewUsersRepo(db)
		documentRepo = pg.NewDocumentsRepo(db)
		breedRepo = pg.NewBreedsRepo(db)
	} else {
		store := mem.NewStore()
		animalRepo = store.Animals()
		eventRepo = store.Events()
		facilityRepo = store.Facilities()
		userRepo = store.Users()
		documentRepo = store.Documents()
		breedRepo = mem.NewBreedRepo(nil)
	}

	// Services por módulo
	animalsSvc := animals.NewService(animalRepo)
	facilitiesSvc := facilities.NewService(facilityRepo)
	usersSvc := users.NewService(userRepo)
	breedsSvc := breeds.NewService(breedRepo)
	documentsSvc := documents.NewService(documentRepo, opts.FileStore)
	authSvc := auth.NewService(usersSvc, opts.TokenIssuer, opts.Mailer, cfg.ResetTokenTTL)

	eventsSvc, err := events.NewService(
		eventRepo,
		animalDirectory{animalsSvc},
		events.Config{
			MaxSpeedKmh:        cfg.MaxSpeedKmh,
			DuplicateTolerance: cfg.DuplicateTolerance,
			LookbackDays:       cfg.LookbackDays,
			LookbackLimit:      cfg.LookbackLimit,
		},
		events.Options{
			Geo:    facilitiesSvc,
			Alerts: opts.Alerts,
			Log:    log,
		},
	)
	if err != nil {
		return nil, err
	}

	dashboardSvc := dashboard.NewService(
		animalRepo,
		facilityStats{repo: facilityRepo, names: facilitiesSvc},
		eventRepo,
	)
	reportsSvc := reports.NewService(animalsSvc, eventRepo, facilitiesSvc, cfg.PublicBaseURL)

	// Rutas por módulo
	auth.RegisterRoutes(r, authSvc)
	animals.RegisterRoutes(r, animalsSvc)
	facilities.RegisterRoutes(r, facilitiesSvc)
	events.RegisterRoutes(r, eventsSvc, facilitiesSvc)
	users.RegisterRoutes(r, usersSvc)
	breeds.RegisterRoutes(r, breedsSvc)
	documents.RegisterRoutes(r, documentsSvc)
	dashboard.RegisterRoutes(r, dashboardSvc)
	reports.RegisterRoutes(r, reportsSvc)

	return r, nil
}

// animalDirectory adapta el servicio de animales al directorio que consume
// el motor de eventos.
type animalDirectory struct {
	svc *animals.Service
}

func (d animalDirectory) Lookup(ctx context.Context, animalID string) (events.AnimalRef, error) {
	a, err := d.svc.GetByID(ctx, animalID)
	if err != nil {
		if errors.Is(err, animals.ErrNotFound) || errors.Is(err, mem.ErrNotFound) || errors.Is(err, pg.ErrNotFound) {
			return events.AnimalRef{}, events.ErrNotFound
		}
		return events.AnimalRef{}, err
	}
	return events.AnimalRef{
		ID:               a.ID,
		OriginFacilityID: a.OriginFacilityID,
		OwnerID:          a.OwnerID,
		RegisteredAt:     a.DateAdded,
	}, nil
}

// facilityStats junta el conteo del repositorio con el resolver de nombres
// para el dashboard.
type facilityStats struct {
	repo  facilities.Repository
	names *facilities.Service
}

func (f facilityStats) Count(ctx context.Context) (int, error) {
	return f.repo.Count(ctx)
}

func (f facilityStats) FacilityName(ctx context.Context, facilityID string) (string, error) {
	return f.names.FacilityName(ctx, facilityID)
}
