package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"farm-traceability/internal/platform/logger"
	"farm-traceability/internal/ports/alerts"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// GeoResolver resuelve distancia entre dos instalaciones.
// ok == false cuando alguna no tiene coordenadas (la regla de velocidad se
// salta, no falla).
type GeoResolver interface {
	Distance(ctx context.Context, fromFacilityID, toFacilityID string) (km float64, ok bool, err error)
}

// Service orquesta validación + persistencia de un evento candidato.
//
// Envíos concurrentes para el MISMO animal se serializan con un mutex por
// animal que cubre snapshot -> validación -> persistencia -> transfer;
// animales distintos avanzan en paralelo. El adapter de Postgres además
// envuelve append+update en una transacción con row lock.
type Service struct {
	repo      Repository
	dir       AnimalDirectory
	geo       GeoResolver
	alerts    alerts.Notifier
	projector *Projector
	transfers *Coordinator
	rules     *RuleSet
	log       logger.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*animalLock
}

// animalLock es un mutex por animal con refcount: la entrada se borra del
// mapa cuando nadie la espera, así el mapa no crece con cada animal visto.
type animalLock struct {
	mu   sync.Mutex
	refs int
}

type Options struct {
	// Geo es opcional: sin resolver, la regla de velocidad se salta.
	Geo GeoResolver

	// Alerts es opcional: notificación best-effort de anomalías.
	Alerts alerts.Notifier

	Log logger.Logger
}

func NewService(repo Repository, dir AnimalDirectory, cfg Config, opts Options) (*Service, error) {
	rules, err := NewRuleSet(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:      repo,
		dir:       dir,
		geo:       opts.Geo,
		alerts:    opts.Alerts,
		projector: NewProjector(repo, dir, cfg),
		transfers: NewCoordinator(repo),
		rules:     rules,
		log:       opts.Log,
		now:       time.Now,
		locks:     make(map[string]*animalLock),
	}, nil
}

// Submit valida y persiste un candidato. El evento se persiste SIEMPRE,
// también con veredicto inválido (queda para auditoría); el estado del
// animal solo muta en movimientos válidos.
func (s *Service) Submit(ctx context.Context, c Candidate) (TraceEvent, error) {
	c.AnimalID = strings.TrimSpace(c.AnimalID)
	c.FacilityID = strings.TrimSpace(c.FacilityID)
	c.ActorID = strings.TrimSpace(c.ActorID)

	if c.AnimalID == "" || c.Type == "" || c.OccurredAt.IsZero() {
		return TraceEvent{}, ErrInvalidInput
	}

	lock := s.lockFor(c.AnimalID)
	defer s.unlock(c.AnimalID, lock)

	ref, err := s.dir.Lookup(ctx, c.AnimalID)
	if err != nil {
		return TraceEvent{}, err
	}

	// Snapshot al timestamp del PROPIO candidato: un evento tardío se
	// valida contra el estado de entonces, no contra el head actual.
	snap, err := s.projector.project(ctx, ref, c.OccurredAt)
	if err != nil {
		return TraceEvent{}, err
	}

	recent, err := s.projector.RecentEvents(ctx, c.AnimalID, c.OccurredAt)
	if err != nil {
		return TraceEvent{}, err
	}

	verdict := s.rules.Evaluate(Input{
		Candidate:  c,
		Snapshot:   snap,
		Recent:     recent,
		DistanceKm: s.resolveDistance(ctx, snap, c),
	})

	e := TraceEvent{
		ID:            uuid.NewString(),
		AnimalID:      c.AnimalID,
		Type:          c.Type,
		ActorID:       c.ActorID,
		FacilityID:    c.FacilityID,
		OccurredAt:    c.OccurredAt,
		RecordedAt:    s.now(),
		Metadata:      strings.TrimSpace(c.Metadata),
		IsValid:       verdict.IsValid,
		AnomalyReason: verdict.Reason,
	}

	if e.IsValid && e.Type == EventTypeMovement && e.FacilityID != "" {
		err = s.transfers.ApplyMovement(ctx, e)
	} else {
		err = s.repo.Append(ctx, e, nil)
	}
	if err != nil {
		return TraceEvent{}, err
	}

	if !e.IsValid {
		s.notifyAnomaly(ctx, e)
	}

	return e, nil
}

// CurrentState proyecta el estado custodial actual del animal. Un fallo de
// infraestructura se propaga tal cual: solo el animal inexistente es
// ErrNotFound.
func (s *Service) CurrentState(ctx context.Context, animalID string) (Snapshot, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return Snapshot{}, ErrInvalidInput
	}
	return s.projector.ProjectState(ctx, animalID, s.now())
}

// ProjectState expone la proyección a un punto arbitrario en el tiempo.
func (s *Service) ProjectState(ctx context.Context, animalID string, asOf time.Time) (Snapshot, error) {
	return s.projector.ProjectState(ctx, animalID, asOf)
}

// MovementHistory devuelve los movimientos aceptados en orden cronológico.
func (s *Service) MovementHistory(ctx context.Context, animalID string) ([]TraceEvent, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByAnimal(ctx, animalID, ListFilter{
		Types:     []EventType{EventTypeMovement},
		Validity:  ValidityValid,
		Ascending: true,
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (TraceEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return TraceEvent{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string, f ListFilter) ([]TraceEvent, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.repo.ListByAnimal(ctx, animalID, f)
}

// lockFor toma el lock del animal; se libera con unlock, que además poda la
// entrada cuando el último holder sale.
func (s *Service) lockFor(animalID string) *animalLock {
	s.mu.Lock()
	l, ok := s.locks[animalID]
	if !ok {
		l = &animalLock{}
		s.locks[animalID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return l
}

func (s *Service) unlock(animalID string, l *animalLock) {
	l.mu.Unlock()

	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, animalID)
	}
	s.mu.Unlock()
}

func (s *Service) resolveDistance(ctx context.Context, snap Snapshot, c Candidate) *float64 {
	if s.geo == nil || c.FacilityID == "" || snap.FacilityID == "" {
		return nil
	}
	if c.FacilityID == snap.FacilityID {
		zero := 0.0
		return &zero
	}
	km, ok, err := s.geo.Distance(ctx, snap.FacilityID, c.FacilityID)
	if err != nil || !ok {
		// Sin distancia la regla se salta; no es un fallo del envío.
		return nil
	}
	return &km
}

func (s *Service) notifyAnomaly(ctx context.Context, e TraceEvent) {
	if s.alerts == nil {
		return
	}
	err := s.alerts.NotifyAnomaly(ctx, alerts.Anomaly{
		EventID:    e.ID,
		AnimalID:   e.AnimalID,
		EventType:  string(e.Type),
		FacilityID: e.FacilityID,
		OccurredAt: e.OccurredAt,
		Reason:     e.AnomalyReason,
	})
	if err != nil && s.log != nil {
		s.log.Warn("anomaly alert failed", map[string]any{
			"event_id": e.ID,
			"error":    err.Error(),
		})
	}
}
