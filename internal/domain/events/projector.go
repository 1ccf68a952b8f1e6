package events

import (
	"context"
	"time"
)

// AnimalRef es lo mínimo que el motor necesita saber del módulo animals:
// el estado base sobre el que se hace el fold.
//
// OriginFacilityID es la instalación AL ALTA, no el cache custodial actual:
// sembrar el fold desde el cache haría que la proyección histórica dependa
// de los transfers ya aplicados en vez del log.
type AnimalRef struct {
	ID               string
	OriginFacilityID string
	OwnerID          string
	RegisteredAt     time.Time
}

// AnimalDirectory resuelve un animal. Lo implementa el módulo animals
// (cableado en el router).
type AnimalDirectory interface {
	Lookup(ctx context.Context, animalID string) (AnimalRef, error)
}

// Projector reconstruye el estado custodial de un animal a un punto en el
// tiempo, haciendo fold del log de eventos VÁLIDOS hasta ese timestamp.
//
// Es función pura del log persistido: mismas entradas => mismo resultado,
// sin importar el orden de llamadas. Esa propiedad es la que hace seguro
// validar eventos que llegan tarde (out-of-order) contra el estado a su
// propio timestamp.
type Projector struct {
	repo Repository
	dir  AnimalDirectory
	cfg  Config
}

func NewProjector(repo Repository, dir AnimalDirectory, cfg Config) *Projector {
	return &Projector{repo: repo, dir: dir, cfg: cfg}
}

// ProjectState calcula el snapshot del animal a `asOf`.
func (p *Projector) ProjectState(ctx context.Context, animalID string, asOf time.Time) (Snapshot, error) {
	ref, err := p.dir.Lookup(ctx, animalID)
	if err != nil {
		return Snapshot{}, err
	}
	return p.project(ctx, ref, asOf)
}

func (p *Projector) project(ctx context.Context, ref AnimalRef, asOf time.Time) (Snapshot, error) {
	snap := Snapshot{
		AnimalID:       ref.ID,
		FacilityID:     ref.OriginFacilityID,
		OwnerID:        ref.OwnerID,
		LastLocationAt: ref.RegisteredAt,
		RegisteredAt:   ref.RegisteredAt,
		AsOf:           asOf,
	}

	log, err := p.repo.ListByAnimal(ctx, ref.ID, ListFilter{
		Validity:  ValidityValid,
		To:        &asOf,
		Ascending: true,
	})
	if err != nil {
		return Snapshot{}, err
	}

	for _, e := range log {
		snap.LastEventID = e.ID
		if e.Type == EventTypeMovement && e.FacilityID != "" {
			snap.FacilityID = e.FacilityID
			snap.LastLocationAt = e.OccurredAt
		}
	}

	return snap, nil
}

// RecentEvents devuelve la ventana acotada de historia que miran las reglas:
// los últimos LookbackLimit eventos dentro de LookbackDays alrededor del
// candidato, válidos e inválidos: un duplicado de un evento inválido sigue
// siendo un duplicado.
func (p *Projector) RecentEvents(ctx context.Context, animalID string, around time.Time) ([]TraceEvent, error) {
	from := around.AddDate(0, 0, -p.cfg.LookbackDays)
	return p.repo.ListByAnimal(ctx, animalID, ListFilter{
		From:  &from,
		Limit: p.cfg.LookbackLimit,
	})
}
