package events

import "context"

// Coordinator aplica el cambio de custodia implicado por un movimiento
// aceptado. El campo facility_id del animal es un cache del fold: solo se
// escribe por este camino, atómicamente junto al append del evento.
type Coordinator struct {
	repo Repository
}

func NewCoordinator(repo Repository) *Coordinator {
	return &Coordinator{repo: repo}
}

// ApplyMovement persiste el movimiento y actualiza el cache custodial solo
// si el evento es el movimiento válido más reciente del animal. Un
// movimiento tardío (OccurredAt anterior al head) entra al log como válido
// pero no pisa la custodia: el cache siempre refleja el fold a "ahora".
func (c *Coordinator) ApplyMovement(ctx context.Context, e TraceEvent) error {
	if e.Type != EventTypeMovement || e.FacilityID == "" || !e.IsValid {
		return ErrInvalidInput
	}

	head, err := c.repo.ListByAnimal(ctx, e.AnimalID, ListFilter{
		Types:    []EventType{EventTypeMovement},
		Validity: ValidityValid,
		Limit:    1,
	})
	if err != nil {
		return err
	}
	if len(head) > 0 && head[0].OccurredAt.After(e.OccurredAt) {
		return c.repo.Append(ctx, e, nil)
	}

	return c.repo.Append(ctx, e, &Transfer{
		AnimalID:     e.AnimalID,
		ToFacilityID: e.FacilityID,
		EventID:      e.ID,
	})
}
