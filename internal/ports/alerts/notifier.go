package alerts

import (
	"context"
	"time"
)

// Anomaly es el payload que se publica cuando un evento queda marcado inválido.
type Anomaly struct {
	EventID    string    `json:"event_id"`
	AnimalID   string    `json:"animal_id"`
	EventType  string    `json:"event_type"`
	FacilityID string    `json:"facility_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Reason     string    `json:"reason"`
}

// Notifier avisa a sistemas externos (reguladores) sobre anomalías.
// Las notificaciones son best-effort: un fallo no afecta la persistencia
// del evento.
type Notifier interface {
	NotifyAnomaly(ctx context.Context, a Anomaly) error
}
