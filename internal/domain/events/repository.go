package events

import (
	"context"
	"time"
)

// Repository persiste el log de eventos.
//
// Append con transfer != nil debe ser atómico: o se insertan el evento y el
// nuevo facility del animal juntos, o ninguno. Las implementaciones serializan
// esa escritura contra el registro del animal (row lock en Postgres, mutex en
// memoria).
type Repository interface {
	Append(ctx context.Context, e TraceEvent, tr *Transfer) error
	GetByID(ctx context.Context, id string) (TraceEvent, error)

	// ListByAnimal ordena por OccurredAt (luego RecordedAt, luego ID).
	// Limit <= 0 significa sin límite (el fold necesita el log completo).
	ListByAnimal(ctx context.Context, animalID string, f ListFilter) ([]TraceEvent, error)

	// List es el listado global para auditoría (reportes del regulador).
	List(ctx context.Context, f AuditFilter) ([]TraceEvent, error)

	ListRecent(ctx context.Context, limit int) ([]TraceEvent, error)
	CountByValidity(ctx context.Context, since *time.Time) (total int, invalid int, err error)
	CountPerDay(ctx context.Context, since time.Time) ([]DayCount, error)
}

type ListFilter struct {
	Types     []EventType
	Validity  Validity // vacío => ValidityAny
	From      *time.Time
	To        *time.Time
	Ascending bool
	Limit     int
}

type AuditFilter struct {
	EventType  EventType
	Validity   Validity
	FacilityID string
	Limit      int
}
