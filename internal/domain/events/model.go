package events

import "time"

// TraceEvent es un evento de ciclo de vida ya persistido.
// El log por animal es append-only: una vez aceptado, un evento no se edita
// ni se reordena; el veredicto se fija al momento de la creación.
type TraceEvent struct {
	ID       string
	AnimalID string

	Type EventType

	// ActorID y FacilityID son opcionales.
	ActorID    string
	FacilityID string

	// OccurredAt es el timestamp declarado del evento; RecordedAt el de
	// inserción. Los empates de OccurredAt se desempatan por RecordedAt
	// y luego por ID (orden estable).
	OccurredAt time.Time
	RecordedAt time.Time

	Metadata string

	IsValid       bool
	AnomalyReason string // presente sólo si IsValid == false
}

// Candidate es un evento propuesto, aún sin veredicto ni ID.
type Candidate struct {
	AnimalID   string
	Type       EventType
	ActorID    string
	FacilityID string
	OccurredAt time.Time
	Metadata   string
}

// Snapshot es el estado custodial de un animal como resultado del fold del
// log de eventos válidos hasta AsOf.
type Snapshot struct {
	AnimalID   string
	FacilityID string
	OwnerID    string

	// LastEventID es el último evento válido aplicado en el fold ("" si
	// ninguno).
	LastEventID string

	// LastLocationAt: timestamp de la última ubicación conocida (último
	// movimiento válido, o el alta del animal).
	LastLocationAt time.Time

	RegisteredAt time.Time
	AsOf         time.Time
}

// Verdict es el resultado de la validación de un candidato.
type Verdict struct {
	IsValid bool
	Reason  string
}

// Transfer es el cambio de custodia implicado por un movimiento aceptado.
type Transfer struct {
	AnimalID     string
	ToFacilityID string
	EventID      string
}

// DayCount agrega eventos por día (dashboard / timeline).
type DayCount struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Total     int    `json:"total"`
	Anomalies int    `json:"anomalies"`
}
