package events

// EventType es un set abierto: se aceptan tipos fuera de este catálogo,
// las constantes solo cubren los tipos que el sistema conoce.
type EventType string

const (
	EventTypeBirth       EventType = "birth"
	EventTypeVaccination EventType = "vaccination"
	EventTypeWeighing    EventType = "weighing"
	EventTypeMovement    EventType = "movement"
	EventTypeHealthCheck EventType = "health_check"
	EventTypeFeeding     EventType = "feeding"
	EventTypeMedication  EventType = "medication"
	EventTypeBreeding    EventType = "breeding"
	EventTypeSale        EventType = "sale"
	EventTypeSlaughter   EventType = "slaughter"
)

// Validity filtra por el veredicto almacenado.
type Validity string

const (
	ValidityAny     Validity = "all"
	ValidityValid   Validity = "valid"
	ValidityInvalid Validity = "anomaly"
)
