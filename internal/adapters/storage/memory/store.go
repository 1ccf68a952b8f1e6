package memory

import (
	"errors"
	"sync"

	"farm-traceability/internal/domain/animals"
	"farm-traceability/internal/domain/documents"
	"farm-traceability/internal/domain/events"
	"farm-traceability/internal/domain/facilities"
	"farm-traceability/internal/domain/users"
)

var ErrNotFound = errors.New("not found")

// Store es el almacén en memoria compartido por todos los repositorios.
// Un solo mutex cubre animales y eventos: el Append con transfer muta las
// dos tablas bajo el mismo lock, igual que la transacción de Postgres.
type Store struct {
	mu sync.RWMutex

	animals    map[string]animals.Animal
	events     map[string]events.TraceEvent
	facilities map[string]facilities.Facility
	users      map[string]users.User
	documents  map[string]documents.Document
}

func NewStore() *Store {
	return &Store{
		animals:    make(map[string]animals.Animal),
		events:     make(map[string]events.TraceEvent),
		facilities: make(map[string]facilities.Facility),
		users:      make(map[string]users.User),
		documents:  make(map[string]documents.Document),
	}
}

func (s *Store) Animals() animals.Repository       { return &animalRepo{s: s} }
func (s *Store) Events() events.Repository         { return &eventRepo{s: s} }
func (s *Store) Facilities() facilities.Repository { return &facilityRepo{s: s} }
func (s *Store) Users() users.Repository           { return &userRepo{s: s} }
func (s *Store) Documents() documents.Repository   { return &documentRepo{s: s} }
