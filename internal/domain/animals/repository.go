package animals

import "context"

type Repository interface {
	Create(ctx context.Context, a Animal) error
	Update(ctx context.Context, a Animal) error
	GetByID(ctx context.Context, id string) (Animal, error)
	List(ctx context.Context) ([]Animal, error)

	// Delete borra el animal y, con cascade, su log de eventos.
	Delete(ctx context.Context, id string, cascade bool) error

	// HasEvents reporta si hay eventos que referencian al animal.
	HasEvents(ctx context.Context, id string) (bool, error)

	Count(ctx context.Context) (int, error)
	CountByFacility(ctx context.Context) (map[string]int, error)
	CountBySpecies(ctx context.Context) (map[string]int, error)
}
