package breeds

import "context"

// Filter filtra el catálogo. Search matchea por nombre (incluye
// transboundary_name y other_name), case-insensitive.
type Filter struct {
	Specie  string
	Country string
	Search  string
	Limit   int
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]Breed, error)
	GetByID(ctx context.Context, id string) (Breed, error)
	Species(ctx context.Context) ([]string, error)
	Countries(ctx context.Context) ([]string, error)
}
