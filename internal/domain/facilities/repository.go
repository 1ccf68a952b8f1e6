package facilities

import "context"

type Repository interface {
	Create(ctx context.Context, f Facility) error
	Update(ctx context.Context, f Facility) error
	GetByID(ctx context.Context, id string) (Facility, error)
	List(ctx context.Context) ([]Facility, error)
	Delete(ctx context.Context, id string) error

	// Referenced reporta si algún animal o evento apunta a la instalación.
	Referenced(ctx context.Context, id string) (bool, error)

	Count(ctx context.Context) (int, error)
}
