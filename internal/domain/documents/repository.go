package documents

import "context"

type Repository interface {
	Create(ctx context.Context, d Document) error
	GetByID(ctx context.Context, id string) (Document, error)

	// ListByAnimal devuelve los documentos de un animal, más recientes
	// primero. docType vacío = todos.
	ListByAnimal(ctx context.Context, animalID, docType string) ([]Document, error)

	Delete(ctx context.Context, id string) error
}
