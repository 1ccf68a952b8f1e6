package memory

import (
	"context"
	"errors"
	"sort"

	"farm-traceability/internal/domain/documents"
)

type documentRepo struct {
	s *Store
}

func (r *documentRepo) Create(ctx context.Context, d documents.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if d.ID == "" {
		return errors.New("document id required")
	}
	if _, exists := r.s.documents[d.ID]; exists {
		return errors.New("document already exists")
	}

	r.s.documents[d.ID] = d
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.documents[id]
	if !ok {
		return documents.Document{}, ErrNotFound
	}
	return d, nil
}

func (r *documentRepo) ListByAnimal(ctx context.Context, animalID, docType string) ([]documents.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]documents.Document, 0)
	for _, d := range r.s.documents {
		if d.AnimalID != animalID {
			continue
		}
		if docType != "" && d.DocType != docType {
			continue
		}
		out = append(out, d)
	}

	// Más reciente primero.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *documentRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.documents[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.documents, id)
	return nil
}
