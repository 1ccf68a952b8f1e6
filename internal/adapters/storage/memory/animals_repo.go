package memory

import (
	"context"
	"errors"
	"sort"

	"farm-traceability/internal/domain/animals"
)

type animalRepo struct {
	s *Store
}

func (r *animalRepo) Create(ctx context.Context, a animals.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a.ID == "" {
		return errors.New("animal id required")
	}
	if _, exists := r.s.animals[a.ID]; exists {
		return errors.New("animal already exists")
	}

	r.s.animals[a.ID] = a
	return nil
}

func (r *animalRepo) Update(ctx context.Context, a animals.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.animals[a.ID]
	if !ok {
		return ErrNotFound
	}
	// Paridad con el adapter de Postgres: facility_id y origin_facility_id
	// no se escriben por este camino.
	a.FacilityID = cur.FacilityID
	a.OriginFacilityID = cur.OriginFacilityID
	r.s.animals[a.ID] = a
	return nil
}

func (r *animalRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.animals[id]
	if !ok {
		return animals.Animal{}, ErrNotFound
	}
	return a, nil
}

func (r *animalRepo) List(ctx context.Context) ([]animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]animals.Animal, 0, len(r.s.animals))
	for _, a := range r.s.animals {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *animalRepo) Delete(ctx context.Context, id string, cascade bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.animals[id]; !ok {
		return ErrNotFound
	}

	if cascade {
		for eid, e := range r.s.events {
			if e.AnimalID == id {
				delete(r.s.events, eid)
			}
		}
	}

	delete(r.s.animals, id)
	return nil
}

func (r *animalRepo) HasEvents(ctx context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.events {
		if e.AnimalID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *animalRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.animals), nil
}

func (r *animalRepo) CountByFacility(ctx context.Context) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]int)
	for _, a := range r.s.animals {
		out[a.FacilityID]++
	}
	return out, nil
}

func (r *animalRepo) CountBySpecies(ctx context.Context) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]int)
	for _, a := range r.s.animals {
		out[a.Species]++
	}
	return out, nil
}
