package memory

import (
	"context"
	"errors"
	"sort"

	"farm-traceability/internal/domain/facilities"
)

type facilityRepo struct {
	s *Store
}

func (r *facilityRepo) Create(ctx context.Context, f facilities.Facility) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if f.ID == "" {
		return errors.New("facility id required")
	}
	if _, exists := r.s.facilities[f.ID]; exists {
		return errors.New("facility already exists")
	}

	r.s.facilities[f.ID] = f
	return nil
}

func (r *facilityRepo) Update(ctx context.Context, f facilities.Facility) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.facilities[f.ID]; !ok {
		return ErrNotFound
	}
	r.s.facilities[f.ID] = f
	return nil
}

func (r *facilityRepo) GetByID(ctx context.Context, id string) (facilities.Facility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.facilities[id]
	if !ok {
		return facilities.Facility{}, ErrNotFound
	}
	return f, nil
}

func (r *facilityRepo) List(ctx context.Context) ([]facilities.Facility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]facilities.Facility, 0, len(r.s.facilities))
	for _, f := range r.s.facilities {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *facilityRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.facilities[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.facilities, id)
	return nil
}

func (r *facilityRepo) Referenced(ctx context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.animals {
		if a.FacilityID == id {
			return true, nil
		}
	}
	for _, e := range r.s.events {
		if e.FacilityID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *facilityRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.facilities), nil
}
