package memory

import (
	"context"
	"errors"
	"sort"

	"farm-traceability/internal/domain/users"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u.ID == "" {
		return errors.New("user id required")
	}
	if _, exists := r.s.users[u.ID]; exists {
		return errors.New("user already exists")
	}

	r.s.users[u.ID] = u
	return nil
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.ID]; !ok {
		return ErrNotFound
	}
	r.s.users[u.ID] = u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return users.User{}, ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return users.User{}, ErrNotFound
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return users.User{}, ErrNotFound
}

func (r *userRepo) List(ctx context.Context) ([]users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]users.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}
