package breeds

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("not found")

const defaultLimit = 100

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Breed, error) {
	f.Specie = strings.TrimSpace(f.Specie)
	f.Country = strings.TrimSpace(f.Country)
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = defaultLimit
	}
	return s.repo.List(ctx, f)
}

func (s *Service) GetByID(ctx context.Context, id string) (Breed, error) {
	b, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Breed{}, ErrNotFound
	}
	return b, nil
}

func (s *Service) Species(ctx context.Context) ([]string, error) {
	return s.repo.Species(ctx)
}

func (s *Service) Countries(ctx context.Context) ([]string, error) {
	return s.repo.Countries(ctx)
}
