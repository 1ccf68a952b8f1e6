package animals

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrHasEvents    = errors.New("animal has events")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name       string
	Species    string
	BreedID    string
	TagID      string
	FacilityID string
	OwnerID    string
	DateAdded  *time.Time
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Animal, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Animal{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Species) == "" {
		return Animal{}, ErrInvalidInput
	}

	now := s.now()
	dateAdded := now
	if in.DateAdded != nil {
		dateAdded = *in.DateAdded
	}

	a := Animal{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(in.Name),
		Species:          strings.TrimSpace(in.Species),
		BreedID:          strings.TrimSpace(in.BreedID),
		TagID:            strings.TrimSpace(in.TagID),
		FacilityID:       strings.TrimSpace(in.FacilityID),
		OriginFacilityID: strings.TrimSpace(in.FacilityID),
		OwnerID:          strings.TrimSpace(in.OwnerID),
		DateAdded:        dateAdded,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Animal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Animal, error) {
	return s.repo.List(ctx)
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar. FacilityID no está acá a
	// propósito: la custodia solo muta vía eventos de movimiento.
	Name    *string
	Species *string
	BreedID *string
	TagID   *string
	OwnerID *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Animal{}, ErrInvalidInput
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Animal{}, ErrNotFound
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Animal{}, ErrInvalidInput
		}
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Species != nil {
		if strings.TrimSpace(*in.Species) == "" {
			return Animal{}, ErrInvalidInput
		}
		a.Species = strings.TrimSpace(*in.Species)
	}
	if in.BreedID != nil {
		a.BreedID = strings.TrimSpace(*in.BreedID)
	}
	if in.TagID != nil {
		a.TagID = strings.TrimSpace(*in.TagID)
	}
	if in.OwnerID != nil {
		a.OwnerID = strings.TrimSpace(*in.OwnerID)
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

// Delete borra el animal. Si tiene eventos, requiere cascade explícito:
// borrar historia de trazabilidad es una operación deliberada.
func (s *Service) Delete(ctx context.Context, id string, cascade bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return ErrNotFound
	}

	if !cascade {
		has, err := s.repo.HasEvents(ctx, id)
		if err != nil {
			return err
		}
		if has {
			return ErrHasEvents
		}
	}

	return s.repo.Delete(ctx, id, cascade)
}
