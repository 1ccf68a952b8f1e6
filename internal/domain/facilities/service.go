package facilities

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrReferenced   = errors.New("facility is referenced")
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
	Name      string
	Location  string
	Type      string
	Latitude  *float64
	Longitude *float64
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Facility, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Facility{}, ErrInvalidInput
	}
	if err := validateCoords(in.Latitude, in.Longitude); err != nil {
		return Facility{}, err
	}

	now := s.now()
	f := Facility{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Location:  strings.TrimSpace(in.Location),
		Type:      strings.TrimSpace(in.Type),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return Facility{}, err
	}
	return f, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Facility, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Facility, error) {
	return s.repo.List(ctx)
}

type UpdateInput struct {
	Name      *string
	Location  *string
	Type      *string
	Latitude  *float64
	Longitude *float64
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Facility, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Facility{}, ErrInvalidInput
	}

	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Facility{}, ErrNotFound
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Facility{}, ErrInvalidInput
		}
		f.Name = strings.TrimSpace(*in.Name)
	}
	if in.Location != nil {
		f.Location = strings.TrimSpace(*in.Location)
	}
	if in.Type != nil {
		f.Type = strings.TrimSpace(*in.Type)
	}
	if in.Latitude != nil {
		f.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		f.Longitude = in.Longitude
	}
	if err := validateCoords(f.Latitude, f.Longitude); err != nil {
		return Facility{}, err
	}
	f.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, f); err != nil {
		return Facility{}, err
	}
	return f, nil
}

// Delete rechaza borrar instalaciones referenciadas por animales o eventos:
// la política es no dejar eventos huérfanos en silencio.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return ErrNotFound
	}

	referenced, err := s.repo.Referenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return ErrReferenced
	}

	return s.repo.Delete(ctx, id)
}

// FacilityName implementa el resolver de nombres que usa el historial de
// movimientos.
func (s *Service) FacilityName(ctx context.Context, facilityID string) (string, error) {
	f, err := s.repo.GetByID(ctx, facilityID)
	if err != nil {
		return "", ErrNotFound
	}
	return f.Name, nil
}

// Distance implementa el resolver de distancias del motor de eventos:
// línea recta (haversine) entre coordenadas. ok == false cuando alguna
// instalación no tiene coordenadas.
func (s *Service) Distance(ctx context.Context, fromID, toID string) (float64, bool, error) {
	from, err := s.repo.GetByID(ctx, fromID)
	if err != nil {
		return 0, false, ErrNotFound
	}
	to, err := s.repo.GetByID(ctx, toID)
	if err != nil {
		return 0, false, ErrNotFound
	}

	if from.Latitude == nil || from.Longitude == nil || to.Latitude == nil || to.Longitude == nil {
		return 0, false, nil
	}

	km := haversineKm(*from.Latitude, *from.Longitude, *to.Latitude, *to.Longitude)
	return km, true, nil
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func validateCoords(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return ErrInvalidInput
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return ErrInvalidInput
	}
	return nil
}
