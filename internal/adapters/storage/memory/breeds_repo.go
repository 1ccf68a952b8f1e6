package memory

import (
	"context"
	"sort"
	"strings"

	"farm-traceability/internal/domain/breeds"
)

// breedRepo es un catálogo de solo lectura cargado al construirse; no
// participa del Store compartido.
type breedRepo struct {
	items []breeds.Breed
}

// NewBreedRepo arma el catálogo en memoria. Sin seed propio usa un
// subconjunto representativo del catálogo DAD-IS.
func NewBreedRepo(seed []breeds.Breed) breeds.Repository {
	if len(seed) == 0 {
		seed = defaultBreeds
	}
	items := make([]breeds.Breed, len(seed))
	copy(items, seed)
	sort.Slice(items, func(i, j int) bool { return items[i].BreedName < items[j].BreedName })
	return &breedRepo{items: items}
}

func (r *breedRepo) List(ctx context.Context, f breeds.Filter) ([]breeds.Breed, error) {
	out := make([]breeds.Breed, 0)
	search := strings.ToLower(f.Search)

	for _, b := range r.items {
		if f.Specie != "" && !strings.EqualFold(b.Specie, f.Specie) {
			continue
		}
		if f.Country != "" && !strings.EqualFold(b.Country, f.Country) {
			continue
		}
		if search != "" {
			hay := strings.ToLower(b.BreedName + " " + b.TransboundaryName + " " + b.OtherName)
			if !strings.Contains(hay, search) {
				continue
			}
		}
		out = append(out, b)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (r *breedRepo) GetByID(ctx context.Context, id string) (breeds.Breed, error) {
	for _, b := range r.items {
		if b.ID == id {
			return b, nil
		}
	}
	return breeds.Breed{}, ErrNotFound
}

func (r *breedRepo) Species(ctx context.Context) ([]string, error) {
	return r.distinct(func(b breeds.Breed) string { return b.Specie }), nil
}

func (r *breedRepo) Countries(ctx context.Context) ([]string, error) {
	return r.distinct(func(b breeds.Breed) string { return b.Country }), nil
}

func (r *breedRepo) distinct(key func(breeds.Breed) string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, b := range r.items {
		k := key(b)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var defaultBreeds = []breeds.Breed{
	{ID: "brd-001", BreedName: "Aberdeen-Angus", Specie: "cattle", Country: "Argentina", ISO3: "ARG", Language: "es", TransboundaryName: "Angus"},
	{ID: "brd-002", BreedName: "Hereford", Specie: "cattle", Country: "Argentina", ISO3: "ARG", Language: "es"},
	{ID: "brd-003", BreedName: "Holando-Argentino", Specie: "cattle", Country: "Argentina", ISO3: "ARG", Language: "es", TransboundaryName: "Holstein"},
	{ID: "brd-004", BreedName: "Braford", Specie: "cattle", Country: "Argentina", ISO3: "ARG", Language: "es"},
	{ID: "brd-005", BreedName: "Criollo Argentino", Specie: "cattle", Country: "Argentina", ISO3: "ARG", Language: "es", OtherName: "Criollo"},
	{ID: "brd-006", BreedName: "Nelore", Specie: "cattle", Country: "Brazil", ISO3: "BRA", Language: "pt"},
	{ID: "brd-007", BreedName: "Corriedale", Specie: "sheep", Country: "Uruguay", ISO3: "URY", Language: "es"},
	{ID: "brd-008", BreedName: "Merino Australiano", Specie: "sheep", Country: "Argentina", ISO3: "ARG", Language: "es", TransboundaryName: "Merino"},
	{ID: "brd-009", BreedName: "Texel", Specie: "sheep", Country: "Uruguay", ISO3: "URY", Language: "es"},
	{ID: "brd-010", BreedName: "Boer", Specie: "goat", Country: "Argentina", ISO3: "ARG", Language: "es"},
	{ID: "brd-011", BreedName: "Criolla Neuquina", Specie: "goat", Country: "Argentina", ISO3: "ARG", Language: "es"},
	{ID: "brd-012", BreedName: "Duroc", Specie: "pig", Country: "Argentina", ISO3: "ARG", Language: "es"},
	{ID: "brd-013", BreedName: "Landrace", Specie: "pig", Country: "Argentina", ISO3: "ARG", Language: "es"},
	{ID: "brd-014", BreedName: "Campero INTA", Specie: "chicken", Country: "Argentina", ISO3: "ARG", Language: "es"},
}
