package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"farm-traceability/internal/domain/breeds"
)

type BreedsRepo struct {
	db *sql.DB
}

func NewBreedsRepo(db *sql.DB) *BreedsRepo {
	return &BreedsRepo{db: db}
}

const breedColumns = `
	id, breed_name, specie, country, iso3,
	language, description, transboundary_name, other_name
`

func (r *BreedsRepo) List(ctx context.Context, f breeds.Filter) ([]breeds.Breed, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT ` + breedColumns + `
		FROM breeds
		WHERE 1=1
	`)

	args := []any{}
	argN := 1

	if f.Specie != "" {
		sb.WriteString(fmt.Sprintf(" AND LOWER(specie) = LOWER($%d)", argN))
		args = append(args, f.Specie)
		argN++
	}
	if f.Country != "" {
		sb.WriteString(fmt.Sprintf(" AND LOWER(country) = LOWER($%d)", argN))
		args = append(args, f.Country)
		argN++
	}
	if f.Search != "" {
		sb.WriteString(fmt.Sprintf(" AND (breed_name ILIKE $%d OR transboundary_name ILIKE $%d OR other_name ILIKE $%d)", argN, argN, argN))
		args = append(args, "%"+f.Search+"%")
		argN++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	sb.WriteString(" ORDER BY breed_name ASC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]breeds.Breed, 0)
	for rows.Next() {
		b, err := scanBreed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BreedsRepo) GetByID(ctx context.Context, id string) (breeds.Breed, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return breeds.Breed{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+breedColumns+`
		FROM breeds
		WHERE id = $1
	`, id)

	b, err := scanBreed(row)
	if err == sql.ErrNoRows {
		return breeds.Breed{}, ErrNotFound
	}
	return b, err
}

func (r *BreedsRepo) Species(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "specie")
}

func (r *BreedsRepo) Countries(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "country")
}

func (r *BreedsRepo) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT `+column+`
		FROM breeds
		WHERE `+column+` <> ''
		ORDER BY `+column+` ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanBreed(row rowScanner) (breeds.Breed, error) {
	var b breeds.Breed
	var lang, desc, tbName, otherName sql.NullString

	if err := row.Scan(
		&b.ID,
		&b.BreedName,
		&b.Specie,
		&b.Country,
		&b.ISO3,
		&lang,
		&desc,
		&tbName,
		&otherName,
	); err != nil {
		return breeds.Breed{}, err
	}

	b.Language = lang.String
	b.Description = desc.String
	b.TransboundaryName = tbName.String
	b.OtherName = otherName.String
	return b, nil
}
