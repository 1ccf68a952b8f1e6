package postgres

import (
	"context"
	"database/sql"
	"strings"

	"farm-traceability/internal/domain/animals"
)

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

const animalColumns = `
	id, name, species,
	breed_id, tag_id, facility_id, origin_facility_id, owner_id,
	date_added, created_at, updated_at
`

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animals (`+animalColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		a.ID,
		a.Name,
		a.Species,
		nullString(a.BreedID),
		nullString(a.TagID),
		nullString(a.FacilityID),
		nullString(a.OriginFacilityID),
		nullString(a.OwnerID),
		a.DateAdded,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

// Update no toca facility_id ni origin_facility_id: la custodia solo muta
// vía Append con transfer y el origen es inmutable desde el alta.
func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animals
		SET name = $2, species = $3, breed_id = $4, tag_id = $5,
		    owner_id = $6, updated_at = $7
		WHERE id = $1
	`,
		a.ID,
		a.Name,
		a.Species,
		nullString(a.BreedID),
		nullString(a.TagID),
		nullString(a.OwnerID),
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Animal{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+animalColumns+`
		FROM animals
		WHERE id = $1
	`, id)

	a, err := scanAnimal(row)
	if err == sql.ErrNoRows {
		return animals.Animal{}, ErrNotFound
	}
	return a, err
}

func (r *AnimalsRepo) List(ctx context.Context) ([]animals.Animal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+animalColumns+`
		FROM animals
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) Delete(ctx context.Context, id string, cascade bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if cascade {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM trace_events WHERE animal_id = $1
		`, id); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (r *AnimalsRepo) HasEvents(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM trace_events WHERE animal_id = $1)
	`, id).Scan(&exists)
	return exists, err
}

func (r *AnimalsRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM animals`).Scan(&n)
	return n, err
}

func (r *AnimalsRepo) CountByFacility(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(facility_id, ''), COUNT(*)
		FROM animals
		GROUP BY facility_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) CountBySpecies(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT species, COUNT(*)
		FROM animals
		GROUP BY species
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var sp string
		var n int
		if err := rows.Scan(&sp, &n); err != nil {
			return nil, err
		}
		out[sp] = n
	}
	return out, rows.Err()
}

func scanAnimal(row rowScanner) (animals.Animal, error) {
	var a animals.Animal
	var breedID, tagID, facilityID, originFacilityID, ownerID sql.NullString

	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Species,
		&breedID,
		&tagID,
		&facilityID,
		&originFacilityID,
		&ownerID,
		&a.DateAdded,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return animals.Animal{}, err
	}

	a.BreedID = breedID.String
	a.TagID = tagID.String
	a.FacilityID = facilityID.String
	a.OriginFacilityID = originFacilityID.String
	a.OwnerID = ownerID.String
	return a, nil
}
