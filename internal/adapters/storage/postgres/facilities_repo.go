package postgres

import (
	"context"
	"database/sql"
	"strings"

	"farm-traceability/internal/domain/facilities"
)

type FacilitiesRepo struct {
	db *sql.DB
}

func NewFacilitiesRepo(db *sql.DB) *FacilitiesRepo {
	return &FacilitiesRepo{db: db}
}

const facilityColumns = `
	id, name, location, facility_type,
	latitude, longitude,
	created_at, updated_at
`

func (r *FacilitiesRepo) Create(ctx context.Context, f facilities.Facility) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO facilities (`+facilityColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		f.ID,
		f.Name,
		f.Location,
		f.Type,
		f.Latitude,
		f.Longitude,
		f.CreatedAt,
		f.UpdatedAt,
	)
	return err
}

func (r *FacilitiesRepo) Update(ctx context.Context, f facilities.Facility) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE facilities
		SET name = $2, location = $3, facility_type = $4,
		    latitude = $5, longitude = $6, updated_at = $7
		WHERE id = $1
	`,
		f.ID,
		f.Name,
		f.Location,
		f.Type,
		f.Latitude,
		f.Longitude,
		f.UpdatedAt,
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

func (r *FacilitiesRepo) GetByID(ctx context.Context, id string) (facilities.Facility, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return facilities.Facility{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+facilityColumns+`
		FROM facilities
		WHERE id = $1
	`, id)

	f, err := scanFacility(row)
	if err == sql.ErrNoRows {
		return facilities.Facility{}, ErrNotFound
	}
	return f, err
}

func (r *FacilitiesRepo) List(ctx context.Context) ([]facilities.Facility, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+facilityColumns+`
		FROM facilities
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]facilities.Facility, 0)
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FacilitiesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM facilities WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FacilitiesRepo) Referenced(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM animals WHERE facility_id = $1)
		    OR EXISTS (SELECT 1 FROM trace_events WHERE facility_id = $1)
	`, id).Scan(&exists)
	return exists, err
}

func (r *FacilitiesRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facilities`).Scan(&n)
	return n, err
}

func scanFacility(row rowScanner) (facilities.Facility, error) {
	var f facilities.Facility
	var lat, lon sql.NullFloat64

	if err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Location,
		&f.Type,
		&lat,
		&lon,
		&f.CreatedAt,
		&f.UpdatedAt,
	); err != nil {
		return facilities.Facility{}, err
	}

	if lat.Valid {
		f.Latitude = &lat.Float64
	}
	if lon.Valid {
		f.Longitude = &lon.Float64
	}
	return f, nil
}
