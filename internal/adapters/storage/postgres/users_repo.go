package postgres

import (
	"context"
	"database/sql"
	"strings"

	"farm-traceability/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, username, email, full_name, phone, role,
	password_hash,
	notify_anomalies, notify_movements, notify_weekly,
	created_at, updated_at
`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		u.ID,
		u.Username,
		u.Email,
		u.FullName,
		u.Phone,
		u.Role,
		u.PasswordHash,
		u.Notifications.AnomalyAlerts,
		u.Notifications.MovementAlerts,
		u.Notifications.WeeklySummary,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, full_name = $3, phone = $4, role = $5,
		    password_hash = $6,
		    notify_anomalies = $7, notify_movements = $8, notify_weekly = $9,
		    updated_at = $10
		WHERE id = $1
	`,
		u.ID,
		u.Email,
		u.FullName,
		u.Phone,
		u.Role,
		u.PasswordHash,
		u.Notifications.AnomalyAlerts,
		u.Notifications.MovementAlerts,
		u.Notifications.WeeklySummary,
		u.UpdatedAt,
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

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	return r.getBy(ctx, "id", strings.TrimSpace(id))
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	return r.getBy(ctx, "username", strings.TrimSpace(username))
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	return r.getBy(ctx, "email", strings.TrimSpace(email))
}

func (r *UsersRepo) getBy(ctx context.Context, column, value string) (users.User, error) {
	if value == "" {
		return users.User{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE `+column+` = $1
	`, value)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return users.User{}, ErrNotFound
	}
	return u, err
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.Phone,
		&u.Role,
		&u.PasswordHash,
		&u.Notifications.AnomalyAlerts,
		&u.Notifications.MovementAlerts,
		&u.Notifications.WeeklySummary,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return users.User{}, err
	}
	return u, nil
}
