package postgres

import (
	"context"
	"database/sql"
	"strings"

	"farm-traceability/internal/domain/documents"
)

type DocumentsRepo struct {
	db *sql.DB
}

func NewDocumentsRepo(db *sql.DB) *DocumentsRepo {
	return &DocumentsRepo{db: db}
}

const documentColumns = `
	id, animal_id, doc_type,
	file_name, content_type, size_bytes, storage_path,
	uploaded_by, uploaded_at
`

func (r *DocumentsRepo) Create(ctx context.Context, d documents.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		d.ID,
		d.AnimalID,
		d.DocType,
		d.FileName,
		d.ContentType,
		d.SizeBytes,
		d.StoragePath,
		nullString(d.UploadedBy),
		d.UploadedAt,
	)
	return err
}

func (r *DocumentsRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return documents.Document{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE id = $1
	`, id)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return documents.Document{}, ErrNotFound
	}
	return d, err
}

func (r *DocumentsRepo) ListByAnimal(ctx context.Context, animalID, docType string) ([]documents.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE animal_id = $1
	`
	args := []any{animalID}

	if docType != "" {
		query += " AND doc_type = $2"
		args = append(args, docType)
	}
	query += " ORDER BY uploaded_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]documents.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DocumentsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(row rowScanner) (documents.Document, error) {
	var d documents.Document
	var uploadedBy sql.NullString

	if err := row.Scan(
		&d.ID,
		&d.AnimalID,
		&d.DocType,
		&d.FileName,
		&d.ContentType,
		&d.SizeBytes,
		&d.StoragePath,
		&uploadedBy,
		&d.UploadedAt,
	); err != nil {
		return documents.Document{}, err
	}

	d.UploadedBy = uploadedBy.String
	return d, nil
}
