package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"farm-traceability/internal/domain/events"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

const eventColumns = `
	id, animal_id,
	event_type, actor_id, facility_id,
	occurred_at, recorded_at,
	metadata,
	is_valid, anomaly_reason
`

// Append inserta el evento. Con transfer != nil, el insert y el cambio de
// custodia del animal van en la misma transacción, con row lock sobre el
// animal para serializar movimientos concurrentes.
func (r *EventsRepo) Append(ctx context.Context, e events.TraceEvent, tr *events.Transfer) error {
	if tr == nil {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO trace_events (`+eventColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, insertArgs(e)...)
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var animalID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM animals WHERE id = $1 FOR UPDATE
	`, tr.AnimalID).Scan(&animalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO trace_events (`+eventColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, insertArgs(e)...); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE animals
		SET facility_id = $2, updated_at = $3
		WHERE id = $1
	`, tr.AnimalID, tr.ToFacilityID, e.RecordedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func insertArgs(e events.TraceEvent) []any {
	return []any{
		e.ID,
		e.AnimalID,
		string(e.Type),
		nullString(e.ActorID),
		nullString(e.FacilityID),
		e.OccurredAt,
		e.RecordedAt,
		e.Metadata,
		e.IsValid,
		nullString(e.AnomalyReason),
	}
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (events.TraceEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return events.TraceEvent{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM trace_events
		WHERE id = $1
	`, id)

	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return events.TraceEvent{}, ErrNotFound
	}
	return e, err
}

func (r *EventsRepo) ListByAnimal(ctx context.Context, animalID string, f events.ListFilter) ([]events.TraceEvent, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT ` + eventColumns + `
		FROM trace_events
		WHERE animal_id = $1
	`)

	args := []any{animalID}
	argN := 2

	if len(f.Types) > 0 {
		placeholders := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(t))
			argN++
		}
		sb.WriteString(" AND event_type IN (" + strings.Join(placeholders, ",") + ")")
	}

	switch f.Validity {
	case events.ValidityValid:
		sb.WriteString(" AND is_valid")
	case events.ValidityInvalid:
		sb.WriteString(" AND NOT is_valid")
	}

	if f.From != nil {
		sb.WriteString(fmt.Sprintf(" AND occurred_at >= $%d", argN))
		args = append(args, *f.From)
		argN++
	}
	if f.To != nil {
		sb.WriteString(fmt.Sprintf(" AND occurred_at <= $%d", argN))
		args = append(args, *f.To)
		argN++
	}

	// Orden canónico del log; el desempate por recorded_at e id hace el
	// fold determinista.
	if f.Ascending {
		sb.WriteString(" ORDER BY occurred_at ASC, recorded_at ASC, id ASC")
	} else {
		sb.WriteString(" ORDER BY occurred_at DESC, recorded_at DESC, id DESC")
	}

	if f.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
		args = append(args, f.Limit)
	}

	return r.queryEvents(ctx, sb.String(), args...)
}

func (r *EventsRepo) List(ctx context.Context, f events.AuditFilter) ([]events.TraceEvent, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT ` + eventColumns + `
		FROM trace_events
		WHERE 1=1
	`)

	args := []any{}
	argN := 1

	if f.EventType != "" {
		sb.WriteString(fmt.Sprintf(" AND event_type = $%d", argN))
		args = append(args, string(f.EventType))
		argN++
	}
	switch f.Validity {
	case events.ValidityValid:
		sb.WriteString(" AND is_valid")
	case events.ValidityInvalid:
		sb.WriteString(" AND NOT is_valid")
	}
	if f.FacilityID != "" {
		sb.WriteString(fmt.Sprintf(" AND facility_id = $%d", argN))
		args = append(args, f.FacilityID)
		argN++
	}

	sb.WriteString(" ORDER BY occurred_at DESC, recorded_at DESC, id DESC")

	limit := f.Limit
	if limit <= 0 {
		limit = 1000
	}
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	return r.queryEvents(ctx, sb.String(), args...)
}

func (r *EventsRepo) ListRecent(ctx context.Context, limit int) ([]events.TraceEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM trace_events
		ORDER BY recorded_at DESC, id DESC
		LIMIT $1
	`, limit)
}

func (r *EventsRepo) CountByValidity(ctx context.Context, since *time.Time) (int, int, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT COUNT(*), COUNT(*) FILTER (WHERE NOT is_valid)
		FROM trace_events
	`)

	args := []any{}
	if since != nil {
		sb.WriteString(" WHERE occurred_at >= $1")
		args = append(args, *since)
	}

	var total, invalid int
	err := r.db.QueryRowContext(ctx, sb.String(), args...).Scan(&total, &invalid)
	return total, invalid, err
}

func (r *EventsRepo) CountPerDay(ctx context.Context, since time.Time) ([]events.DayCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			to_char(occurred_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT is_valid)
		FROM trace_events
		WHERE occurred_at >= $1
		GROUP BY day
		ORDER BY day ASC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.DayCount, 0)
	for rows.Next() {
		var dc events.DayCount
		if err := rows.Scan(&dc.Date, &dc.Total, &dc.Anomalies); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (r *EventsRepo) queryEvents(ctx context.Context, query string, args ...any) ([]events.TraceEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.TraceEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (events.TraceEvent, error) {
	var e events.TraceEvent
	var typ string
	var actorID, facilityID, reason sql.NullString

	if err := row.Scan(
		&e.ID,
		&e.AnimalID,
		&typ,
		&actorID,
		&facilityID,
		&e.OccurredAt,
		&e.RecordedAt,
		&e.Metadata,
		&e.IsValid,
		&reason,
	); err != nil {
		return events.TraceEvent{}, err
	}

	e.Type = events.EventType(typ)
	e.ActorID = actorID.String
	e.FacilityID = facilityID.String
	e.AnomalyReason = reason.String
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
