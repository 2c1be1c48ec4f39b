package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dose-tracker/internal/domain/doses"
)

// insertChunk acota filas por INSERT (7 parámetros por fila, límite de 65535).
const insertChunk = 500

type DosesRepo struct {
	db *sql.DB
}

func NewDosesRepo(db *sql.DB) *DosesRepo {
	return &DosesRepo{db: db}
}

// InsertBatch inserta todo el lote en una transacción.
func (r *DosesRepo) InsertBatch(ctx context.Context, events []doses.DoseEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertDoseEvents(ctx, tx, events); err != nil {
		return err
	}
	return tx.Commit()
}

func insertDoseEvents(ctx context.Context, ex execer, events []doses.DoseEvent) error {
	for start := 0; start < len(events); start += insertChunk {
		end := start + insertChunk
		if end > len(events) {
			end = len(events)
		}
		chunk := events[start:end]

		sb := strings.Builder{}
		sb.WriteString(`INSERT INTO dose_events (id, medication_id, subject_id, scheduled_time, status, taken_at, created_at) VALUES `)

		args := make([]any, 0, len(chunk)*7)
		for i, e := range chunk {
			if i > 0 {
				sb.WriteString(",")
			}
			n := i * 7
			sb.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7))
			args = append(args,
				e.ID,
				e.MedicationID,
				e.SubjectID,
				e.ScheduledTime,
				string(e.Status),
				toNullDate(e.TakenAt),
				e.CreatedAt,
			)
		}

		if _, err := ex.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *DosesRepo) Query(ctx context.Context, subjectID string, filter doses.Filter) ([]doses.DoseEvent, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT
			id, medication_id, subject_id,
			scheduled_time, status, taken_at,
			created_at
		FROM dose_events
		WHERE subject_id = $1
	`)

	args := []any{subjectID}
	argN := 2

	if filter.MedicationID != "" {
		sb.WriteString(fmt.Sprintf(" AND medication_id = $%d", argN))
		args = append(args, filter.MedicationID)
		argN++
	}
	if filter.Status != "" {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", argN))
		args = append(args, string(filter.Status))
		argN++
	}
	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND scheduled_time >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND scheduled_time <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	if filter.Order == doses.OrderDesc {
		sb.WriteString(" ORDER BY scheduled_time DESC, id DESC")
	} else {
		sb.WriteString(" ORDER BY scheduled_time ASC, id ASC")
	}
	if filter.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]doses.DoseEvent, 0)
	for rows.Next() {
		var (
			e       doses.DoseEvent
			status  string
			takenAt sql.NullTime
		)
		if err := rows.Scan(
			&e.ID,
			&e.MedicationID,
			&e.SubjectID,
			&e.ScheduledTime,
			&status,
			&takenAt,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Status = doses.Status(status)
		e.TakenAt = fromNullTime(takenAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Resolve solo actualiza si el evento sigue pending. Si no actualizó nada
// distingue inexistente de ya resuelto.
func (r *DosesRepo) Resolve(ctx context.Context, subjectID, id string, status doses.Status, takenAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dose_events
		SET status = $3, taken_at = $4
		WHERE id = $1 AND subject_id = $2 AND status = 'pending'
	`, id, subjectID, string(status), toNullDate(takenAt))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, `
		SELECT status FROM dose_events WHERE id = $1 AND subject_id = $2
	`, id, subjectID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return doses.ErrNotFound
		}
		return err
	}
	return doses.ErrAlreadyResolved
}

func (r *DosesRepo) DeleteByMedication(ctx context.Context, subjectID, medicationID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM dose_events WHERE subject_id = $1 AND medication_id = $2
	`, subjectID, medicationID)
	return err
}
