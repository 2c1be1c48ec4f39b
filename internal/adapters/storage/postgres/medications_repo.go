package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/domain/medications"
	"dose-tracker/internal/domain/schedule"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

const medicationColumns = `
	id, subject_id,
	name, dosage, status,
	frequency_count, first_dose_time, interval_hours, reminder_times,
	start_date, end_date, notes,
	created_at, updated_at`

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	return insertMedication(ctx, r.db, m)
}

// CreateWithDoses guarda el medicamento y su lote de dosis en una sola
// transacción.
func (r *MedicationsRepo) CreateWithDoses(ctx context.Context, m medications.Medication, events []doses.DoseEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertMedication(ctx, tx, m); err != nil {
		return fmt.Errorf("insert medication: %w", err)
	}
	if err := insertDoseEvents(ctx, tx, events); err != nil {
		return fmt.Errorf("insert dose events: %w", err)
	}
	return tx.Commit()
}

func insertMedication(ctx context.Context, ex execer, m medications.Medication) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		m.ID,
		m.SubjectID,
		m.Name,
		m.Dosage,
		string(m.Status),
		m.FrequencyCount,
		m.FirstDoseTime.String(),
		m.IntervalHours,
		schedule.FormatList(m.ReminderTimes),
		m.StartDate,
		toNullDate(m.EndDate),
		m.Notes,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicationsRepo) GetByID(ctx context.Context, subjectID, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, medications.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE id = $1 AND subject_id = $2
	`, id, subjectID)

	m, err := scanMedication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return medications.Medication{}, medications.ErrNotFound
		}
		return medications.Medication{}, err
	}
	return m, nil
}

func (r *MedicationsRepo) ListBySubject(ctx context.Context, subjectID string) ([]medications.Medication, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE subject_id = $1
		ORDER BY created_at DESC
	`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MedicationsRepo) Update(ctx context.Context, m medications.Medication) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET
			name = $3,
			dosage = $4,
			status = $5,
			frequency_count = $6,
			first_dose_time = $7,
			interval_hours = $8,
			reminder_times = $9,
			end_date = $10,
			notes = $11,
			updated_at = $12
		WHERE id = $1 AND subject_id = $2
	`,
		m.ID,
		m.SubjectID,
		m.Name,
		m.Dosage,
		string(m.Status),
		m.FrequencyCount,
		m.FirstDoseTime.String(),
		m.IntervalHours,
		schedule.FormatList(m.ReminderTimes),
		toNullDate(m.EndDate),
		m.Notes,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

// Delete borra el medicamento; sus dose_events caen por ON DELETE CASCADE.
func (r *MedicationsRepo) Delete(ctx context.Context, subjectID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM medications WHERE id = $1 AND subject_id = $2
	`, id, subjectID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(s rowScanner) (medications.Medication, error) {
	var (
		m         medications.Medication
		status    string
		first     string
		reminders string
		end       sql.NullTime
	)
	if err := s.Scan(
		&m.ID,
		&m.SubjectID,
		&m.Name,
		&m.Dosage,
		&status,
		&m.FrequencyCount,
		&first,
		&m.IntervalHours,
		&reminders,
		&m.StartDate,
		&end,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medications.Medication{}, err
	}

	var err error
	m.Status = medications.Status(status)
	if m.FirstDoseTime, err = schedule.ParseClock(first); err != nil {
		return medications.Medication{}, fmt.Errorf("medication %s: first_dose_time: %w", m.ID, err)
	}
	if m.ReminderTimes, err = schedule.ParseList(reminders); err != nil {
		return medications.Medication{}, fmt.Errorf("medication %s: reminder_times: %w", m.ID, err)
	}
	// date llega como medianoche UTC
	m.EndDate = fromNullTime(end)
	return m, nil
}
