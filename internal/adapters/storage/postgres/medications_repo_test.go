package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/domain/medications"
	"dose-tracker/internal/domain/schedule"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func sampleMedication() medications.Medication {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return medications.Medication{
		ID:             "m-1",
		SubjectID:      "u-1",
		Name:           "Amoxicilina",
		Dosage:         "500mg",
		Status:         medications.StatusActive,
		FrequencyCount: 3,
		FirstDoseTime:  schedule.Clock{Hour: 8},
		IntervalHours:  8,
		ReminderTimes:  schedule.Generate(schedule.Clock{Hour: 8}, 3),
		StartDate:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

var medicationRowColumns = []string{
	"id", "subject_id", "name", "dosage", "status",
	"frequency_count", "first_dose_time", "interval_hours", "reminder_times",
	"start_date", "end_date", "notes", "created_at", "updated_at",
}

func TestMedicationsRepo_CreateWithDosesCommits(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMedicationsRepo(db)
	m := sampleMedication()

	events := []doses.DoseEvent{
		{ID: "e-1", MedicationID: m.ID, SubjectID: m.SubjectID, ScheduledTime: m.CreatedAt.Add(6 * time.Hour), Status: doses.StatusPending, CreatedAt: m.CreatedAt},
		{ID: "e-2", MedicationID: m.ID, SubjectID: m.SubjectID, ScheduledTime: m.CreatedAt.Add(14 * time.Hour), Status: doses.StatusPending, CreatedAt: m.CreatedAt},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO medications`).
		WithArgs("m-1", "u-1", "Amoxicilina", "500mg", "active", 3, "08:00", 8, "08:00,16:00,00:00",
			m.StartDate, sqlmock.AnyArg(), "", m.CreatedAt, m.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO dose_events .* VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\),\(\$8,`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithDoses(context.Background(), m, events))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicationsRepo_CreateWithDosesRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMedicationsRepo(db)
	m := sampleMedication()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO medications`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO dose_events`).WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	err := repo.CreateWithDoses(context.Background(), m, []doses.DoseEvent{{ID: "e-1", MedicationID: m.ID, SubjectID: m.SubjectID}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert dose events")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicationsRepo_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMedicationsRepo(db)
	m := sampleMedication()
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(medicationRowColumns).
		AddRow("m-1", "u-1", "Amoxicilina", "500mg", "active", 3, "08:00", 8, "08:00,16:00,00:00",
			m.StartDate, end, "con comida", m.CreatedAt, m.UpdatedAt)

	mock.ExpectQuery(`SELECT .* FROM medications`).
		WithArgs("m-1", "u-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "u-1", "m-1")
	require.NoError(t, err)
	assert.Equal(t, "Amoxicilina", got.Name)
	assert.Equal(t, schedule.Clock{Hour: 8}, got.FirstDoseTime)
	assert.True(t, schedule.Matches(got.FirstDoseTime, 3, got.ReminderTimes))
	require.NotNil(t, got.EndDate)
	assert.Equal(t, end, *got.EndDate)
	assert.Equal(t, "con comida", got.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicationsRepo_GetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMedicationsRepo(db)

	mock.ExpectQuery(`SELECT .* FROM medications`).
		WithArgs("m-x", "u-1").
		WillReturnRows(sqlmock.NewRows(medicationRowColumns))

	_, err := repo.GetByID(context.Background(), "u-1", "m-x")
	assert.ErrorIs(t, err, medications.ErrNotFound)

	_, err = repo.GetByID(context.Background(), "u-1", " ")
	assert.ErrorIs(t, err, medications.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicationsRepo_ListBySubject(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMedicationsRepo(db)
	m := sampleMedication()

	rows := sqlmock.NewRows(medicationRowColumns).
		AddRow("m-2", "u-1", "B", "", "inactive", 1, "20:00", 24, "20:00", m.StartDate, nil, "", m.CreatedAt, m.UpdatedAt).
		AddRow("m-1", "u-1", "A", "", "active", 2, "09:30", 12, "09:30,21:30", m.StartDate, nil, "", m.CreatedAt, m.UpdatedAt)

	mock.ExpectQuery(`SELECT .* FROM medications\s+WHERE subject_id = \$1\s+ORDER BY created_at DESC`).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := repo.ListBySubject(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, medications.StatusInactive, got[0].Status)
	assert.Nil(t, got[0].EndDate)
	assert.Equal(t, "09:30,21:30", schedule.FormatList(got[1].ReminderTimes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicationsRepo_ListRejectsCorruptSchedule(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMedicationsRepo(db)
	m := sampleMedication()

	rows := sqlmock.NewRows(medicationRowColumns).
		AddRow("m-1", "u-1", "A", "", "active", 1, "8am", 24, "8am", m.StartDate, nil, "", m.CreatedAt, m.UpdatedAt)
	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	_, err := repo.ListBySubject(context.Background(), "u-1")
	assert.ErrorIs(t, err, schedule.ErrInvalidClock)
}

func TestMedicationsRepo_UpdateAndDeleteNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMedicationsRepo(db)

	mock.ExpectExec(`UPDATE medications`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM medications`).WithArgs("m-1", "u-1").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Update(context.Background(), sampleMedication()), medications.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), "u-1", "m-1"), medications.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
