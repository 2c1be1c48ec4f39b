package postgres

import (
	"context"
	"database/sql"
)

// schemaStatements crea las tablas si no existen. dose_events cae en cascada
// con su medicamento.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS medications (
		id              TEXT PRIMARY KEY,
		subject_id      TEXT NOT NULL,
		name            TEXT NOT NULL,
		dosage          TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'active',
		frequency_count INTEGER NOT NULL CHECK (frequency_count BETWEEN 1 AND 24),
		first_dose_time TEXT NOT NULL,
		interval_hours  INTEGER NOT NULL,
		reminder_times  TEXT NOT NULL,
		start_date      DATE NOT NULL,
		end_date        DATE,
		notes           TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS medications_subject_idx ON medications (subject_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS dose_events (
		id             TEXT PRIMARY KEY,
		medication_id  TEXT NOT NULL REFERENCES medications (id) ON DELETE CASCADE,
		subject_id     TEXT NOT NULL,
		scheduled_time TIMESTAMPTZ NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','taken','missed')),
		taken_at       TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS dose_events_due_idx ON dose_events (subject_id, status, scheduled_time)`,
	`CREATE INDEX IF NOT EXISTS dose_events_medication_idx ON dose_events (medication_id, scheduled_time)`,
}

// EnsureSchema aplica el DDL en una transacción.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
