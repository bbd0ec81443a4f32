package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores patient records in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Upsert writes the record atomically: scalar fields are overwritten,
// appointments are appended with duplicates ignored.
func (r *PostgresRepository) Upsert(ctx context.Context, rec Record) (Record, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("patients: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	var patientID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO patients (
			id, first_name, last_name, insurance_payer, insurance_id,
			topic_of_call, street, city, state, zip, phone, email, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (lower(last_name), lower(first_name)) DO UPDATE SET
			insurance_payer = EXCLUDED.insurance_payer,
			insurance_id    = EXCLUDED.insurance_id,
			topic_of_call   = EXCLUDED.topic_of_call,
			street          = EXCLUDED.street,
			city            = EXCLUDED.city,
			state           = EXCLUDED.state,
			zip             = EXCLUDED.zip,
			phone           = EXCLUDED.phone,
			email           = EXCLUDED.email,
			updated_at      = EXCLUDED.updated_at
		RETURNING id
	`,
		uuid.New(), rec.FirstName, rec.LastName, rec.InsurancePayer, rec.InsuranceID,
		rec.TopicOfCall, rec.Street, rec.City, rec.State, rec.Zip, rec.Phone, rec.Email, now,
	).Scan(&patientID)
	if err != nil {
		return Record{}, fmt.Errorf("patients: upsert failed: %w", err)
	}

	for _, appt := range rec.Appointments {
		_, err := tx.Exec(ctx, `
			INSERT INTO patient_appointments (id, patient_id, slot_id, doctor, start_at, end_at, reason)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
			ON CONFLICT (patient_id, lower(doctor), start_at, end_at) DO NOTHING
		`, uuid.New(), patientID, appt.SlotID, appt.Doctor, appt.Start, appt.End, appt.Reason)
		if err != nil {
			return Record{}, fmt.Errorf("patients: append appointment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("patients: commit upsert: %w", err)
	}

	stored, err := r.Get(ctx, rec.Key())
	if err != nil {
		return Record{}, err
	}
	return *stored, nil
}

// Get retrieves a record and its appointments by composite key.
func (r *PostgresRepository) Get(ctx context.Context, key Key) (*Record, error) {
	norm := key.normalized()

	var rec Record
	var patientID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, insurance_payer, insurance_id,
		       topic_of_call, street, city, state, zip, phone, email, updated_at
		FROM patients
		WHERE lower(last_name) = $1 AND lower(first_name) = $2
	`, norm.LastName, norm.FirstName).Scan(
		&patientID, &rec.FirstName, &rec.LastName, &rec.InsurancePayer, &rec.InsuranceID,
		&rec.TopicOfCall, &rec.Street, &rec.City, &rec.State, &rec.Zip, &rec.Phone, &rec.Email, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: select failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(slot_id, ''), doctor, start_at, end_at, COALESCE(reason, '')
		FROM patient_appointments
		WHERE patient_id = $1
		ORDER BY start_at
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("patients: select appointments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(&appt.SlotID, &appt.Doctor, &appt.Start, &appt.End, &appt.Reason); err != nil {
			return nil, fmt.Errorf("patients: scan appointment: %w", err)
		}
		rec.Appointments = append(rec.Appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: iterate appointments: %w", err)
	}
	return &rec, nil
}

var _ Repository = (*PostgresRepository)(nil)
