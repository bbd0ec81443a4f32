package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists slot inventory in the relational database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("slots: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

const slotColumns = `slot_id, doctor, date, start_at, end_at, available, patient, reason`

func scanSlot(row pgx.Row) (Slot, error) {
	var s Slot
	var patient, reason *string
	if err := row.Scan(&s.ID, &s.Doctor, &s.Date, &s.Start, &s.End, &s.Available, &patient, &reason); err != nil {
		return Slot{}, err
	}
	if patient != nil {
		s.Patient = *patient
	}
	if reason != nil {
		s.Reason = *reason
	}
	return s, nil
}

func (p *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]Slot, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("slots: query failed: %w", err)
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("slots: scan failed: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Day returns every slot for the doctor on the given date.
func (p *PostgresStore) Day(ctx context.Context, doctor, date string) ([]Slot, error) {
	return p.query(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_slots
		WHERE lower(doctor) = lower($1) AND date = $2
		ORDER BY start_at
	`, doctor, date)
}

// Available returns the open slots for the doctor on the given date.
func (p *PostgresStore) Available(ctx context.Context, doctor, date string) ([]Slot, error) {
	return p.query(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_slots
		WHERE lower(doctor) = lower($1) AND date = $2 AND available
		ORDER BY start_at
	`, doctor, date)
}

// Booked returns the occupied slots for the doctor on the given date.
func (p *PostgresStore) Booked(ctx context.Context, doctor, date string) ([]Slot, error) {
	return p.query(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_slots
		WHERE lower(doctor) = lower($1) AND date = $2 AND NOT available
		ORDER BY start_at
	`, doctor, date)
}

// Book flips one slot to unavailable. The row lock serializes the
// check-then-write, so a concurrent booking of the same slot fails
// with ErrSlotTaken instead of silently overwriting.
func (p *PostgresStore) Book(ctx context.Context, doctor, date, slotID, patient, reason string) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("slots: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var available bool
	err = tx.QueryRow(ctx, `
		SELECT available
		FROM doctor_slots
		WHERE lower(doctor) = lower($1) AND date = $2 AND slot_id = $3
		FOR UPDATE
	`, doctor, date, slotID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("slots: lock slot: %w", err)
	}
	if !available {
		return ErrSlotTaken
	}

	tag, err := tx.Exec(ctx, `
		UPDATE doctor_slots
		SET available = FALSE, patient = $4, reason = $5
		WHERE lower(doctor) = lower($1) AND date = $2 AND slot_id = $3 AND available
	`, doctor, date, slotID, patient, reason)
	if err != nil {
		return fmt.Errorf("slots: book slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotTaken
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("slots: commit booking: %w", err)
	}
	return nil
}

// OpenWindow returns open slots across all doctors within the window.
func (p *PostgresStore) OpenWindow(ctx context.Context, from time.Time, days int) ([]Slot, error) {
	return p.query(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_slots
		WHERE available AND start_at >= $1 AND start_at < $2
		ORDER BY start_at, doctor
	`, from, from.AddDate(0, 0, days))
}

// Seed inserts inventory rows, ignoring slots that already exist.
func (p *PostgresStore) Seed(ctx context.Context, seed []Slot) error {
	for _, s := range seed {
		_, err := p.pool.Exec(ctx, `
			INSERT INTO doctor_slots (slot_id, doctor, date, start_at, end_at, available, patient, reason)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
			ON CONFLICT (doctor, date, slot_id) DO NOTHING
		`, s.ID, s.Doctor, s.Date, s.Start, s.End, s.Available, s.Patient, s.Reason)
		if err != nil {
			return fmt.Errorf("slots: seed insert: %w", err)
		}
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
