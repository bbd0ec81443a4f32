// Package slots stores doctor appointment inventory. Slots are
// pre-seeded per doctor and date; the intake flow only ever flips a
// slot from available to booked, attaching the patient and reason.
package slots

import (
	"context"
	"errors"
	"time"
)

// DateLayout is the canonical day key for a doctor's schedule.
const DateLayout = "2006-01-02"

var (
	// ErrSlotTaken is returned when a booking loses the race for a slot.
	ErrSlotTaken = errors.New("slots: slot already booked")
	// ErrSlotNotFound is returned when no slot matches the requested id.
	ErrSlotNotFound = errors.New("slots: slot not found")
)

// Slot is one bookable interval on a doctor's calendar.
type Slot struct {
	ID        string    `json:"id"`
	Doctor    string    `json:"doctor"`
	Date      string    `json:"date"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
	Patient   string    `json:"patient,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Covers reports whether the slot's interval fully contains [start, end).
func (s Slot) Covers(start, end time.Time) bool {
	return !start.Before(s.Start) && !end.After(s.End)
}

// Store is the persistence gateway for doctor slot inventory.
//
// Book must be at-most-once per slot: two concurrent bookings of the
// same doctor/date/slot id must yield exactly one success and one
// ErrSlotTaken. Reads return a consistent snapshot of the day.
type Store interface {
	// Day returns every slot for the doctor on the given date.
	Day(ctx context.Context, doctor, date string) ([]Slot, error)
	// Available returns the open slots for the doctor on the given date.
	Available(ctx context.Context, doctor, date string) ([]Slot, error)
	// Booked returns the occupied slots for the doctor on the given date.
	Booked(ctx context.Context, doctor, date string) ([]Slot, error)
	// Book flips one slot to unavailable and attaches patient and reason.
	Book(ctx context.Context, doctor, date, slotID, patient, reason string) error
	// OpenWindow returns open slots across all doctors from the given
	// day forward, bounded by days. Used to offer times to callers.
	OpenWindow(ctx context.Context, from time.Time, days int) ([]Slot, error)
}
