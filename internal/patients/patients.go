// Package patients persists the records produced by a completed
// intake call: identity, insurance, contact details, and the
// appointments booked for the patient.
package patients

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no record exists under the key.
var ErrNotFound = errors.New("patients: record not found")

// Key is the composite identity of a patient record.
type Key struct {
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
}

func (k Key) normalized() Key {
	return Key{
		LastName:  strings.ToLower(strings.TrimSpace(k.LastName)),
		FirstName: strings.ToLower(strings.TrimSpace(k.FirstName)),
	}
}

// Appointment is one booked visit attached to a patient record.
type Appointment struct {
	SlotID string    `json:"slot_id,omitempty"`
	Doctor string    `json:"doctor"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason,omitempty"`
}

func (a Appointment) sameVisit(b Appointment) bool {
	return strings.EqualFold(a.Doctor, b.Doctor) && a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

// Record is the durable patient record keyed by (last, first) name.
type Record struct {
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	InsurancePayer string        `json:"insurance_payer"`
	InsuranceID    string        `json:"insurance_id"`
	TopicOfCall    string        `json:"topic_of_call"`
	Street         string        `json:"street"`
	City           string        `json:"city"`
	State          string        `json:"state"`
	Zip            string        `json:"zip"`
	Phone          string        `json:"phone"`
	Email          string        `json:"email"`
	Appointments   []Appointment `json:"appointments"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Key derives the record's composite key.
func (r Record) Key() Key {
	return Key{LastName: r.LastName, FirstName: r.FirstName}
}

// merge overwrites scalar fields with the incoming record and appends
// any appointment not already present on the existing record.
func merge(existing, incoming Record) Record {
	out := incoming
	out.Appointments = append([]Appointment(nil), existing.Appointments...)
	for _, appt := range incoming.Appointments {
		dup := false
		for _, have := range out.Appointments {
			if have.sameVisit(appt) {
				dup = true
				break
			}
		}
		if !dup {
			out.Appointments = append(out.Appointments, appt)
		}
	}
	return out
}

// Repository is the persistence gateway for patient records.
// Upsert is idempotent: replaying the same record and appointment
// produces no duplicate appointment entries.
type Repository interface {
	Upsert(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, key Key) (*Record, error)
}
