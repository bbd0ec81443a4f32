// Package schedule negotiates appointment times: it turns a
// scheduling utterance into a concrete candidate slot, checks the
// candidate against existing bookings, and reserves the matching
// inventory slot.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/intakehq/voice-intake/internal/slots"
)

// ErrSlotTaken is the expected rejection when the requested time
// collides with an existing booking. It is a normal outcome of the
// conversation, not a system fault.
var ErrSlotTaken = errors.New("schedule: requested time is already booked")

// InvalidError marks a scheduling utterance the caller should simply
// restate: missing fields, unparseable times, or a too-long visit.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string { return "schedule: " + e.Reason }

// Extraction is the scheduling collaborator's structured reply.
type Extraction struct {
	DoctorName string   `json:"doctor_name"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Missing    []string `json:"missing_fields"`
}

// Extractor pulls scheduling fields out of free text.
type Extractor interface {
	ExtractSchedule(ctx context.Context, text string) (Extraction, error)
}

// Candidate is a parsed, not yet validated appointment request.
type Candidate struct {
	Doctor string    `json:"doctor"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Date returns the candidate's day key in the slot store's layout.
func (c Candidate) Date() string {
	return c.Start.Format(slots.DateLayout)
}

// Duration is the requested visit length.
func (c Candidate) Duration() time.Duration {
	return c.End.Sub(c.Start)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) collide:
// a starts inside b, a ends inside b, or a fully contains b.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	startsInside := !aStart.Before(bStart) && aStart.Before(bEnd)
	endsInside := aEnd.After(bStart) && !aEnd.After(bEnd)
	contains := !bStart.Before(aStart) && !bEnd.After(aEnd)
	return startsInside || endsInside || contains
}

// Negotiator parses and validates appointment requests against the
// slot store.
type Negotiator struct {
	extractor   Extractor
	store       slots.Store
	maxDuration time.Duration
}

// NewNegotiator constructs a negotiator. maxDuration caps the visit
// length a caller may request.
func NewNegotiator(extractor Extractor, store slots.Store, maxDuration time.Duration) *Negotiator {
	if extractor == nil {
		panic("schedule: extractor required")
	}
	if store == nil {
		panic("schedule: slot store required")
	}
	if maxDuration <= 0 {
		maxDuration = time.Hour
	}
	return &Negotiator{extractor: extractor, store: store, maxDuration: maxDuration}
}

// Parse extracts a candidate from the utterance. Missing fields or
// unparseable times yield an InvalidError for re-prompting.
func (n *Negotiator) Parse(ctx context.Context, utterance string) (Candidate, error) {
	ext, err := n.extractor.ExtractSchedule(ctx, utterance)
	if err != nil {
		return Candidate{}, fmt.Errorf("schedule: extraction failed: %w", err)
	}

	if len(ext.Missing) > 0 {
		return Candidate{}, &InvalidError{
			Reason: "please repeat your appointment preference including: " + strings.Join(ext.Missing, ", "),
		}
	}

	start, err := time.Parse(time.RFC3339, normalizeISO(ext.Start))
	if err != nil {
		return Candidate{}, &InvalidError{Reason: "I could not make out the start time, please repeat it"}
	}
	end, err := time.Parse(time.RFC3339, normalizeISO(ext.End))
	if err != nil {
		return Candidate{}, &InvalidError{Reason: "I could not make out the end time, please repeat it"}
	}
	if !end.After(start) {
		return Candidate{}, &InvalidError{Reason: "the appointment end time must come after its start time"}
	}

	return Candidate{
		Doctor: strings.ToLower(strings.TrimSpace(ext.DoctorName)),
		Start:  start,
		End:    end,
	}, nil
}

// normalizeISO tolerates extraction replies that omit the UTC marker.
func normalizeISO(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if strings.HasSuffix(s, "Z") {
		return s
	}
	// RFC 3339 offsets look like +05:00 or -08:00 at the tail.
	if len(s) >= 6 {
		tail := s[len(s)-6:]
		if (tail[0] == '+' || tail[0] == '-') && tail[3] == ':' {
			return s
		}
	}
	return s + "Z"
}

// CheckConflict validates the candidate's duration and tests its
// interval against every booked slot for that doctor and date.
func (n *Negotiator) CheckConflict(ctx context.Context, cand Candidate) error {
	if cand.Duration() > n.maxDuration {
		return &InvalidError{
			Reason: fmt.Sprintf("appointments cannot run longer than %d minutes", int(n.maxDuration.Minutes())),
		}
	}

	booked, err := n.store.Booked(ctx, cand.Doctor, cand.Date())
	if err != nil {
		return fmt.Errorf("schedule: load booked slots: %w", err)
	}
	for _, b := range booked {
		if Overlaps(cand.Start, cand.End, b.Start, b.End) {
			return ErrSlotTaken
		}
	}
	return nil
}

// Reserve books the open inventory slot covering the candidate's
// interval, attaching patient and reason. Returns ErrSlotTaken when
// no open slot covers the interval or when a concurrent booking wins
// the race for it.
func (n *Negotiator) Reserve(ctx context.Context, cand Candidate, patient, reason string) (slots.Slot, error) {
	open, err := n.store.Available(ctx, cand.Doctor, cand.Date())
	if err != nil {
		return slots.Slot{}, fmt.Errorf("schedule: load open slots: %w", err)
	}

	for _, s := range open {
		if !s.Covers(cand.Start, cand.End) {
			continue
		}
		err := n.store.Book(ctx, cand.Doctor, cand.Date(), s.ID, patient, reason)
		if err == nil {
			s.Available = false
			s.Patient = patient
			s.Reason = reason
			return s, nil
		}
		if errors.Is(err, slots.ErrSlotTaken) {
			// Lost the race for this slot; try the next covering one.
			continue
		}
		return slots.Slot{}, fmt.Errorf("schedule: book slot: %w", err)
	}
	return slots.Slot{}, ErrSlotTaken
}
