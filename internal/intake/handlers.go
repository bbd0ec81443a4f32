package intake

import (
	"context"
	"errors"

	"github.com/intakehq/voice-intake/internal/address"
	"github.com/intakehq/voice-intake/internal/extract"
	"github.com/intakehq/voice-intake/internal/schedule"
	"github.com/intakehq/voice-intake/internal/slots"
	"github.com/intakehq/voice-intake/internal/validate"
)

// Normalizer repairs raw speech transcripts into validator-ready
// text for one field kind.
type Normalizer interface {
	NormalizeField(ctx context.Context, kind validate.Kind, transcript string) (string, error)
}

// AddressResolver turns an accumulated spoken address into a
// verified mailing address, or address.ErrNotFound.
type AddressResolver interface {
	Resolve(ctx context.Context, raw string) (address.Address, error)
}

// Scheduler parses, conflict-checks, and books appointment requests.
type Scheduler interface {
	Parse(ctx context.Context, utterance string) (schedule.Candidate, error)
	CheckConflict(ctx context.Context, cand schedule.Candidate) error
	Reserve(ctx context.Context, cand schedule.Candidate, patient, reason string) (slots.Slot, error)
}

// SlotNarrator renders open inventory into a spoken offer.
type SlotNarrator interface {
	NarrateOpenSlots(ctx context.Context, open []slots.Slot) (string, error)
}

// StepResult is a handler's verdict on one caller utterance.
// Exactly one of Valid, Pending, Conflict, or the implicit invalid
// case (all false) applies. A non-nil error from Handle means the
// collaborator itself failed and the turn should not count against
// the caller.
type StepResult struct {
	Valid bool
	// Pending means the handler needs more input before it can
	// judge, with no retry penalty. Address accumulation only.
	Pending bool
	// Conflict means the requested time is already booked. The
	// caller picks again without a retry penalty.
	Conflict bool
	// Reason explains an invalid or conflicting answer in words
	// suitable for re-prompting.
	Reason string
	// Buffer carries the updated address accumulation buffer.
	Buffer string
	// Value holds the accepted value on Valid: validate.Name or
	// string for field steps, address.Address for the address step,
	// schedule.Candidate for the scheduling step.
	Value any
}

// StepHandler judges one utterance for one step.
type StepHandler interface {
	Handle(ctx context.Context, sess Session, utterance string) (StepResult, error)
}

// fieldHandler covers the simple steps: normalize the transcript,
// then apply the field's shape rule.
type fieldHandler struct {
	kind validate.Kind
	norm Normalizer
}

func (h fieldHandler) Handle(ctx context.Context, _ Session, utterance string) (StepResult, error) {
	text, err := h.norm.NormalizeField(ctx, h.kind, utterance)
	if err != nil {
		return StepResult{}, err
	}
	res := validate.Field(h.kind, text)
	if !res.Valid {
		return StepResult{Reason: res.Reason}, nil
	}
	return StepResult{Valid: true, Value: res.Value}, nil
}

// addressHandler accumulates spoken fragments until the buffer looks
// like a full street address, then resolves it against the
// authoritative lookup.
type addressHandler struct {
	resolver AddressResolver
}

func (h addressHandler) Handle(ctx context.Context, sess Session, utterance string) (StepResult, error) {
	buffer, complete := address.Accumulate(sess.AddressBuffer, utterance)
	if !complete {
		return StepResult{Pending: true, Buffer: buffer}, nil
	}

	addr, err := h.resolver.Resolve(ctx, buffer)
	switch {
	case errors.Is(err, address.ErrNotFound):
		// Invalid answers restart accumulation from scratch.
		return StepResult{Reason: "I could not find that address. Please repeat your full street address, city, state, and zip code"}, nil
	case errors.Is(err, extract.ErrBadReply):
		return StepResult{Reason: "I did not catch your address. Please repeat your full street address, city, state, and zip code"}, nil
	case err != nil:
		return StepResult{}, err
	}
	return StepResult{Valid: true, Value: addr}, nil
}

// scheduleHandler parses the appointment request and checks it for
// conflicts. The actual booking happens once, at call completion.
type scheduleHandler struct {
	sched Scheduler
}

func (h scheduleHandler) Handle(ctx context.Context, _ Session, utterance string) (StepResult, error) {
	cand, err := h.sched.Parse(ctx, utterance)
	if err != nil {
		var inv *schedule.InvalidError
		switch {
		case errors.As(err, &inv):
			return StepResult{Reason: inv.Reason}, nil
		case errors.Is(err, extract.ErrBadReply):
			return StepResult{Reason: "I did not catch that. Please tell me the doctor, day, and time you would like"}, nil
		default:
			return StepResult{}, err
		}
	}

	if err := h.sched.CheckConflict(ctx, cand); err != nil {
		var inv *schedule.InvalidError
		switch {
		case errors.Is(err, schedule.ErrSlotTaken):
			return StepResult{Conflict: true, Reason: "that time is already booked"}, nil
		case errors.As(err, &inv):
			return StepResult{Reason: inv.Reason}, nil
		default:
			return StepResult{}, err
		}
	}
	return StepResult{Valid: true, Value: cand}, nil
}
