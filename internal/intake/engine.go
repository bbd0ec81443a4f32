// Package intake drives the voice intake conversation: a fixed
// sequence of questions, per-step answer validation with bounded
// retries, address accumulation, and appointment negotiation, ending
// in a booked slot, a saved patient record, and a confirmation email.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/intakehq/voice-intake/internal/address"
	"github.com/intakehq/voice-intake/internal/observability/metrics"
	"github.com/intakehq/voice-intake/internal/patients"
	"github.com/intakehq/voice-intake/internal/schedule"
	"github.com/intakehq/voice-intake/internal/slots"
	"github.com/intakehq/voice-intake/internal/validate"
	"github.com/intakehq/voice-intake/pkg/logging"
)

// Notifier delivers the appointment confirmation to the caller.
type Notifier interface {
	SendConfirmation(ctx context.Context, rec patients.Record, appt patients.Appointment) error
}

// Policy holds the engine's conversational limits.
type Policy struct {
	// MaxRetries is how many invalid answers a step tolerates. The
	// call aborts only when a step's counter exceeds this value.
	MaxRetries int
	// MaxCollaboratorFailures is how many consecutive collaborator
	// errors end the call with a technical-difficulty apology.
	MaxCollaboratorFailures int
	// BookingWindowDays bounds how far ahead open slots are offered.
	BookingWindowDays int
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	if p.MaxCollaboratorFailures <= 0 {
		p.MaxCollaboratorFailures = 2
	}
	if p.BookingWindowDays <= 0 {
		p.BookingWindowDays = 14
	}
	return p
}

// Outcome is what the transport speaks back after one turn.
type Outcome struct {
	// Prompt is the text to speak to the caller.
	Prompt string
	// Retry means the same step will be asked again.
	Retry bool
	// EndCall means the conversation is over, either way.
	EndCall bool
	// Confirmed means the appointment was booked and the record
	// saved. Never set unless both actually happened.
	Confirmed bool
}

// Deps wires the engine's collaborators.
type Deps struct {
	Normalizer Normalizer
	Resolver   AddressResolver
	Scheduler  Scheduler
	Narrator   SlotNarrator
	Slots      slots.Store
	Patients   patients.Repository
	Notifier   Notifier
	Policy     Policy
	Logger     *logging.Logger
	Metrics    *metrics.IntakeMetrics
}

// Engine advances intake sessions one caller utterance at a time.
type Engine struct {
	handlers map[Step]StepHandler
	sched    Scheduler
	narrator SlotNarrator
	slots    slots.Store
	patients patients.Repository
	notifier Notifier
	policy   Policy
	logger   *logging.Logger
	metrics  *metrics.IntakeMetrics
}

func NewEngine(deps Deps) *Engine {
	if deps.Normalizer == nil {
		panic("intake: normalizer required")
	}
	if deps.Resolver == nil {
		panic("intake: address resolver required")
	}
	if deps.Scheduler == nil {
		panic("intake: scheduler required")
	}
	if deps.Patients == nil {
		panic("intake: patients repository required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}

	handlers := make(map[Step]StepHandler, len(stepOrder))
	for step, kind := range fieldKinds {
		handlers[step] = fieldHandler{kind: kind, norm: deps.Normalizer}
	}
	handlers[StepAddress] = addressHandler{resolver: deps.Resolver}
	handlers[StepSchedule] = scheduleHandler{sched: deps.Scheduler}

	return &Engine{
		handlers: handlers,
		sched:    deps.Scheduler,
		narrator: deps.Narrator,
		slots:    deps.Slots,
		patients: deps.Patients,
		notifier: deps.Notifier,
		policy:   deps.Policy.withDefaults(),
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
}

// Greeting is spoken when the media stream starts, before any caller
// input.
func (e *Engine) Greeting() string {
	return greetingPrompt + stepPrompts[FirstStep()]
}

// PromptFor returns the question for a step. For scheduling it
// narrates actual open inventory when that succeeds, falling back to
// the static question when it does not.
func (e *Engine) PromptFor(ctx context.Context, step Step) string {
	prompt := stepPrompts[step]
	if step != StepSchedule || e.narrator == nil || e.slots == nil {
		return prompt
	}

	open, err := e.slots.OpenWindow(ctx, time.Now(), e.policy.BookingWindowDays)
	if err != nil || len(open) == 0 {
		if err != nil {
			e.logger.Warn("open slot lookup failed, using static prompt", "error", err)
		}
		return prompt
	}
	narrated, err := e.narrator.NarrateOpenSlots(ctx, open)
	if err != nil {
		e.logger.Warn("slot narration failed, using static prompt", "error", err)
		return prompt
	}
	return narrated
}

// Advance processes one caller utterance. The input session is never
// mutated; the returned session is the new state regardless of
// outcome.
func (e *Engine) Advance(ctx context.Context, sess Session, utterance string) (Outcome, Session) {
	if sess.Terminal() {
		return Outcome{Prompt: abortPrompt, EndCall: true}, sess
	}

	step := sess.CurrentStep
	handler, ok := e.handlers[step]
	if !ok {
		e.logger.Error("no handler registered for step", "call_sid", sess.CallSID, "step", step)
		return e.collaboratorFailure(sess.clone(), step, fmt.Errorf("intake: no handler for step %q", step))
	}

	started := time.Now()
	next := sess.clone()
	next.UpdatedAt = started.UTC()

	res, err := handler.Handle(ctx, next, utterance)
	e.metrics.ObserveTurnLatency(string(step), time.Since(started).Seconds())
	if err != nil {
		return e.collaboratorFailure(next, step, err)
	}
	next.CollabFailures = 0

	switch {
	case res.Pending:
		next.AddressBuffer = res.Buffer
		next.LastResponseValid = true
		e.metrics.ObserveTurn(string(step), "pending")
		return Outcome{Prompt: continueAddressPrompt}, next

	case res.Conflict:
		// Picking again after a conflict carries no retry penalty.
		next.LastResponseValid = false
		e.metrics.ObserveTurn(string(step), "conflict")
		return Outcome{Retry: true, Prompt: conflictPrompt(res.Reason)}, next

	case !res.Valid:
		next.LastResponseValid = false
		next.AddressBuffer = ""
		next.Retries[step]++
		e.metrics.ObserveTurn(string(step), "invalid")
		e.metrics.ObserveRetry(string(step))
		if next.Retries[step] > e.policy.MaxRetries {
			next.Aborted = true
			e.metrics.ObserveCallEnd("aborted")
			e.logger.Info("call aborted after repeated invalid answers",
				"call_sid", next.CallSID, "step", step, "retries", next.Retries[step])
			return Outcome{EndCall: true, Prompt: abortPrompt}, next
		}
		return Outcome{Retry: true, Prompt: retryPrompt(res.Reason, stepPrompts[step])}, next
	}

	next.LastResponseValid = true
	next.AddressBuffer = ""
	delete(next.Retries, step)
	e.record(&next, step, res.Value)
	e.metrics.ObserveTurn(string(step), "valid")

	if step == StepSchedule {
		return e.complete(ctx, next)
	}

	next.CurrentStep = step.Next()
	return Outcome{Prompt: e.PromptFor(ctx, next.CurrentStep)}, next
}

// record stores an accepted value on the session.
func (e *Engine) record(sess *Session, step Step, value any) {
	switch step {
	case StepName:
		name := value.(validate.Name)
		sess.Collected.Name = &name
	case StepInsurancePayer:
		sess.Collected.InsurancePayer = value.(validate.Name).Full()
	case StepInsuranceID:
		sess.Collected.InsuranceID = value.(string)
	case StepTopicOfCall:
		sess.Collected.TopicOfCall = value.(string)
	case StepAddress:
		addr := value.(address.Address)
		sess.Collected.Address = &addr
	case StepPhone:
		sess.Collected.Phone = value.(string)
	case StepEmail:
		sess.Collected.Email = value.(string)
	case StepSchedule:
		cand := value.(schedule.Candidate)
		sess.Collected.Appointment = &cand
	}
}

// complete runs the terminal sequence once every step has an
// accepted value: book the slot, save the record, send the
// confirmation. Order matters. A lost booking race sends the caller
// back to pick a time; a failed save never claims a confirmation; a
// failed email is logged and nothing more.
func (e *Engine) complete(ctx context.Context, sess Session) (Outcome, Session) {
	cand := *sess.Collected.Appointment
	patientName := sess.Collected.Name.Full()

	slot, err := e.sched.Reserve(ctx, cand, patientName, sess.Collected.TopicOfCall)
	if errors.Is(err, schedule.ErrSlotTaken) {
		sess.Collected.Appointment = nil
		sess.LastResponseValid = false
		e.metrics.ObserveTurn(string(StepSchedule), "conflict")
		return Outcome{Retry: true, Prompt: slotTakenPrompt}, sess
	}
	if err != nil {
		return e.collaboratorFailure(sess, StepSchedule, err)
	}

	appt := patients.Appointment{
		SlotID: slot.ID,
		Doctor: cand.Doctor,
		Start:  cand.Start,
		End:    cand.End,
		Reason: sess.Collected.TopicOfCall,
	}
	rec := e.buildRecord(sess, appt)

	saved, err := e.patients.Upsert(ctx, rec)
	if err != nil {
		// The slot stays held under the caller's name; staff can
		// reconcile it from the booking log.
		e.logger.Error("patient record save failed after booking",
			"call_sid", sess.CallSID, "slot_id", slot.ID, "error", err)
		sess.Aborted = true
		e.metrics.ObserveCallEnd("save_failed")
		return Outcome{EndCall: true, Prompt: saveFailedPrompt}, sess
	}

	if e.notifier != nil {
		if err := e.notifier.SendConfirmation(ctx, saved, appt); err != nil {
			e.logger.Error("confirmation email failed",
				"call_sid", sess.CallSID, "email", saved.Email, "error", err)
		}
	}

	sess.CurrentStep = StepDone
	sess.Completed = true
	e.metrics.ObserveCallEnd("completed")
	e.logger.Info("intake completed",
		"call_sid", sess.CallSID, "doctor", cand.Doctor, "slot_id", slot.ID)
	return Outcome{EndCall: true, Confirmed: true, Prompt: confirmationPrompt(patientName, cand)}, sess
}

func (e *Engine) buildRecord(sess Session, appt patients.Appointment) patients.Record {
	c := sess.Collected
	rec := patients.Record{
		FirstName:      c.Name.First,
		LastName:       c.Name.Last,
		InsurancePayer: c.InsurancePayer,
		InsuranceID:    c.InsuranceID,
		TopicOfCall:    c.TopicOfCall,
		Phone:          c.Phone,
		Email:          c.Email,
		Appointments:   []patients.Appointment{appt},
	}
	if c.Address != nil {
		rec.Street = c.Address.Street
		rec.City = c.Address.City
		rec.State = c.Address.State
		rec.Zip = c.Address.Zip
	}
	return rec
}

// collaboratorFailure handles a turn where an internal dependency,
// not the caller, failed. The retry counter never moves; consecutive
// failures end the call.
func (e *Engine) collaboratorFailure(sess Session, step Step, err error) (Outcome, Session) {
	e.logger.Error("collaborator failure",
		"call_sid", sess.CallSID, "step", step, "error", err)
	sess.CollabFailures++
	sess.LastResponseValid = false
	e.metrics.ObserveTurn(string(step), "collaborator_error")

	if sess.CollabFailures >= e.policy.MaxCollaboratorFailures {
		sess.Aborted = true
		e.metrics.ObserveCallEnd("technical")
		return Outcome{EndCall: true, Prompt: technicalAbortPrompt}, sess
	}
	return Outcome{Retry: true, Prompt: technicalRetryPrompt}, sess
}

func confirmationPrompt(patientName string, cand schedule.Candidate) string {
	doctor := titleCase(cand.Doctor)
	return fmt.Sprintf(
		"Thank you, %s. You're all set with Dr. %s on %s from %s to %s. A confirmation email is on its way. Goodbye!",
		patientName,
		doctor,
		cand.Start.Format("Monday, January 2"),
		cand.Start.Format("3:04 PM"),
		cand.End.Format("3:04 PM"),
	)
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
