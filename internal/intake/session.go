package intake

import (
	"time"

	"github.com/intakehq/voice-intake/internal/address"
	"github.com/intakehq/voice-intake/internal/schedule"
	"github.com/intakehq/voice-intake/internal/validate"
)

// Collected is everything the caller has successfully provided so
// far. Pointer fields stay nil until their step completes, so a
// persisted session round-trips without inventing zero values.
type Collected struct {
	Name           *validate.Name      `json:"name,omitempty"`
	InsurancePayer string              `json:"insurance_payer,omitempty"`
	InsuranceID    string              `json:"insurance_id,omitempty"`
	TopicOfCall    string              `json:"topic_of_call,omitempty"`
	Address        *address.Address    `json:"address,omitempty"`
	Phone          string              `json:"phone,omitempty"`
	Email          string              `json:"email,omitempty"`
	Appointment    *schedule.Candidate `json:"appointment,omitempty"`
}

// Session is the full conversational state for one call. Values are
// passed and returned by value: a turn that fails mid-way leaves the
// caller's previous state untouched.
type Session struct {
	CallSID     string    `json:"call_sid"`
	CallerPhone string    `json:"caller_phone,omitempty"`
	CurrentStep Step      `json:"current_step"`
	Collected   Collected `json:"collected"`

	// Retries counts invalid answers per step. The counter resets
	// when the step finally succeeds.
	Retries map[Step]int `json:"retries,omitempty"`

	// AddressBuffer accumulates partial address fragments across
	// turns until the buffer looks like a complete street address.
	AddressBuffer string `json:"address_buffer,omitempty"`

	// CollabFailures counts consecutive collaborator errors. Any
	// successfully handled turn resets it.
	CollabFailures int `json:"collab_failures,omitempty"`

	LastResponseValid bool `json:"last_response_valid"`

	Completed bool `json:"completed"`
	Aborted   bool `json:"aborted"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession starts a session at the first step.
func NewSession(callSID, callerPhone string) Session {
	now := time.Now().UTC()
	return Session{
		CallSID:     callSID,
		CallerPhone: callerPhone,
		CurrentStep: FirstStep(),
		Retries:     map[Step]int{},
		StartedAt:   now,
		UpdatedAt:   now,
	}
}

// Terminal reports whether the call has ended, either way.
func (s Session) Terminal() bool { return s.Completed || s.Aborted }

// clone deep-copies the session so a turn can mutate freely.
func (s Session) clone() Session {
	out := s
	out.Retries = make(map[Step]int, len(s.Retries))
	for k, v := range s.Retries {
		out.Retries[k] = v
	}
	return out
}
