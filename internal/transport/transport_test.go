package transport

import (
	"context"
	"time"

	"github.com/intakehq/voice-intake/internal/address"
	"github.com/intakehq/voice-intake/internal/intake"
	"github.com/intakehq/voice-intake/internal/patients"
	"github.com/intakehq/voice-intake/internal/schedule"
	"github.com/intakehq/voice-intake/internal/slots"
	"github.com/intakehq/voice-intake/internal/validate"
)

// Shared test doubles wiring a real engine without any network
// collaborators.

type passNormalizer struct{}

func (passNormalizer) NormalizeField(_ context.Context, _ validate.Kind, transcript string) (string, error) {
	return transcript, nil
}

type fixedResolver struct{}

func (fixedResolver) Resolve(context.Context, string) (address.Address, error) {
	return address.Address{Street: "1245 Hayes St", City: "San Francisco", State: "CA", Zip: "94117"}, nil
}

type fixedScheduler struct{}

func (fixedScheduler) Parse(context.Context, string) (schedule.Candidate, error) {
	start := time.Date(2026, 9, 3, 15, 0, 0, 0, time.UTC)
	return schedule.Candidate{Doctor: "john", Start: start, End: start.Add(30 * time.Minute)}, nil
}

func (fixedScheduler) CheckConflict(context.Context, schedule.Candidate) error { return nil }

func (fixedScheduler) Reserve(context.Context, schedule.Candidate, string, string) (slots.Slot, error) {
	return slots.Slot{ID: "slot-1", Doctor: "john", Date: "2026-09-03"}, nil
}

func newTestEngine() (*intake.Engine, *patients.InMemoryRepository) {
	repo := patients.NewInMemoryRepository()
	engine := intake.NewEngine(intake.Deps{
		Normalizer: passNormalizer{},
		Resolver:   fixedResolver{},
		Scheduler:  fixedScheduler{},
		Patients:   repo,
	})
	return engine, repo
}

// conversationTurns walks the whole flow with already-valid answers.
var conversationTurns = []string{
	"Jane Doe",
	"Blue Cross",
	"ABC12345",
	"annual checkup",
	"1245 hayes street san francisco california 94117",
	"+19177012642",
	"jane.doe@example.com",
	"thursday at three with doctor john",
}
