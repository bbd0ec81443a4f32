package intake

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/intakehq/voice-intake/internal/schedule"
	"github.com/intakehq/voice-intake/internal/validate"
)

func TestStepNext(t *testing.T) {
	got := []Step{FirstStep()}
	for s := FirstStep(); s != StepDone; s = s.Next() {
		got = append(got, s.Next())
	}
	want := []Step{
		StepName, StepInsurancePayer, StepInsuranceID, StepTopicOfCall,
		StepAddress, StepPhone, StepEmail, StepSchedule, StepDone,
	}
	if len(got) != len(want) {
		t.Fatalf("walked %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walked %v, want %v", got, want)
		}
	}
	if StepDone.Next() != StepDone {
		t.Error("done must be a fixed point")
	}
}

func TestStepKnown(t *testing.T) {
	if !StepSchedule.Known() {
		t.Error("schedule_appointment should be known")
	}
	if Step("date_of_birth").Known() {
		t.Error("unknown step accepted")
	}
}

func TestSessionJSONRoundTrip(t *testing.T) {
	start := time.Date(2026, 9, 3, 15, 0, 0, 0, time.UTC)
	sess := NewSession("CA123", "+15550001111")
	sess.CurrentStep = StepSchedule
	sess.Collected.Name = &validate.Name{First: "Jane", Last: "Doe"}
	sess.Collected.Phone = "+19177012642"
	sess.Collected.Appointment = &schedule.Candidate{
		Doctor: "john", Start: start, End: start.Add(30 * time.Minute),
	}
	sess.Retries[StepPhone] = 2

	raw, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Session
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.CurrentStep != StepSchedule || got.CallSID != "CA123" {
		t.Errorf("header fields wrong: %+v", got)
	}
	if got.Collected.Name == nil || got.Collected.Name.Full() != "Jane Doe" {
		t.Errorf("name lost: %+v", got.Collected.Name)
	}
	if got.Collected.Appointment == nil || !got.Collected.Appointment.Start.Equal(start) {
		t.Errorf("appointment lost: %+v", got.Collected.Appointment)
	}
	if got.Retries[StepPhone] != 2 {
		t.Errorf("retries lost: %v", got.Retries)
	}
}

func TestSessionCloneIsolatesRetries(t *testing.T) {
	sess := NewSession("CA123", "")
	dup := sess.clone()
	dup.Retries[StepName] = 3
	if sess.Retries[StepName] != 0 {
		t.Error("clone shares the retry map")
	}
}
