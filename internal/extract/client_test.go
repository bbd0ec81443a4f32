package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/intakehq/voice-intake/internal/slots"
	"github.com/intakehq/voice-intake/internal/validate"
)

type fakeLLM struct {
	reply   string
	err     error
	lastReq LLMRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return LLMResponse{}, f.err
	}
	return LLMResponse{Text: f.reply}, nil
}

func TestNormalizeField(t *testing.T) {
	llm := &fakeLLM{reply: "rachel.taskale@gmail.com"}
	c := NewClient(llm, Options{}, nil)

	got, err := c.NormalizeField(context.Background(), validate.KindEmail, "my email is rachel taskale at gmail dot com")
	if err != nil {
		t.Fatalf("NormalizeField: %v", err)
	}
	if got != "rachel.taskale@gmail.com" {
		t.Errorf("got %q", got)
	}
	if len(llm.lastReq.System) == 0 {
		t.Error("system prompt not set")
	}
	if !strings.Contains(llm.lastReq.Messages[0].Content, "my email is rachel taskale") {
		t.Error("transcript not embedded in prompt")
	}
}

func TestNormalizeFieldUnknownKind(t *testing.T) {
	c := NewClient(&fakeLLM{}, Options{}, nil)
	if _, err := c.NormalizeField(context.Background(), validate.Kind("dob"), "x"); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestNormalizeFieldLLMError(t *testing.T) {
	boom := errors.New("rate limited")
	c := NewClient(&fakeLLM{err: boom}, Options{}, nil)
	if _, err := c.NormalizeField(context.Background(), validate.KindPhone, "x"); !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped llm error", err)
	}
}

func TestExtractAddress(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n{\"street\": \"1245 Hayes Street\", \"city\": \"\", \"state\": \"CA\", \"zip\": \"94117\", \"missing_fields\": [\"city\"]}\n```"}
	c := NewClient(llm, Options{}, nil)

	got, err := c.ExtractAddress(context.Background(), "twelve fourty five hayes street california 94117")
	if err != nil {
		t.Fatalf("ExtractAddress: %v", err)
	}
	if got.Street != "1245 Hayes Street" || got.Zip != "94117" {
		t.Errorf("fields wrong: %+v", got)
	}
	if len(got.Missing) != 1 || got.Missing[0] != "city" {
		t.Errorf("missing fields wrong: %v", got.Missing)
	}
}

func TestExtractAddressBadReply(t *testing.T) {
	c := NewClient(&fakeLLM{reply: "sorry, I can't help with that"}, Options{}, nil)
	if _, err := c.ExtractAddress(context.Background(), "x"); !errors.Is(err, ErrBadReply) {
		t.Errorf("got %v, want ErrBadReply", err)
	}
}

func TestExtractSchedule(t *testing.T) {
	llm := &fakeLLM{reply: `{"doctor_name": "john", "start": "2026-09-03T15:00:00", "end": "2026-09-03T15:30:00", "missing_fields": []}`}
	c := NewClient(llm, Options{}, nil)

	got, err := c.ExtractSchedule(context.Background(), "thursday at three with doctor john")
	if err != nil {
		t.Fatalf("ExtractSchedule: %v", err)
	}
	if got.DoctorName != "john" || got.Start != "2026-09-03T15:00:00" {
		t.Errorf("fields wrong: %+v", got)
	}
	if len(got.Missing) != 0 {
		t.Errorf("unexpected missing fields: %v", got.Missing)
	}
}

func TestNarrateOpenSlots(t *testing.T) {
	llm := &fakeLLM{reply: "Dr. John is free Thursday from 10 to 11 in the morning."}
	c := NewClient(llm, Options{OfficeOpenHour: 9, OfficeCloseHour: 17, WindowDays: 14}, nil)

	start := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	got, err := c.NarrateOpenSlots(context.Background(), []slots.Slot{{
		Doctor: "john", Date: "2026-09-03", Start: start, End: start.Add(time.Hour), Available: true,
	}})
	if err != nil {
		t.Fatalf("NarrateOpenSlots: %v", err)
	}
	if got == "" {
		t.Error("empty narration")
	}
	if !strings.Contains(llm.lastReq.Messages[0].Content, "10:00 AM") {
		t.Errorf("slot times not included in prompt: %s", llm.lastReq.Messages[0].Content)
	}
}

func TestNarrateOpenSlotsEmpty(t *testing.T) {
	c := NewClient(&fakeLLM{}, Options{}, nil)
	if _, err := c.NarrateOpenSlots(context.Background(), nil); err == nil {
		t.Error("empty inventory accepted")
	}
}
