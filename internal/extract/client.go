// Package extract is the language-model collaborator for the intake
// flow: it repairs raw speech transcripts into validator-ready text,
// pulls structured addresses and scheduling requests out of free
// text, and narrates open slots back into natural language.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/intakehq/voice-intake/internal/address"
	"github.com/intakehq/voice-intake/internal/schedule"
	"github.com/intakehq/voice-intake/internal/slots"
	"github.com/intakehq/voice-intake/internal/validate"
	"github.com/intakehq/voice-intake/pkg/logging"
)

// Options tune the prompts the client builds.
type Options struct {
	OfficeOpenHour  int
	OfficeCloseHour int
	WindowDays      int
}

// Client exposes every extraction the intake flow needs, backed by a
// single LLMClient.
type Client struct {
	llm    LLMClient
	opts   Options
	logger *logging.Logger
}

// NewClient constructs an extraction client.
func NewClient(llm LLMClient, opts Options, logger *logging.Logger) *Client {
	if llm == nil {
		panic("extract: llm client required")
	}
	if opts.OfficeOpenHour == 0 && opts.OfficeCloseHour == 0 {
		opts.OfficeOpenHour, opts.OfficeCloseHour = 9, 17
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 14
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{llm: llm, opts: opts, logger: logger}
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.llm.Complete(ctx, LLMRequest{
		System:      []string{systemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// NormalizeField repairs a raw transcript into the canonical text for
// the given field kind (spoken digits to numerals, "at"/"dot" to
// email punctuation, and so on). Shape checking stays with the
// validators; this only rewrites.
func (c *Client) NormalizeField(ctx context.Context, kind validate.Kind, transcript string) (string, error) {
	prompt, ok := fieldPrompts[kind]
	if !ok {
		return "", fmt.Errorf("extract: no prompt for field kind %q", kind)
	}
	text, err := c.complete(ctx, prompt+"\n\nTranscript: "+transcript)
	if err != nil {
		return "", fmt.Errorf("extract: normalize %s: %w", kind, err)
	}
	return text, nil
}

// ExtractAddress pulls structured address fields out of raw text,
// with an explicit list of the fields the model could not determine.
func (c *Client) ExtractAddress(ctx context.Context, raw string) (address.Parsed, error) {
	text, err := c.complete(ctx, addressPrompt+"\n\nTranscript: \""+raw+"\"")
	if err != nil {
		return address.Parsed{}, fmt.Errorf("extract: address: %w", err)
	}
	var parsed address.Parsed
	if err := unmarshalLoose(text, &parsed); err != nil {
		c.logger.Warn("address extraction reply unusable", "reply", text)
		return address.Parsed{}, err
	}
	return parsed, nil
}

// ExtractSchedule pulls a scheduling request out of free text.
func (c *Client) ExtractSchedule(ctx context.Context, utterance string) (schedule.Extraction, error) {
	today := time.Now().Format("Monday, January 2, 2006")
	prompt := schedulePrompt + "\n\nToday is " + today + ".\nMessage: \"" + utterance + "\""
	text, err := c.complete(ctx, prompt)
	if err != nil {
		return schedule.Extraction{}, fmt.Errorf("extract: schedule: %w", err)
	}
	var ext schedule.Extraction
	if err := unmarshalLoose(text, &ext); err != nil {
		c.logger.Warn("schedule extraction reply unusable", "reply", text)
		return schedule.Extraction{}, err
	}
	return ext, nil
}

// NarrateOpenSlots renders open inventory into a short spoken offer.
func (c *Client) NarrateOpenSlots(ctx context.Context, open []slots.Slot) (string, error) {
	if len(open) == 0 {
		return "", fmt.Errorf("extract: no open slots to narrate")
	}

	var b strings.Builder
	for _, s := range open {
		fmt.Fprintf(&b, "Dr. %s: %s from %s to %s\n",
			s.Doctor, s.Date, s.Start.Format("3:04 PM"), s.End.Format("3:04 PM"))
	}

	prompt := narratePrompt(c.opts.OfficeOpenHour, c.opts.OfficeCloseHour, c.opts.WindowDays) +
		"\n\nOpen slots:\n" + b.String()
	text, err := c.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("extract: narrate slots: %w", err)
	}
	if text == "" {
		return "", ErrBadReply
	}
	return text, nil
}

var (
	_ address.Extractor  = (*Client)(nil)
	_ schedule.Extractor = (*Client)(nil)
)
