package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// TextTranscriber treats incoming audio bytes as UTF-8 text and
// finalizes each chunk immediately. It stands in for a realtime STT
// provider in development and tests.
type TextTranscriber struct {
	mu      sync.Mutex
	onFinal func(string)
	started bool
}

func NewTextTranscriber() *TextTranscriber {
	return &TextTranscriber{}
}

// NewTextFactory returns a factory producing TextTranscribers.
func NewTextFactory() TranscriberFactory {
	return func() (Transcriber, error) {
		return NewTextTranscriber(), nil
	}
}

func (t *TextTranscriber) Start(_ context.Context, onFinal func(text string)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFinal = onFinal
	t.started = true
	return nil
}

func (t *TextTranscriber) SendAudio(audio []byte) error {
	t.mu.Lock()
	onFinal := t.onFinal
	started := t.started
	t.mu.Unlock()
	if !started {
		return fmt.Errorf("transport: text transcriber not started")
	}
	text := strings.TrimSpace(string(audio))
	if text != "" && onFinal != nil {
		onFinal(text)
	}
	return nil
}

func (t *TextTranscriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	return nil
}

var _ Transcriber = (*TextTranscriber)(nil)
