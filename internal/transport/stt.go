// Package transport carries the intake conversation over the wire:
// a Twilio-style media stream websocket with realtime transcription,
// and a plain JSON API for text-based callers and tests.
package transport

import "context"

// Transcriber is a realtime speech-to-text session for one call.
// SendAudio may be called from the websocket read loop; final
// transcripts arrive on the callback from the transcriber's own
// goroutine.
type Transcriber interface {
	// Start opens the realtime session. onFinal fires once per
	// finalized utterance.
	Start(ctx context.Context, onFinal func(text string)) error
	// SendAudio streams one chunk of caller audio.
	SendAudio(audio []byte) error
	// Close terminates the session.
	Close() error
}

// TranscriberFactory builds a fresh Transcriber per call.
type TranscriberFactory func() (Transcriber, error)

// Speaker synthesizes a prompt into audio the telephony leg can
// play. Optional: without one, prompts are only logged and marked.
type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
