// Package session persists intake conversation state between
// transport turns. Each call's state is stored whole under its call
// SID and expires when the call has clearly gone stale.
package session

import (
	"context"
	"errors"

	"github.com/intakehq/voice-intake/internal/intake"
)

// ErrNotFound is returned when no session exists for the call SID.
var ErrNotFound = errors.New("session: not found")

// Store persists one session per call SID.
type Store interface {
	// Save writes the full session state, resetting its TTL.
	Save(ctx context.Context, sess intake.Session) error
	// Load returns the session for the call SID or ErrNotFound.
	Load(ctx context.Context, callSID string) (intake.Session, error)
	// Delete removes the session once the call is over.
	Delete(ctx context.Context, callSID string) error
}
