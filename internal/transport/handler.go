package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/intakehq/voice-intake/internal/intake"
	"github.com/intakehq/voice-intake/internal/session"
	"github.com/intakehq/voice-intake/pkg/logging"
)

// IntakeHandler exposes the conversation over plain JSON for
// text-based callers, local development, and integration tests.
type IntakeHandler struct {
	engine   *intake.Engine
	sessions session.Store
	logger   *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewIntakeHandler(engine *intake.Engine, sessions session.Store, logger *logging.Logger) *IntakeHandler {
	if engine == nil {
		panic("transport: engine required")
	}
	if sessions == nil {
		panic("transport: session store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IntakeHandler{
		engine:   engine,
		sessions: sessions,
		logger:   logger,
		locks:    map[string]*sync.Mutex{},
	}
}

// callLock serializes turns per call SID. Concurrent turns for the
// same call would otherwise race on load-advance-save.
func (h *IntakeHandler) callLock(callSID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.locks[callSID]
	if !ok {
		lock = &sync.Mutex{}
		h.locks[callSID] = lock
	}
	return lock
}

func (h *IntakeHandler) releaseLock(callSID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.locks, callSID)
}

type startRequest struct {
	CallSID     string `json:"call_sid"`
	CallerPhone string `json:"caller_phone,omitempty"`
}

type turnRequest struct {
	CallSID string `json:"call_sid"`
	Text    string `json:"text"`
}

type turnResponse struct {
	Prompt    string `json:"prompt"`
	Step      string `json:"step"`
	Retry     bool   `json:"retry,omitempty"`
	EndCall   bool   `json:"end_call,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

// Start creates a session for the call and returns the greeting.
func (h *IntakeHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CallSID == "" {
		writeError(w, http.StatusBadRequest, "call_sid is required")
		return
	}

	sess := intake.NewSession(req.CallSID, req.CallerPhone)
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.logger.Error("session create failed", "call_sid", req.CallSID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not start session")
		return
	}

	h.logger.Info("intake started", "call_sid", req.CallSID)
	writeJSON(w, http.StatusCreated, turnResponse{
		Prompt: h.engine.Greeting(),
		Step:   string(sess.CurrentStep),
	})
}

// Turn advances the call one utterance.
func (h *IntakeHandler) Turn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CallSID == "" {
		writeError(w, http.StatusBadRequest, "call_sid is required")
		return
	}

	lock := h.callLock(req.CallSID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := h.sessions.Load(r.Context(), req.CallSID)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no session for call_sid")
		return
	}
	if err != nil {
		h.logger.Error("session load failed", "call_sid", req.CallSID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load session")
		return
	}

	out, next := h.engine.Advance(r.Context(), sess, req.Text)
	if out.EndCall {
		// The call is over either way; the session is discarded, not
		// kept around in a terminal state.
		if err := h.sessions.Delete(r.Context(), req.CallSID); err != nil {
			h.logger.Error("session delete failed", "call_sid", req.CallSID, "error", err)
		}
		h.releaseLock(req.CallSID)
	} else if err := h.sessions.Save(r.Context(), next); err != nil {
		h.logger.Error("session save failed", "call_sid", req.CallSID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save session")
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{
		Prompt:    out.Prompt,
		Step:      string(next.CurrentStep),
		Retry:     out.Retry,
		EndCall:   out.EndCall,
		Confirmed: out.Confirmed,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
