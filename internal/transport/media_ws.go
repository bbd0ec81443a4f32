package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/intakehq/voice-intake/internal/intake"
	"github.com/intakehq/voice-intake/internal/session"
	"github.com/intakehq/voice-intake/pkg/logging"
)

// MediaStreamServer terminates Twilio-style media stream websockets.
// Caller audio is forwarded to a realtime transcriber; each final
// transcript becomes one engine turn, and the engine's prompts are
// played back over the same stream.
type MediaStreamServer struct {
	engine         *intake.Engine
	sessions       session.Store
	newTranscriber TranscriberFactory
	speaker        Speaker
	logger         *logging.Logger
	upgrader       websocket.Upgrader
}

func NewMediaStreamServer(engine *intake.Engine, sessions session.Store, factory TranscriberFactory, speaker Speaker, logger *logging.Logger) *MediaStreamServer {
	if engine == nil {
		panic("transport: engine required")
	}
	if sessions == nil {
		panic("transport: session store required")
	}
	if factory == nil {
		panic("transport: transcriber factory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MediaStreamServer{
		engine:         engine,
		sessions:       sessions,
		newTranscriber: factory,
		speaker:        speaker,
		logger:         logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// streamEvent is the envelope for every inbound media stream frame.
type streamEvent struct {
	Event     string        `json:"event"`
	Protocol  string        `json:"protocol,omitempty"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *startPayload `json:"start,omitempty"`
	Media     *mediaPayload `json:"media,omitempty"`
	Mark      *markPayload  `json:"mark,omitempty"`
}

type startPayload struct {
	StreamSID        string            `json:"streamSid"`
	CallSID          string            `json:"callSid"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

type markPayload struct {
	Name string `json:"name"`
}

func (s *MediaStreamServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("media stream upgrade failed", "error", err)
		return
	}
	stream := &mediaStream{srv: s, conn: conn}
	stream.run(r.Context())
}

// mediaStream is the per-connection state. Engine turns are
// serialized by turnMu: a transcript arriving while the previous one
// is still being processed waits its turn.
type mediaStream struct {
	srv  *MediaStreamServer
	conn *websocket.Conn

	writeMu sync.Mutex
	turnMu  sync.Mutex

	streamSID   string
	callSID     string
	transcriber Transcriber
	logger      *logging.Logger
}

func (m *mediaStream) run(ctx context.Context) {
	m.logger = m.srv.logger
	defer m.cleanup()

	for {
		_, data, err := m.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.logger.Warn("media stream closed unexpectedly", "call_sid", m.callSID, "error", err)
			}
			return
		}
		var ev streamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			m.logger.Warn("unparseable media stream frame", "error", err)
			continue
		}

		switch ev.Event {
		case "connected":
			m.logger.Info("media stream connected", "protocol", ev.Protocol)
		case "start":
			m.handleStart(ctx, ev.Start)
		case "media":
			m.handleMedia(ev.Media)
		case "mark":
			if ev.Mark != nil {
				m.logger.Debug("playback finished", "call_sid", m.callSID, "mark", ev.Mark.Name)
			}
		case "stop":
			m.logger.Info("media stream stopped", "call_sid", m.callSID)
			return
		default:
			m.logger.Debug("ignoring media stream event", "event", ev.Event)
		}
	}
}

func (m *mediaStream) handleStart(ctx context.Context, start *startPayload) {
	if start == nil || start.CallSID == "" {
		m.logger.Error("start event missing call sid")
		return
	}
	m.streamSID = start.StreamSID
	m.callSID = start.CallSID
	m.logger = m.srv.logger.WithCall(start.CallSID)
	m.logger.Info("media stream started", "stream_sid", start.StreamSID)

	sess := intake.NewSession(start.CallSID, start.CustomParameters["from"])
	if err := m.srv.sessions.Save(ctx, sess); err != nil {
		m.logger.Error("session create failed", "error", err)
		return
	}

	transcriber, err := m.srv.newTranscriber()
	if err != nil {
		m.logger.Error("transcriber create failed", "error", err)
		return
	}
	// Transcripts arrive on the transcriber's goroutine; detach them
	// from the start frame's context.
	if err := transcriber.Start(ctx, func(text string) {
		m.handleTranscript(context.Background(), text)
	}); err != nil {
		m.logger.Error("transcriber start failed", "error", err)
		return
	}
	m.transcriber = transcriber

	m.speak(ctx, m.srv.engine.Greeting())
}

func (m *mediaStream) handleMedia(media *mediaPayload) {
	if media == nil || media.Payload == "" || m.transcriber == nil {
		return
	}
	audio, err := base64.StdEncoding.DecodeString(media.Payload)
	if err != nil {
		m.logger.Warn("undecodable media payload", "error", err)
		return
	}
	if err := m.transcriber.SendAudio(audio); err != nil {
		m.logger.Warn("audio forward failed", "error", err)
	}
}

func (m *mediaStream) handleTranscript(ctx context.Context, text string) {
	m.turnMu.Lock()
	defer m.turnMu.Unlock()

	m.logger.Info("caller said", "text", text)

	sess, err := m.srv.sessions.Load(ctx, m.callSID)
	if err != nil {
		m.logger.Error("session load failed", "error", err)
		return
	}

	out, next := m.srv.engine.Advance(ctx, sess, text)
	if out.EndCall {
		m.discardSession(ctx)
	} else if err := m.srv.sessions.Save(ctx, next); err != nil {
		m.logger.Error("session save failed", "error", err)
	}

	m.speak(ctx, out.Prompt)
	if out.EndCall {
		m.logger.Info("call ended", "confirmed", out.Confirmed)
		if m.transcriber != nil {
			_ = m.transcriber.Close()
		}
	}
}

// speak interrupts any playing audio and plays the prompt. Without a
// speaker the prompt is logged and only the completion mark is sent,
// which keeps the protocol exercised end to end in development.
func (m *mediaStream) speak(ctx context.Context, prompt string) {
	if prompt == "" {
		return
	}
	m.logger.Info("speaking", "prompt", prompt)

	m.send(map[string]any{"event": "clear", "streamSid": m.streamSID})

	if m.srv.speaker != nil {
		audio, err := m.srv.speaker.Synthesize(ctx, prompt)
		if err != nil {
			m.logger.Error("speech synthesis failed", "error", err)
		} else {
			m.send(map[string]any{
				"event":     "media",
				"streamSid": m.streamSID,
				"media": map[string]string{
					"payload": base64.StdEncoding.EncodeToString(audio),
				},
			})
		}
	}

	m.send(map[string]any{
		"event":     "mark",
		"streamSid": m.streamSID,
		"mark":      map[string]string{"name": "prompt_complete"},
	})
}

func (m *mediaStream) send(msg any) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.conn.WriteJSON(msg); err != nil {
		m.logger.Warn("media stream write failed", "error", err)
	}
}

// discardSession drops the per-call state. Deleting an already
// discarded session is a no-op, so the end-of-call turn and the
// disconnect path can both run it.
func (m *mediaStream) discardSession(ctx context.Context) {
	if m.callSID == "" {
		return
	}
	if err := m.srv.sessions.Delete(ctx, m.callSID); err != nil {
		m.logger.Error("session delete failed", "error", err)
	}
}

func (m *mediaStream) cleanup() {
	// A hang-up ends the session the same as a completed call.
	m.discardSession(context.Background())
	if m.transcriber != nil {
		_ = m.transcriber.Close()
	}
	_ = m.conn.Close()
}
