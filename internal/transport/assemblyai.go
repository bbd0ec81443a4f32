package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/intakehq/voice-intake/pkg/logging"
)

const assemblyAIRealtimeURL = "wss://api.assemblyai.com/v2/realtime/ws?sample_rate=16000"

// AssemblyAITranscriber streams audio to AssemblyAI's realtime
// endpoint and surfaces finalized transcripts.
type AssemblyAITranscriber struct {
	apiKey string
	url    string
	logger *logging.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

// NewAssemblyAITranscriber builds a transcriber for one call.
func NewAssemblyAITranscriber(apiKey string, logger *logging.Logger) *AssemblyAITranscriber {
	if logger == nil {
		logger = logging.Default()
	}
	return &AssemblyAITranscriber{
		apiKey: apiKey,
		url:    assemblyAIRealtimeURL,
		logger: logger,
	}
}

// NewAssemblyAIFactory returns a per-call factory.
func NewAssemblyAIFactory(apiKey string, logger *logging.Logger) TranscriberFactory {
	return func() (Transcriber, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("transport: assemblyai api key not configured")
		}
		return NewAssemblyAITranscriber(apiKey, logger), nil
	}
}

type realtimeMessage struct {
	MessageType string `json:"message_type"`
	Text        string `json:"text"`
	Error       string `json:"error,omitempty"`
}

func (t *AssemblyAITranscriber) Start(ctx context.Context, onFinal func(text string)) error {
	header := http.Header{"Authorization": []string{t.apiKey}}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, t.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("transport: assemblyai dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("transport: assemblyai dial: %w", err)
	}

	t.mu.Lock()
	t.conn = conn
	t.done = make(chan struct{})
	t.mu.Unlock()

	go t.receiveLoop(conn, onFinal)
	return nil
}

func (t *AssemblyAITranscriber) receiveLoop(conn *websocket.Conn, onFinal func(string)) {
	defer close(t.done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Warn("assemblyai stream closed unexpectedly", "error", err)
			}
			return
		}
		var msg realtimeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.logger.Warn("assemblyai sent unparseable message", "error", err)
			continue
		}
		if msg.Error != "" {
			t.logger.Error("assemblyai session error", "error", msg.Error)
			continue
		}
		if msg.MessageType == "FinalTranscript" && msg.Text != "" {
			onFinal(msg.Text)
		}
	}
}

func (t *AssemblyAITranscriber) SendAudio(audio []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return fmt.Errorf("transport: assemblyai session not started")
	}
	frame := map[string]string{
		"audio_data": base64.StdEncoding.EncodeToString(audio),
	}
	if err := t.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("transport: assemblyai send audio: %w", err)
	}
	return nil
}

func (t *AssemblyAITranscriber) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	// Best effort: ask the server to finalize before closing.
	_ = conn.WriteJSON(map[string]bool{"terminate_session": true})
	return conn.Close()
}

var _ Transcriber = (*AssemblyAITranscriber)(nil)
