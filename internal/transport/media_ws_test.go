package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/intakehq/voice-intake/internal/intake"
	"github.com/intakehq/voice-intake/internal/session"
)

type fakeSpeaker struct{}

func (fakeSpeaker) Synthesize(_ context.Context, text string) ([]byte, error) {
	return []byte("AUDIO:" + text), nil
}

func dialMediaStream(t *testing.T, speaker Speaker) (*websocket.Conn, session.Store) {
	t.Helper()
	engine, _ := newTestEngine()
	store := session.NewMemoryStore()
	srv := httptest.NewServer(NewMediaStreamServer(engine, store, NewTextFactory(), speaker, nil))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/media"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, store
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev map[string]any
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func startCall(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"event": "connected", "protocol": "Call"}); err != nil {
		t.Fatalf("write connected: %v", err)
	}
	err := conn.WriteJSON(map[string]any{
		"event": "start",
		"start": map[string]any{
			"streamSid":        "MZ123",
			"callSid":          "CA123",
			"customParameters": map[string]string{"from": "+15550001111"},
		},
	})
	if err != nil {
		t.Fatalf("write start: %v", err)
	}
}

func sendUtterance(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	err := conn.WriteJSON(map[string]any{
		"event": "media",
		"media": map[string]string{
			"payload": base64.StdEncoding.EncodeToString([]byte(text)),
		},
	})
	if err != nil {
		t.Fatalf("write media: %v", err)
	}
}

func TestMediaStreamGreetsOnStart(t *testing.T) {
	conn, store := dialMediaStream(t, nil)
	startCall(t, conn)

	// The greeting plays as a clear followed by a completion mark.
	if ev := readEvent(t, conn); ev["event"] != "clear" {
		t.Fatalf("first event = %v, want clear", ev["event"])
	}
	if ev := readEvent(t, conn); ev["event"] != "mark" {
		t.Fatalf("second event = %v, want mark", ev["event"])
	}

	sess, err := store.Load(context.Background(), "CA123")
	if err != nil {
		t.Fatalf("session not created: %v", err)
	}
	if sess.CurrentStep != intake.StepName || sess.CallerPhone != "+15550001111" {
		t.Errorf("session = %+v", sess)
	}
}

func TestMediaStreamAdvancesOnTranscript(t *testing.T) {
	conn, store := dialMediaStream(t, nil)
	startCall(t, conn)
	readEvent(t, conn) // greeting clear
	readEvent(t, conn) // greeting mark

	sendUtterance(t, conn, "Jane Doe")
	if ev := readEvent(t, conn); ev["event"] != "clear" {
		t.Fatalf("turn event = %v, want clear", ev["event"])
	}
	if ev := readEvent(t, conn); ev["event"] != "mark" {
		t.Fatalf("turn event = %v, want mark", ev["event"])
	}

	sess, err := store.Load(context.Background(), "CA123")
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess.CurrentStep != intake.StepInsurancePayer {
		t.Errorf("step = %s, want insurance_payer", sess.CurrentStep)
	}
	if sess.Collected.Name == nil || sess.Collected.Name.Full() != "Jane Doe" {
		t.Errorf("name not recorded: %+v", sess.Collected.Name)
	}
}

func TestMediaStreamSpeaksSynthesizedAudio(t *testing.T) {
	conn, _ := dialMediaStream(t, fakeSpeaker{})
	startCall(t, conn)

	readEvent(t, conn) // clear
	ev := readEvent(t, conn)
	if ev["event"] != "media" {
		t.Fatalf("event = %v, want media", ev["event"])
	}
	media, ok := ev["media"].(map[string]any)
	if !ok {
		t.Fatalf("media payload missing: %v", ev)
	}
	raw, err := base64.StdEncoding.DecodeString(media["payload"].(string))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !strings.HasPrefix(string(raw), "AUDIO:") {
		t.Errorf("payload = %q", raw)
	}
	if ev := readEvent(t, conn); ev["event"] != "mark" {
		t.Fatalf("event = %v, want mark", ev["event"])
	}
}

func TestMediaStreamFullCall(t *testing.T) {
	conn, store := dialMediaStream(t, fakeSpeaker{})
	startCall(t, conn)
	readEvent(t, conn) // greeting clear
	readEvent(t, conn) // greeting media
	readEvent(t, conn) // greeting mark

	var finalPrompt string
	for _, text := range conversationTurns {
		sendUtterance(t, conn, text)
		readEvent(t, conn) // clear
		media := readEvent(t, conn)
		readEvent(t, conn) // mark

		payload := media["media"].(map[string]any)["payload"].(string)
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			t.Fatalf("decode prompt audio: %v", err)
		}
		finalPrompt = strings.TrimPrefix(string(raw), "AUDIO:")
	}

	if !strings.Contains(finalPrompt, "all set") {
		t.Errorf("final prompt = %q, want confirmation", finalPrompt)
	}

	// The ended call leaves nothing behind in the session store.
	if _, err := store.Load(context.Background(), "CA123"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Load after call end = %v, want ErrNotFound", err)
	}

	if err := conn.WriteJSON(map[string]any{"event": "stop", "streamSid": "MZ123"}); err != nil {
		t.Fatalf("write stop: %v", err)
	}
}

func TestMediaStreamDiscardsSessionOnDisconnect(t *testing.T) {
	conn, store := dialMediaStream(t, nil)
	startCall(t, conn)
	readEvent(t, conn)
	readEvent(t, conn)

	if _, err := store.Load(context.Background(), "CA123"); err != nil {
		t.Fatalf("session not created: %v", err)
	}

	// Hang up mid-call. Cleanup runs on the server goroutine, so poll
	// briefly for the session to disappear.
	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := store.Load(context.Background(), "CA123")
		if errors.Is(err, session.ErrNotFound) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("session still stored after disconnect: err=%v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTextTranscriber(t *testing.T) {
	tr := NewTextTranscriber()
	if err := tr.SendAudio([]byte("hello")); err == nil {
		t.Error("send before start accepted")
	}

	var got []string
	if err := tr.Start(context.Background(), func(text string) { got = append(got, text) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = tr.SendAudio([]byte("  hello there  "))
	_ = tr.SendAudio([]byte("   "))
	if len(got) != 1 || got[0] != "hello there" {
		t.Errorf("transcripts = %v", got)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
