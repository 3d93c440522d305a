package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeCapture emits silent frames until ctx is done.
func fakeCapture(ctx context.Context, out chan<- []int16, _ string) error {
	defer close(out)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			select {
			case out <- make([]int16, framesPerBuffer):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// newFakeDeepgram answers the first audio frame with the given messages.
func newFakeDeepgram(t *testing.T, messages ...string) *httptest.Server {
	t.Helper()
	return fakeDeepgram(t, false, messages...)
}

// newClosingDeepgram sends the messages and then drops the connection.
func newClosingDeepgram(t *testing.T, messages ...string) *httptest.Server {
	t.Helper()
	return fakeDeepgram(t, true, messages...)
}

func fakeDeepgram(t *testing.T, closeAfter bool, messages ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token dg-test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("encoding") != "linear16" || r.URL.Query().Get("sample_rate") != "16000" {
			http.Error(w, "bad audio params", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sent := false
		for {
			msgType, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.BinaryMessage && !sent {
				sent = true
				for _, m := range messages {
					if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
						return
					}
				}
				if closeAfter {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRecognizer(srv *httptest.Server, apiKey string) *DeepgramRecognizer {
	cfg := DefaultConfig()
	cfg.Deepgram.APIKey = apiKey
	cfg.Conversation.ListenTimeoutMS = 300
	r := NewDeepgramRecognizer(cfg)
	r.endpoint = "ws" + strings.TrimPrefix(srv.URL, "http")
	r.capture = fakeCapture
	return r
}

func TestDeepgramRecognizerTranscript(t *testing.T) {
	srv := newFakeDeepgram(t,
		`{"type":"Metadata"}`,
		`{"type":"Results","is_final":false,"speech_final":false,"channel":{"alternatives":[{"transcript":"I like","confidence":0.5}]}}`,
		`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"I like green tea.","confidence":0.9}]}}`,
		`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"Every morning.","confidence":0.95}]}}`,
	)

	text, err := testRecognizer(srv, "dg-test").Listen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "I like green tea. Every morning." {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestDeepgramRecognizerLowConfidence(t *testing.T) {
	srv := newFakeDeepgram(t,
		`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"mumble","confidence":0.1}]}}`,
	)

	text, err := testRecognizer(srv, "dg-test").Listen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Fatalf("expected low confidence speech to be dropped, got %q", text)
	}
}

func TestDeepgramRecognizerNoSpeech(t *testing.T) {
	srv := newFakeDeepgram(t,
		`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"","confidence":0}]}}`,
	)

	_, err := testRecognizer(srv, "dg-test").Listen(context.Background())
	var recErr *RecognitionError
	if !errors.As(err, &recErr) || recErr.Reason != ReasonNoSpeech {
		t.Fatalf("expected no-speech error, got %v", err)
	}
}

func TestDeepgramRecognizerConnectionClosedAfterSpeech(t *testing.T) {
	srv := newClosingDeepgram(t,
		`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"See you","confidence":0.9}]}}`,
		`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"tomorrow.","confidence":0.8}]}}`,
	)

	text, err := testRecognizer(srv, "dg-test").Listen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "See you tomorrow." {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestDeepgramRecognizerConnectionClosedBeforeSpeech(t *testing.T) {
	srv := newClosingDeepgram(t)

	_, err := testRecognizer(srv, "dg-test").Listen(context.Background())
	var recErr *RecognitionError
	if !errors.As(err, &recErr) || recErr.Reason != ReasonOther {
		t.Fatalf("expected other recognition error, got %v", err)
	}
}

func TestDeepgramRecognizerNotAllowed(t *testing.T) {
	srv := newFakeDeepgram(t)

	_, err := testRecognizer(srv, "wrong-key").Listen(context.Background())
	var recErr *RecognitionError
	if !errors.As(err, &recErr) || recErr.Reason != ReasonNotAllowed {
		t.Fatalf("expected not-allowed error, got %v", err)
	}
}

func TestDeepgramRecognizerAudioCapture(t *testing.T) {
	srv := newFakeDeepgram(t)
	r := testRecognizer(srv, "dg-test")
	r.capture = func(_ context.Context, out chan<- []int16, _ string) error {
		close(out)
		return errors.New("device unavailable")
	}

	_, err := r.Listen(context.Background())
	var recErr *RecognitionError
	if !errors.As(err, &recErr) || recErr.Reason != ReasonAudioCapture {
		t.Fatalf("expected audio-capture error, got %v", err)
	}
}

func TestRecognitionErrorMessages(t *testing.T) {
	cases := map[RecognitionReason]string{
		ReasonNoSpeech:     "Speech recognition error. No speech detected. Please try again.",
		ReasonAudioCapture: "Speech recognition error. Audio capture failed. Check microphone permissions.",
		ReasonNotAllowed:   "Speech recognition error. Microphone access denied. Please allow microphone access.",
		ReasonOther:        "Speech recognition error. Please try again.",
	}
	for reason, want := range cases {
		if got := (&RecognitionError{Reason: reason}).Message(); got != want {
			t.Errorf("%s: expected %q, got %q", reason, want, got)
		}
	}
}
