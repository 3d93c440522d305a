package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const deepgramListenURL = "wss://api.deepgram.com/v1/listen"

// Recognizer turns one spoken utterance into text. An empty transcript with
// a nil error means the speech was not understood.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

type captureFunc func(ctx context.Context, out chan<- []int16, dumpPath string) error

type DeepgramRecognizer struct {
	apiKey        string
	endpoint      string
	model         string
	language      string
	endpointingMS int
	minConfidence float64
	timeout       time.Duration
	dumpDir       string

	capture captureFunc
	dialer  *websocket.Dialer
}

func NewDeepgramRecognizer(cfg Config) *DeepgramRecognizer {
	return &DeepgramRecognizer{
		apiKey:        cfg.Deepgram.APIKey,
		endpoint:      deepgramListenURL,
		model:         cfg.Deepgram.STTModel,
		language:      cfg.Deepgram.Language,
		endpointingMS: cfg.Deepgram.EndpointingMS,
		minConfidence: cfg.Deepgram.MinConfidence,
		timeout:       cfg.ListenTimeout(),
		dumpDir:       cfg.Audio.DumpDir,
		capture:       CaptureMic,
		dialer:        websocket.DefaultDialer,
	}
}

type deepgramResponse struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal     bool `json:"is_final"`
	SpeechFinal bool `json:"speech_final"`
}

func (d *DeepgramRecognizer) listenURL() string {
	q := url.Values{}
	q.Set("model", d.model)
	q.Set("language", d.language)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	q.Set("channels", strconv.Itoa(channels))
	q.Set("endpointing", strconv.Itoa(d.endpointingMS))
	q.Set("punctuate", "true")
	return d.endpoint + "?" + q.Encode()
}

// Listen captures the mic until Deepgram reports the end of one utterance.
func (d *DeepgramRecognizer) Listen(ctx context.Context) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Token "+d.apiKey)

	log.Printf("[STT] connecting to Deepgram WebSocket: %s", d.endpoint)
	conn, resp, err := d.dialer.DialContext(ctx, d.listenURL(), header)
	if err != nil {
		return "", classifyDialError(resp, err)
	}
	defer func() {
		log.Println("[STT] closing Deepgram WebSocket")
		conn.Close()
	}()

	dumpPath := ""
	if d.dumpDir != "" {
		dumpPath = filepath.Join(d.dumpDir, "mic_input.raw")
	}

	frames := make(chan []int16, 32)
	captureErr := make(chan error, 1)
	go func() {
		captureErr <- d.capture(ctx, frames, dumpPath)
	}()

	// Writer: mic frames to Deepgram. Ends when capture closes frames.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		failed := false
		for frame := range frames {
			if failed {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.BinaryMessage, int16SliceToBytes(frame)); err != nil {
				log.Printf("[STT] deepgram write error: %v", err)
				failed = true
			}
		}
		if !failed {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
		}
	}()
	defer func() {
		cancel()
		<-writeDone
	}()

	results := make(chan deepgramResponse)
	readErr := make(chan error, 1)
	go func() {
		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			var r deepgramResponse
			if err := json.Unmarshal(msg, &r); err != nil {
				log.Printf("[STT] unable to parse message: %s", string(msg))
				continue
			}
			if r.Type != "" && r.Type != "Results" {
				continue
			}
			select {
			case results <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()
	noSpeech := timer.C

	var (
		parts   []string
		confSum float64
	)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case <-noSpeech:
			return "", &RecognitionError{Reason: ReasonNoSpeech}

		case err := <-captureErr:
			if err != nil {
				return "", &RecognitionError{Reason: ReasonAudioCapture, Err: err}
			}
			captureErr = nil

		case err := <-readErr:
			if len(parts) > 0 {
				return d.finish(parts, confSum), nil
			}
			return "", &RecognitionError{Reason: ReasonOther, Err: err}

		case r := <-results:
			if !r.IsFinal || len(r.Channel.Alternatives) == 0 {
				continue
			}
			alt := r.Channel.Alternatives[0]
			log.Printf("[STT] transcript from Deepgram: %q (speech_final=%v)", alt.Transcript, r.SpeechFinal)
			if text := strings.TrimSpace(alt.Transcript); text != "" {
				parts = append(parts, text)
				confSum += alt.Confidence
				noSpeech = nil
			}
			if r.SpeechFinal && len(parts) > 0 {
				return d.finish(parts, confSum), nil
			}
		}
	}
}

// finish joins the final segments, dropping the whole utterance when the
// mean confidence is too low.
func (d *DeepgramRecognizer) finish(parts []string, confSum float64) string {
	mean := confSum / float64(len(parts))
	if mean < d.minConfidence {
		log.Printf("[STT] discarding low-confidence utterance (%.2f < %.2f)", mean, d.minConfidence)
		return ""
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func classifyDialError(resp *http.Response, err error) error {
	if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return &RecognitionError{Reason: ReasonNotAllowed, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &RecognitionError{Reason: ReasonOther, Err: err}
}
