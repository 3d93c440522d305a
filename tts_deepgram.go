package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

const deepgramSpeakURL = "https://api.deepgram.com/v1/speak"

// Synthesizer speaks text aloud and blocks until playback ends or ctx is
// done.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

type DeepgramSynthesizer struct {
	apiKey   string
	endpoint string
	model    string
	dumpDir  string
	client   *http.Client
	play     func(ctx context.Context, pcm []byte) error
}

func NewDeepgramSynthesizer(cfg Config) *DeepgramSynthesizer {
	return &DeepgramSynthesizer{
		apiKey:   cfg.Deepgram.APIKey,
		endpoint: deepgramSpeakURL,
		model:    cfg.Deepgram.TTSModel,
		dumpDir:  cfg.Audio.DumpDir,
		client:   &http.Client{},
		play:     PlayPCM16,
	}
}

type deepgramTTSPayload struct {
	Text string `json:"text"`
}

func (t *DeepgramSynthesizer) speakURL() string {
	q := url.Values{}
	q.Set("model", t.model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	q.Set("container", "none")
	return t.endpoint + "?" + q.Encode()
}

// Speak fetches linear16 audio for text from Deepgram and plays it.
func (t *DeepgramSynthesizer) Speak(ctx context.Context, text string) error {
	bodyBytes, err := json.Marshal(deepgramTTSPayload{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.speakURL(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("deepgram TTS error: status %d: %s", resp.StatusCode, string(b))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	log.Printf("[TTS] received %d bytes of audio", len(audioData))

	if t.dumpDir != "" {
		path := filepath.Join(t.dumpDir, "tts_output.raw")
		if err := os.WriteFile(path, audioData, 0o644); err != nil {
			log.Printf("[TTS] error writing %s: %v", path, err)
		}
	}

	return t.play(ctx, audioData)
}
