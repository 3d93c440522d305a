package main

import (
	"context"
	"log"
)

// UnsupportedRecognizer stands in when speech input is unavailable.
type UnsupportedRecognizer struct{}

func (UnsupportedRecognizer) Listen(context.Context) (string, error) { return "", ErrUnsupported }

// UnsupportedSynthesizer stands in when speech output is unavailable.
type UnsupportedSynthesizer struct{}

func (UnsupportedSynthesizer) Speak(context.Context, string) error { return ErrUnsupported }

type Capabilities struct {
	Recognizer    Recognizer
	Synthesizer   Synthesizer
	RecognizerOK  bool
	SynthesizerOK bool
}

// Notices lists the blocking messages to show for missing capabilities.
func (c Capabilities) Notices() []string {
	var out []string
	if !c.RecognizerOK {
		out = append(out, "Sorry, speech recognition is not available. Check DEEPGRAM_API_KEY and your microphone.")
	}
	if !c.SynthesizerOK {
		out = append(out, "Sorry, speech synthesis is not available. Replies will be shown as text only.")
	}
	return out
}

// DetectCapabilities picks the available or unsupported variant of each
// speech component. audioOK reports whether InitAudio succeeded.
func DetectCapabilities(cfg Config, audioOK bool) Capabilities {
	caps := Capabilities{
		Recognizer:  UnsupportedRecognizer{},
		Synthesizer: UnsupportedSynthesizer{},
	}
	if cfg.Deepgram.APIKey == "" {
		log.Println("[Main] DEEPGRAM_API_KEY not set, speech features disabled")
		return caps
	}
	if !audioOK {
		return caps
	}
	if hasInputDevice() {
		caps.Recognizer = NewDeepgramRecognizer(cfg)
		caps.RecognizerOK = true
	} else {
		log.Println("[Audio] no default input device")
	}
	if hasOutputDevice() {
		caps.Synthesizer = NewDeepgramSynthesizer(cfg)
		caps.SynthesizerOK = true
	} else {
		log.Println("[Audio] no default output device")
	}
	return caps
}
