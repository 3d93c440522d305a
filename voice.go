package main

import (
	"context"
	"log"
	"strings"
	"sync"
)

// Voice plays at most one utterance at a time. A new Speak cancels the
// utterance in progress and waits for it to stop before starting.
type Voice struct {
	synth Synthesizer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewVoice(s Synthesizer) *Voice {
	return &Voice{synth: s}
}

// Speak starts text in the background and reports whether anything was
// started. finished runs once playback completes or fails; it is not called
// for an utterance that was cancelled or superseded.
func (v *Voice) Speak(text string, finished func(error)) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stopLocked() {
		log.Println("[TTS] speech already active, cancelled previous utterance")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	v.cancel, v.done = cancel, done

	go func() {
		err := v.synth.Speak(ctx, text)
		superseded := ctx.Err() != nil
		cancel()
		close(done)

		if superseded {
			return
		}
		if err != nil {
			log.Printf("[TTS] error: %v", err)
			err = &SynthesisError{Err: err}
		}
		if finished != nil {
			finished(err)
		}
	}()
	return true
}

// Cancel stops the current utterance, if any, and waits for it to end.
func (v *Voice) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stopLocked() {
		log.Println("[TTS] speech cancelled")
	}
}

func (v *Voice) Speaking() bool {
	v.mu.Lock()
	done := v.done
	v.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// stopLocked reports whether an utterance was still playing.
func (v *Voice) stopLocked() bool {
	if v.done == nil {
		return false
	}
	active := true
	select {
	case <-v.done:
		active = false
	default:
	}
	v.cancel()
	<-v.done
	v.cancel, v.done = nil, nil
	return active
}
