package main

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing means the chat completion credential is unset.
	ErrConfigurationMissing = errors.New("OpenAI API key not configured")
	ErrEmptyReply           = errors.New("No response content from AI.")
	ErrUnsupported          = errors.New("capability not supported on this machine")
)

type RecognitionReason string

const (
	ReasonNoSpeech     RecognitionReason = "no-speech"
	ReasonAudioCapture RecognitionReason = "audio-capture"
	ReasonNotAllowed   RecognitionReason = "not-allowed"
	ReasonOther        RecognitionReason = "other"
)

type RecognitionError struct {
	Reason RecognitionReason
	Err    error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recognition %s: %v", e.Reason, e.Err)
	}
	return "recognition " + string(e.Reason)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Message is the fixed text shown to the user for the error's reason.
func (e *RecognitionError) Message() string {
	msg := "Speech recognition error. "
	switch e.Reason {
	case ReasonNoSpeech:
		return msg + "No speech detected. Please try again."
	case ReasonAudioCapture:
		return msg + "Audio capture failed. Check microphone permissions."
	case ReasonNotAllowed:
		return msg + "Microphone access denied. Please allow microphone access."
	default:
		return msg + "Please try again."
	}
}

// NetworkError covers non-2xx responses (StatusCode set) and transport
// failures (StatusCode zero).
type NetworkError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("Network error: %v", e.Err)
	}
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("API Error: %d %s", e.StatusCode, msg)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("speech synthesis: %v", e.Err) }

func (e *SynthesisError) Unwrap() error { return e.Err }
