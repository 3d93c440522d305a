package main

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
)

const (
	labelStart       = "Start Talking"
	labelListening   = "Listening..."
	labelProcessing  = "Processing..."
	labelSpeaking    = "Speaking..."
	labelUnsupported = "Speech API Not Supported"

	statusIntro          = "Press Enter to begin your conversation."
	statusListening      = "Listening... Please speak clearly."
	statusNotUnderstood  = "Could not understand. Try speaking again."
	statusThinking       = "AI is thinking..."
	statusResponded      = "AI responded. Press Enter for your next turn."
	statusSpeakError     = "Error speaking response."
	configMissingMessage = "OpenAI API key not configured. Please set OPENAI_API_KEY in the environment or .env."
)

type (
	triggerEvent    struct{}
	recognizedEvent struct {
		text string
		err  error
	}
	repliedEvent struct {
		reply string
		err   error
	}
	spokenEvent struct {
		seq int
		err error
	}
)

// Session runs the turn-taking loop for one conversation. History, state and
// status are only changed by the goroutine running Run; Listen, Reply and
// Speak run in the background and report back through the event queue.
type Session struct {
	ID string

	history    *History
	recognizer Recognizer
	listenOK   bool
	responder  Responder
	voice      *Voice
	speakOK    bool
	ui         Reflector
	window     int

	events chan any
	done   chan struct{}

	// speechSeq identifies the latest utterance; completions of older ones
	// are ignored.
	speechSeq int

	mu     sync.Mutex
	state  ConversationState
	status string
}

func NewSession(id string, history *History, caps Capabilities, responder Responder, ui Reflector, maxHistoryTurns int) *Session {
	return &Session{
		ID:         id,
		history:    history,
		recognizer: caps.Recognizer,
		listenOK:   caps.RecognizerOK,
		responder:  responder,
		voice:      NewVoice(caps.Synthesizer),
		speakOK:    caps.SynthesizerOK,
		ui:         ui,
		window:     maxHistoryTurns,
		events:     make(chan any, 16),
		done:       make(chan struct{}),
		state:      StateIdle,
	}
}

// Trigger is the user action that starts a turn. It is ignored unless the
// session is idle.
func (s *Session) Trigger() {
	s.post(triggerEvent{})
}

// Run processes events until ctx is done.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	if s.listenOK {
		s.setState(StateIdle, labelStart, true, statusIntro)
	} else {
		s.setState(StateIdle, labelUnsupported, false, "")
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("[CONV] session %s stopping", s.ID)
			s.voice.Cancel()
			return
		case ev := <-s.events:
			s.handle(ctx, ev)
		}
	}
}

func (s *Session) State() ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Turns returns a snapshot of the conversation history.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Turns()
}

func (s *Session) post(ev any) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *Session) handle(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case triggerEvent:
		s.onTrigger(ctx)
	case recognizedEvent:
		s.onRecognized(ctx, ev)
	case repliedEvent:
		s.onReplied(ev)
	case spokenEvent:
		s.onSpoken(ev)
	}
}

func (s *Session) onTrigger(ctx context.Context) {
	if !s.listenOK {
		return
	}
	if st := s.State(); st != StateIdle {
		log.Printf("[CONV] trigger ignored while %s", st)
		return
	}

	// Talking over the tutor interrupts it.
	s.voice.Cancel()
	s.speechSeq++

	log.Println("[CONV] state → LISTENING")
	s.setState(StateListening, labelListening, false, statusListening)
	go func() {
		text, err := s.recognizer.Listen(ctx)
		s.post(recognizedEvent{text: text, err: err})
	}()
}

func (s *Session) onRecognized(ctx context.Context, ev recognizedEvent) {
	if s.State() != StateListening {
		return
	}

	if ev.err != nil {
		log.Printf("[STT] recognition error: %v", ev.err)
		var recErr *RecognitionError
		if !errors.As(ev.err, &recErr) {
			recErr = &RecognitionError{Reason: ReasonOther, Err: ev.err}
		}
		s.toIdle(recErr.Message())
		return
	}

	text := strings.TrimSpace(ev.text)
	if text == "" {
		s.toIdle(statusNotUnderstood)
		return
	}

	log.Printf("[CONV] user said: %q", text)
	s.ui.Append(RoleUser, text)
	s.mu.Lock()
	s.history.Append(RoleUser, text)
	turns := s.history.Window(s.window)
	s.mu.Unlock()
	s.setStatus(`You said: "` + text + `". Sending to AI...`)

	log.Println("[CONV] state → PROCESSING")
	s.setState(StateProcessing, labelProcessing, false, statusThinking)
	go func() {
		reply, err := s.responder.Reply(ctx, turns)
		s.post(repliedEvent{reply: reply, err: err})
	}()
}

func (s *Session) onReplied(ev repliedEvent) {
	if s.State() != StateProcessing {
		return
	}

	if ev.err != nil {
		log.Printf("[LLM] error: %v", ev.err)
		msg := configMissingMessage
		if !errors.Is(ev.err, ErrConfigurationMissing) {
			msg = "Error: " + strings.TrimSuffix(ev.err.Error(), ".") + ". Please try again."
		}
		s.ui.Append(RoleAssistant, msg)
		s.toIdle(msg)
		s.speak(msg)
		return
	}

	log.Printf("[LLM] Response  : %q", ev.reply)
	s.ui.Append(RoleAssistant, ev.reply)
	s.mu.Lock()
	s.history.Append(RoleAssistant, ev.reply)
	s.mu.Unlock()

	if !s.speakOK {
		s.toIdle(statusResponded)
		return
	}

	log.Println("[CONV] state → SPEAKING")
	s.setState(StateSpeaking, labelSpeaking, false, statusResponded)
	if !s.speak(ev.reply) {
		s.toIdle("")
	}
}

func (s *Session) onSpoken(ev spokenEvent) {
	if ev.seq != s.speechSeq {
		return
	}
	if ev.err != nil {
		s.setStatus(statusSpeakError)
	}
	if s.State() == StateSpeaking {
		log.Println("[TTS] finished playback.")
		s.toIdle("")
	}
}

// speak starts an utterance whose completion is reported as a spokenEvent.
func (s *Session) speak(text string) bool {
	if !s.speakOK {
		return false
	}
	s.speechSeq++
	seq := s.speechSeq
	return s.voice.Speak(text, func(err error) {
		s.post(spokenEvent{seq: seq, err: err})
	})
}

// toIdle re-enables the trigger. An empty status keeps the current one.
func (s *Session) toIdle(status string) {
	log.Println("[CONV] state → IDLE")
	s.setState(StateIdle, labelStart, true, status)
}

// setState updates the status before the state so the trigger is never
// enabled next to a stale status.
func (s *Session) setState(state ConversationState, label string, enabled bool, status string) {
	if status != "" {
		s.setStatus(status)
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.ui.SetTrigger(label, enabled)
}

func (s *Session) setStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()
	s.ui.Status(msg)
}
