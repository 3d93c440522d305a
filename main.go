//go:build !android
// +build !android

package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
)

func main() {
	// Reads .env, the optional YAML file and the environment.
	cfg, err := LoadConfig(os.Getenv("TUTOR_CONFIG"))
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	audioOK := true
	if err := InitAudio(); err != nil {
		log.Printf("[Main] failed to init audio: %v", err)
		audioOK = false
	} else {
		defer ShutdownAudio()
	}

	if cfg.Audio.DumpDir != "" {
		if err := os.MkdirAll(cfg.Audio.DumpDir, 0o755); err != nil {
			log.Printf("[Main] cannot create audio dump dir: %v", err)
			cfg.Audio.DumpDir = ""
		}
	}

	ui := NewTerminalUI(os.Stdout)
	caps := DetectCapabilities(cfg, audioOK)
	for _, n := range caps.Notices() {
		ui.Notice(n)
	}
	if !cfg.HasOpenAIKey() {
		log.Println("[Main] OPENAI_API_KEY is not set; replies will report the missing key")
	}

	sessionID := uuid.NewString()
	log.Printf("[Main] session %s started (model=%s)", sessionID, cfg.OpenAI.Model)

	session := NewSession(
		sessionID,
		NewHistory(cfg.Conversation.SystemPrompt),
		caps,
		NewOpenAIResponder(cfg),
		ui,
		cfg.Conversation.MaxHistoryTurns,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		session.Run(ctx)
		log.Println("[Main] session stopped.")
	}()

	// Each line on stdin is one press of the talk trigger.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			session.Trigger()
		}
		log.Println("[Main] stdin closed")
		cancel()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	log.Println("[Main] Shutting down...")
	cancel()
	wg.Wait()
	log.Println("[Main] Shutdown complete.")
}
