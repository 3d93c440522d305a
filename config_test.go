package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DEEPGRAM_API_KEY", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo" {
		t.Fatalf("expected default model, got %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxTokens != 100 {
		t.Fatalf("expected max tokens 100, got %d", cfg.OpenAI.MaxTokens)
	}
	if cfg.Conversation.MaxHistoryTurns != 0 {
		t.Fatalf("expected unbounded history by default")
	}
	if cfg.HasOpenAIKey() {
		t.Fatal("expected no key")
	}
}

func TestLoadConfigFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tutor.yaml")
	data := []byte(`
openai:
  model: gpt-4o-mini
  max_tokens: 64
deepgram:
  language: en-GB
conversation:
  max_history_turns: 10
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-live")
	t.Setenv("OPENAI_MAX_TOKENS", "80")
	t.Setenv("DEEPGRAM_MIN_CONFIDENCE", "0.6")
	t.Setenv("TUTOR_LISTEN_TIMEOUT_MS", "5000")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("expected model from file, got %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxTokens != 80 {
		t.Fatalf("expected env to override max tokens, got %d", cfg.OpenAI.MaxTokens)
	}
	if cfg.Deepgram.Language != "en-GB" {
		t.Fatalf("expected language from file, got %q", cfg.Deepgram.Language)
	}
	if cfg.Deepgram.MinConfidence != 0.6 {
		t.Fatalf("expected min confidence override, got %v", cfg.Deepgram.MinConfidence)
	}
	if cfg.Conversation.MaxHistoryTurns != 10 {
		t.Fatalf("expected history window from file")
	}
	if cfg.ListenTimeout().Milliseconds() != 5000 {
		t.Fatalf("expected listen timeout override, got %v", cfg.ListenTimeout())
	}
	if !cfg.HasOpenAIKey() {
		t.Fatal("expected key to be configured")
	}
}

func TestPlaceholderKeyIsUnset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpenAI.APIKey = apiKeyPlaceholder
	if cfg.HasOpenAIKey() {
		t.Fatal("placeholder must not count as a key")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("TUTOR_MAX_HISTORY_TURNS", "-1")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected validation error for negative history window")
	}
}

func TestLoadConfigRejectsEmptySystemPrompt(t *testing.T) {
	for _, prompt := range []string{`""`, `"   "`} {
		path := filepath.Join(t.TempDir(), "tutor.yaml")
		data := []byte("conversation:\n  system_prompt: " + prompt + "\n")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected validation error for system_prompt %s", prompt)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
