package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	apiKeyPlaceholder = "YOUR_OPENAI_API_KEY_HERE"

	defaultSystemPrompt = "You are an AI English tutor. Your goal is to help the user practice their English conversation skills. " +
		"Keep your responses concise, friendly, and engaging. Ask follow-up questions to encourage the user to speak more. " +
		"Limit your responses to 1-2 sentences."
)

type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type DeepgramConfig struct {
	APIKey        string  `yaml:"api_key"`
	STTModel      string  `yaml:"stt_model"`
	TTSModel      string  `yaml:"tts_model"`
	Language      string  `yaml:"language"`
	EndpointingMS int     `yaml:"endpointing_ms"`
	MinConfidence float64 `yaml:"min_confidence"`
}

type ConversationConfig struct {
	SystemPrompt    string `yaml:"system_prompt"`
	MaxHistoryTurns int    `yaml:"max_history_turns"`
	ListenTimeoutMS int    `yaml:"listen_timeout_ms"`
}

type AudioConfig struct {
	DumpDir string `yaml:"dump_dir"`
}

type Config struct {
	OpenAI       OpenAIConfig       `yaml:"openai"`
	Deepgram     DeepgramConfig     `yaml:"deepgram"`
	Conversation ConversationConfig `yaml:"conversation"`
	Audio        AudioConfig        `yaml:"audio"`
}

func DefaultConfig() Config {
	return Config{
		OpenAI: OpenAIConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-3.5-turbo",
			MaxTokens: 100,
		},
		Deepgram: DeepgramConfig{
			STTModel:      "nova-2-general",
			TTSModel:      "aura-asteria-en",
			Language:      "en-US",
			EndpointingMS: 300,
			MinConfidence: 0.4,
		},
		Conversation: ConversationConfig{
			SystemPrompt:    defaultSystemPrompt,
			ListenTimeoutMS: 8000,
		},
	}
}

// LoadConfig reads .env, then the optional YAML file at path, then
// environment overrides.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// HasOpenAIKey reports whether a real credential was provided.
func (c Config) HasOpenAIKey() bool {
	k := strings.TrimSpace(c.OpenAI.APIKey)
	return k != "" && k != apiKeyPlaceholder
}

func (c Config) ListenTimeout() time.Duration {
	return time.Duration(c.Conversation.ListenTimeoutMS) * time.Millisecond
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	overrideString(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	overrideString(&cfg.OpenAI.Model, "OPENAI_MODEL")
	overrideInt(&cfg.OpenAI.MaxTokens, "OPENAI_MAX_TOKENS")
	overrideString(&cfg.Deepgram.APIKey, "DEEPGRAM_API_KEY")
	overrideString(&cfg.Deepgram.STTModel, "DEEPGRAM_STT_MODEL")
	overrideString(&cfg.Deepgram.TTSModel, "DEEPGRAM_TTS_MODEL")
	overrideString(&cfg.Deepgram.Language, "DEEPGRAM_LANGUAGE")
	overrideInt(&cfg.Deepgram.EndpointingMS, "DEEPGRAM_ENDPOINTING_MS")
	overrideFloat(&cfg.Deepgram.MinConfidence, "DEEPGRAM_MIN_CONFIDENCE")
	overrideString(&cfg.Conversation.SystemPrompt, "TUTOR_SYSTEM_PROMPT")
	overrideInt(&cfg.Conversation.MaxHistoryTurns, "TUTOR_MAX_HISTORY_TURNS")
	overrideInt(&cfg.Conversation.ListenTimeoutMS, "TUTOR_LISTEN_TIMEOUT_MS")
	overrideString(&cfg.Audio.DumpDir, "TUTOR_AUDIO_DUMP_DIR")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func (c Config) validate() error {
	if c.OpenAI.BaseURL == "" {
		return errors.New("openai.base_url must not be empty")
	}
	if c.OpenAI.Model == "" {
		return errors.New("openai.model must not be empty")
	}
	if c.OpenAI.MaxTokens <= 0 {
		return errors.New("openai.max_tokens must be positive")
	}
	if c.Deepgram.EndpointingMS <= 0 {
		return errors.New("deepgram.endpointing_ms must be positive")
	}
	if c.Deepgram.MinConfidence < 0 || c.Deepgram.MinConfidence > 1 {
		return errors.New("deepgram.min_confidence must be between 0 and 1")
	}
	if strings.TrimSpace(c.Conversation.SystemPrompt) == "" {
		return errors.New("conversation.system_prompt must not be empty")
	}
	if c.Conversation.MaxHistoryTurns < 0 {
		return errors.New("conversation.max_history_turns must be >= 0")
	}
	if c.Conversation.ListenTimeoutMS <= 0 {
		return errors.New("conversation.listen_timeout_ms must be positive")
	}
	return nil
}
