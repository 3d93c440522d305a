package main

import (
	"context"
	"errors"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Responder produces one assistant reply for the conversation so far.
type Responder interface {
	Reply(ctx context.Context, turns []Turn) (string, error)
}

type OpenAIResponder struct {
	client     *openai.Client
	configured bool
	model      string
	maxTokens  int
}

func NewOpenAIResponder(cfg Config) *OpenAIResponder {
	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.OpenAI.BaseURL, "/")
	return &OpenAIResponder{
		client:     openai.NewClientWithConfig(clientCfg),
		configured: cfg.HasOpenAIKey(),
		model:      cfg.OpenAI.Model,
		maxTokens:  cfg.OpenAI.MaxTokens,
	}
}

// Reply makes a single chat completion request. There is no retry.
func (l *OpenAIResponder) Reply(ctx context.Context, turns []Turn) (string, error) {
	if !l.configured {
		return "", ErrConfigurationMissing
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(t.Role), Content: t.Content})
	}

	resp, err := l.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:     l.model,
			Messages:  messages,
			MaxTokens: l.maxTokens,
		},
	)
	if err != nil {
		return "", toNetworkError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

func toNetworkError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		log.Printf("[LLM] API error: status=%d type=%s message=%q", apiErr.HTTPStatusCode, apiErr.Type, apiErr.Message)
		return &NetworkError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &NetworkError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &NetworkError{Err: err}
}
