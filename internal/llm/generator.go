// Package llm wraps the text-generation backend and the "left: reason"
// response contract shared by the mood and playlist prompts.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// ErrBackendUnavailable is returned when the text-generation backend fails or
// returns nothing.
var ErrBackendUnavailable = errors.New("text generation backend unavailable")

// Generator submits a prompt and returns the generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatModel is the subset of an eino chat model used by ChatGenerator.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ChatGenerator adapts an eino chat model to Generator. Each prompt is sent
// as a single user message.
type ChatGenerator struct {
	model ChatModel
	name  string
}

// NewChatGenerator wraps an existing chat model.
func NewChatGenerator(m ChatModel, name string) *ChatGenerator {
	return &ChatGenerator{model: m, name: name}
}

// Config holds the Gemini model settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewGemini creates a ChatGenerator backed by a Gemini chat model.
func NewGemini(ctx context.Context, cfg Config) (*ChatGenerator, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini chat model: %w", err)
	}

	return NewChatGenerator(chatModel, cfg.Model), nil
}

// Generate implements Generator. Any model failure or an empty reply is
// reported as ErrBackendUnavailable.
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, g.name, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: %s: empty response", ErrBackendUnavailable, g.name)
	}
	return msg.Content, nil
}
