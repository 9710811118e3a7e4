package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mockinterview/pkg/utils/logger"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	defaultModel       = "gpt-3.5-turbo"
	defaultTemperature = 0.7
	defaultTimeout     = 30 * time.Second
)

// ErrDisabled is returned when no usable API key is configured.
var ErrDisabled = errors.New("ai: openai api key not configured")

// ErrEmptyReply is returned when the completion carries no choices.
var ErrEmptyReply = errors.New("ai: empty completion")

// Config configures the chat completion backend.
type Config struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseURL"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Completer produces a single chat completion for a user prompt.
type Completer interface {
	Enabled() bool
	CompleteChat(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg    Config
	client *openai.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{cfg: cfg}
	if c.Enabled() {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		c.client = openai.NewClientWithConfig(oc)
	}
	return c
}

// Enabled reports whether a real key is configured. Template keys such as
// "sk-your-key" count as missing.
func (c *Client) Enabled() bool {
	key := strings.TrimSpace(c.cfg.APIKey)
	return key != "" && !strings.HasPrefix(key, "sk-your")
}

func (c *Client) CompleteChat(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.client == nil {
		return "", ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		logger.Warn(ctx, "chat completion failed",
			zap.String("model", c.cfg.Model),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	logger.Debug(ctx, "chat completion done",
		zap.String("model", c.cfg.Model),
		zap.Int("max_tokens", maxTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
