package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

var ErrNoChoices = errors.New("model returned no choices")

// ModelConfig is built once at startup and shared read-only by every session.
type ModelConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type ChatMessage struct {
	Role    string // "system", "user" or "assistant"
	Name    string
	Content string
}

// ChatModel is the opaque request/response capability behind assistant participants.
type ChatModel interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

type ModelInfo struct {
	Id        string
	OwnedBy   string
	CreatedAt time.Time
}

// ModelCallError wraps any failure of the external model endpoint.
type ModelCallError struct {
	Status int // HTTP status when the endpoint answered, 0 otherwise
	Err    error
}

func (e *ModelCallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model call failed (status=%d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("model call failed: %v", e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

type AIService struct {
	cfg    ModelConfig
	client *openai.Client
}

func NewAIService(cfg ModelConfig) *AIService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &AIService{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}
}

func (s *AIService) Model() string { return s.cfg.Model }

func (s *AIService) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.MaxTokens,
		Messages:  make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Name:    m.Name,
			Content: m.Content,
		})
	}

	started := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", wrapModelError(err)
	}
	log.Debug().
		Str("model", s.cfg.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("took", time.Since(started)).
		Msg("chat completion")

	if len(resp.Choices) == 0 {
		return "", &ModelCallError{Err: ErrNoChoices}
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *AIService) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	list, err := s.client.ListModels(ctx)
	if err != nil {
		return nil, wrapModelError(err)
	}
	out := make([]ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, ModelInfo{
			Id:        m.ID,
			OwnedBy:   m.OwnedBy,
			CreatedAt: time.Unix(m.CreatedAt, 0).UTC(),
		})
	}
	return out, nil
}

func (s *AIService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

func wrapModelError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ModelCallError{Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ModelCallError{Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &ModelCallError{Err: err}
}
