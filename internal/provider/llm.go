package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/prompts"
)

// PromptFunc builds the user prompt from a message and its context.
type PromptFunc func(message, userContext string) string

// LLMAdapter serves any langchaingo model.
type LLMAdapter struct {
	name    Name
	llm     llms.Model
	system  string
	prompt  PromptFunc
	options []llms.CallOption
	logger  *zap.Logger
}

func NewLLMAdapter(name Name, llm llms.Model, system string, prompt PromptFunc, logger *zap.Logger, options ...llms.CallOption) *LLMAdapter {
	return &LLMAdapter{
		name:    name,
		llm:     llm,
		system:  system,
		prompt:  prompt,
		options: options,
		logger:  logger,
	}
}

type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// NewAnthropicAdapter analyzes reports with a system prompt, like the chat
// endpoint expects.
func NewAnthropicAdapter(cfg AnthropicConfig, logger *zap.Logger) (*LLMAdapter, error) {
	llm, err := anthropic.New(
		anthropic.WithToken(cfg.APIKey),
		anthropic.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create anthropic model: %w", err)
	}

	return NewLLMAdapter(Anthropic, llm, prompts.ReportAnalyzer, prompts.ReportSummary, logger,
		llms.WithMaxTokens(cfg.MaxTokens),
	), nil
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	TopK        int
	TopP        float64
	MaxTokens   int
}

func NewGeminiAdapter(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*LLMAdapter, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini model: %w", err)
	}

	return NewLLMAdapter(Gemini, llm, "", prompts.ReportSummary, logger,
		llms.WithTemperature(cfg.Temperature),
		llms.WithTopK(cfg.TopK),
		llms.WithTopP(cfg.TopP),
		llms.WithMaxTokens(cfg.MaxTokens),
	), nil
}

func (a *LLMAdapter) Generate(ctx context.Context, message, userContext string) (string, error) {
	var messages []llms.MessageContent
	if a.system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, a.system))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, a.prompt(message, userContext)))

	resp, err := a.llm.GenerateContent(ctx, messages, a.options...)
	if err != nil {
		a.logger.Error("Model call failed",
			zap.String("provider", string(a.name)),
			zap.Error(err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", &Error{Provider: string(a.name), Message: err.Error(), Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ContractError(string(a.name), fmt.Errorf("invalid response format from %s", a.name))
	}
	return resp.Choices[0].Content, nil
}
