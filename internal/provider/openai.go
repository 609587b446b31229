package provider

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/prompts"
)

var errNoChoices = errors.New("completion returned no choices")

// OpenAIAdapter sends the report summary prompt as a single user message.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIAdapter(client *openai.Client, model string, logger *zap.Logger) *OpenAIAdapter {
	return &OpenAIAdapter{
		client: client,
		model:  model,
		logger: logger,
	}
}

func (a *OpenAIAdapter) Generate(ctx context.Context, message, userContext string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompts.ReportSummary(message, userContext),
			},
		},
	})
	if err != nil {
		a.logger.Error("OpenAI completion failed",
			zap.String("model", a.model),
			zap.Error(err))
		return "", FromOpenAI(string(OpenAI), err)
	}

	return firstChoice(string(OpenAI), resp)
}

// O1Adapter targets reasoning models: the rating context goes in an
// assistant message, and sampling stays at the defaults those models accept.
type O1Adapter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewO1Adapter(client *openai.Client, model string, logger *zap.Logger) *O1Adapter {
	return &O1Adapter{
		client: client,
		model:  model,
		logger: logger,
	}
}

func (a *O1Adapter) Generate(ctx context.Context, message, userContext string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleAssistant,
				Content: prompts.RatingContext(userContext),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: message,
			},
		},
		Temperature: 1,
	})
	if err != nil {
		a.logger.Error("O1 completion failed",
			zap.String("model", a.model),
			zap.Error(err))
		return "", FromOpenAI(string(O1), err)
	}

	return firstChoice(string(O1), resp)
}

func firstChoice(name string, resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", ContractError(name, errNoChoices)
	}
	return resp.Choices[0].Message.Content, nil
}
