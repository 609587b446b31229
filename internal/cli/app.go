package cli

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/assistant"
	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/pdr"
	"github.com/xaenox/legal-assistant/internal/prompts"
	"github.com/xaenox/legal-assistant/internal/provider"
	"github.com/xaenox/legal-assistant/internal/storage"
	"github.com/xaenox/legal-assistant/internal/workflow"
	"github.com/xaenox/legal-assistant/pkg/config"
)

// app holds every collaborator built from the configuration.
type app struct {
	providers    provider.Registry
	orchestrator *assistant.Orchestrator
	backend      *assistant.OpenAIBackend
	analyzer     *pdr.Analyzer
	workflow     *workflow.Client
	jobs         storage.Storage
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{providers: provider.Registry{}}

	a.workflow = workflow.NewClient(workflow.Config{
		APIKey:        cfg.Workflow.APIKey,
		BaseURL:       cfg.Workflow.BaseURL,
		Version:       cfg.Workflow.Version,
		ChatAppID:     cfg.Workflow.ChatAppID,
		DocumentAppID: cfg.Workflow.DocumentAppID,
		ResearchAppID: cfg.Workflow.ResearchAppID,
		ReviewAppID:   cfg.Workflow.ReviewAppID,
		Timeout:       cfg.Workflow.Timeout,
	}, logger)
	a.providers[provider.Workflow] = a.workflow

	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey)
		a.providers[provider.OpenAI] = provider.NewOpenAIAdapter(client, cfg.OpenAI.ChatModel, logger)
		a.providers[provider.O1] = provider.NewO1Adapter(client, cfg.OpenAI.O1Model, logger)

		analyzer, err := pdr.NewAnalyzer(client, cfg.OpenAI.PDRModel, logger)
		if err != nil {
			return nil, err
		}
		a.analyzer = analyzer

		a.backend = assistant.NewOpenAIBackend(client, logger)
		if cfg.OpenAI.AssistantID != "" {
			files := make([]models.FileRef, 0, len(cfg.OpenAI.ReferenceFileIDs))
			for _, id := range cfg.OpenAI.ReferenceFileIDs {
				files = append(files, models.FileRef(id))
			}
			tools := models.ToolConfig{
				AssistantID:  cfg.OpenAI.AssistantID,
				Model:        cfg.OpenAI.AssistantModel,
				Instructions: prompts.AssistantInstructions,
				Tools:        []models.ToolType{models.ToolCodeInterpreter},
				Files:        files,
			}
			a.orchestrator = assistant.NewOrchestrator(a.backend, tools, assistant.Options{
				MaxAttempts:  cfg.Assistant.MaxAttempts,
				PollInterval: cfg.Assistant.PollInterval,
				RetryBackoff: cfg.Assistant.RetryBackoff,
			}, logger)
		} else {
			logger.Warn("OpenAI assistant id not set, assistant routes disabled")
		}
	} else {
		logger.Warn("OPENAI_API_KEY not set, OpenAI providers disabled")
	}

	if cfg.Anthropic.APIKey != "" {
		adapter, err := provider.NewAnthropicAdapter(provider.AnthropicConfig{
			APIKey:    cfg.Anthropic.APIKey,
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.providers[provider.Anthropic] = adapter
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, Anthropic provider disabled")
	}

	if cfg.Gemini.APIKey != "" {
		adapter, err := provider.NewGeminiAdapter(ctx, provider.GeminiConfig{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Gemini.Temperature,
			TopK:        cfg.Gemini.TopK,
			TopP:        cfg.Gemini.TopP,
			MaxTokens:   cfg.Gemini.MaxTokens,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.providers[provider.Gemini] = adapter
	} else {
		logger.Warn("GEMINI_API_KEY not set, Gemini provider disabled")
	}

	jobs, err := openJobs(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.jobs = jobs

	return a, nil
}

func openJobs(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory job journal")
		return storage.NewMemoryStorage(), nil
	}

	logger.Info("Using PostgreSQL job journal")
	store, err := storage.NewPostgresStorage(storage.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open job journal: %w", err)
	}
	return store, nil
}

func (a *app) Close() error {
	return a.jobs.Close()
}
