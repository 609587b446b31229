// Package pdr computes a permanent disability rating through a fixed chain
// of forced function calls on the chat completions API.
package pdr

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/prompts"
	"github.com/xaenox/legal-assistant/internal/provider"
)

//go:embed tools.json
var toolsJSON []byte

const (
	FuncExtract    = "extract_medical_info"
	FuncOccupation = "determine_occupation_group"
	FuncRating     = "calculate_rating"
	FuncFormat     = "format_rating_string"
)

type step struct {
	function string
	// progress is the assistant note appended once the step succeeded.
	progress string
	apply    func(result *models.AnalysisResult, section models.Section)
}

var steps = []step{
	{
		function: FuncExtract,
		progress: "Medical information extracted successfully. " + prompts.PDROccupation,
		apply:    func(r *models.AnalysisResult, s models.Section) { merge(r.ExtractedInfo, s) },
	},
	{
		function: FuncOccupation,
		progress: "Occupation group determined. " + prompts.PDRRating,
		apply:    func(r *models.AnalysisResult, s models.Section) { merge(r.OccupationInfo, s) },
	},
	{
		function: FuncRating,
		progress: "Ratings calculated. " + prompts.PDRFormat,
		apply:    func(r *models.AnalysisResult, s models.Section) { merge(r.RatingInfo, s) },
	},
	{
		function: FuncFormat,
		apply:    func(r *models.AnalysisResult, s models.Section) { merge(r.FormattedRating, s) },
	},
}

var errNoToolCall = errors.New("model did not call the requested function")

type Analyzer struct {
	client *openai.Client
	model  string
	tools  []openai.Tool
	logger *zap.Logger
}

func NewAnalyzer(client *openai.Client, model string, logger *zap.Logger) (*Analyzer, error) {
	var defs []openai.FunctionDefinition
	if err := json.Unmarshal(toolsJSON, &defs); err != nil {
		return nil, fmt.Errorf("error reading tool definitions: %w", err)
	}

	tools := make([]openai.Tool, len(defs))
	for i := range defs {
		tools[i] = openai.Tool{Type: openai.ToolTypeFunction, Function: &defs[i]}
	}

	return &Analyzer{
		client: client,
		model:  model,
		tools:  tools,
		logger: logger,
	}, nil
}

// Analyze runs the four rating steps in order. Each step sees the whole
// conversation so far, including earlier tool results. Any failing step
// fails the analysis.
func (a *Analyzer) Analyze(ctx context.Context, text, occupation, age string) (models.AnalysisResult, error) {
	result := models.NewAnalysisResult()
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompts.PDRSystem},
		{Role: openai.ChatMessageRoleUser, Content: prompts.PDRExtract(text, occupation, age)},
	}

	for _, s := range steps {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    a.tools,
			ToolChoice: openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: s.function},
			},
		})
		if err != nil {
			a.logger.Error("Rating step failed",
				zap.String("function", s.function),
				zap.Error(err))
			return models.AnalysisResult{}, provider.FromOpenAI(string(provider.OpenAI), err)
		}

		if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
			return models.AnalysisResult{}, provider.ContractError(string(provider.OpenAI),
				fmt.Errorf("%s: %w", s.function, errNoToolCall))
		}
		reply := resp.Choices[0].Message
		call := reply.ToolCalls[0]

		section, normalized, err := decodeArguments(call.Function.Arguments)
		if err != nil {
			return models.AnalysisResult{}, provider.ContractError(string(provider.OpenAI),
				fmt.Errorf("%s arguments: %w", s.function, err))
		}
		s.apply(&result, section)

		a.logger.Debug("Rating step completed",
			zap.String("function", s.function),
			zap.Int("fields", len(section)))

		messages = append(messages, reply, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: call.ID,
			Content:    normalized,
		})
		if s.progress != "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: s.progress,
			})
		}
	}

	return result, nil
}

// decodeArguments parses tool-call arguments, repairing malformed JSON,
// and returns them re-encoded for the tool message.
func decodeArguments(raw string) (models.Section, string, error) {
	var section models.Section
	if err := json.Unmarshal([]byte(raw), &section); err != nil || section == nil {
		repaired, rerr := jsonrepair.JSONRepair(raw)
		if rerr != nil {
			return nil, "", rerr
		}
		section = nil
		if err := json.Unmarshal([]byte(repaired), &section); err != nil {
			return nil, "", err
		}
		if section == nil {
			return nil, "", errors.New("arguments are not an object")
		}
	}

	normalized, err := json.Marshal(section)
	if err != nil {
		return nil, "", err
	}
	return section, string(normalized), nil
}

func merge(dst, src models.Section) {
	for k, v := range src {
		dst[k] = v
	}
}
