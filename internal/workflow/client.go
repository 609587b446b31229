// Package workflow talks to the hosted workflow platform whose released
// apps stream their output as newline-delimited JSON.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/provider"
	"github.com/xaenox/legal-assistant/internal/stream"
)

var ErrNotConfigured = errors.New("WORDWARE_API_KEY is not configured")

type Config struct {
	APIKey        string
	BaseURL       string
	Version       string
	ChatAppID     string
	DocumentAppID string
	ResearchAppID string
	ReviewAppID   string
	Timeout       time.Duration
}

type Client struct {
	httpClient *http.Client
	config     Config
	logger     *zap.Logger
}

func NewClient(config Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		logger:     logger,
	}
}

type runRequest struct {
	Inputs  map[string]any `json:"inputs"`
	Version string         `json:"version"`
}

// run starts a released app and returns its streaming body. The caller
// closes it.
func (c *Client) run(ctx context.Context, appID string, inputs map[string]any) (io.ReadCloser, error) {
	if c.config.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if appID == "" {
		return nil, fmt.Errorf("workflow app id not configured")
	}

	body, err := json.Marshal(runRequest{Inputs: inputs, Version: c.config.Version})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/released-app/%s/run", strings.TrimRight(c.config.BaseURL, "/"), appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, responseError(resp)
	}

	c.logger.Debug("Workflow app started",
		zap.String("app_id", appID),
		zap.Int("status", resp.StatusCode))
	return resp.Body, nil
}

func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	}
	_ = json.Unmarshal(raw, &payload)

	msg := payload.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &provider.Error{
		Provider: string(provider.Workflow),
		Status:   resp.StatusCode,
		Type:     payload.Type,
		Code:     payload.Code,
		Message:  "API request failed: " + msg,
	}
}

// consume feeds a run's body through the stream aggregator.
func (c *Client) consume(ctx context.Context, appID string, inputs map[string]any, handle stream.Handler) error {
	body, err := c.run(ctx, appID, inputs)
	if err != nil {
		return err
	}
	defer body.Close()

	return stream.NewAggregator(handle, c.logger).Consume(ctx, body)
}

// collect runs an app and returns all of its text output.
func (c *Client) collect(ctx context.Context, appID string, inputs map[string]any) (string, error) {
	var b strings.Builder
	err := c.consume(ctx, appID, inputs, stream.TextHandler(func(text string) error {
		b.WriteString(text)
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

// GenerateDocument streams the text of a generated legal document to onText
// as it arrives.
func (c *Client) GenerateDocument(ctx context.Context, req models.DocumentRequest, onText func(string) error) error {
	c.logger.Info("Generating legal document",
		zap.String("doc_name", req.DocName),
		zap.String("law", req.Law))

	return c.consume(ctx, c.config.DocumentAppID, map[string]any{
		"doc_name": req.DocName,
		"purpose":  req.Purpose,
		"law":      req.Law,
	}, stream.TextHandler(onText))
}

// ResearchCaseLaw streams each newly seen case to onResult and returns the
// deduplicated set once the upstream stream ends.
func (c *Client) ResearchCaseLaw(ctx context.Context, q models.ResearchQuery, onResult func(models.ResearchResult) error) ([]models.ResearchResult, error) {
	include := q.IncludeKeywords
	if include == "" {
		include = q.Query
	}

	set := stream.NewResultSet()
	err := c.consume(ctx, c.config.ResearchAppID, map[string]any{
		"Query":               q.Query,
		"Jurisdiction":        q.Jurisdiction,
		"Time Frame":          q.TimeFrame,
		"Sources":             q.Sources,
		"Keywords to include": include,
		"Keywords to exclude": q.ExcludeKeywords,
	}, stream.ResearchHandler(set, onResult))

	c.logger.Info("Case law research finished",
		zap.String("query", q.Query),
		zap.Int("results", set.Len()),
		zap.Error(err))
	return set.Results(), err
}

// ReviewDocument reviews document text on behalf of party.
func (c *Client) ReviewDocument(ctx context.Context, text, party string) (models.DocumentReview, error) {
	review, err := c.collect(ctx, c.config.ReviewAppID, map[string]any{
		"document": text,
		"party":    party,
	})
	if err != nil {
		return models.DocumentReview{}, err
	}
	return models.DocumentReview{Party: party, Review: review}, nil
}

// Generate lets the chat app serve as a provider adapter.
func (c *Client) Generate(ctx context.Context, message, userContext string) (string, error) {
	text, err := c.collect(ctx, c.config.ChatAppID, map[string]any{
		"message": message,
		"context": userContext,
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", provider.ContractError(string(provider.Workflow), errors.New("workflow returned no text"))
	}
	return text, nil
}
